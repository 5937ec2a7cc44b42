// Command extio-client builds as a cgo c-shared library that re-exports
// the ExtIO C ABI, backing every exported entry point with
// internal/clientsession's blocking facade over a TCP connection to an
// extio-server process instead of a local vendor library, per spec.md
// §1/§6.
//
// Grounded on original_source/net_client/exports.cpp for the exported
// symbol list and signatures, and on original_source/net_client/
// dll_main.cpp for the lazy-init-on-first-call / deinit-on-CloseHW
// lifecycle.
package main

/*
#include <string.h>
*/
import "C"

import (
	"fmt"
	"log"
	"os"
	"sync"
	"unsafe"

	"github.com/Meander-Cloud/extio-over-net/internal/clientsession"
	"github.com/Meander-Cloud/extio-over-net/internal/config"
)

const clientConfigEnvVar = "EXTIO_TCP_CLIENT_CONFIG"
const clientConfigDefaultPath = "extio_tcp_client.conf"

var (
	initMu  sync.Mutex
	sess    *clientsession.Session
	inited  bool
)

// ensureInit lazily constructs the package-level Session on first call
// into the shim, mirroring dll_main.cpp's DllInit-on-first-export idiom;
// the host SDR application dlopens this shim once and may call any
// export first, so there is no single designated entry point to
// initialize from.
func ensureInit() *clientsession.Session {
	initMu.Lock()
	defer initMu.Unlock()

	if inited {
		return sess
	}

	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	path := os.Getenv(clientConfigEnvVar)
	if path == "" {
		path = clientConfigDefaultPath
	}

	cc, err := config.LoadClientConfig(path)
	if err != nil {
		log.Printf("extio-client: failed to load config at path=%s, falling back to defaults, err=%s", path, err.Error())
		cc = config.DefaultClientConfig()
	}

	sess = clientsession.NewSession(&clientsession.Options{
		LogPrefix:  fmt.Sprintf("extio-client[%s:%d]", cc.ServerAddr, cc.ServerPort),
		ServerAddr: cc.ServerAddr,
		ServerPort: cc.ServerPort,
	})
	inited = true
	return sess
}

func cStringInto(dst *C.char, dstLen int, s string) {
	if dst == nil || dstLen <= 0 {
		return
	}
	b := []byte(s)
	if len(b) > dstLen-1 {
		b = b[:dstLen-1]
	}
	out := (*[1 << 20]byte)(unsafe.Pointer(dst))[:dstLen:dstLen]
	n := copy(out, b)
	out[n] = 0
}

//export InitHW
func InitHW(name *C.char, model *C.char, dataType *C.int) C.bool {
	s := ensureInit()
	ok, n, m, dt := s.InitHW()
	cStringInto(name, 64, n)
	cStringInto(model, 16, m)
	if dataType != nil {
		*dataType = C.int(dt)
	}
	return C.bool(ok)
}

//export OpenHW
func OpenHW() C.bool {
	s := ensureInit()
	return C.bool(s.OpenHW() >= 0)
}

//export StartHW
func StartHW(loFreq C.long) C.int {
	s := ensureInit()
	return C.int(s.StartHW(int64(loFreq)))
}

//export StopHW
func StopHW() {
	s := ensureInit()
	s.StopHW()
}

//export CloseHW
func CloseHW() {
	initMu.Lock()
	defer initMu.Unlock()
	if !inited {
		return
	}
	sess.CloseHW()
	sess.Stop()
	inited = false
	sess = nil
}

//export SetHWLO
func SetHWLO(loFreq C.long) C.int {
	s := ensureInit()
	return C.int(s.SetHWLOFacade(int64(loFreq)))
}

//export SetHWLO64
func SetHWLO64(loFreq C.longlong) C.longlong {
	s := ensureInit()
	return C.longlong(s.SetHWLO64Facade(int64(loFreq)))
}

//export GetHWSR
func GetHWSR() C.long {
	s := ensureInit()
	return C.long(int64(s.GetHWSR()))
}

//export SetCallback
func SetCallback(fn unsafe.Pointer) {
	s := ensureInit()
	if fn == nil {
		s.SetCallback(nil)
		return
	}
	s.SetCallback(nativeCallback(fn))
}

//export VersionInfo
func VersionInfo(progname *C.char, verMajor C.int, verMinor C.int) {
	s := ensureInit()
	name := ""
	if progname != nil {
		name = C.GoString(progname)
	}
	_ = name
	_, _, _ = s.VersionInfo()
}

//export GetAttenuators
func GetAttenuators(attenIdx C.int, attenuation *C.float) C.int {
	s := ensureInit()
	value, result := s.GetAttenuators(int32(attenIdx))
	if attenuation != nil {
		*attenuation = C.float(value)
	}
	return C.int(result)
}

//export GetActualAttIdx
func GetActualAttIdx() C.int {
	s := ensureInit()
	return C.int(s.GetActualAttIdx())
}

//export ExtIoGetAGCs
func ExtIoGetAGCs(agcIdx C.int, text *C.char) C.int {
	s := ensureInit()
	name, result := s.ExtIoGetAGCs(int32(agcIdx))
	cStringInto(text, 17, name)
	return C.int(result)
}

//export ExtIoGetActualAGCidx
func ExtIoGetActualAGCidx() C.int {
	s := ensureInit()
	return C.int(s.ExtIoGetActualAGCidx())
}

//export ExtIoShowMGC
func ExtIoShowMGC(agcIdx C.int) C.int {
	s := ensureInit()
	return C.int(s.ExtIoShowMGC(int32(agcIdx)))
}

//export ExtIoGetMGCs
func ExtIoGetMGCs(mgcIdx C.int, gain *C.float) C.int {
	s := ensureInit()
	g, result := s.ExtIoGetMGCs(int32(mgcIdx))
	if gain != nil {
		*gain = C.float(g)
	}
	return C.int(result)
}

//export ExtIoGetActualMgcIdx
func ExtIoGetActualMgcIdx() C.int {
	s := ensureInit()
	return C.int(s.ExtIoGetActualMgcIdx())
}

//export ExtIoGetSrates
func ExtIoGetSrates(srateIdx C.int, samplerate *C.double) C.int {
	s := ensureInit()
	sr, result := s.ExtIoGetSrates(int32(srateIdx))
	if samplerate != nil {
		*samplerate = C.double(sr)
	}
	return C.int(result)
}

//export ExtIoGetActualSrateIdx
func ExtIoGetActualSrateIdx() C.int {
	s := ensureInit()
	return C.int(s.ExtIoGetActualSrateIdx())
}

//export ExtIoSetSrate
func ExtIoSetSrate(srateIdx C.int) C.int {
	s := ensureInit()
	return C.int(s.ExtIoSetSrate(int32(srateIdx)))
}

//export ExtIoGetBandwidth
func ExtIoGetBandwidth(srateIdx C.int) C.long {
	s := ensureInit()
	_ = srateIdx
	return C.long(int64(s.ExtIoGetBandwidth()))
}

//export ShowGUI
func ShowGUI() {
	s := ensureInit()
	s.ShowGUI()
}

//export HideGUI
func HideGUI() {
	s := ensureInit()
	s.HideGUI()
}

//export SwitchGUI
func SwitchGUI() {
	s := ensureInit()
	s.SwitchGUI()
}

func main() {}
