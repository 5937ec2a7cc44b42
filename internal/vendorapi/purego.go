//go:build !windows

// Package vendorapi: the concrete loader. Resolves the vendor shared
// library's symbols at runtime with github.com/ebitengine/purego rather
// than cgo, so the server binary stays a plain Go build with no vendor
// headers compiled in — the vendor library is discovered purely by path
// at startup, per spec.md §6's `--extio_path` CLI flag.
//
// No pack example loads a C ABI dynamically; purego is named here as an
// out-of-pack ecosystem choice for exactly this concern (see DESIGN.md).
package vendorapi

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const stringBufferLen = 256

// dllBinding implements Binding against symbols resolved from one opened
// shared library handle.
type dllBinding struct {
	handle uintptr

	mu sync.Mutex
	cb Callback

	fnInitHW      func(name, model unsafe.Pointer, dataType *int32) int32
	fnOpenHW      func() int32
	fnCloseHW     func()
	fnStartHW     func(loFreq int64) int32
	fnStopHW      func() int32
	fnSetHWLO     func(loFreq int64) int32
	fnSetHWLO64   func(loFreq int64) int32
	fnGetHWSR     func() float64
	fnSetCallback func(cb uintptr)

	fnVersionInfo    func(sdrName unsafe.Pointer, ver, revision *int32) int32
	fnGetAttenuators func(idx int32, value *float32) int32
	fnGetActualAttIdx func() int32
	fnExtIoShowMGC   func(agcIdx int32) int32

	fnShowGUI   func() int32
	fnHideGUI   func() int32
	fnSwitchGUI func() int32

	fnExtIoGetAGCs          func(idx int32, name unsafe.Pointer) int32
	fnExtIoGetActualAGCidx  func() int32
	fnExtIoGetMGCs          func(idx int32, gain *float32) int32
	fnExtIoGetActualMgcIdx  func() int32
	fnExtIoGetSrates        func(idx int32, samplerate *float64) int32
	fnExtIoGetActualSrateIdx func() int32
	fnExtIoSetSrate         func(idx int32) int32
	fnExtIoGetBandwidth     func() float64

	hasSetHWLO64     bool
	hasVersionInfo   bool
	hasAttenuators   bool
	hasGUI           bool
	hasAGC           bool
	hasMGC           bool
	hasSrates        bool
	hasBandwidth     bool

	dataType       int32
	nativeCallback uintptr
}

// Load opens path and resolves every ExtIO entry point it can find.
// InitHW, CloseHW, OpenHW, StartHW, StopHW, SetHWLO, GetHWSR and
// SetCallback must resolve (they are registered unconditionally); every
// other symbol is best-effort, recorded in the has* flags so the Binding
// can report errorcode.NotImplemented for entry points the vendor did not
// export.
func Load(path string) (Binding, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("vendorapi: dlopen failed for path=%s, err=%w", path, err)
	}

	b := &dllBinding{handle: handle}

	mustRegister(handle, "InitHW", &b.fnInitHW)
	mustRegister(handle, "CloseHW", &b.fnCloseHW)
	mustRegister(handle, "OpenHW", &b.fnOpenHW)
	mustRegister(handle, "StartHW", &b.fnStartHW)
	mustRegister(handle, "StopHW", &b.fnStopHW)
	mustRegister(handle, "SetHWLO", &b.fnSetHWLO)
	mustRegister(handle, "GetHWSR", &b.fnGetHWSR)
	mustRegister(handle, "SetCallback", &b.fnSetCallback)

	b.hasSetHWLO64 = tryRegister(handle, "SetHWLO64", &b.fnSetHWLO64)
	b.hasVersionInfo = tryRegister(handle, "VersionInfo", &b.fnVersionInfo)
	b.hasAttenuators = tryRegister(handle, "GetAttenuators", &b.fnGetAttenuators) &&
		tryRegister(handle, "GetActualAttIdx", &b.fnGetActualAttIdx)
	b.hasGUI = tryRegister(handle, "ShowGUI", &b.fnShowGUI) &&
		tryRegister(handle, "HideGUI", &b.fnHideGUI) &&
		tryRegister(handle, "SwitchGUI", &b.fnSwitchGUI)
	b.hasAGC = tryRegister(handle, "ExtIoGetAGCs", &b.fnExtIoGetAGCs) &&
		tryRegister(handle, "ExtIoGetActualAGCidx", &b.fnExtIoGetActualAGCidx)
	b.hasMGC = tryRegister(handle, "ExtIoShowMGC", &b.fnExtIoShowMGC) &&
		tryRegister(handle, "ExtIoGetMGCs", &b.fnExtIoGetMGCs) &&
		tryRegister(handle, "ExtIoGetActualMgcIdx", &b.fnExtIoGetActualMgcIdx)
	b.hasSrates = tryRegister(handle, "ExtIoGetSrates", &b.fnExtIoGetSrates) &&
		tryRegister(handle, "ExtIoGetActualSrateIdx", &b.fnExtIoGetActualSrateIdx) &&
		tryRegister(handle, "ExtIoSetSrate", &b.fnExtIoSetSrate)
	b.hasBandwidth = tryRegister(handle, "ExtIoGetBandwidth", &b.fnExtIoGetBandwidth)

	return b, nil
}

func mustRegister[T any](handle uintptr, name string, fptr *T) {
	purego.RegisterLibFunc(fptr, handle, name)
}

func tryRegister[T any](handle uintptr, name string, fptr *T) bool {
	sym, err := purego.Dlsym(handle, name)
	if err != nil || sym == 0 {
		return false
	}
	purego.RegisterLibFunc(fptr, handle, name)
	return true
}

func readCString(buf []byte) string {
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func (b *dllBinding) InitHW() (bool, string, string, int32) {
	nameBuf := make([]byte, stringBufferLen)
	modelBuf := make([]byte, stringBufferLen)
	var dataType int32

	result := b.fnInitHW(unsafe.Pointer(&nameBuf[0]), unsafe.Pointer(&modelBuf[0]), &dataType)
	b.dataType = dataType
	return result != 0, readCString(nameBuf), readCString(modelBuf), dataType
}

func (b *dllBinding) OpenHW() (int32, bool) {
	return b.fnOpenHW(), true
}

func (b *dllBinding) CloseHW(openHWSucceeded bool) {
	if openHWSucceeded {
		b.fnCloseHW()
	}
}

func (b *dllBinding) StartHW(loFreq int64) (int32, bool) {
	return b.fnStartHW(loFreq), true
}

func (b *dllBinding) StopHW() (int32, bool) {
	return b.fnStopHW(), true
}

func (b *dllBinding) SetHWLO(loFreq int64) (int32, bool) {
	return b.fnSetHWLO(loFreq), true
}

func (b *dllBinding) SetHWLO64(loFreq int64) (int32, bool) {
	if !b.hasSetHWLO64 {
		return 0, false
	}
	return b.fnSetHWLO64(loFreq), true
}

func (b *dllBinding) GetHWSR() (float64, bool) {
	return b.fnGetHWSR(), true
}

// SetCallback builds a C-callable trampoline for invokeNativeCallback the
// first time it is called, then hands the resolved fnSetCallback that
// pointer, exactly as original_source/tcp_server/session.cpp:419's
// `_dll->SetCallback(staticCb)` registers one process-wide static
// function with the vendor library.
func (b *dllBinding) SetCallback(cb Callback) bool {
	b.mu.Lock()
	b.cb = cb
	b.mu.Unlock()

	if b.nativeCallback == 0 {
		b.nativeCallback = purego.NewCallback(func(cnt int32, status int32, iqOffs float32, iqData uintptr) {
			b.invokeNativeCallback(cnt, status, iqOffs, iqData)
		})
	}
	b.fnSetCallback(b.nativeCallback)
	return true
}

func (b *dllBinding) VersionInfo() (string, int32, int32, bool) {
	if !b.hasVersionInfo {
		return "", 0, 0, false
	}
	nameBuf := make([]byte, stringBufferLen)
	var ver, revision int32
	b.fnVersionInfo(unsafe.Pointer(&nameBuf[0]), &ver, &revision)
	return readCString(nameBuf), ver, revision, true
}

func (b *dllBinding) GetAttenuators(idx int32) (float32, int32, bool) {
	if !b.hasAttenuators {
		return 0, 0, false
	}
	var value float32
	result := b.fnGetAttenuators(idx, &value)
	return value, result, true
}

func (b *dllBinding) GetActualAttIdx() (int32, bool) {
	if !b.hasAttenuators {
		return 0, false
	}
	return b.fnGetActualAttIdx(), true
}

func (b *dllBinding) ExtIoShowMGC(agcIdx int32) (int32, bool) {
	if !b.hasMGC {
		return 0, false
	}
	return b.fnExtIoShowMGC(agcIdx), true
}

func (b *dllBinding) ShowGUI() bool {
	if !b.hasGUI {
		return false
	}
	return b.fnShowGUI() != 0
}

func (b *dllBinding) HideGUI() bool {
	if !b.hasGUI {
		return false
	}
	return b.fnHideGUI() != 0
}

func (b *dllBinding) SwitchGUI() bool {
	if !b.hasGUI {
		return false
	}
	return b.fnSwitchGUI() != 0
}

func (b *dllBinding) ExtIoGetAGCs(idx int32) (string, int32, bool) {
	if !b.hasAGC {
		return "", 0, false
	}
	nameBuf := make([]byte, stringBufferLen)
	result := b.fnExtIoGetAGCs(idx, unsafe.Pointer(&nameBuf[0]))
	return readCString(nameBuf), result, true
}

func (b *dllBinding) ExtIoGetActualAGCidx() (int32, bool) {
	if !b.hasAGC {
		return 0, false
	}
	return b.fnExtIoGetActualAGCidx(), true
}

func (b *dllBinding) ExtIoGetMGCs(idx int32) (float32, int32, bool) {
	if !b.hasMGC {
		return 0, 0, false
	}
	var gain float32
	result := b.fnExtIoGetMGCs(idx, &gain)
	return gain, result, true
}

func (b *dllBinding) ExtIoGetActualMgcIdx() (int32, bool) {
	if !b.hasMGC {
		return 0, false
	}
	return b.fnExtIoGetActualMgcIdx(), true
}

func (b *dllBinding) ExtIoGetSrates(idx int32) (float64, int32, bool) {
	if !b.hasSrates {
		return 0, 0, false
	}
	var samplerate float64
	result := b.fnExtIoGetSrates(idx, &samplerate)
	return samplerate, result, true
}

func (b *dllBinding) ExtIoGetActualSrateIdx() (int32, bool) {
	if !b.hasSrates {
		return 0, false
	}
	return b.fnExtIoGetActualSrateIdx(), true
}

func (b *dllBinding) ExtIoSetSrate(idx int32) (int32, bool) {
	if !b.hasSrates {
		return 0, false
	}
	return b.fnExtIoSetSrate(idx), true
}

func (b *dllBinding) ExtIoGetBandwidth() (float64, int32, bool) {
	if !b.hasBandwidth {
		return 0, 0, false
	}
	return b.fnExtIoGetBandwidth(), 0, true
}

func (b *dllBinding) Close() error {
	if b.handle == 0 {
		return nil
	}
	if err := purego.Dlclose(b.handle); err != nil {
		return fmt.Errorf("vendorapi: dlclose failed, err=%w", err)
	}
	b.handle = 0
	return nil
}

// invokeNativeCallback is the Go side of the purego.NewCallback trampoline
// built in SetCallback: the vendor library calls that generated C function
// pointer directly from its own sampling thread, which lands here. iqData
// is a raw native pointer valid only for the duration of this call, so it
// is copied into a Go-owned slice before being handed to the session's
// Callback — cnt*SampleSize(dataType) bytes, per spec.md §4.2.
func (b *dllBinding) invokeNativeCallback(cnt int32, status int32, iqOffs float32, iqData uintptr) {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()
	if cb == nil {
		return
	}

	var data []byte
	if cnt > 0 && iqData != 0 {
		n := int(cnt) * int(SampleSize(b.dataType))
		data = make([]byte, n)
		copy(data, unsafe.Slice((*byte)(unsafe.Pointer(iqData)), n))
	}
	cb(cnt, status, iqOffs, data)
}
