// Package serversession implements the Server Session: one per accepted
// socket, dispatching inbound requests to the vendor library and
// streaming IQ samples back unsolicited, per spec.md §4.5.
//
// Grounded on original_source/tcp_server/session.cpp's Session class
// (AliveInstance + HW_cache + message-pump-bound OpenHW) and on
// go-elect's election/handler.go for the switch-on-populated-field
// request dispatch idiom.
package serversession

import (
	"log"
	"net"

	"github.com/Meander-Cloud/extio-over-net/internal/alive"
	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/dialog"
	"github.com/Meander-Cloud/extio-over-net/internal/errorcode"
	"github.com/Meander-Cloud/extio-over-net/internal/msgpump"
	"github.com/Meander-Cloud/extio-over-net/internal/vendorapi"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

type State uint8

const (
	StateAccepted State = iota
	StateAwaitHello
	StateAwaitLoadExtIOApi
	StateReady
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "Accepted"
	case StateAwaitHello:
		return "AwaitHello"
	case StateAwaitLoadExtIOApi:
		return "AwaitLoadExtIOApi"
	case StateReady:
		return "Ready"
	case StateStopped:
		return "Stopped"
	default:
		return "UnknownState"
	}
}

const serverName = "ExtIO_TCP_server"
const wireProtocolVersion = 1

// LoadFunc opens the vendor shared library at path. Abstracted so tests
// can substitute a fake binding without touching a real .so/.dll.
type LoadFunc func(path string) (vendorapi.Binding, error)

type Options struct {
	LogPrefix string
	ExtIOPath string
	Load      LoadFunc
	// OnClosed is invoked at most once, on the session strand from
	// teardown, when the session has fully torn down, so the Acceptor can
	// drop its weak reference.
	OnClosed func(*Session)
}

// Session owns one accepted connection end to end.
type Session struct {
	options *Options
	ar      *arbiter.Arbiter
	ch      *packet.Channel
	parser  *dialog.Parser
	pump    msgpump.Pump
	aliveInst *alive.Instance

	state State

	binding         vendorapi.Binding
	trampolineIdx   int
	openHWSucceeded bool

	hwName  string
	hwModel string
	hwType  int32
}

// NewFromConn constructs a Session around an already-accepted socket and
// starts its request loop. Mirrors original_source/tcp_server/
// majordomo.cpp's OnAccept -> MakeSession.
func NewFromConn(conn net.Conn, options *Options) *Session {
	if options.Load == nil {
		options.Load = vendorapi.Load
	}

	ch := packet.NewChannel(options.LogPrefix)
	_ = ch.Attach(conn)

	s := &Session{
		options:       options,
		ch:            ch,
		pump:          msgpump.New(options.LogPrefix),
		aliveInst:     alive.New(),
		state:         StateAccepted,
		trampolineIdx: -1,
	}
	s.ar = arbiter.NewArbiter(&arbiter.Options{LogPrefix: options.LogPrefix})
	s.parser = dialog.NewParser(options.LogPrefix, ch, s.ar)

	_ = s.ar.Dispatch(func() {
		s.state = StateAwaitHello
		s.parser.ReceiveRequest(s.onRequest)
	})

	return s
}

func (s *Session) onRequest(did int64, msg *message.Message, err error) {
	if err != nil {
		s.onSessionError(err)
		return
	}

	switch {
	case msg.Hello != nil:
		s.handleHello(did)
	case msg.LoadExtIOApi != nil:
		s.handleLoadExtIOApi(did)
	case msg.InitHW != nil:
		s.handleInitHW(did)
	case msg.OpenHW != nil:
		s.handleOpenHW(did)
	case msg.SetHWLO != nil:
		s.handleSetHWLO(did, msg.SetHWLO)
	case msg.SetHWLO64 != nil:
		s.handleSetHWLO64(did, msg.SetHWLO64)
	case msg.StartHW != nil:
		s.handleStartHW(did, msg.StartHW)
	case msg.StopHW != nil:
		s.handleStopHW(did)
	case msg.GetHWSR != nil:
		s.handleGetHWSR(did)
	case msg.VersionInfo != nil:
		s.handleVersionInfo(did)
	case msg.GetAttenuators != nil:
		s.handleGetAttenuators(did, msg.GetAttenuators)
	case msg.GetActualAttIdx != nil:
		s.handleGetActualAttIdx(did)
	case msg.ExtIoShowMGC != nil:
		s.handleExtIoShowMGC(did, msg.ExtIoShowMGC)
	case msg.ShowGUI != nil:
		s.handleShowGUI(did)
	case msg.HideGUI != nil:
		s.handleHideGUI(did)
	case msg.SwitchGUI != nil:
		s.handleSwitchGUI(did)
	case msg.ExtIoGetAGCs != nil:
		s.handleExtIoGetAGCs(did, msg.ExtIoGetAGCs)
	case msg.ExtIoGetActualAGCidx != nil:
		s.handleExtIoGetActualAGCidx(did)
	case msg.ExtIoGetMGCs != nil:
		s.handleExtIoGetMGCs(did, msg.ExtIoGetMGCs)
	case msg.ExtIoGetActualMgcIdx != nil:
		s.handleExtIoGetActualMgcIdx(did)
	case msg.ExtIoGetSrates != nil:
		s.handleExtIoGetSrates(did, msg.ExtIoGetSrates)
	case msg.ExtIoGetActualSrateIdx != nil:
		s.handleExtIoGetActualSrateIdx(did)
	case msg.ExtIoSetSrate != nil:
		s.handleExtIoSetSrate(did, msg.ExtIoSetSrate)
	case msg.ExtIoGetBandwidth != nil:
		s.handleExtIoGetBandwidth(did)
	default:
		log.Printf("%s: unhandled request variant=%s", s.options.LogPrefix, message.GetMessageName(msg))
		s.respondError(did, errorcode.NotImplemented)
	}
}

func (s *Session) handleHello(did int64) {
	version := uint32(wireProtocolVersion)
	name := serverName
	s.state = StateAwaitLoadExtIOApi
	s.parser.SendResponse(&message.Message{
		Hello: &message.HelloMsg{VersionNumber: &version, Name: &name},
	}, did, nil)
}

func (s *Session) handleLoadExtIOApi(did int64) {
	binding, err := s.options.Load(s.options.ExtIOPath)
	if err != nil {
		log.Printf("%s: vendor load failed, err=%s", s.options.LogPrefix, err.Error())
		s.respondError(did, errorcode.Unexpected)
		return
	}

	ok, name, model, dataType := binding.InitHW()
	if !ok {
		log.Printf("%s: vendor InitHW failed", s.options.LogPrefix)
		_ = binding.Close()
		s.respondError(did, errorcode.Unexpected)
		return
	}
	s.binding = binding
	s.hwName, s.hwModel, s.hwType = name, model, dataType

	idx, acquired := AcquireTrampolineSlot(s.onVendorCallback)
	if !acquired {
		log.Printf("%s: trampoline pool exhausted", s.options.LogPrefix)
		_ = binding.Close()
		s.binding = nil
		s.respondError(did, errorcode.Unexpected)
		return
	}
	s.trampolineIdx = idx
	binding.SetCallback(trampolineDispatch(idx))

	var openResult int32
	s.pump.Send(func() {
		openResult, _ = binding.OpenHW()
	})
	s.openHWSucceeded = openResult >= 0

	s.state = StateReady
	code := uint8(errorcode.Success)
	s.parser.SendResponse(&message.Message{
		LoadExtIOApi: &message.LoadExtIOApiMsg{ResultCode: &code},
	}, did, nil)
}

// onVendorCallback runs on whatever goroutine the vendor binding invokes
// it from; it only ever touches the alive flag off-strand and then hops
// onto the session strand, per spec.md §5's ordering guarantees for
// stream messages.
func (s *Session) onVendorCallback(cnt int32, status int32, iqOffs float32, iqData []byte) {
	flag := s.aliveInst.Flag()
	dispatchErr := s.ar.Dispatch(func() {
		if !flag.IsAlive() {
			return
		}
		s.sendStreamMessage(cnt, status, iqOffs, iqData)
	})
	if dispatchErr != nil {
		log.Printf("%s: failed to dispatch vendor callback, err=%s", s.options.LogPrefix, dispatchErr.Error())
	}
}

func (s *Session) sendStreamMessage(cnt int32, status int32, iqOffs float32, iqData []byte) {
	sampleSize := vendorapi.SampleSize(s.hwType)
	s.parser.SendMessage(&message.Message{
		ExtIOCallback: &message.ExtIOCallbackMsg{
			Cnt:        &cnt,
			Status:     &status,
			IQOffs:     &iqOffs,
			IQData:     iqData,
			SampleSize: &sampleSize,
		},
	}, nil)
}

func (s *Session) respondError(did int64, code errorcode.ErrorCode) {
	s.parser.SendResponse(message.NewErrorMsg(code, code.String()), did, nil)
}

func (s *Session) requireVendor(did int64) bool {
	if s.binding == nil {
		s.respondError(did, errorcode.ExtIODllNotLoaded)
		return false
	}
	return true
}

func (s *Session) onSessionError(err error) {
	log.Printf("%s: session error, err=%s", s.options.LogPrefix, err.Error())
	s.teardown()
}

func (s *Session) teardown() {
	if s.state == StateStopped {
		return
	}
	s.state = StateStopped

	if s.binding != nil {
		s.binding.CloseHW(s.openHWSucceeded)
		if err := s.binding.Close(); err != nil {
			log.Printf("%s: vendor close failed, err=%s", s.options.LogPrefix, err.Error())
		}
		s.binding = nil
	}
	if s.trampolineIdx >= 0 {
		ReleaseTrampolineSlot(s.trampolineIdx)
		s.trampolineIdx = -1
	}
	if s.pump != nil {
		s.pump.Stop()
	}
	s.parser.Cancel()
	s.aliveInst.Release()

	if s.options.OnClosed != nil {
		s.options.OnClosed(s)
	}
}

// Stop tears the session down from outside the strand (Acceptor-driven
// shutdown), per spec.md §4.6.
func (s *Session) Stop() {
	done := make(chan struct{})
	dispatchErr := s.ar.Dispatch(func() {
		s.teardown()
		close(done)
	})
	if dispatchErr != nil {
		log.Printf("%s: Stop dispatch failed, err=%s", s.options.LogPrefix, dispatchErr.Error())
		return
	}
	<-done
	s.ar.Shutdown()
}
