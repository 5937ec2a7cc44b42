// Package clientsession implements the Client Session: the connect/
// reconnect state machine of spec.md §4.4, presenting a blocking ExtIO
// facade to a host application while the real transport work runs
// asynchronously on one strand.
//
// Grounded on original_source/net_client/service.cpp's Service class
// (strand + reconnect_timer + Mutexed<pfnExtIOCallback> + AliveInstance)
// and on go-elect's election/candidate.go for the
// arbiter.ScheduleTimer-driven state-transition idiom.
package clientsession

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Meander-Cloud/extio-over-net/internal/alive"
	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/dialog"
	"github.com/Meander-Cloud/extio-over-net/internal/errorcode"
	"github.com/Meander-Cloud/extio-over-net/internal/group"
	"github.com/Meander-Cloud/extio-over-net/internal/vendorapi"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

type State uint8

const (
	StateIdle State = iota
	StateResolving
	StateConnecting
	StateHandshaking
	StateLoading
	StateReady
	StateDisconnected
	StateBackoffWaiting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateResolving:
		return "Resolving"
	case StateConnecting:
		return "Connecting"
	case StateHandshaking:
		return "Handshaking"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StateDisconnected:
		return "Disconnected"
	case StateBackoffWaiting:
		return "BackoffWaiting"
	case StateStopped:
		return "Stopped"
	default:
		return "UnknownState"
	}
}

const (
	DefaultConnectWaitTimeout = 30 * time.Second
	DefaultReconnectBackoff  = 8 * time.Second
	DefaultStopTimeout       = 20 * time.Second
	DefaultRequestTimeout    = 15 * time.Second

	clientName = "ExtIO_TCP_client"
	wireProtocolVersion = 1
)

type Options struct {
	LogPrefix  string
	ServerAddr string
	ServerPort uint16

	ConnectWaitTimeout time.Duration
	ReconnectBackoff   time.Duration
	StopTimeout        time.Duration
	RequestTimeout     time.Duration
}

// Session is the client-side strand-owning actor. All mutable fields
// below this comment are touched only from the arbiter goroutine, except
// callback, which any goroutine may read or write under cbMu.
type Session struct {
	options *Options
	ar      *arbiter.Arbiter
	aliveInst *alive.Instance

	ch     *packet.Channel
	parser *dialog.Parser

	state                 State
	connectionEstablished bool
	apiLoaded             bool

	waiters      []chan error
	pendingCalls map[int64]dialog.ResponseHandler

	cbMu     sync.Mutex
	callback vendorapi.Callback
}

func NewSession(options *Options) *Session {
	if options.ConnectWaitTimeout == 0 {
		options.ConnectWaitTimeout = DefaultConnectWaitTimeout
	}
	if options.ReconnectBackoff == 0 {
		options.ReconnectBackoff = DefaultReconnectBackoff
	}
	if options.StopTimeout == 0 {
		options.StopTimeout = DefaultStopTimeout
	}
	if options.RequestTimeout == 0 {
		options.RequestTimeout = DefaultRequestTimeout
	}

	s := &Session{
		options:      options,
		aliveInst:    alive.New(),
		pendingCalls: make(map[int64]dialog.ResponseHandler),
	}
	s.ar = arbiter.NewArbiter(&arbiter.Options{
		LogPrefix: options.LogPrefix,
	})
	return s
}

// SetCallback installs the host-supplied sample callback. Safe to call
// from any thread, per spec.md §5's "callback pointer on client, guarded
// by a lock" shared resource.
func (s *Session) SetCallback(cb vendorapi.Callback) {
	s.cbMu.Lock()
	s.callback = cb
	s.cbMu.Unlock()
}

func (s *Session) hostCallback() vendorapi.Callback {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.callback
}

// Start begins connecting if the session is idle or disconnected. Safe
// to call repeatedly; a facade entry point calls this unconditionally
// before every blocking round trip, per spec.md §4.4 step 1.
func (s *Session) Start() {
	_ = s.ar.Dispatch(func() {
		if s.state != StateIdle && s.state != StateDisconnected {
			return
		}
		s.beginConnect()
	})
}

// strand-only from here down unless noted.

func (s *Session) beginConnect() {
	s.state = StateResolving
	addr := s.options.ServerAddr
	port := s.options.ServerPort
	logPrefix := s.options.LogPrefix

	go func() {
		ch := packet.NewChannel(logPrefix)
		err := ch.Connect(addr, port)
		dispatchErr := s.ar.Dispatch(func() {
			s.onConnectResult(ch, err)
		})
		if dispatchErr != nil {
			log.Printf("%s: failed to dispatch connect result, err=%s", logPrefix, dispatchErr.Error())
		}
	}()
}

func (s *Session) onConnectResult(ch *packet.Channel, err error) {
	if err != nil {
		log.Printf("%s: connect failed, err=%s", s.options.LogPrefix, err.Error())
		s.scheduleReconnect()
		return
	}

	s.ch = ch
	s.parser = dialog.NewParser(s.options.LogPrefix, ch, s.ar)
	s.connectionEstablished = true
	s.state = StateHandshaking

	s.parser.ReceiveRequest(s.onInboundRequest)
	s.sendHello()
}

func (s *Session) sendHello() {
	version := uint32(wireProtocolVersion)
	name := clientName
	s.sendRequest(&message.Message{
		Hello: &message.HelloMsg{VersionNumber: &version, Name: &name},
	}, s.onHelloResponse)
}

func (s *Session) onHelloResponse(msg *message.Message, err error) {
	if err != nil {
		s.onSessionError(err)
		return
	}
	if msg == nil || msg.Hello == nil {
		s.onSessionError(ErrUnexpectedResponse)
		return
	}

	s.state = StateLoading
	s.sendRequest(&message.Message{
		LoadExtIOApi: &message.LoadExtIOApiMsg{},
	}, s.onLoadExtIOApiResponse)
}

func (s *Session) onLoadExtIOApiResponse(msg *message.Message, err error) {
	if err != nil {
		s.onSessionError(err)
		return
	}
	if msg == nil || msg.LoadExtIOApi == nil {
		s.onSessionError(ErrUnexpectedResponse)
		return
	}

	code := errorcode.Success
	if msg.LoadExtIOApi.ResultCode != nil {
		code = errorcode.ErrorCode(*msg.LoadExtIOApi.ResultCode)
	}
	if code != errorcode.Success {
		s.onSessionError(fmt.Errorf("clientsession: LoadExtIOApi failed, code=%s", code))
		return
	}

	s.state = StateReady
	s.apiLoaded = true
	s.wakeWaiters(nil)
}

// onInboundRequest is the session's one permanent Dialog Parser
// handler: it only ever sees unsolicited (did==0) stream messages, since
// the client never accepts server-initiated requests.
func (s *Session) onInboundRequest(_ int64, msg *message.Message, err error) {
	if err != nil {
		s.onSessionError(err)
		return
	}
	if msg.ExtIOCallback != nil {
		s.deliverStream(msg.ExtIOCallback)
		return
	}
	log.Printf("%s: unexpected inbound request, variant=%s", s.options.LogPrefix, message.GetMessageName(msg))
}

func (s *Session) deliverStream(cb *message.ExtIOCallbackMsg) {
	handler := s.hostCallback()
	if handler == nil {
		return
	}
	var cnt, status int32
	var iqOffs float32
	if cb.Cnt != nil {
		cnt = *cb.Cnt
	}
	if cb.Status != nil {
		status = *cb.Status
	}
	if cb.IQOffs != nil {
		iqOffs = *cb.IQOffs
	}
	handler(cnt, status, iqOffs, cb.IQData)
}

func (s *Session) deliverStatus(status int32) {
	handler := s.hostCallback()
	if handler == nil {
		return
	}
	handler(-1, status, 0, nil)
}

func (s *Session) scheduleReconnect() {
	s.state = StateBackoffWaiting
	s.ar.ScheduleTimer(group.GroupReconnectBackoff, s.options.ReconnectBackoff, func() {
		s.beginConnect()
	})
}

// onSessionError runs whenever the channel or protocol fails while
// handshaking or Ready. Per spec.md §4.4 step 5: synthesize Stop then
// Disconnected to the host if the session had reached Ready, unblock
// every outstanding facade call, and schedule a reconnect.
func (s *Session) onSessionError(err error) {
	wasReady := s.state == StateReady

	s.connectionEstablished = false
	s.apiLoaded = false

	if s.parser != nil {
		s.parser.Cancel()
	}
	s.failAllPending(err)
	s.wakeWaiters(err)

	if wasReady {
		s.deliverStatus(vendorapi.StatusStop)
		s.deliverStatus(vendorapi.StatusDisconnected)
	}

	s.state = StateDisconnected
	s.scheduleReconnect()
}

// sendRequest wraps dialog.Parser.SendRequest with bookkeeping so the
// session itself — not just the parser — can resolve every outstanding
// call on teardown. The parser's own asymmetric Cancel semantics
// (spec.md §4.3) only ever notify one handler per error; a session with
// several facade calls in flight needs all of them unblocked.
func (s *Session) sendRequest(msg *message.Message, cb dialog.ResponseHandler) int64 {
	var did int64
	wrapped := func(m *message.Message, err error) {
		delete(s.pendingCalls, did)
		cb(m, err)
	}
	did = s.parser.SendRequest(msg, wrapped)
	s.pendingCalls[did] = wrapped
	return did
}

func (s *Session) failAllPending(err error) {
	for did, cb := range s.pendingCalls {
		delete(s.pendingCalls, did)
		cb(nil, err)
	}
}

func (s *Session) wakeWaiters(err error) {
	for _, w := range s.waiters {
		w <- err
	}
	s.waiters = nil
}

// WaitForConnection blocks the calling (foreign) thread until the
// session reaches Ready or timeout elapses, per spec.md §4.4's
// "Await-connect".
func (s *Session) WaitForConnection(timeout time.Duration) error {
	s.Start()

	done := make(chan error, 1)
	_ = s.ar.Dispatch(func() {
		if s.apiLoaded {
			done <- nil
			return
		}
		s.waiters = append(s.waiters, done)
	})

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return ErrConnectTimeout
	}
}

// call is the common blocking facade helper: ensure connecting, wait up
// to ConnectWaitTimeout for readiness, then send msg and block for its
// response up to timeout.
func (s *Session) call(msg *message.Message, timeout time.Duration) (*message.Message, error) {
	if err := s.WaitForConnection(s.options.ConnectWaitTimeout); err != nil {
		return nil, err
	}

	type result struct {
		msg *message.Message
		err error
	}
	respch := make(chan result, 1)

	dispatchErr := s.ar.Dispatch(func() {
		if !s.connectionEstablished {
			respch <- result{nil, ErrNotConnected}
			return
		}
		s.sendRequest(msg, func(m *message.Message, err error) {
			respch <- result{m, err}
		})
	})
	if dispatchErr != nil {
		return nil, dispatchErr
	}

	select {
	case r := <-respch:
		return r.msg, r.err
	case <-time.After(timeout):
		return nil, ErrUnexpectedResponse
	}
}

// Stop cancels the parser/channel, unblocks any in-flight facade calls,
// and shuts down the strand. Per spec.md §4.4 step 6 / §7's Alive Guard
// release.
func (s *Session) Stop() {
	done := make(chan struct{})
	_ = s.ar.Dispatch(func() {
		s.ar.ReleaseTimer(group.GroupReconnectBackoff)
		if s.parser != nil {
			s.parser.Cancel()
		}
		s.failAllPending(ErrSessionStopped)
		s.wakeWaiters(ErrSessionStopped)
		s.state = StateStopped
		close(done)
	})

	select {
	case <-done:
	case <-time.After(s.options.StopTimeout):
		log.Printf("%s: Stop timed out waiting for strand", s.options.LogPrefix)
	}

	s.aliveInst.Release()
	s.ar.Shutdown()
}
