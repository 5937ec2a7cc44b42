// Package dialog implements the Dialog Parser: request/response
// correlation over one packet.Channel, per spec.md §4.3. Grounded on
// original_source/utils/Protocol.h's IParser (AsyncReceiveRequest /
// AsyncReceiveResponce / AsyncSendRequest / AsyncSendResponce /
// AsyncSendMessage) and on go-elect's client.go/server.go, which dispatch
// every read and write onto a single arbiter goroutine rather than let
// completions race across goroutines.
//
// A Parser's methods are not internally synchronized: callers must invoke
// them only from the owning arbiter.Arbiter's strand (the Session is
// responsible for that dispatch). This mirrors the teacher's
// writeWireData, which always runs inside arbiter.Dispatch.
package dialog

import (
	"log"

	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

// RequestHandler receives inbound request-typed packets and unsolicited
// (did==0) stream messages. err is non-nil exactly once, when the channel
// fails while this handler is the delivery target; did and msg are zero
// valued in that case.
type RequestHandler func(did int64, msg *message.Message, err error)

// ResponseHandler receives the reply to one previously sent request. err
// is non-nil when the channel failed before a response for this dialog
// arrived; msg is nil in that case.
type ResponseHandler func(msg *message.Message, err error)

// Parser owns the allocation of dialog IDs, the map of in-flight dialogs,
// and the single permanent request handler, per spec.md §4.3.
type Parser struct {
	logPrefix string
	ch        *packet.Channel
	ar        *arbiter.Arbiter

	nextDialogID   int64
	pending        map[int64]ResponseHandler
	requestHandler RequestHandler
	reading        bool
}

func NewParser(logPrefix string, ch *packet.Channel, ar *arbiter.Arbiter) *Parser {
	return &Parser{
		logPrefix: logPrefix,
		ch:        ch,
		ar:        ar,
		pending:   make(map[int64]ResponseHandler),
	}
}

// AllocateDialogID returns the next dialog id, skipping 0: spec.md §4.3
// reserves 0 for unsolicited stream messages.
func (p *Parser) AllocateDialogID() int64 {
	p.nextDialogID++
	if p.nextDialogID == 0 {
		p.nextDialogID++
	}
	return p.nextDialogID
}

// ReceiveRequest installs the permanent request/stream handler and starts
// the read loop if it is not already running.
func (p *Parser) ReceiveRequest(cb RequestHandler) {
	p.requestHandler = cb
	p.ensureReading()
}

// ReceiveResponse registers a one-shot handler for did's response and
// starts the read loop if needed. Used when a request's handler must be
// re-armed independently of SendRequest (rare; most callers get
// registration for free from SendRequest).
func (p *Parser) ReceiveResponse(did int64, cb ResponseHandler) {
	p.pending[did] = cb
	p.ensureReading()
}

// SendRequest wraps msg as a Request with a freshly allocated dialog id,
// writes it, and on successful write registers cb for the eventual
// response. Returns the allocated id regardless of write outcome; cb is
// invoked with an error immediately if encode or write fails.
func (p *Parser) SendRequest(msg *message.Message, cb ResponseHandler) int64 {
	did := p.AllocateDialogID()
	pm := &message.PackagedMessage{
		DialogID: did,
		Type:     message.Request,
		Msg:      *msg,
	}

	if err := p.write(pm); err != nil {
		if cb != nil {
			cb(nil, err)
		}
		return did
	}

	if cb != nil {
		p.pending[did] = cb
	}
	p.ensureReading()

	return did
}

// SendResponse wraps msg as a Response carrying did, writes it, and
// invokes cb with the write outcome.
func (p *Parser) SendResponse(msg *message.Message, did int64, cb func(error)) {
	pm := &message.PackagedMessage{
		DialogID: did,
		Type:     message.Response,
		Msg:      *msg,
	}
	err := p.write(pm)
	if cb != nil {
		cb(err)
	}
}

// SendMessage sends an unsolicited (did==0) stream message, used for
// IQ-sample callbacks.
func (p *Parser) SendMessage(msg *message.Message, cb func(error)) {
	p.SendResponse(msg, 0, cb)
}

func (p *Parser) write(pm *message.PackagedMessage) error {
	payload, err := message.Encode(pm)
	if err != nil {
		log.Printf("%s: encode failed, err=%s", p.logPrefix, err.Error())
		return err
	}

	if err := p.ch.Write(&packet.Packet{Type: packet.Message, Payload: payload}); err != nil {
		log.Printf("%s: write failed, err=%s", p.logPrefix, err.Error())
		return err
	}

	return nil
}

func (p *Parser) ensureReading() {
	if p.reading {
		return
	}
	p.reading = true

	ch := p.ch
	ar := p.ar
	go func() {
		pkt, err := ch.Read()
		dispatchErr := ar.Dispatch(func() {
			p.onRead(pkt, err)
		})
		if dispatchErr != nil {
			log.Printf("%s: failed to dispatch read completion, err=%s", p.logPrefix, dispatchErr.Error())
		}
	}()
}

// onRead runs on the strand.
func (p *Parser) onRead(pkt *packet.Packet, err error) {
	p.reading = false

	if err != nil {
		p.deliverError(err)
		return
	}

	if pkt.Type != packet.Message {
		log.Printf("%s: dropping non-message packet type=%s id=%d", p.logPrefix, pkt.Type, pkt.ID)
		p.rearmIfNeeded()
		return
	}

	pm, decErr := message.Decode(pkt.Payload)
	if decErr != nil {
		log.Printf("%s: dropping undecodable message, err=%s", p.logPrefix, decErr.Error())
		p.rearmIfNeeded()
		return
	}

	p.dispatch(pm)
	p.rearmIfNeeded()
}

func (p *Parser) dispatch(pm *message.PackagedMessage) {
	if pm.DialogID == 0 || pm.Type == message.Request {
		if p.requestHandler != nil {
			p.requestHandler(pm.DialogID, &pm.Msg, nil)
		} else {
			log.Printf("%s: unhandled request/stream message, did=%d, variant=%s", p.logPrefix, pm.DialogID, message.GetMessageName(&pm.Msg))
		}
		return
	}

	cb, ok := p.pending[pm.DialogID]
	if !ok {
		log.Printf("%s: unhandled response, did=%d, variant=%s", p.logPrefix, pm.DialogID, message.GetMessageName(&pm.Msg))
		return
	}
	delete(p.pending, pm.DialogID)
	cb(&pm.Msg, nil)
}

// deliverError hands the error to exactly one handler: the request
// handler if set, else an arbitrary pending dialog entry. Per spec.md
// §4.3 this is the only case where an error reaches a registered handler
// outside of explicit Cancel; Cancel itself does not invoke callbacks.
func (p *Parser) deliverError(err error) {
	if p.requestHandler != nil {
		cb := p.requestHandler
		p.requestHandler = nil
		cb(0, nil, err)
		return
	}

	for did, cb := range p.pending {
		delete(p.pending, did)
		cb(nil, err)
		return
	}

	log.Printf("%s: channel error with no registered handler, err=%s", p.logPrefix, err.Error())
}

func (p *Parser) rearmIfNeeded() {
	if p.requestHandler != nil || len(p.pending) > 0 {
		p.ensureReading()
	}
}

// Cancel disconnects the channel and clears all handlers. Pending
// callbacks are deliberately not invoked; the owning Session is
// responsible for notifying its own waiters during teardown.
func (p *Parser) Cancel() {
	p.ch.Disconnect()
	p.requestHandler = nil
	p.pending = make(map[int64]ResponseHandler)
}
