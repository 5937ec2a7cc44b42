package dialog

import (
	"net"
	"testing"
	"time"

	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

func newTestArbiter(prefix string) *arbiter.Arbiter {
	return arbiter.NewArbiter(&arbiter.Options{
		EventChannelLength: 32,
		LogPrefix:          prefix,
	})
}

func TestRequestResponseRoundTrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverCh := packet.NewChannel("test-server-ch")
	_ = serverCh.Attach(serverConn)
	clientCh := packet.NewChannel("test-client-ch")
	_ = clientCh.Attach(clientConn)

	serverAr := newTestArbiter("test-server-ar")
	defer serverAr.Shutdown()
	clientAr := newTestArbiter("test-client-ar")
	defer clientAr.Shutdown()

	serverParser := NewParser("test-server-parser", serverCh, serverAr)
	clientParser := NewParser("test-client-parser", clientCh, clientAr)

	_ = serverAr.Dispatch(func() {
		serverParser.ReceiveRequest(func(did int64, msg *message.Message, err error) {
			if err != nil {
				return
			}
			if msg.SetHWLO == nil {
				return
			}
			result := int32(0)
			serverParser.SendResponse(&message.Message{
				SetHWLO: &message.SetHWLOMsg{
					LOFreq: msg.SetHWLO.LOFreq,
					Result: &result,
				},
			}, did, nil)
		})
	})

	respCh := make(chan *message.Message, 1)
	freq := int64(100_000_000)
	_ = clientAr.Dispatch(func() {
		clientParser.SendRequest(&message.Message{
			SetHWLO: &message.SetHWLOMsg{LOFreq: &freq},
		}, func(msg *message.Message, err error) {
			if err != nil {
				respCh <- nil
				return
			}
			respCh <- msg
		})
	})

	select {
	case msg := <-respCh:
		if msg == nil {
			t.Fatalf("expected response, got error")
		}
		if msg.SetHWLO == nil || *msg.SetHWLO.LOFreq != freq {
			t.Fatalf("unexpected response: %+v", msg)
		}
		if *msg.SetHWLO.Result != 0 {
			t.Fatalf("expected result 0, got %d", *msg.SetHWLO.Result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestAllocateDialogIDSkipsZero(t *testing.T) {
	p := NewParser("test", nil, nil)
	p.nextDialogID = -1

	id := p.AllocateDialogID()
	if id == 0 {
		t.Fatalf("expected nonzero dialog id")
	}
}

func TestCancelDoesNotInvokePending(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	clientConn.Close()

	ch := packet.NewChannel("test-cancel-ch")
	_ = ch.Attach(serverConn)

	invoked := false
	p := NewParser("test-cancel-parser", ch, nil)
	p.pending[5] = func(msg *message.Message, err error) {
		invoked = true
	}

	p.Cancel()

	if invoked {
		t.Fatalf("expected Cancel to not invoke pending callbacks")
	}
	if len(p.pending) != 0 {
		t.Fatalf("expected pending map cleared after Cancel")
	}
}
