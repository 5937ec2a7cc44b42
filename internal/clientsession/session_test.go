package clientsession

import (
	"net"
	"testing"
	"time"

	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/dialog"
	"github.com/Meander-Cloud/extio-over-net/internal/errorcode"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

// fakeServer accepts exactly one connection and answers Hello,
// LoadExtIOApi, and echoes SetHWLO requests, standing in for
// internal/serversession in these client-only tests.
func fakeServer(t *testing.T, ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}

	ch := packet.NewChannel("fake-server")
	_ = ch.Attach(conn)
	ar := arbiter.NewArbiter(&arbiter.Options{LogPrefix: "fake-server-ar"})
	p := dialog.NewParser("fake-server-parser", ch, ar)

	_ = ar.Dispatch(func() {
		p.ReceiveRequest(func(did int64, msg *message.Message, err error) {
			if err != nil {
				return
			}
			switch {
			case msg.Hello != nil:
				version := uint32(1)
				name := "ExtIO_TCP_server"
				p.SendResponse(&message.Message{Hello: &message.HelloMsg{VersionNumber: &version, Name: &name}}, did, nil)
			case msg.LoadExtIOApi != nil:
				code := uint8(errorcode.Success)
				p.SendResponse(&message.Message{LoadExtIOApi: &message.LoadExtIOApiMsg{ResultCode: &code}}, did, nil)
			case msg.SetHWLO != nil:
				result := int32(0)
				p.SendResponse(&message.Message{SetHWLO: &message.SetHWLOMsg{LOFreq: msg.SetHWLO.LOFreq, Result: &result}}, did, nil)
			}
		})
	})
}

func newListener(t *testing.T) (net.Listener, uint16) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln, uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestHandshakeAndFacadeRoundTrip(t *testing.T) {
	ln, port := newListener(t)
	defer ln.Close()
	go fakeServer(t, ln)

	sess := NewSession(&Options{
		LogPrefix:          "test-client-session",
		ServerAddr:         "127.0.0.1",
		ServerPort:         port,
		ConnectWaitTimeout: 2 * time.Second,
		RequestTimeout:     2 * time.Second,
	})
	defer sess.Stop()

	if err := sess.WaitForConnection(2 * time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	result := sess.SetHWLOFacade(100_000_000)
	if result != 0 {
		t.Fatalf("expected SetHWLO result 0, got %d", result)
	}
}

func TestWaitForConnectionTimesOutWithNoServer(t *testing.T) {
	sess := NewSession(&Options{
		LogPrefix:  "test-client-session-notarget",
		ServerAddr: "127.0.0.1",
		ServerPort: 1, // reserved, nothing listens here
	})
	defer sess.Stop()

	err := sess.WaitForConnection(200 * time.Millisecond)
	if err != ErrConnectTimeout {
		t.Fatalf("expected ErrConnectTimeout, got %v", err)
	}
}

func TestFacadeCallFailsGracefullyWithoutServer(t *testing.T) {
	sess := NewSession(&Options{
		LogPrefix:          "test-client-session-fail",
		ServerAddr:         "127.0.0.1",
		ServerPort:         1,
		ConnectWaitTimeout: 200 * time.Millisecond,
	})
	defer sess.Stop()

	if got := sess.StartHW(1000); got != -1 {
		t.Fatalf("expected -1 on failed StartHW, got %d", got)
	}
	if got := sess.ShowGUI(); got != false {
		t.Fatalf("expected false on failed ShowGUI, got %v", got)
	}
}
