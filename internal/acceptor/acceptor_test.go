package acceptor

import (
	"net"
	"testing"
	"time"

	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/dialog"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

func TestAcceptorSpawnsSessionPerConnection(t *testing.T) {
	a, err := New("test-acceptor", "127.0.0.1", 0, "/fake/path.so")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Stop()

	addr := a.ln.Addr().(*net.TCPAddr)

	conn, err := net.Dial("tcp4", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ch := packet.NewChannel("test-dial-ch")
	_ = ch.Attach(conn)
	ar := arbiter.NewArbiter(&arbiter.Options{LogPrefix: "test-dial-ar"})
	defer ar.Shutdown()
	p := dialog.NewParser("test-dial-parser", ch, ar)

	respch := make(chan *message.Message, 1)
	_ = ar.Dispatch(func() {
		version := uint32(1)
		name := "ExtIO_TCP_client"
		p.SendRequest(&message.Message{Hello: &message.HelloMsg{VersionNumber: &version, Name: &name}}, func(msg *message.Message, err error) {
			respch <- msg
		})
	})

	select {
	case msg := <-respch:
		if msg == nil || msg.Hello == nil {
			t.Fatalf("expected Hello response, got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hello response")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if a.SessionCount() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected 1 session, got %d", a.SessionCount())
}

func TestAcceptorStopClosesListener(t *testing.T) {
	a, err := New("test-acceptor-stop", "127.0.0.1", 0, "/fake/path.so")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	addr := a.ln.Addr().(*net.TCPAddr)
	a.Stop()

	_, dialErr := net.DialTimeout("tcp4", addr.String(), 200*time.Millisecond)
	if dialErr == nil {
		t.Fatalf("expected dial to fail after Stop")
	}
}
