package serversession

import (
	"net"
	"testing"
	"time"

	"github.com/Meander-Cloud/extio-over-net/internal/arbiter"
	"github.com/Meander-Cloud/extio-over-net/internal/dialog"
	"github.com/Meander-Cloud/extio-over-net/internal/vendorapi"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/packet"
)

type fakeBinding struct {
	closed      bool
	closeHWOpenWasSuccess bool
	callback    vendorapi.Callback
}

func (f *fakeBinding) InitHW() (bool, string, string, int32) {
	return true, "Radio", "X", vendorapi.DataType16Bit
}
func (f *fakeBinding) OpenHW() (int32, bool)  { return 1, true }
func (f *fakeBinding) CloseHW(ok bool)        { f.closeHWOpenWasSuccess = ok }
func (f *fakeBinding) StartHW(int64) (int32, bool) { return 0, true }
func (f *fakeBinding) StopHW() (int32, bool)       { return 0, true }
func (f *fakeBinding) SetHWLO(int64) (int32, bool) { return 0, true }
func (f *fakeBinding) SetHWLO64(int64) (int32, bool) { return 0, false }
func (f *fakeBinding) GetHWSR() (float64, bool)      { return 2_000_000, true }
func (f *fakeBinding) SetCallback(cb vendorapi.Callback) bool {
	f.callback = cb
	return true
}
func (f *fakeBinding) VersionInfo() (string, int32, int32, bool)      { return "", 0, 0, false }
func (f *fakeBinding) GetAttenuators(int32) (float32, int32, bool)    { return 0, 0, false }
func (f *fakeBinding) GetActualAttIdx() (int32, bool)                 { return 0, false }
func (f *fakeBinding) ExtIoShowMGC(int32) (int32, bool)               { return 0, false }
func (f *fakeBinding) ShowGUI() bool                                  { return false }
func (f *fakeBinding) HideGUI() bool                                  { return false }
func (f *fakeBinding) SwitchGUI() bool                                { return false }
func (f *fakeBinding) ExtIoGetAGCs(int32) (string, int32, bool)       { return "", 0, false }
func (f *fakeBinding) ExtIoGetActualAGCidx() (int32, bool)            { return 0, false }
func (f *fakeBinding) ExtIoGetMGCs(int32) (float32, int32, bool)      { return 0, 0, false }
func (f *fakeBinding) ExtIoGetActualMgcIdx() (int32, bool)            { return 0, false }
func (f *fakeBinding) ExtIoGetSrates(int32) (float64, int32, bool)    { return 0, 0, false }
func (f *fakeBinding) ExtIoGetActualSrateIdx() (int32, bool)          { return 0, false }
func (f *fakeBinding) ExtIoSetSrate(int32) (int32, bool)              { return 0, false }
func (f *fakeBinding) ExtIoGetBandwidth() (float64, int32, bool)      { return 0, 0, false }
func (f *fakeBinding) Close() error                                   { f.closed = true; return nil }

func newClientSide(conn net.Conn) (*dialog.Parser, *arbiter.Arbiter) {
	ch := packet.NewChannel("test-client-side")
	_ = ch.Attach(conn)
	ar := arbiter.NewArbiter(&arbiter.Options{LogPrefix: "test-client-side-ar"})
	return dialog.NewParser("test-client-side-parser", ch, ar), ar
}

func TestHandshakeLoadAndSetHWLO(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	fb := &fakeBinding{}
	sess := NewFromConn(serverConn, &Options{
		LogPrefix: "test-serversession",
		ExtIOPath: "/fake/path.so",
		Load: func(path string) (vendorapi.Binding, error) {
			return fb, nil
		},
	})
	defer sess.Stop()

	clientParser, clientAr := newClientSide(clientConn)
	defer clientAr.Shutdown()

	respch := make(chan *message.Message, 4)
	_ = clientAr.Dispatch(func() {
		clientParser.ReceiveRequest(func(did int64, msg *message.Message, err error) {
			if err == nil {
				respch <- msg
			}
		})

		version := uint32(1)
		name := "ExtIO_TCP_client"
		clientParser.SendRequest(&message.Message{Hello: &message.HelloMsg{VersionNumber: &version, Name: &name}}, func(msg *message.Message, err error) {
			if err != nil || msg.Hello == nil {
				t.Errorf("hello failed: msg=%+v err=%v", msg, err)
				return
			}
			clientParser.SendRequest(&message.Message{LoadExtIOApi: &message.LoadExtIOApiMsg{}}, func(msg *message.Message, err error) {
				if err != nil || msg.LoadExtIOApi == nil {
					t.Errorf("loadextioapi failed: msg=%+v err=%v", msg, err)
					return
				}
				freq := int64(100_000_000)
				clientParser.SendRequest(&message.Message{SetHWLO: &message.SetHWLOMsg{LOFreq: &freq}}, func(msg *message.Message, err error) {
					respch <- msg
				})
			})
		})
	})

	select {
	case msg := <-respch:
		if msg.SetHWLO == nil || *msg.SetHWLO.Result != 0 {
			t.Fatalf("unexpected SetHWLO response: %+v", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for SetHWLO response")
	}
}

func TestLoadExtIOApiRespondsErrorWhenVendorLoadFails(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	sess := NewFromConn(serverConn, &Options{
		LogPrefix: "test-serversession-failload",
		ExtIOPath: "/does/not/exist.so",
		Load: func(path string) (vendorapi.Binding, error) {
			return nil, &loadError{}
		},
	})
	defer sess.Stop()

	clientParser, clientAr := newClientSide(clientConn)
	defer clientAr.Shutdown()

	respch := make(chan *message.Message, 1)
	_ = clientAr.Dispatch(func() {
		clientParser.SendRequest(&message.Message{LoadExtIOApi: &message.LoadExtIOApiMsg{}}, func(msg *message.Message, err error) {
			respch <- msg
		})
	})

	select {
	case msg := <-respch:
		if msg.Error == nil {
			t.Fatalf("expected Error response, got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

type loadError struct{}

func (e *loadError) Error() string { return "fake load failure" }
