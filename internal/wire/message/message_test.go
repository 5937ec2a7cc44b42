package message

import (
	"testing"

	"github.com/Meander-Cloud/extio-over-net/internal/errorcode"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	freq := int64(100_000_000)
	result := int32(0)
	pm := &PackagedMessage{
		DialogID: 3,
		Type:     Request,
		Msg: Message{
			SetHWLO: &SetHWLOMsg{
				LOFreq: &freq,
				Result: &result,
			},
		},
	}

	b, err := Encode(pm)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.DialogID != pm.DialogID {
		t.Fatalf("dialog id mismatch: got %d want %d", got.DialogID, pm.DialogID)
	}
	if got.Type != pm.Type {
		t.Fatalf("type mismatch: got %v want %v", got.Type, pm.Type)
	}
	if got.Msg.SetHWLO == nil {
		t.Fatalf("expected SetHWLO populated")
	}
	if *got.Msg.SetHWLO.LOFreq != freq {
		t.Fatalf("lofreq mismatch: got %d want %d", *got.Msg.SetHWLO.LOFreq, freq)
	}
}

func TestUnsolicitedStreamMessageHasZeroDialogID(t *testing.T) {
	cnt := int32(512)
	status := int32(0)
	offs := float32(0.0)
	sampleSize := int32(4)
	pm := &PackagedMessage{
		DialogID: 0,
		Type:     Response,
		Msg: Message{
			ExtIOCallback: &ExtIOCallbackMsg{
				Cnt:        &cnt,
				Status:     &status,
				IQOffs:     &offs,
				IQData:     make([]byte, 2048),
				SampleSize: &sampleSize,
			},
		},
	}

	b, err := Encode(pm)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DialogID != 0 {
		t.Fatalf("expected dialog id 0, got %d", got.DialogID)
	}
	if len(got.Msg.ExtIOCallback.IQData) != 2048 {
		t.Fatalf("expected 2048 byte iqdata, got %d", len(got.Msg.ExtIOCallback.IQData))
	}
}

func TestGetMessageName(t *testing.T) {
	name := "ExtIO_TCP_client"
	version := uint32(1)
	msg := &Message{Hello: &HelloMsg{VersionNumber: &version, Name: &name}}
	if got := GetMessageName(msg); got != "Hello" {
		t.Fatalf("expected Hello, got %s", got)
	}

	empty := &Message{}
	if got := GetMessageName(empty); got != "Empty" {
		t.Fatalf("expected Empty, got %s", got)
	}
}

func TestNewErrorMsg(t *testing.T) {
	m := NewErrorMsg(errorcode.NotImplemented, "Ping not supported")
	if m.Error == nil {
		t.Fatalf("expected Error populated")
	}
	if errorcode.ErrorCode(*m.Error.Code) != errorcode.NotImplemented {
		t.Fatalf("expected NotImplemented code, got %d", *m.Error.Code)
	}
}
