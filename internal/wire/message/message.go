// Package message implements the Message Codec: a tagged union of ExtIO
// control-plane variants plus the PackagedMessage envelope that is framed
// into a packet.Message payload, per spec.md §3/§4.2.
//
// Grounded on go-elect/message/message.go, which represents a tagged union
// as one struct with every variant's fields as `,omitempty` pointers rather
// than a sum type with a discriminant tag; unset pointer means "no value"
// for that variant, matching spec.md §4.2's "optional fields" wire model
// directly. Encoding uses the same library the teacher uses for this
// struct shape, github.com/vmihailenco/msgpack/v5.
package message

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Meander-Cloud/extio-over-net/internal/errorcode"
)

// Message is the tagged union. Exactly one request/response pair of
// pointer groups should be populated per send; everything else stays nil
// and is omitted from the wire by the `msgpack:",omitempty"` tags.
type Message struct {
	Hello          *HelloMsg          `json:"hello,omitempty" msgpack:",omitempty"`
	LoadExtIOApi   *LoadExtIOApiMsg   `json:"loadextioapi,omitempty" msgpack:",omitempty"`
	InitHW         *InitHWMsg         `json:"inithw,omitempty" msgpack:",omitempty"`
	OpenHW         *OpenHWMsg         `json:"openhw,omitempty" msgpack:",omitempty"`
	SetHWLO        *SetHWLOMsg        `json:"sethwlo,omitempty" msgpack:",omitempty"`
	SetHWLO64      *SetHWLO64Msg      `json:"sethwlo64,omitempty" msgpack:",omitempty"`
	GetHWSR        *GetHWSRMsg        `json:"gethwsr,omitempty" msgpack:",omitempty"`
	StartHW        *StartHWMsg        `json:"starthw,omitempty" msgpack:",omitempty"`
	StopHW         *StopHWMsg         `json:"stophw,omitempty" msgpack:",omitempty"`
	VersionInfo    *VersionInfoMsg    `json:"versioninfo,omitempty" msgpack:",omitempty"`

	GetAttenuators  *GetAttenuatorsMsg  `json:"getattenuators,omitempty" msgpack:",omitempty"`
	GetActualAttIdx *GetActualAttIdxMsg `json:"getactualattidx,omitempty" msgpack:",omitempty"`
	ExtIoShowMGC    *ExtIoShowMGCMsg    `json:"extioshowmgc,omitempty" msgpack:",omitempty"`

	ShowGUI   *ShowGUIMsg   `json:"showgui,omitempty" msgpack:",omitempty"`
	HideGUI   *HideGUIMsg   `json:"hidegui,omitempty" msgpack:",omitempty"`
	SwitchGUI *SwitchGUIMsg `json:"switchgui,omitempty" msgpack:",omitempty"`

	ExtIoGetAGCs          *ExtIoGetAGCsMsg          `json:"extiogetagcs,omitempty" msgpack:",omitempty"`
	ExtIoGetActualAGCidx  *ExtIoGetActualAGCidxMsg  `json:"extiogetactualagcidx,omitempty" msgpack:",omitempty"`
	ExtIoGetMGCs          *ExtIoGetMGCsMsg          `json:"extiogetmgcs,omitempty" msgpack:",omitempty"`
	ExtIoGetActualMgcIdx  *ExtIoGetActualMgcIdxMsg  `json:"extiogetactualmgcidx,omitempty" msgpack:",omitempty"`
	ExtIoGetSrates        *ExtIoGetSratesMsg        `json:"extiogetsrates,omitempty" msgpack:",omitempty"`
	ExtIoGetActualSrateIdx *ExtIoGetActualSrateIdxMsg `json:"extiogetactualsrateidx,omitempty" msgpack:",omitempty"`
	ExtIoSetSrate         *ExtIoSetSrateMsg         `json:"extiosetsrate,omitempty" msgpack:",omitempty"`
	ExtIoGetBandwidth     *ExtIoGetBandwidthMsg     `json:"extiogetbandwidth,omitempty" msgpack:",omitempty"`

	ExtIOCallback *ExtIOCallbackMsg `json:"extiocallback,omitempty" msgpack:",omitempty"`
	Error         *ErrorMsg         `json:"error,omitempty" msgpack:",omitempty"`
	Ping          *PingMsg          `json:"ping,omitempty" msgpack:",omitempty"`
}

type HelloMsg struct {
	VersionNumber *uint32 `msgpack:",omitempty"`
	Name          *string `msgpack:",omitempty"`
}

type LoadExtIOApiMsg struct {
	ResultCode *uint8 `msgpack:",omitempty"`
}

type InitHWMsg struct {
	Result *bool   `msgpack:",omitempty"`
	Name   *string `msgpack:",omitempty"`
	Model  *string `msgpack:",omitempty"`
	Type   *int32  `msgpack:",omitempty"`
}

type OpenHWMsg struct {
	Result *int32 `msgpack:",omitempty"`
}

type SetHWLOMsg struct {
	LOFreq *int64 `msgpack:",omitempty"`
	Result *int32 `msgpack:",omitempty"`
}

type SetHWLO64Msg struct {
	LOFreq *int64 `msgpack:",omitempty"`
	Result *int32 `msgpack:",omitempty"`
}

type GetHWSRMsg struct {
	Result *float64 `msgpack:",omitempty"`
}

type StartHWMsg struct {
	LOFreq *int64 `msgpack:",omitempty"`
	Result *int32 `msgpack:",omitempty"`
}

type StopHWMsg struct {
	Result *int32 `msgpack:",omitempty"`
}

type VersionInfoMsg struct {
	SDRName  *string `msgpack:",omitempty"`
	Ver      *int32  `msgpack:",omitempty"`
	Revision *int32  `msgpack:",omitempty"`
}

type GetAttenuatorsMsg struct {
	Idx    *int32   `msgpack:",omitempty"`
	Value  *float32 `msgpack:",omitempty"`
	Result *int32   `msgpack:",omitempty"`
}

type GetActualAttIdxMsg struct {
	Result *int32 `msgpack:",omitempty"`
}

type ExtIoShowMGCMsg struct {
	AGCIdx *int32 `msgpack:",omitempty"`
	Result *int32 `msgpack:",omitempty"`
}

type ShowGUIMsg struct {
	Result *bool `msgpack:",omitempty"`
}

type HideGUIMsg struct {
	Result *bool `msgpack:",omitempty"`
}

type SwitchGUIMsg struct {
	Result *bool `msgpack:",omitempty"`
}

type ExtIoGetAGCsMsg struct {
	Idx    *int32  `msgpack:",omitempty"`
	Name   *string `msgpack:",omitempty"`
	Result *int32  `msgpack:",omitempty"`
}

type ExtIoGetActualAGCidxMsg struct {
	Result *int32 `msgpack:",omitempty"`
}

type ExtIoGetMGCsMsg struct {
	Idx    *int32   `msgpack:",omitempty"`
	Gain   *float32 `msgpack:",omitempty"`
	Result *int32   `msgpack:",omitempty"`
}

type ExtIoGetActualMgcIdxMsg struct {
	Result *int32 `msgpack:",omitempty"`
}

type ExtIoGetSratesMsg struct {
	Idx        *int32   `msgpack:",omitempty"`
	Samplerate *float64 `msgpack:",omitempty"`
	Result     *int32   `msgpack:",omitempty"`
}

type ExtIoGetActualSrateIdxMsg struct {
	Result *int32 `msgpack:",omitempty"`
}

type ExtIoSetSrateMsg struct {
	Idx    *int32 `msgpack:",omitempty"`
	Result *int32 `msgpack:",omitempty"`
}

type ExtIoGetBandwidthMsg struct {
	Bandwidth *float64 `msgpack:",omitempty"`
	Result    *int32   `msgpack:",omitempty"`
}

// ExtIOCallbackMsg is the stream payload: one vendor callback invocation
// serialized for the wire. IQData is cnt*sampleSize(dataType) bytes when
// Cnt > 0, per spec.md §4.2.
type ExtIOCallbackMsg struct {
	Cnt        *int32   `msgpack:",omitempty"`
	Status     *int32   `msgpack:",omitempty"`
	IQOffs     *float32 `msgpack:",omitempty"`
	IQData     []byte   `msgpack:",omitempty"`
	SampleSize *int32   `msgpack:",omitempty"`
}

type ErrorMsg struct {
	Code   *uint8  `msgpack:",omitempty"`
	Detail *string `msgpack:",omitempty"`
}

func NewErrorMsg(code errorcode.ErrorCode, detail string) *Message {
	c := uint8(code)
	return &Message{
		Error: &ErrorMsg{
			Code:   &c,
			Detail: &detail,
		},
	}
}

type PingMsg struct{}

// EnvelopeType distinguishes a request from a response in PackagedMessage.
type EnvelopeType uint8

const (
	Request  EnvelopeType = 0
	Response EnvelopeType = 1
)

func (t EnvelopeType) String() string {
	switch t {
	case Request:
		return "Request"
	case Response:
		return "Response"
	default:
		return "UnknownEnvelopeType"
	}
}

// PackagedMessage is the envelope framed into one packet.Message payload,
// per spec.md §3. DialogID == 0 marks an unsolicited (stream) message.
type PackagedMessage struct {
	DialogID   int64                 `msgpack:"dialog_id"`
	Type       EnvelopeType          `msgpack:"type"`
	Msg        Message               `msgpack:"msg"`
	ResultCode *errorcode.ErrorCode `msgpack:",omitempty"`
}

// Encode serializes a PackagedMessage to bytes suitable for a
// packet.Packet's Payload.
func Encode(pm *PackagedMessage) ([]byte, error) {
	b, err := msgpack.Marshal(pm)
	if err != nil {
		return nil, fmt.Errorf("message: encode failed, err=%w", err)
	}
	return b, nil
}

// Decode parses bytes previously produced by Encode. Unknown/extra fields
// in the wire data are ignored by msgpack's struct decoding, satisfying
// spec.md §4.2's "unknown content tags must not crash a peer".
func Decode(b []byte) (*PackagedMessage, error) {
	var pm PackagedMessage
	if err := msgpack.Unmarshal(b, &pm); err != nil {
		return nil, fmt.Errorf("message: decode failed, err=%w", err)
	}
	return &pm, nil
}

// GetMessageName returns the populated variant's field name, for logging.
// Returns "Empty" if no variant is set.
func GetMessageName(msg *Message) string {
	if msg == nil {
		return "Nil"
	}

	v := reflect.ValueOf(*msg)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Ptr && !field.IsNil() {
			return t.Field(i).Name
		}
	}
	return "Empty"
}
