// Package vendorapi defines the server's boundary with the vendor ExtIO
// dynamic library. Per spec.md §1, the library's exact C-ABI entry points
// are an external collaborator, specified only by interface; this package
// is that interface plus one concrete loader (purego.go) that resolves
// the real symbols at runtime.
package vendorapi

// Callback matches the vendor's native IQ-sample delivery signature:
// sample-tuple count (may be <= 0 for status-only events), an integer
// event code, a fractional LO offset, and the raw interleaved sample
// bytes (cnt * sampleSize(dataType) bytes, empty when cnt <= 0).
type Callback func(cnt int32, status int32, iqOffs float32, iqData []byte)

// Binding is the subset of the ExtIO API the server drives directly, per
// spec.md §4.5's dispatch table. Every optional entry point returns a
// trailing `ok bool`: false means the vendor library does not export that
// symbol, and the caller must respond with errorcode.NotImplemented
// rather than treat the zero value as a real result.
//
// ShowGUI, HideGUI and SwitchGUI return a single bool instead: it is false
// both when the vendor does not export the symbol and when the call
// itself reports failure, so the two cases cannot be told apart.
type Binding interface {
	// InitHW is mandatory: every vendor library exports it.
	InitHW() (ok bool, name string, model string, dataType int32)

	OpenHW() (result int32, ok bool)
	CloseHW(ok bool)
	StartHW(loFreq int64) (result int32, ok bool)
	StopHW() (result int32, ok bool)

	SetHWLO(loFreq int64) (result int32, ok bool)
	// SetHWLO64 reports ok=false when the vendor does not export the
	// 64-bit entry point; the server falls back to SetHWLO in that case
	// per spec.md §4.5.
	SetHWLO64(loFreq int64) (result int32, ok bool)

	GetHWSR() (sampleRate float64, ok bool)
	SetCallback(cb Callback) (ok bool)

	VersionInfo() (sdrName string, ver int32, revision int32, ok bool)
	GetAttenuators(idx int32) (value float32, result int32, ok bool)
	GetActualAttIdx() (result int32, ok bool)
	ExtIoShowMGC(agcIdx int32) (result int32, ok bool)

	ShowGUI() (ok bool)
	HideGUI() (ok bool)
	SwitchGUI() (ok bool)

	ExtIoGetAGCs(idx int32) (name string, result int32, ok bool)
	ExtIoGetActualAGCidx() (result int32, ok bool)
	ExtIoGetMGCs(idx int32) (gain float32, result int32, ok bool)
	ExtIoGetActualMgcIdx() (result int32, ok bool)
	ExtIoGetSrates(idx int32) (samplerate float64, result int32, ok bool)
	ExtIoGetActualSrateIdx() (result int32, ok bool)
	ExtIoSetSrate(idx int32) (result int32, ok bool)
	ExtIoGetBandwidth() (bandwidth float64, result int32, ok bool)

	// Close releases the underlying shared library handle.
	Close() error
}

// SampleSize maps an ExtIO dataType code to the byte width of one IQ
// sample tuple, per spec.md §3 ("HW cache") and
// original_source/tcp_server/session.cpp's HW_cache::SampleSize.
//
// Values observed in the original: 16-bit formats -> 4 bytes (2 x
// int16), 32-bit/float32/PCM32 formats -> 8 bytes (2 x int32/float32),
// 24-bit -> 6 bytes (2 x 3-byte), 8-bit -> 2 bytes (2 x int8).
func SampleSize(dataType int32) int32 {
	switch dataType {
	case DataType16Bit:
		return 4
	case DataType32Bit, DataTypeFloat32, DataTypePCM32:
		return 8
	case DataType24Bit:
		return 6
	case DataType8Bit:
		return 2
	default:
		return 4
	}
}

// ExtIO hardware data type codes, matching the vendor ABI's exthw*data*
// constants.
const (
	DataType16Bit   int32 = 0
	DataType24Bit   int32 = 1
	DataType32Bit   int32 = 2
	DataTypeFloat32 int32 = 3
	DataTypePCM32   int32 = 4
	DataType8Bit    int32 = 5
)

// ExtIO status codes passed to Callback's status argument on
// disconnect/lifecycle events, matching the vendor ABI's extHw_* enum
// subset the session needs to synthesize.
const (
	StatusStop         int32 = 0
	StatusDisconnected int32 = 1
	StatusReady        int32 = 2
	StatusRunning      int32 = 3
)
