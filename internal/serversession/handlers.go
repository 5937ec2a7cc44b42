package serversession

import (
	"github.com/Meander-Cloud/extio-over-net/internal/errorcode"
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
)

// This file holds the per-variant request handlers from spec.md §4.5's
// dispatch table that are not part of the connect/handshake sequence in
// session.go: straightforward forward-to-vendor-and-propagate-result
// entries, each responding errorcode.NotImplemented when the vendor
// library does not export the optional symbol. ShowGUI, HideGUI and
// SwitchGUI are the exception: they always respond with the binding's
// bool as Result, so a missing GUI symbol yields Result=false, never
// NotImplemented.

func (s *Session) handleInitHW(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result := true
	s.parser.SendResponse(&message.Message{
		InitHW: &message.InitHWMsg{Result: &result, Name: &s.hwName, Model: &s.hwModel, Type: &s.hwType},
	}, did, nil)
}

func (s *Session) handleOpenHW(did int64) {
	if !s.requireVendor(did) {
		return
	}
	var result int32
	s.pump.Send(func() {
		result, _ = s.binding.OpenHW()
	})
	s.openHWSucceeded = result >= 0
	s.parser.SendResponse(&message.Message{OpenHW: &message.OpenHWMsg{Result: &result}}, did, nil)
}

func (s *Session) handleSetHWLO(did int64, req *message.SetHWLOMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.LOFreq == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	result, _ := s.binding.SetHWLO(*req.LOFreq)
	s.parser.SendResponse(&message.Message{SetHWLO: &message.SetHWLOMsg{LOFreq: req.LOFreq, Result: &result}}, did, nil)
}

// handleSetHWLO64 falls back to 32-bit SetHWLO, truncating the
// frequency, when the vendor does not export SetHWLO64, per spec.md
// §4.5's "SetHWLO64 fallback".
func (s *Session) handleSetHWLO64(did int64, req *message.SetHWLO64Msg) {
	if !s.requireVendor(did) {
		return
	}
	if req.LOFreq == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}

	result, ok := s.binding.SetHWLO64(*req.LOFreq)
	if !ok {
		truncated := int64(int32(*req.LOFreq))
		result, _ = s.binding.SetHWLO(truncated)
	}
	s.parser.SendResponse(&message.Message{SetHWLO64: &message.SetHWLO64Msg{LOFreq: req.LOFreq, Result: &result}}, did, nil)
}

func (s *Session) handleStartHW(did int64, req *message.StartHWMsg) {
	if !s.requireVendor(did) {
		return
	}
	var loFreq int64
	if req.LOFreq != nil {
		loFreq = *req.LOFreq
	}
	result, _ := s.binding.StartHW(loFreq)
	s.parser.SendResponse(&message.Message{StartHW: &message.StartHWMsg{LOFreq: req.LOFreq, Result: &result}}, did, nil)
}

func (s *Session) handleStopHW(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result, _ := s.binding.StopHW()
	s.parser.SendResponse(&message.Message{StopHW: &message.StopHWMsg{Result: &result}}, did, nil)
}

func (s *Session) handleGetHWSR(did int64) {
	if !s.requireVendor(did) {
		return
	}
	sr, ok := s.binding.GetHWSR()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{GetHWSR: &message.GetHWSRMsg{Result: &sr}}, did, nil)
}

func (s *Session) handleVersionInfo(did int64) {
	if !s.requireVendor(did) {
		return
	}
	name, ver, rev, ok := s.binding.VersionInfo()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{VersionInfo: &message.VersionInfoMsg{SDRName: &name, Ver: &ver, Revision: &rev}}, did, nil)
}

func (s *Session) handleGetAttenuators(did int64, req *message.GetAttenuatorsMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.Idx == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	value, result, ok := s.binding.GetAttenuators(*req.Idx)
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{GetAttenuators: &message.GetAttenuatorsMsg{Idx: req.Idx, Value: &value, Result: &result}}, did, nil)
}

func (s *Session) handleGetActualAttIdx(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result, ok := s.binding.GetActualAttIdx()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{GetActualAttIdx: &message.GetActualAttIdxMsg{Result: &result}}, did, nil)
}

func (s *Session) handleExtIoShowMGC(did int64, req *message.ExtIoShowMGCMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.AGCIdx == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	result, ok := s.binding.ExtIoShowMGC(*req.AGCIdx)
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoShowMGC: &message.ExtIoShowMGCMsg{AGCIdx: req.AGCIdx, Result: &result}}, did, nil)
}

func (s *Session) handleShowGUI(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result := s.binding.ShowGUI()
	s.parser.SendResponse(&message.Message{ShowGUI: &message.ShowGUIMsg{Result: &result}}, did, nil)
}

func (s *Session) handleHideGUI(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result := s.binding.HideGUI()
	s.parser.SendResponse(&message.Message{HideGUI: &message.HideGUIMsg{Result: &result}}, did, nil)
}

func (s *Session) handleSwitchGUI(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result := s.binding.SwitchGUI()
	s.parser.SendResponse(&message.Message{SwitchGUI: &message.SwitchGUIMsg{Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetAGCs(did int64, req *message.ExtIoGetAGCsMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.Idx == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	name, result, ok := s.binding.ExtIoGetAGCs(*req.Idx)
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetAGCs: &message.ExtIoGetAGCsMsg{Idx: req.Idx, Name: &name, Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetActualAGCidx(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result, ok := s.binding.ExtIoGetActualAGCidx()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetActualAGCidx: &message.ExtIoGetActualAGCidxMsg{Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetMGCs(did int64, req *message.ExtIoGetMGCsMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.Idx == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	gain, result, ok := s.binding.ExtIoGetMGCs(*req.Idx)
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetMGCs: &message.ExtIoGetMGCsMsg{Idx: req.Idx, Gain: &gain, Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetActualMgcIdx(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result, ok := s.binding.ExtIoGetActualMgcIdx()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetActualMgcIdx: &message.ExtIoGetActualMgcIdxMsg{Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetSrates(did int64, req *message.ExtIoGetSratesMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.Idx == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	samplerate, result, ok := s.binding.ExtIoGetSrates(*req.Idx)
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetSrates: &message.ExtIoGetSratesMsg{Idx: req.Idx, Samplerate: &samplerate, Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetActualSrateIdx(did int64) {
	if !s.requireVendor(did) {
		return
	}
	result, ok := s.binding.ExtIoGetActualSrateIdx()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetActualSrateIdx: &message.ExtIoGetActualSrateIdxMsg{Result: &result}}, did, nil)
}

func (s *Session) handleExtIoSetSrate(did int64, req *message.ExtIoSetSrateMsg) {
	if !s.requireVendor(did) {
		return
	}
	if req.Idx == nil {
		s.respondError(did, errorcode.InvalidArgument)
		return
	}
	result, ok := s.binding.ExtIoSetSrate(*req.Idx)
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoSetSrate: &message.ExtIoSetSrateMsg{Idx: req.Idx, Result: &result}}, did, nil)
}

func (s *Session) handleExtIoGetBandwidth(did int64) {
	if !s.requireVendor(did) {
		return
	}
	bandwidth, result, ok := s.binding.ExtIoGetBandwidth()
	if !ok {
		s.respondError(did, errorcode.NotImplemented)
		return
	}
	s.parser.SendResponse(&message.Message{ExtIoGetBandwidth: &message.ExtIoGetBandwidthMsg{Bandwidth: &bandwidth, Result: &result}}, did, nil)
}
