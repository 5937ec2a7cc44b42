package clientsession

import (
	"github.com/Meander-Cloud/extio-over-net/internal/wire/message"
)

// This file is the blocking ExtIO facade: one method per entry point in
// spec.md §6's client facade list, each a thin wrapper over call()
// following the return-code conventions spec.md §6 lays out: -1 for
// integer and floating-point failures, false for bool failures, zero
// value for everything else when the round trip could not complete.

func (s *Session) InitHW() (result bool, name string, model string, dataType int32) {
	resp, err := s.call(&message.Message{InitHW: &message.InitHWMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.InitHW == nil {
		return false, "", "", 0
	}
	r := resp.InitHW
	if r.Result != nil {
		result = *r.Result
	}
	if r.Name != nil {
		name = *r.Name
	}
	if r.Model != nil {
		model = *r.Model
	}
	if r.Type != nil {
		dataType = *r.Type
	}
	return
}

func (s *Session) OpenHW() int32 {
	resp, err := s.call(&message.Message{OpenHW: &message.OpenHWMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.OpenHW == nil || resp.OpenHW.Result == nil {
		return -1
	}
	return *resp.OpenHW.Result
}

// CloseHW is local teardown only, per original_source/net_client/
// exports.cpp's CloseHW -> dll_main.cpp's DllDeinit: it never makes a wire
// round trip. StopHW is the separate exported entry point that does.
// Session.Stop (called by the cgo shim after this returns) tears down the
// connection and strand.
func (s *Session) CloseHW() {
}

func (s *Session) StartHW(loFreq int64) int32 {
	resp, err := s.call(&message.Message{StartHW: &message.StartHWMsg{LOFreq: &loFreq}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.StartHW == nil || resp.StartHW.Result == nil {
		return -1
	}
	return *resp.StartHW.Result
}

func (s *Session) StopHW() int32 {
	resp, err := s.call(&message.Message{StopHW: &message.StopHWMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.StopHW == nil || resp.StopHW.Result == nil {
		return -1
	}
	return *resp.StopHW.Result
}

func (s *Session) SetHWLOFacade(loFreq int64) int32 {
	resp, err := s.call(&message.Message{SetHWLO: &message.SetHWLOMsg{LOFreq: &loFreq}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.SetHWLO == nil || resp.SetHWLO.Result == nil {
		return -1
	}
	return *resp.SetHWLO.Result
}

func (s *Session) SetHWLO64Facade(loFreq int64) int32 {
	resp, err := s.call(&message.Message{SetHWLO64: &message.SetHWLO64Msg{LOFreq: &loFreq}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.SetHWLO64 == nil || resp.SetHWLO64.Result == nil {
		return -1
	}
	return *resp.SetHWLO64.Result
}

func (s *Session) GetHWSR() float64 {
	resp, err := s.call(&message.Message{GetHWSR: &message.GetHWSRMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.GetHWSR == nil || resp.GetHWSR.Result == nil {
		return -1
	}
	return *resp.GetHWSR.Result
}

func (s *Session) VersionInfo() (sdrName string, ver int32, revision int32) {
	resp, err := s.call(&message.Message{VersionInfo: &message.VersionInfoMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.VersionInfo == nil {
		return "", -1, -1
	}
	r := resp.VersionInfo
	if r.SDRName != nil {
		sdrName = *r.SDRName
	}
	if r.Ver != nil {
		ver = *r.Ver
	}
	if r.Revision != nil {
		revision = *r.Revision
	}
	return
}

func (s *Session) GetAttenuators(idx int32) (value float32, result int32) {
	resp, err := s.call(&message.Message{GetAttenuators: &message.GetAttenuatorsMsg{Idx: &idx}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.GetAttenuators == nil {
		return 0, -1
	}
	r := resp.GetAttenuators
	if r.Value != nil {
		value = *r.Value
	}
	if r.Result != nil {
		result = *r.Result
	} else {
		result = -1
	}
	return
}

func (s *Session) GetActualAttIdx() int32 {
	resp, err := s.call(&message.Message{GetActualAttIdx: &message.GetActualAttIdxMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.GetActualAttIdx == nil || resp.GetActualAttIdx.Result == nil {
		return -1
	}
	return *resp.GetActualAttIdx.Result
}

func (s *Session) ExtIoShowMGC(agcIdx int32) int32 {
	resp, err := s.call(&message.Message{ExtIoShowMGC: &message.ExtIoShowMGCMsg{AGCIdx: &agcIdx}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoShowMGC == nil || resp.ExtIoShowMGC.Result == nil {
		return -1
	}
	return *resp.ExtIoShowMGC.Result
}

func (s *Session) ShowGUI() bool {
	resp, err := s.call(&message.Message{ShowGUI: &message.ShowGUIMsg{}}, s.options.RequestTimeout)
	return err == nil && resp != nil && resp.ShowGUI != nil && resp.ShowGUI.Result != nil && *resp.ShowGUI.Result
}

func (s *Session) HideGUI() bool {
	resp, err := s.call(&message.Message{HideGUI: &message.HideGUIMsg{}}, s.options.RequestTimeout)
	return err == nil && resp != nil && resp.HideGUI != nil && resp.HideGUI.Result != nil && *resp.HideGUI.Result
}

func (s *Session) SwitchGUI() bool {
	resp, err := s.call(&message.Message{SwitchGUI: &message.SwitchGUIMsg{}}, s.options.RequestTimeout)
	return err == nil && resp != nil && resp.SwitchGUI != nil && resp.SwitchGUI.Result != nil && *resp.SwitchGUI.Result
}

func (s *Session) ExtIoGetAGCs(idx int32) (name string, result int32) {
	resp, err := s.call(&message.Message{ExtIoGetAGCs: &message.ExtIoGetAGCsMsg{Idx: &idx}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetAGCs == nil {
		return "", -1
	}
	r := resp.ExtIoGetAGCs
	if r.Name != nil {
		name = *r.Name
	}
	if r.Result != nil {
		result = *r.Result
	} else {
		result = -1
	}
	return
}

func (s *Session) ExtIoGetActualAGCidx() int32 {
	resp, err := s.call(&message.Message{ExtIoGetActualAGCidx: &message.ExtIoGetActualAGCidxMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetActualAGCidx == nil || resp.ExtIoGetActualAGCidx.Result == nil {
		return -1
	}
	return *resp.ExtIoGetActualAGCidx.Result
}

func (s *Session) ExtIoGetMGCs(idx int32) (gain float32, result int32) {
	resp, err := s.call(&message.Message{ExtIoGetMGCs: &message.ExtIoGetMGCsMsg{Idx: &idx}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetMGCs == nil {
		return 0, -1
	}
	r := resp.ExtIoGetMGCs
	if r.Gain != nil {
		gain = *r.Gain
	}
	if r.Result != nil {
		result = *r.Result
	} else {
		result = -1
	}
	return
}

func (s *Session) ExtIoGetActualMgcIdx() int32 {
	resp, err := s.call(&message.Message{ExtIoGetActualMgcIdx: &message.ExtIoGetActualMgcIdxMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetActualMgcIdx == nil || resp.ExtIoGetActualMgcIdx.Result == nil {
		return -1
	}
	return *resp.ExtIoGetActualMgcIdx.Result
}

func (s *Session) ExtIoGetSrates(idx int32) (samplerate float64, result int32) {
	resp, err := s.call(&message.Message{ExtIoGetSrates: &message.ExtIoGetSratesMsg{Idx: &idx}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetSrates == nil {
		return 0, -1
	}
	r := resp.ExtIoGetSrates
	if r.Samplerate != nil {
		samplerate = *r.Samplerate
	}
	if r.Result != nil {
		result = *r.Result
	} else {
		result = -1
	}
	return
}

func (s *Session) ExtIoGetActualSrateIdx() int32 {
	resp, err := s.call(&message.Message{ExtIoGetActualSrateIdx: &message.ExtIoGetActualSrateIdxMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetActualSrateIdx == nil || resp.ExtIoGetActualSrateIdx.Result == nil {
		return -1
	}
	return *resp.ExtIoGetActualSrateIdx.Result
}

func (s *Session) ExtIoSetSrate(idx int32) int32 {
	resp, err := s.call(&message.Message{ExtIoSetSrate: &message.ExtIoSetSrateMsg{Idx: &idx}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoSetSrate == nil || resp.ExtIoSetSrate.Result == nil {
		return -1
	}
	return *resp.ExtIoSetSrate.Result
}

func (s *Session) ExtIoGetBandwidth() float64 {
	resp, err := s.call(&message.Message{ExtIoGetBandwidth: &message.ExtIoGetBandwidthMsg{}}, s.options.RequestTimeout)
	if err != nil || resp == nil || resp.ExtIoGetBandwidth == nil || resp.ExtIoGetBandwidth.Bandwidth == nil {
		return -1
	}
	return *resp.ExtIoGetBandwidth.Bandwidth
}
