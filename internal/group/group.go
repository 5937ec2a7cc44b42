// Package group enumerates the named timer groups scheduled on an arbiter
// strand, in the style of go-elect's arbiter.Group: a small closed set of
// values used as scheduler.TimerAsync/ReleaseGroupEvent keys so that a
// pending timer can be located and cancelled by purpose rather than by
// opaque handle.
package group

type Group uint8

const (
	GroupInvalid         Group = 0
	GroupConnectWait      Group = 1 // no timer is scheduled under it; WaitForConnection uses time.After
	GroupReconnectBackoff Group = 2 // client: delay before re-dialing
	GroupStopGrace        Group = 3 // no timer is scheduled under it; stop timeouts use time.After
)

func (g Group) String() string {
	switch g {
	case GroupConnectWait:
		return "ConnectWait"
	case GroupReconnectBackoff:
		return "ReconnectBackoff"
	case GroupStopGrace:
		return "StopGrace"
	default:
		return "InvalidGroup"
	}
}
