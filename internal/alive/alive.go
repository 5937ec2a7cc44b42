// Package alive implements the Alive Guard primitive: a cheap way for async
// continuations to detect that the object that scheduled them has since been
// torn down, and skip running rather than touch freed/stale state.
//
// Grounded on original_source/utils/IsAlive.h (AliveInstance/AliveFlag). Go
// has no destructors, so where the C++ flips the flag in ~AliveInstance, the
// owner here must call Release explicitly from its teardown path; every
// owner that embeds an Instance does so (see clientsession/serversession
// Stop methods).
package alive

import "sync/atomic"

// Instance is owned by the object whose liveness continuations need to
// observe. Zero value is not usable; use New.
type Instance struct {
	flag *atomic.Bool
}

func New() *Instance {
	flag := &atomic.Bool{}
	flag.Store(true)
	return &Instance{flag: flag}
}

// Release marks the instance dead. Idempotent. Call from the owner's
// teardown path exactly once the owner will no longer touch shared state.
func (i *Instance) Release() {
	i.flag.Store(false)
}

// Flag returns a cheap copyable handle that continuations capture.
func (i *Instance) Flag() Flag {
	return Flag{flag: i.flag}
}

// Flag is held by an async continuation. IsAlive reports whether the owning
// Instance is still live; continuations should check this before touching
// any state owned by the instance and return early if false.
type Flag struct {
	flag *atomic.Bool
}

func (f Flag) IsAlive() bool {
	return f.flag.Load()
}
