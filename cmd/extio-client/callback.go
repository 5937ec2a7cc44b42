//go:build !windows

package main

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/Meander-Cloud/extio-over-net/internal/vendorapi"
)

// nativeCallback wraps the raw pfnExtIOCallback function pointer the host
// SDR application hands us through SetCallback, registering it as a Go
// function value via purego so the Client Session can invoke it like any
// other call. The native function receives a pointer to the first byte of
// each delivered payload (0 when the payload is empty); no copy is made,
// so the pointer is valid only for the duration of the call.
//
// Grounded on internal/vendorapi/purego.go's purego.RegisterLibFunc usage,
// generalized here from "resolve a named symbol in a library" to
// "resolve a bare function pointer handed to us at runtime".
func nativeCallback(fn unsafe.Pointer) vendorapi.Callback {
	var raw func(cnt int32, status int32, iqOffs float32, iqData uintptr)
	purego.RegisterFunc(&raw, uintptr(fn))

	return func(cnt int32, status int32, iqOffs float32, iqData []byte) {
		var ptr uintptr
		if len(iqData) > 0 {
			ptr = uintptr(unsafe.Pointer(&iqData[0]))
		}
		raw(cnt, status, iqOffs, ptr)
	}
}
