// Trampoline pool: the server maintains a fixed number of vendor
// callback slots so that many concurrent Server Sessions can each
// install a distinct handler against a vendor ABI that only accepts one
// plain C function pointer with no user-data argument, per spec.md §4.5
// and §9's "Global callback trampoline table" design note.
//
// Grounded on original_source/tcp_server/session.cpp's
// ExtIOCallbackNode<idx> template plus the mutex-guarded
// SetupExtIOCallback/FreeExtIOCallback circular search: there, each slot
// is materialized as its own static C function so the vendor library can
// hold a bare pointer to it; here vendorapi.Callback is already a Go
// closure, so one generic dispatcher keyed by slot index plays the same
// role, but the fixed-size array and circular-search allocation are kept
// verbatim to preserve the pool-exhaustion behavior spec.md describes
// ("when full, LoadExtIOApi returns Error").
package serversession

import "sync"

// TrampolinePoolSize is N from spec.md §4.5 ("observed N=5"): the
// maximum number of concurrent sessions that can have a vendor callback
// installed at once.
const TrampolinePoolSize = 5

type trampolineSlot struct {
	mu      sync.Mutex
	inUse   bool
	handler func(cnt int32, status int32, iqOffs float32, iqData []byte)
}

var (
	poolMu     sync.Mutex
	pool       [TrampolinePoolSize]trampolineSlot
	nextSearch int
)

// AcquireTrampolineSlot claims the next free slot via circular search
// starting from nextSearch, per the original's allocation discipline.
// Returns ok=false if every slot is in use.
func AcquireTrampolineSlot(handler func(cnt int32, status int32, iqOffs float32, iqData []byte)) (int, bool) {
	poolMu.Lock()
	defer poolMu.Unlock()

	for i := 0; i < TrampolinePoolSize; i++ {
		idx := (nextSearch + i) % TrampolinePoolSize
		slot := &pool[idx]

		slot.mu.Lock()
		free := !slot.inUse
		if free {
			slot.inUse = true
			slot.handler = handler
		}
		slot.mu.Unlock()

		if free {
			nextSearch = (idx + 1) % TrampolinePoolSize
			return idx, true
		}
	}

	return -1, false
}

// ReleaseTrampolineSlot clears a slot's closure, making it available
// again. Called from the owning session's teardown path.
func ReleaseTrampolineSlot(idx int) {
	if idx < 0 || idx >= TrampolinePoolSize {
		return
	}
	slot := &pool[idx]
	slot.mu.Lock()
	slot.handler = nil
	slot.inUse = false
	slot.mu.Unlock()
}

// trampolineDispatch returns the fixed per-slot entry point passed to
// vendorapi.Binding.SetCallback: it reads whatever handler is currently
// stored in the slot under the slot's own mutex and forwards the call,
// exactly mirroring the static C function / stored std::function split
// in the original.
func trampolineDispatch(idx int) func(cnt int32, status int32, iqOffs float32, iqData []byte) {
	return func(cnt int32, status int32, iqOffs float32, iqData []byte) {
		slot := &pool[idx]
		slot.mu.Lock()
		handler := slot.handler
		slot.mu.Unlock()

		if handler != nil {
			handler(cnt, status, iqOffs, iqData)
		}
	}
}
