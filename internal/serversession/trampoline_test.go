package serversession

import "testing"

func drainPool(t *testing.T) []int {
	var acquired []int
	for i := 0; i < TrampolinePoolSize; i++ {
		idx, ok := AcquireTrampolineSlot(func(int32, int32, float32, []byte) {})
		if !ok {
			t.Fatalf("expected to acquire slot %d of %d", i, TrampolinePoolSize)
		}
		acquired = append(acquired, idx)
	}
	return acquired
}

func TestTrampolinePoolExhaustion(t *testing.T) {
	acquired := drainPool(t)
	defer func() {
		for _, idx := range acquired {
			ReleaseTrampolineSlot(idx)
		}
	}()

	if _, ok := AcquireTrampolineSlot(func(int32, int32, float32, []byte) {}); ok {
		t.Fatalf("expected pool exhaustion once all %d slots are taken", TrampolinePoolSize)
	}
}

func TestTrampolineDispatchesToStoredHandler(t *testing.T) {
	called := false
	idx, ok := AcquireTrampolineSlot(func(cnt int32, status int32, iqOffs float32, iqData []byte) {
		called = true
		if cnt != 512 || status != 0 {
			t.Fatalf("unexpected args: cnt=%d status=%d", cnt, status)
		}
	})
	if !ok {
		t.Fatalf("expected to acquire a slot")
	}
	defer ReleaseTrampolineSlot(idx)

	trampolineDispatch(idx)(512, 0, 0, nil)
	if !called {
		t.Fatalf("expected handler to be invoked")
	}
}

func TestReleaseThenReacquireSlot(t *testing.T) {
	fired := false
	idx, ok := AcquireTrampolineSlot(func(int32, int32, float32, []byte) { fired = true })
	if !ok {
		t.Fatalf("expected to acquire a slot")
	}
	ReleaseTrampolineSlot(idx)

	// after release, handler must not fire
	trampolineDispatch(idx)(1, 1, 0, nil)
	if fired {
		t.Fatalf("expected no handler after release")
	}

	idx2, ok := AcquireTrampolineSlot(func(int32, int32, float32, []byte) {})
	if !ok {
		t.Fatalf("expected to reacquire a slot")
	}
	defer ReleaseTrampolineSlot(idx2)
}
