package lossy

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerLaunchSync(t *testing.T) {
	var w Worker
	w.Reset()
	defer w.End()

	var ran int32
	w.Launch(func(d1, d2 interface{}) bool {
		atomic.AddInt32(&ran, 1)
		return true
	}, nil, nil)

	if ok := w.Sync(); !ok {
		t.Fatalf("Sync() = false, want true")
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("hook ran %d times, want 1", ran)
	}
}

func TestWorkerSyncWaitsForJob(t *testing.T) {
	var w Worker
	w.Reset()
	defer w.End()

	done := make(chan struct{})
	w.Launch(func(d1, d2 interface{}) bool {
		<-done
		return true
	}, nil, nil)

	syncReturned := make(chan bool)
	go func() {
		syncReturned <- w.Sync()
	}()

	select {
	case <-syncReturned:
		t.Fatal("Sync returned before job signaled completion")
	case <-time.After(20 * time.Millisecond):
	}

	close(done)
	if ok := <-syncReturned; !ok {
		t.Fatalf("Sync() = false, want true")
	}
}

func TestWorkerHookFailure(t *testing.T) {
	var w Worker
	w.Reset()
	defer w.End()

	w.Launch(func(d1, d2 interface{}) bool {
		return false
	}, nil, nil)

	if ok := w.Sync(); ok {
		t.Fatalf("Sync() = true, want false")
	}
}

func TestWorkerPassesPayloads(t *testing.T) {
	var w Worker
	w.Reset()
	defer w.End()

	type payload struct{ n int }
	p1 := &payload{n: 7}
	p2 := &payload{n: 9}

	w.Launch(func(d1, d2 interface{}) bool {
		a := d1.(*payload)
		b := d2.(*payload)
		return a.n+b.n == 16
	}, p1, p2)

	if ok := w.Sync(); !ok {
		t.Fatalf("Sync() = false, want true")
	}
}

func TestChooseNumCaches(t *testing.T) {
	tests := []struct {
		filterType int
		mbH        int
		want       int
	}{
		{filterType: 0, mbH: 10, want: 1},
		{filterType: 1, mbH: 1, want: 1},
		{filterType: 1, mbH: 2, want: 2},
		{filterType: 2, mbH: 3, want: 3},
	}
	for _, tt := range tests {
		dec := &Decoder{filterType: tt.filterType, mbH: tt.mbH}
		if got := dec.chooseNumCaches(); got != tt.want {
			t.Errorf("chooseNumCaches(filterType=%d, mbH=%d) = %d, want %d",
				tt.filterType, tt.mbH, got, tt.want)
		}
	}
}
