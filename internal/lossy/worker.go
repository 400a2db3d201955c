package lossy

import "sync"

// Worker hands off one job at a time to a goroutine and lets the caller
// wait for it: Reset clears any stale job state, Launch spawns a goroutine
// to run hook(data1, data2) and returns immediately, Sync blocks until that
// goroutine finishes. This mirrors the Launch/Sync shape of the row-worker
// handoff in the encoder's parallel row pipeline
// (internal/lossy/encode_parallel.go in the reference pack), generalized
// here from per-macroblock encoding work to per-row decode-side loop
// filtering. Unlike that pipeline's long-lived per-core goroutines, each
// Launch here gets its own goroutine: a Worker embedded in a pooled
// *Decoder must never keep a goroutine alive past the Decoder's own
// lifetime, since sync.Pool gives no eviction hook to stop it.
type Worker struct {
	mu   sync.Mutex
	cond *sync.Cond
	done bool
	ok   bool
}

// Reset clears the worker's job state. Safe to call repeatedly, including
// on a pooled Worker from a previous frame.
func (w *Worker) Reset() {
	w.mu.Lock()
	if w.cond == nil {
		w.cond = sync.NewCond(&w.mu)
	}
	w.done = true
	w.ok = true
	w.mu.Unlock()
}

// Launch runs hook(data1, data2) on a new goroutine. The caller must have
// already Synced any previous job before launching another.
func (w *Worker) Launch(hook func(data1, data2 interface{}) bool, data1, data2 interface{}) {
	w.mu.Lock()
	w.done = false
	w.mu.Unlock()

	go func() {
		ok := hook(data1, data2)
		w.mu.Lock()
		w.ok = ok
		w.done = true
		w.cond.Broadcast()
		w.mu.Unlock()
	}()
}

// Sync blocks until the most recently Launched job finishes and reports
// whether its hook returned true. Sync with no pending job returns the
// last job's result immediately.
func (w *Worker) Sync() bool {
	w.mu.Lock()
	for !w.done {
		w.cond.Wait()
	}
	ok := w.ok
	w.mu.Unlock()
	return ok
}

// End is a no-op kept for API symmetry with Reset/Launch/Sync: since each
// Launch owns its goroutine's entire lifetime, there is nothing left
// running once Sync has returned.
func (w *Worker) End() {}

// rowPipeline overlaps loop filtering of a completed row with parsing and
// reconstruction of the next row. It keeps at most numCaches-1 rows of
// filtering lag behind reconstruction; since the complex/simple filters
// only read a row's own cache slice plus the bottom edge of the row
// already filtered immediately above it, filtering row N never touches
// the cache region reconstructRow writes for row N+1, so the two can run
// concurrently without synchronization beyond the Launch/Sync pairing.
type rowPipeline struct {
	worker Worker
	active bool
}

// chooseNumCaches mirrors libwebp's MT_CACHE_LINES selection: how many
// rows of lag the threaded filter pipeline is allowed before it must
// catch up. Returned only for diagnostic/tuning purposes; the pipeline
// itself only ever runs one filter job ahead since a single Worker can
// hold one in flight.
func (dec *Decoder) chooseNumCaches() int {
	if dec.filterType == 0 || dec.mbH <= 1 {
		return 1
	}
	if dec.mbH == 2 {
		return 2
	}
	return 3
}

// initPipeline decides whether to run the loop filter on a background
// worker goroutine overlapped with the next row's reconstruction, and
// resets that worker if so. Call once per frame, after dimensions are
// known.
func (dec *Decoder) initPipeline() {
	dec.pipeline.active = dec.chooseNumCaches() > 1
	if dec.pipeline.active {
		dec.pipeline.worker.Reset()
	}
}

// filterRowAsync dispatches the loop filter for macroblock row mbY to the
// pipeline worker. The caller must Sync before the cache rows mbY touches
// are read (e.g. before copying output planes out of the decoder).
func (dec *Decoder) filterRowAsync(mbY int) {
	dec.pipeline.worker.Launch(func(d1, _ interface{}) bool {
		d := d1.(*Decoder)
		d.filterRowAt(mbY)
		return true
	}, dec, nil)
}
