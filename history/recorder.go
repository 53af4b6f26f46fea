package history

import "sync"

// Recorder accumulates events for a single round. It is the component
// the scheduler calls into (C6): Invoke is appended before the first
// resume of a call, Response (or its dual counterparts) on observed
// return. Grounded on the teacher's CallbackQueue shape (a mutex-guarded
// append-only slice) — simpler than a channel here since the scheduler
// drives recording synchronously, never from a second goroutine.
type Recorder struct {
	mu sync.Mutex
	h  History
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends e as the next event in emission order. Per spec §4.6,
// events from the same thread are totally ordered by emission, and the
// resulting sequence defines history order wholesale.
func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h = append(r.h, e)
}

// History returns a snapshot of the recorded events.
func (r *Recorder) History() History {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(History, len(r.h))
	copy(out, r.h)
	return out
}

// Len reports how many events have been recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.h)
}

// Reset clears the recorder for a fresh round.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h = nil
}
