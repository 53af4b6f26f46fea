package fiber

import "sync"

// Token is the parking primitive (spec §4.5 / C5): a task suspends on
// Park until some other task or the scheduler calls Unpark. A token is
// owned jointly by the task that parks on it and whichever external
// agent unparks it; the runtime's invariant is that at most one task is
// parked on a given token at a time (spec §8 property 3).
type Token struct {
	mu     sync.Mutex
	parked bool
}

// NewToken creates an unparked token.
func NewToken() *Token {
	return &Token{}
}

// Park sets the token's parked flag and yields the currently running
// fiber. It returns once some later Resume call is made on the owning
// task — the scheduler only resumes a task once its token has been
// unparked (see the scheduler's runnableThreads), so Park need not loop or re-check
// the flag itself.
func (t *Token) Park() {
	t.mu.Lock()
	t.parked = true
	t.mu.Unlock()
	Yield()
}

// Unpark clears the parked flag, making the owning task runnable again.
// Idempotent: unparking an already-unparked token is a no-op.
func (t *Token) Unpark() {
	t.mu.Lock()
	t.parked = false
	t.mu.Unlock()
}

// IsParked reports whether the token is currently parked.
func (t *Token) IsParked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.parked
}

// Reset returns the token to its initial, unparked state, so a token can
// be reused by a fresh task. The scheduler does not call it between
// rounds; a token is reset only where the code holding it calls Reset.
func (t *Token) Reset() {
	t.mu.Lock()
	t.parked = false
	t.mu.Unlock()
}
