// Package fiber implements the stackful cooperative coroutine that
// everything else in the engine resumes one step at a time. A fiber is
// backed by a goroutine that only ever runs while it holds the baton:
// Resume hands the baton in and blocks until the fiber yields or exits,
// Yield hands it back. Exactly one fiber's goroutine is unblocked at any
// instant, which is what lets the rest of the engine treat the whole
// thing as single-threaded.
package fiber

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a fiber.
type State int32

const (
	Ready State = iota
	Running
	Suspended
	Dead
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Suspended:
		return "SUSPENDED"
	case Dead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

type killSignal struct{}

// Fiber is a stackful coroutine. The zero value is not usable; build one
// with New.
type Fiber struct {
	id       int64
	resumeCh chan struct{}
	yieldCh  chan struct{}

	mu      sync.Mutex
	state   State
	killed  bool
	started bool
	err     error // set if entry panicked (other than a kill)
}

var fiberIDCounter int64

// current is the fiber currently holding the baton. It is only ever
// written by Resume/Terminate (immediately before handing the baton to
// the fiber goroutine) and only ever read by code running inside that
// same fiber's goroutine between being resumed and yielding back — the
// single-threaded cooperative contract (spec §5) makes that safe without
// extra synchronization. This mirrors the source runtime's process-wide
// `this_coro` accessor.
var current *Fiber

// Current returns the fiber presently holding the baton, or nil if none
// does (no fiber is running).
func Current() *Fiber {
	return current
}

// New allocates a fiber. The fiber starts suspended: entry does not run
// until the first Resume.
func New(entry func()) *Fiber {
	id := atomic.AddInt64(&fiberIDCounter, 1)
	f := &Fiber{
		id:       id,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan struct{}),
		state:    Ready,
	}

	go func() {
		<-f.resumeCh
		f.setState(Running)

		if f.isKilled() {
			f.setState(Dead)
			f.yieldCh <- struct{}{}
			return
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					if _, ok := r.(killSignal); !ok {
						f.mu.Lock()
						f.err = fmt.Errorf("fiber: entry panicked: %v", r)
						f.mu.Unlock()
					}
				}
			}()
			entry()
		}()

		f.setState(Dead)
		f.yieldCh <- struct{}{}
	}()

	return f
}

// ID returns the fiber's identity, stable for its lifetime.
func (f *Fiber) ID() int64 { return f.id }

func (f *Fiber) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// State returns the fiber's current lifecycle state.
func (f *Fiber) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsDead reports whether the fiber has exited.
func (f *Fiber) IsDead() bool { return f.State() == Dead }

func (f *Fiber) isKilled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killed
}

// Err returns the error captured if entry panicked, once the fiber has
// exited. A panic from Terminate's kill signal is not reported here.
func (f *Fiber) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Resume transfers control into the fiber until it yields or exits.
// Panics if the fiber has already exited.
func (f *Fiber) Resume() {
	if f.IsDead() {
		panic("fiber: resume of a dead fiber")
	}
	prev := current
	current = f
	f.resumeCh <- struct{}{}
	<-f.yieldCh
	current = prev
}

// Yield suspends the currently running fiber and transfers control back
// to whoever called Resume. It is a package-level function, not a
// method, because it is called from inside the fiber's own call stack
// (by the compiler-inserted suspension points or by Token.Park), which
// has no handle to the Fiber object — only Current() does.
func Yield() {
	f := current
	if f == nil {
		panic("fiber: Yield called outside a running fiber")
	}
	f.setState(Suspended)
	f.yieldCh <- struct{}{}
	<-f.resumeCh
	f.setState(Running)
	if f.isKilled() {
		panic(killSignal{})
	}
}

// Terminate forcibly unwinds the fiber's stack at its current suspension
// point and reclaims it. Safe to call whether or not the fiber has ever
// been resumed; a no-op if it has already exited.
func (f *Fiber) Terminate() {
	if f.IsDead() {
		return
	}
	f.mu.Lock()
	f.killed = true
	f.mu.Unlock()

	prev := current
	current = f
	f.resumeCh <- struct{}{}
	<-f.yieldCh
	current = prev
}
