// Package scheduler implements the round-driving engine (C7): it builds
// fresh stackful tasks against a fresh target each round, resumes a
// runnable one at a time according to a pluggable policy, renders the
// invoke/response protocol (including the blocking dual-pair split) into
// a history.Recorder, and hands the finished history to the checker.
package scheduler

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/thanhhung97/ltest/checker"
	"github.com/thanhhung97/ltest/history"
	"github.com/thanhhung97/ltest/task"
	"github.com/thanhhung97/ltest/valuebox"
)

// Config is the engine's entry-point parameterization (spec §6): thread
// count, round count, per-round step budget, and the two factories the
// caller supplies — a fresh target per round, and a fresh per-thread
// call sequence per round (so each round can draw fresh arguments).
type Config struct {
	Threads    int
	Rounds     int
	StepBudget int
	Seed       int64

	NewTarget func() any
	Builders  func(thread int) []*task.Builder

	Policy Policy // nil selects UniformRandomPolicy
}

// Stats mirrors the instrumentation shape of a fiber scheduler's
// counters: plain run totals, kept atomic for the same reason the
// pattern is normally atomic even though this engine never resumes two
// fibers at once.
type Stats struct {
	RoundsRun      atomic.Int64
	StepsTaken     atomic.Int64
	BudgetAborts   atomic.Int64
	DeadlockAborts atomic.Int64
}

// RoundResult is one round's outcome.
type RoundResult struct {
	History        history.History
	Verdict        *checker.Result
	TargetFailure  error // a target assertion failure observed mid-round
	BudgetExceeded bool
	// Deadlocked reports a round that stalled with a nonempty runnable
	// set impossible — some thread is still unfinished but every
	// unfinished thread is parked with no one left to unpark it — before
	// the step budget was ever reached. Spec §4.7/§7 treats this the
	// same as budget exhaustion: the round's (incomplete) history must
	// be discarded, never handed to the checker, since a dangling
	// Request half with no FollowUp half is not a finished call.
	Deadlocked bool
}

// Result is the whole run's outcome.
type Result struct {
	OK      bool
	Rounds  []RoundResult
	Failed  *RoundResult // the first round that was not OK, if any
	AtRound int
	Stats   *Stats
}

// Engine drives rounds against a target factory and checks each
// resulting history against spec.
type Engine struct {
	cfg    Config
	spec   *checker.Spec
	rng    *rand.Rand
	policy Policy
	stats  Stats
}

// New builds an Engine. Precondition: cfg.Threads > 0, cfg.NewTarget and
// cfg.Builders are non-nil.
func New(cfg Config, spec *checker.Spec) *Engine {
	policy := cfg.Policy
	if policy == nil {
		policy = UniformRandomPolicy
	}
	return &Engine{
		cfg:    cfg,
		spec:   spec,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		policy: policy,
	}
}

// Run executes cfg.Rounds rounds, stopping at the first non-OK verdict
// (spec §4.7 step 3: "if non-linearizable, report and halt").
func (e *Engine) Run() *Result {
	res := &Result{OK: true, Stats: &e.stats}

	for r := 0; r < e.cfg.Rounds; r++ {
		e.stats.RoundsRun.Add(1)
		rr := e.runRound()
		res.Rounds = append(res.Rounds, rr)

		if rr.BudgetExceeded || rr.Deadlocked {
			continue
		}
		if rr.TargetFailure != nil || (rr.Verdict != nil && !rr.Verdict.OK) {
			res.OK = false
			res.Failed = &res.Rounds[len(res.Rounds)-1]
			res.AtRound = r
			return res
		}
	}

	return res
}

// threadState tracks one thread's progress through its per-round call
// sequence and the invoke/response sub-phase of its current call.
type threadState struct {
	builders []*task.Builder
	idx      int

	current *task.StackfulTask

	emittedInvoke   bool // Invoke/RequestInvoke sent for the in-flight call
	requestDone     bool // blocking call's request half has completed (token observed parked)
	followUpInvoked bool // FollowUpInvoke sent for the in-flight call
}

func (ts *threadState) callDone() bool {
	return ts.current == nil && ts.idx >= len(ts.builders)
}

func (ts *threadState) advance(target any, thread int) {
	ts.idx++
	ts.emittedInvoke = false
	ts.requestDone = false
	ts.followUpInvoked = false
	if ts.idx < len(ts.builders) {
		ts.current = task.New(ts.builders[ts.idx], target, thread)
	} else {
		ts.current = nil
	}
}

// runRound plays out a single round to completion, budget exhaustion,
// or deadlock (every unfinished thread permanently parked).
func (e *Engine) runRound() RoundResult {
	target := e.cfg.NewTarget()
	rec := history.NewRecorder()

	threads := make([]*threadState, e.cfg.Threads)
	for i := 0; i < e.cfg.Threads; i++ {
		builders := e.cfg.Builders(i)
		ts := &threadState{builders: builders, idx: -1}
		ts.advance(target, i)
		threads[i] = ts
	}

	for steps := 0; ; steps++ {
		if steps >= e.cfg.StepBudget {
			for _, ts := range threads {
				if ts.current != nil {
					ts.current.Terminate()
				}
			}
			e.stats.BudgetAborts.Add(1)
			return RoundResult{BudgetExceeded: true}
		}

		runnable := e.runnableThreads(threads)
		if len(runnable) == 0 {
			if allThreadsDone(threads) {
				break
			}
			// Every unfinished thread is parked (or suspended behind a
			// parked child) with no one left to unpark it: the round
			// stalled, not completed. Spec §4.7/§7 treats this like
			// budget exhaustion — discard the round rather than hand the
			// checker an incomplete history (spec.md: "Parked tasks
			// whose token is never unparked will eventually hit the
			// budget; this is not an error").
			for _, ts := range threads {
				if ts.current != nil {
					ts.current.Terminate()
				}
			}
			e.stats.DeadlockAborts.Add(1)
			return RoundResult{Deadlocked: true}
		}

		choice := threads[runnable[e.policy(e.rng, runnable)]]
		e.stats.StepsTaken.Add(1)

		if err := e.step(choice, rec, target); err != nil {
			return RoundResult{History: rec.History(), TargetFailure: err}
		}
	}

	h := rec.History()
	verdict, err := checker.New(e.spec).Check(h)
	if err != nil {
		return RoundResult{History: h, TargetFailure: fmt.Errorf("checker: %w", err)}
	}
	return RoundResult{History: h, Verdict: verdict}
}

// runnableThreads returns the index, into threads, of every thread whose
// current stackful task can make progress right now (spec §4.7: "not
// returned, not parked, not suspended waiting on a child that is itself
// parked" — the latter is exactly what StackfulTask.IsParked already
// reports, since it delegates to the top of the child stack).
func (e *Engine) runnableThreads(threads []*threadState) []int {
	var runnable []int
	for i, ts := range threads {
		if ts.current == nil {
			continue
		}
		if ts.current.IsReturned() || ts.current.IsParked() {
			continue
		}
		runnable = append(runnable, i)
	}
	return runnable
}

// allThreadsDone reports whether every thread has exhausted its call
// sequence — the only condition under which an empty runnable set means
// the round actually finished rather than stalled.
func allThreadsDone(threads []*threadState) bool {
	for _, ts := range threads {
		if !ts.callDone() {
			return false
		}
	}
	return true
}

// step performs one scheduler decision against an already-runnable
// thread: emit whatever invoke event is due, resume once, and react to
// the fallout (park transition, blocking-phase split, or return).
func (e *Engine) step(ts *threadState, rec *history.Recorder, target any) error {
	st := ts.current
	blocking := st.IsBlocking()

	if !ts.emittedInvoke {
		kind := history.Invoke
		if blocking {
			kind = history.RequestInvoke
		}
		rec.Record(history.Event{Kind: kind, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), Args: st.StrArgs(), RawArgs: st.Args()})
		ts.emittedInvoke = true
	} else if blocking && ts.requestDone && !ts.followUpInvoked {
		rec.Record(history.Event{Kind: history.FollowUpInvoke, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), Args: st.StrArgs(), RawArgs: st.Args()})
		ts.followUpInvoked = true
	}

	if err := st.Resume(); err != nil {
		return err
	}

	if blocking && !ts.requestDone && st.IsParked() {
		rec.Record(history.Event{Kind: history.RequestResponse, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), RetVal: valuebox.Void()})
		ts.requestDone = true
		return nil
	}

	if st.IsReturned() {
		if blocking && !ts.requestDone {
			// The call ran to completion without ever parking (the data
			// it needed was already available). The dual-pair protocol
			// still applies — spec §4.7 does not carve out a fast path —
			// so the request half is recorded as completing
			// instantaneously, immediately followed by the follow-up
			// half; buildThreadOps only needs each half's invoke/response
			// pair present, not a real gap between them.
			rec.Record(history.Event{Kind: history.RequestResponse, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), RetVal: valuebox.Void()})
			rec.Record(history.Event{Kind: history.FollowUpInvoke, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), Args: st.StrArgs(), RawArgs: st.Args()})
			rec.Record(history.Event{Kind: history.FollowUpResponse, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), RetVal: st.ReturnValue()})
		} else {
			kind := history.Response
			if blocking {
				kind = history.FollowUpResponse
			}
			rec.Record(history.Event{Kind: kind, Thread: st.Thread(), Task: st.ID(), Name: st.Name(), RetVal: st.ReturnValue()})
		}
		ts.advance(target, st.Thread())
	}

	return nil
}
