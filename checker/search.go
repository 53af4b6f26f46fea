package checker

import (
	"fmt"
	"sort"

	"github.com/thanhhung97/ltest/history"
	"github.com/thanhhung97/ltest/valuebox"
)

// Checker decides linearizability of a single recorded history against
// a reference Spec (spec §4.8).
type Checker struct {
	spec *Spec
}

// New builds a Checker for spec.
func New(spec *Spec) *Checker {
	return &Checker{spec: spec}
}

// Check decides whether h is linearizable against c's spec. A non-nil
// error indicates h itself was malformed or the spec was misconfigured
// (spec §7); a linearizability violation is not an error but is
// reported in Result.Counterexample.
func (c *Checker) Check(h history.History) (*Result, error) {
	if err := history.WellFormed(h); err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}

	threadOps := buildThreadOps(h)

	threads := make([]int, 0, len(threadOps))
	for t := range threadOps {
		threads = append(threads, t)
	}
	sort.Ints(threads)

	s := &search{
		spec:      c.spec,
		threads:   threads,
		threadOps: threadOps,
		memo:      make(map[uint64][]memoEntry),
	}

	init := c.spec.Init()
	progress := make([]int, len(threads))

	ok, witness, err := s.explore(init, progress, nil)
	if err != nil {
		return nil, err
	}

	res := &Result{
		OK:            ok,
		StatesVisited: s.visited,
		StatesPruned:  s.pruned,
	}
	if ok {
		res.Witness = witness
	} else {
		res.Counterexample = s.best
	}
	return res, nil
}

// search carries the state threaded through one Check call's recursion.
type search struct {
	spec      *Spec
	threads   []int
	threadOps map[int][]op

	// memo buckets visited (state, progress) pairs by hash(state), since
	// the spec's hash is not assumed collision-free: two different
	// states reaching the same frontier can share a hash, so each
	// bucket entry is still disambiguated with spec.Equal before it is
	// trusted (spec §6's equality function exists for exactly this).
	memo map[uint64][]memoEntry

	visited int64
	pruned  int64

	// best tracks the counterexample found at the greatest search depth
	// reached, so a failing Check still reports the furthest prefix that
	// could be linearized before something went wrong (spec §6's "last
	// good prefix").
	best      *Counterexample
	bestDepth int
}

// explore performs the memoized DFS described in spec §4.8: the search
// state is (reference state, per-thread progress vector); each distinct
// pair is visited at most once, since re-reaching it can never yield a
// different outcome than the first visit.
func (s *search) explore(state any, progress []int, prefix []Step) (bool, []Step, error) {
	h := s.spec.Hash(state)
	if entry := s.lookup(h, state, progress); entry != nil {
		s.pruned++
		if entry.done {
			return true, append([]Step(nil), prefix...), nil
		}
		return false, nil, nil
	}
	s.visited++

	if s.isComplete(progress) {
		s.remember(h, state, progress, true)
		witness := make([]Step, len(prefix))
		copy(witness, prefix)
		return true, witness, nil
	}

	for i, t := range s.threads {
		ops := s.threadOps[t]
		if progress[i] >= len(ops) {
			continue
		}
		candidate := ops[progress[i]]

		method, err := s.spec.method(candidate.methodName)
		if err != nil {
			return false, nil, err
		}

		next, want := method(state, candidate.rawArgs)
		if !want.Equal(candidate.retVal) {
			s.recordFailure(candidate, want, prefix)
			continue
		}

		nextProgress := append([]int(nil), progress...)
		nextProgress[i]++

		step := Step{Task: candidate.task, Method: candidate.methodName, RetVal: candidate.retVal}
		ok, witness, err := s.explore(next, nextProgress, append(prefix, step))
		if err != nil {
			return false, nil, err
		}
		if ok {
			s.remember(h, state, progress, true)
			return true, witness, nil
		}
	}

	s.remember(h, state, progress, false)
	return false, nil, nil
}

// memoEntry is one visited (state, frontier) pair within a hash bucket.
type memoEntry struct {
	progress []int
	state    any
	done     bool
}

func progressEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *search) lookup(h uint64, state any, progress []int) *memoEntry {
	for i, e := range s.memo[h] {
		if progressEqual(e.progress, progress) && s.spec.Equal(e.state, state) {
			return &s.memo[h][i]
		}
	}
	return nil
}

func (s *search) remember(h uint64, state any, progress []int, done bool) {
	s.memo[h] = append(s.memo[h], memoEntry{
		progress: append([]int(nil), progress...),
		state:    state,
		done:     done,
	})
}

func (s *search) isComplete(progress []int) bool {
	for i, t := range s.threads {
		if progress[i] < len(s.threadOps[t]) {
			return false
		}
	}
	return true
}

// recordFailure keeps the counterexample found at the greatest depth
// seen so far: a mismatch deeper into the search represents a longer
// valid prefix than one found early, and spec §6 wants the longest
// prefix reported.
func (s *search) recordFailure(candidate op, want valuebox.Box, prefix []Step) {
	depth := len(prefix)
	if s.best != nil && depth < s.bestDepth {
		return
	}
	s.bestDepth = depth
	goodPrefix := make([]Step, len(prefix))
	copy(goodPrefix, prefix)
	s.best = &Counterexample{
		Method:     candidate.methodName,
		RespIndex:  candidate.respIndex,
		Got:        candidate.retVal,
		Want:       want,
		GoodPrefix: goodPrefix,
	}
}

