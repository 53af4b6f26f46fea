package checker

import (
	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/history"
	"github.com/thanhhung97/ltest/valuebox"
)

// op is one call the checker must place in the linearization: either a
// whole ordinary method call, or one half of a blocking method's
// Request/FollowUp dual pair.
type op struct {
	task       uuid.UUID
	methodName string // key into Spec.Methods, already suffixed for follow-ups
	rawArgs    any
	retVal     valuebox.Box
	respIndex  int // position of the response event in H, for counterexample ordering
}

// buildThreadOps groups every *completed* call in h (one with a
// recorded response) into per-thread sequences, in the order their
// invokes occurred. Spec §4.8's acceptance rule lets pending invokes
// (no response yet) be ignored entirely — they never need to appear in
// any linearization, so they are dropped here rather than carried
// through the search as dead weight.
//
// A blocking method's Request and FollowUp halves always land as two
// consecutive entries in the same thread's sequence (the engine runs
// one top-level call to completion, both dual phases included, before
// starting the next one on that thread), so "FollowUp strictly after
// its Request" falls out of the per-thread ordering for free — no
// separate dependency tracking is needed.
func buildThreadOps(h history.History) map[int][]op {
	type pending struct {
		idx        int // index into the thread's ops slice, once opened
		methodName string
		rawArgs    any
	}

	openPending := make(map[uuid.UUID]pending)
	result := make(map[int][]op)

	for i, e := range h {
		switch e.Kind {
		case history.Invoke:
			openPending[e.Task] = pending{methodName: e.Name, rawArgs: e.RawArgs}
		case history.RequestInvoke:
			openPending[e.Task] = pending{methodName: e.Name, rawArgs: e.RawArgs}
		case history.FollowUpInvoke:
			openPending[e.Task] = pending{methodName: e.Name + FollowUpSuffix, rawArgs: e.RawArgs}
		case history.Response, history.RequestResponse, history.FollowUpResponse:
			p, ok := openPending[e.Task]
			if !ok {
				continue // malformed; WellFormed should already have rejected this
			}
			delete(openPending, e.Task)
			result[e.Thread] = append(result[e.Thread], op{
				task:       e.Task,
				methodName: p.methodName,
				rawArgs:    p.rawArgs,
				retVal:     e.RetVal,
				respIndex:  i,
			})
		}
	}

	return result
}
