package history

import (
	"fmt"

	"github.com/google/uuid"
)

// matchingResponse reports whether a response-like kind closes an
// invoke-like kind, per the three legal pairs (spec §3): Invoke/
// Response, RequestInvoke/RequestResponse, FollowUpInvoke/
// FollowUpResponse.
func matchingResponse(invoke, response Kind) bool {
	switch invoke {
	case Invoke:
		return response == Response
	case RequestInvoke:
		return response == RequestResponse
	case FollowUpInvoke:
		return response == FollowUpResponse
	default:
		return false
	}
}

// dualPhase tracks where a task sits in the Request/FollowUp dual
// protocol, so FollowUpInvoke can be rejected if it arrives before the
// matching RequestResponse.
type dualPhase int

const (
	dualNone dualPhase = iota
	dualRequested
	dualResponded
	dualFollowedUp
)

// WellFormed checks the invariants spec §3 and §8 property 5 require of
// any produced history:
//
//   - on any single thread, events alternate invoke -> response ->
//     invoke..., never two open invokes on the same thread at once;
//   - every response is preceded by a matching invoke on the same task;
//   - dual pairs are well-parenthesized: a FollowUpInvoke may not occur
//     before its task's RequestResponse.
//
// Trailing invokes with no matching response are not a violation — the
// checker treats those as still-pending operations (spec §4.8).
func WellFormed(h History) error {
	openOnThread := make(map[int]*Event)
	dual := make(map[uuid.UUID]dualPhase)

	for i := range h {
		e := &h[i]

		if e.Kind.IsInvoke() {
			if open := openOnThread[e.Thread]; open != nil {
				return fmt.Errorf("event %d: thread %d invokes %q while %q is still open", i, e.Thread, e.Name, open.Name)
			}
			switch e.Kind {
			case RequestInvoke:
				if dual[e.Task] != dualNone {
					return fmt.Errorf("event %d: task %s issues RequestInvoke while already in the dual protocol", i, e.Task)
				}
				dual[e.Task] = dualRequested
			case FollowUpInvoke:
				if dual[e.Task] != dualResponded {
					return fmt.Errorf("event %d: task %s issues FollowUpInvoke before its RequestResponse", i, e.Task)
				}
			}
			openOnThread[e.Thread] = e
			continue
		}

		// Response-like event.
		open := openOnThread[e.Thread]
		if open == nil {
			return fmt.Errorf("event %d: thread %d has a %q response with no open invoke", i, e.Thread, e.Kind)
		}
		if open.Task != e.Task || !matchingResponse(open.Kind, e.Kind) {
			return fmt.Errorf("event %d: %q response does not match the open %q invoke on thread %d", i, e.Kind, open.Kind, e.Thread)
		}
		openOnThread[e.Thread] = nil
		switch e.Kind {
		case RequestResponse:
			dual[e.Task] = dualResponded
		case FollowUpResponse:
			dual[e.Task] = dualFollowedUp
		}
	}

	return nil
}
