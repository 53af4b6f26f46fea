// Package history records the ordered stream of invoke/response events
// the scheduler emits while driving a round, and checks the stream for
// the well-formedness invariants the checker relies on (spec §3, §4.6).
package history

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/valuebox"
)

// Kind is one of the six event variants spec §3 names: Invoke/Response
// for ordinary methods, and the four dual-operation variants used when
// a method is blocking.
type Kind int

const (
	Invoke Kind = iota
	Response
	RequestInvoke
	RequestResponse
	FollowUpInvoke
	FollowUpResponse
)

func (k Kind) String() string {
	switch k {
	case Invoke:
		return "invoke"
	case Response:
		return "response"
	case RequestInvoke:
		return "request-invoke"
	case RequestResponse:
		return "request-response"
	case FollowUpInvoke:
		return "followup-invoke"
	case FollowUpResponse:
		return "followup-response"
	default:
		return "unknown"
	}
}

// IsInvoke reports whether k opens a call (as opposed to closing one).
func (k Kind) IsInvoke() bool {
	return k == Invoke || k == RequestInvoke || k == FollowUpInvoke
}

// Event is a single ordered record in a history.
type Event struct {
	Kind    Kind
	Thread  int
	Task    uuid.UUID // the originating stackful task
	Name    string
	Args    []string // rendered, for display/reporting
	RawArgs any      // opaque argument tuple, for replaying against a spec
	RetVal  valuebox.Box // meaningful only for response-like kinds
}

func (e Event) String() string {
	switch e.Kind {
	case Response, RequestResponse, FollowUpResponse:
		return fmt.Sprintf("thread=%d %s %s(%v) -> %s", e.Thread, e.Kind, e.Name, e.Args, e.RetVal)
	default:
		return fmt.Sprintf("thread=%d %s %s(%v)", e.Thread, e.Kind, e.Name, e.Args)
	}
}

// History is a finite, ordered sequence of events.
type History []Event

// Append records e as the next event in program order.
func (h *History) Append(e Event) {
	*h = append(*h, e)
}
