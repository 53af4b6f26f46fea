package checker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/valuebox"
)

// Step is one call placed in a linearization, in the order it was
// applied to the reference state.
type Step struct {
	Task   uuid.UUID
	Method string
	RetVal valuebox.Box
}

func (s Step) String() string {
	return fmt.Sprintf("%s() -> %s", s.Method, s.RetVal)
}

// Counterexample is the first response the checker could not reconcile
// with any linearization, plus the best linearization prefix it found
// leading up to the attempt (spec §6's "last good prefix").
type Counterexample struct {
	Method     string
	RespIndex  int // position of the offending response in the input history
	Got        valuebox.Box
	Want       valuebox.Box
	GoodPrefix []Step
}

func (c *Counterexample) Error() string {
	return fmt.Sprintf("checker: response #%d of %s() = %s, not reachable from any linearization (spec would return %s); last good prefix has %d step(s)",
		c.RespIndex, c.Method, c.Got, c.Want, len(c.GoodPrefix))
}

// Result is the engine's verdict for one history.
type Result struct {
	OK              bool
	Witness         []Step // a valid linearization, when OK
	Counterexample  *Counterexample
	StatesVisited   int64
	StatesPruned    int64
}
