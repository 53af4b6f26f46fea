// Package report renders a scheduler run's outcome into the
// line-per-event history format spec §6 describes, and derives the
// process exit code for a run.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/thanhhung97/ltest/checker"
	"github.com/thanhhung97/ltest/history"
	"github.com/thanhhung97/ltest/scheduler"
)

// ExitCode returns 0 for an OK run, non-zero otherwise.
func ExitCode(res *scheduler.Result) int {
	if res.OK {
		return 0
	}
	return 1
}

// WriteHistory renders h as one line per event: kind, thread, task name,
// rendered arguments, and — for response-like kinds — the rendered
// return value.
func WriteHistory(w io.Writer, h history.History) error {
	for _, e := range h {
		if _, err := fmt.Fprintln(w, formatEvent(e)); err != nil {
			return err
		}
	}
	return nil
}

func formatEvent(e history.Event) string {
	args := strings.Join(e.Args, ", ")
	switch e.Kind {
	case history.Response, history.RequestResponse, history.FollowUpResponse:
		return fmt.Sprintf("[thread %d] %-18s %s(%s) -> %s", e.Thread, e.Kind, e.Name, args, e.RetVal)
	default:
		return fmt.Sprintf("[thread %d] %-18s %s(%s)", e.Thread, e.Kind, e.Name, args)
	}
}

// WriteResult renders a full run outcome: a summary line, and on
// failure the offending round's history followed by the counterexample
// or target-failure detail.
func WriteResult(w io.Writer, res *scheduler.Result) error {
	if res.OK {
		_, err := fmt.Fprintf(w, "OK: %d round(s) passed, %d state(s) visited in the last check\n",
			len(res.Rounds), lastStatesVisited(res))
		return err
	}

	fmt.Fprintf(w, "FAIL at round %d\n", res.AtRound)
	if err := WriteHistory(w, res.Failed.History); err != nil {
		return err
	}

	if res.Failed.TargetFailure != nil {
		_, err := fmt.Fprintf(w, "target assertion failure: %v\n", res.Failed.TargetFailure)
		return err
	}
	return writeCounterexample(w, res.Failed.Verdict.Counterexample)
}

func writeCounterexample(w io.Writer, ce *checker.Counterexample) error {
	if ce == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "not linearizable: response #%d of %s() = %s, no reachable linearization produces that value\n",
		ce.RespIndex, ce.Method, ce.Got); err != nil {
		return err
	}
	if diff := cmp.Diff(ce.Want.String(), ce.Got.String()); diff != "" {
		if _, err := fmt.Fprintf(w, "spec wanted vs. observed (-want +got):\n%s", diff); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "last good prefix (%d step(s)):\n", len(ce.GoodPrefix)); err != nil {
		return err
	}
	for i, step := range ce.GoodPrefix {
		if _, err := fmt.Fprintf(w, "  %d: %s\n", i, step); err != nil {
			return err
		}
	}
	return nil
}

func lastStatesVisited(res *scheduler.Result) int64 {
	if len(res.Rounds) == 0 {
		return 0
	}
	last := res.Rounds[len(res.Rounds)-1]
	if last.Verdict == nil {
		return 0
	}
	return last.Verdict.StatesVisited
}
