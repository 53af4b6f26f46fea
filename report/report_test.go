package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/checker"
	"github.com/thanhhung97/ltest/history"
	"github.com/thanhhung97/ltest/scheduler"
	"github.com/thanhhung97/ltest/valuebox"
)

func TestWriteHistoryRendersOneLinePerEvent(t *testing.T) {
	t0 := uuid.New()
	h := history.History{
		{Kind: history.Invoke, Thread: 0, Task: t0, Name: "add", Args: []string{"1"}},
		{Kind: history.Response, Thread: 0, Task: t0, Name: "add", RetVal: valuebox.Void()},
	}

	var buf bytes.Buffer
	if err := WriteHistory(&buf, h); err != nil {
		t.Fatalf("WriteHistory returned error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "add(1)") {
		t.Errorf("invoke line missing rendered args: %q", lines[0])
	}
	if !strings.Contains(lines[1], "->") {
		t.Errorf("response line missing rendered return value: %q", lines[1])
	}
}

func TestExitCodeAndWriteResultOK(t *testing.T) {
	res := &scheduler.Result{OK: true, Rounds: []scheduler.RoundResult{{Verdict: &checker.Result{OK: true, StatesVisited: 3}}}}
	if code := ExitCode(res); code != 0 {
		t.Fatalf("ExitCode = %d, want 0", code)
	}

	var buf bytes.Buffer
	if err := WriteResult(&buf, res); err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "OK") {
		t.Errorf("expected an OK summary, got %q", buf.String())
	}
}

func TestExitCodeAndWriteResultFailure(t *testing.T) {
	t0 := uuid.New()
	h := history.History{
		{Kind: history.Invoke, Thread: 0, Task: t0, Name: "get"},
		{Kind: history.Response, Thread: 0, Task: t0, Name: "get", RetVal: valuebox.Of(99)},
	}
	ce := &checker.Counterexample{Method: "get", RespIndex: 1, Got: valuebox.Of(99), Want: valuebox.Of(0)}
	res := &scheduler.Result{
		OK:      false,
		AtRound: 2,
		Rounds:  []scheduler.RoundResult{{History: h, Verdict: &checker.Result{OK: false, Counterexample: ce}}},
	}
	res.Failed = &res.Rounds[0]

	if code := ExitCode(res); code == 0 {
		t.Fatal("expected a non-zero exit code for a failing run")
	}

	var buf bytes.Buffer
	if err := WriteResult(&buf, res); err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "FAIL at round 2") {
		t.Errorf("missing round marker: %q", out)
	}
	if !strings.Contains(out, "not linearizable") {
		t.Errorf("missing counterexample summary: %q", out)
	}
}
