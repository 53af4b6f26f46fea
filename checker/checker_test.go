package checker

import (
	"testing"

	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/history"
	"github.com/thanhhung97/ltest/valuebox"
)

// registerSpec models a single-slot register exposing set(v)/get().
func registerSpec() *Spec {
	return &Spec{
		Init: func() any { return 0 },
		Hash: func(state any) uint64 { return uint64(state.(int)) },
		Equal: func(a, b any) bool { return a.(int) == b.(int) },
		Methods: map[string]Method{
			"set": func(state any, args any) (any, valuebox.Box) {
				return args.(int), valuebox.Void()
			},
			"get": func(state any, args any) (any, valuebox.Box) {
				return state, valuebox.Of(state.(int))
			},
		},
	}
}

func invokeResponse(thread int, task uuid.UUID, name string, args any, ret valuebox.Box) []history.Event {
	return []history.Event{
		{Kind: history.Invoke, Thread: thread, Task: task, Name: name, RawArgs: args},
		{Kind: history.Response, Thread: thread, Task: task, Name: name, RawArgs: args, RetVal: ret},
	}
}

func TestCheckAcceptsSequentialHistory(t *testing.T) {
	t0, t1 := uuid.New(), uuid.New()
	var h history.History
	h = append(h, invokeResponse(0, t0, "set", 5, valuebox.Void())...)
	h = append(h, invokeResponse(0, t0, "get", nil, valuebox.Of(5))...)
	h = append(h, invokeResponse(1, t1, "get", nil, valuebox.Of(5))...)

	res, err := New(registerSpec()).Check(h)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected a linearizable history, got counterexample %v", res.Counterexample)
	}
	if len(res.Witness) != 3 {
		t.Fatalf("witness length = %d, want 3", len(res.Witness))
	}
}

func TestCheckRejectsImpossibleReturnValue(t *testing.T) {
	t0 := uuid.New()
	var h history.History
	h = append(h, invokeResponse(0, t0, "get", nil, valuebox.Of(99))...)

	res, err := New(registerSpec()).Check(h)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if res.OK {
		t.Fatal("expected a linearizability violation")
	}
	if res.Counterexample == nil {
		t.Fatal("expected a counterexample")
	}
}

func TestCheckConcurrentInterleavingHasAValidLinearization(t *testing.T) {
	t0, t1 := uuid.New(), uuid.New()
	h := history.History{
		{Kind: history.Invoke, Thread: 0, Task: t0, Name: "set", RawArgs: 1},
		{Kind: history.Invoke, Thread: 1, Task: t1, Name: "get"},
		{Kind: history.Response, Thread: 0, Task: t0, Name: "set", RetVal: valuebox.Void()},
		{Kind: history.Response, Thread: 1, Task: t1, Name: "get", RetVal: valuebox.Of(1)},
	}

	res, err := New(registerSpec()).Check(h)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !res.OK {
		t.Fatal("expected the overlapping call to be linearizable with get() ordered after set()")
	}
}

func TestCheckReportsConfigErrorForUnknownMethod(t *testing.T) {
	t0 := uuid.New()
	h := history.History(invokeResponse(0, t0, "delete", nil, valuebox.Void()))

	_, err := New(registerSpec()).Check(h)
	if err == nil {
		t.Fatal("expected a configuration error for an unregistered method")
	}
}

func TestCheckIgnoresPendingInvoke(t *testing.T) {
	t0, t1 := uuid.New(), uuid.New()
	h := history.History{
		{Kind: history.Invoke, Thread: 0, Task: t0, Name: "set", RawArgs: 7},
		{Kind: history.Response, Thread: 0, Task: t0, Name: "set", RetVal: valuebox.Void()},
		{Kind: history.Invoke, Thread: 1, Task: t1, Name: "get"}, // never responds
	}

	res, err := New(registerSpec()).Check(h)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !res.OK {
		t.Fatalf("a call with no recorded response must be ignored, got counterexample %v", res.Counterexample)
	}
}
