package history

import (
	"testing"

	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/valuebox"
)

func TestWellFormedSimpleInterleaving(t *testing.T) {
	t0, t1 := uuid.New(), uuid.New()
	h := History{
		{Kind: Invoke, Thread: 0, Task: t0, Name: "add"},
		{Kind: Invoke, Thread: 1, Task: t1, Name: "add"},
		{Kind: Response, Thread: 0, Task: t0, Name: "add", RetVal: valuebox.Void()},
		{Kind: Response, Thread: 1, Task: t1, Name: "add", RetVal: valuebox.Void()},
	}
	if err := WellFormed(h); err != nil {
		t.Fatalf("expected well-formed history, got %v", err)
	}
}

func TestWellFormedRejectsDoubleInvokeOnThread(t *testing.T) {
	t0 := uuid.New()
	h := History{
		{Kind: Invoke, Thread: 0, Task: t0, Name: "add"},
		{Kind: Invoke, Thread: 0, Task: t0, Name: "add"},
	}
	if err := WellFormed(h); err == nil {
		t.Fatal("expected a well-formedness violation")
	}
}

func TestWellFormedRejectsResponseWithoutInvoke(t *testing.T) {
	t0 := uuid.New()
	h := History{
		{Kind: Response, Thread: 0, Task: t0, Name: "add"},
	}
	if err := WellFormed(h); err == nil {
		t.Fatal("expected a well-formedness violation")
	}
}

func TestWellFormedDualPairs(t *testing.T) {
	t0 := uuid.New()
	h := History{
		{Kind: RequestInvoke, Thread: 0, Task: t0, Name: "dequeue"},
		{Kind: RequestResponse, Thread: 0, Task: t0, Name: "dequeue"},
		{Kind: FollowUpInvoke, Thread: 0, Task: t0, Name: "dequeue"},
		{Kind: FollowUpResponse, Thread: 0, Task: t0, Name: "dequeue", RetVal: valuebox.Of(1)},
	}
	if err := WellFormed(h); err != nil {
		t.Fatalf("expected well-formed dual history, got %v", err)
	}
}

func TestWellFormedRejectsFollowUpBeforeRequestResponse(t *testing.T) {
	t0 := uuid.New()
	h := History{
		{Kind: RequestInvoke, Thread: 0, Task: t0, Name: "dequeue"},
		{Kind: FollowUpInvoke, Thread: 0, Task: t0, Name: "dequeue"},
	}
	if err := WellFormed(h); err == nil {
		t.Fatal("expected a well-formedness violation")
	}
}

func TestWellFormedAllowsTrailingPendingInvoke(t *testing.T) {
	t0 := uuid.New()
	h := History{
		{Kind: Invoke, Thread: 0, Task: t0, Name: "add"},
	}
	if err := WellFormed(h); err != nil {
		t.Fatalf("a trailing unanswered invoke should be allowed, got %v", err)
	}
}

func TestRecorderOrdersByEmission(t *testing.T) {
	r := NewRecorder()
	t0 := uuid.New()
	r.Record(Event{Kind: Invoke, Thread: 0, Task: t0, Name: "add"})
	r.Record(Event{Kind: Response, Thread: 0, Task: t0, Name: "add", RetVal: valuebox.Void()})

	h := r.History()
	if len(h) != 2 {
		t.Fatalf("len = %d, want 2", len(h))
	}
	if err := WellFormed(h); err != nil {
		t.Fatalf("recorder output should be well-formed: %v", err)
	}

	r.Reset()
	if r.Len() != 0 {
		t.Fatal("expected recorder to be empty after Reset")
	}
}
