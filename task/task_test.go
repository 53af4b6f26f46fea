package task

import (
	"testing"

	"github.com/thanhhung97/ltest/fiber"
	"github.com/thanhhung97/ltest/valuebox"
)

type counter struct{ n int }

func incBuilder() *Builder {
	return Register[counter, struct{}](
		"inc", false, 0,
		func(thread int) struct{} { return struct{}{} },
		func(struct{}) []string { return nil },
		func(target *counter, _ struct{}) valuebox.Box {
			target.n++
			return valuebox.Of(target.n)
		},
	)
}

func TestTaskResumeAndReturn(t *testing.T) {
	c := &counter{}
	b := incBuilder()
	tk := b.Build(c, 0)

	if tk.IsReturned() {
		t.Fatal("new task should not be returned")
	}
	tk.Resume()
	if !tk.IsReturned() {
		t.Fatal("task should be returned after one resume (no yields in method)")
	}
	v, ok := valuebox.As[int](tk.GetRetVal())
	if !ok || v != 1 {
		t.Fatalf("ret = %v, ok=%v, want 1", v, ok)
	}
}

func TestTaskResumeOfReturnedPanics(t *testing.T) {
	c := &counter{}
	tk := incBuilder().Build(c, 0)
	tk.Resume()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic resuming a returned task")
		}
	}()
	tk.Resume()
}

func TestTaskGetRetValOfUnreturnedPanics(t *testing.T) {
	c := &counter{}
	tk := incBuilder().Build(c, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on get-ret-val of non-returned task")
		}
	}()
	tk.GetRetVal()
}

func TestRestartIdentity(t *testing.T) {
	c := &counter{}
	b := incBuilder()
	tk := b.Build(c, 0)
	tk.SetToken(fiber.NewToken())
	tk.Resume()

	c2 := &counter{}
	nt := tk.Restart(c2)

	if nt.GetName() != tk.GetName() {
		t.Errorf("name changed across restart: %q vs %q", nt.GetName(), tk.GetName())
	}
	if len(nt.GetStrArgs()) != len(tk.GetStrArgs()) {
		t.Errorf("rendered args changed across restart")
	}
	if nt.Token() != tk.Token() {
		t.Error("restart should preserve token identity")
	}
	if nt.IsReturned() {
		t.Error("restarted task should have an empty (unreturned) return slot")
	}

	nt.Resume()
	v, _ := valuebox.As[int](nt.GetRetVal())
	if v != 1 {
		t.Fatalf("restarted task executing against a fresh target should see n=1, got %d", v)
	}
}

func TestRestartOfUnreturnedPanics(t *testing.T) {
	c := &counter{}
	tk := incBuilder().Build(c, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic restarting a non-returned task")
		}
	}()
	tk.Restart(c)
}

type parent struct{ child *counter }

func callChildBuilder() *Builder {
	return Register[parent, struct{}](
		"callChild", false, 0,
		func(thread int) struct{} { return struct{}{} },
		func(struct{}) []string { return nil },
		func(p *parent, _ struct{}) valuebox.Box {
			ret := Call(incBuilder(), p.child, 0)
			n, _ := valuebox.As[int](ret)
			return valuebox.Of(n * 10)
		},
	)
}

func TestStackfulTaskChildProtocol(t *testing.T) {
	p := &parent{child: &counter{}}
	st := New(callChildBuilder(), p, 0)

	if st.IsReturned() {
		t.Fatal("fresh stackful task should not be returned")
	}

	// First resume: parent runs, calls Call(), which pushes a child and
	// yields.
	if err := st.Resume(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.IsReturned() {
		t.Fatal("stackful task should not be returned yet; child is pending")
	}

	// Second resume: drives the child task to completion and pops it.
	if err := st.Resume(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Third resume: parent resumes past Call() with the child's value.
	if err := st.Resume(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.IsReturned() {
		t.Fatal("stackful task should be returned")
	}
	v, ok := valuebox.As[int](st.ReturnValue())
	if !ok || v != 10 {
		t.Fatalf("ReturnValue = %v, ok=%v, want 10", v, ok)
	}
}

func TestStackfulTaskResumeOfReturnedIsError(t *testing.T) {
	p := &parent{child: &counter{}}
	st := New(callChildBuilder(), p, 0)
	for !st.IsReturned() {
		if err := st.Resume(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := st.Resume(); err == nil {
		t.Fatal("expected precondition-violation error resuming a returned stackful task")
	}
}
