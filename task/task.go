// Package task implements the cooperative task abstraction (C3) and its
// nested-call extension, the stackful task (C4): a task wraps a fiber
// whose entry invokes a target method and captures its return value; a
// stackful task is a root task plus the dynamically growing stack of
// child tasks spawned when the running method calls another annotated
// method.
package task

import (
	"fmt"
	"sync"

	"github.com/thanhhung97/ltest/fiber"
	"github.com/thanhhung97/ltest/valuebox"
)

// Method is the shape every registered target method reduces to once
// its target pointer and argument tuple have been bound: a thunk the
// fiber's entry calls to produce the return value.
type Method func(targetPtr any, args any) valuebox.Box

// Task wraps a fiber whose entry invokes the bound target method.
// Exactly one of {not started, runnable, parked, returned} holds at any
// time (spec §3): "not started"/"runnable" are the fiber's Ready/Running
// states, "parked" is delegated to the token, "returned" is tracked here
// directly once the entry closure finishes.
type Task struct {
	name       string
	args       any
	strArgs    []string
	method     Method
	targetPtr  any
	suspension int // approximate suspension-point budget hint, opaque to Task itself

	fib   *fiber.Fiber
	token *fiber.Token

	mu           sync.Mutex
	returned     bool
	ret          valuebox.Box
	pendingChild *Task       // child slot written by Call, cleared by StackfulTask
	lastReturned valuebox.Box // last child return value, observed by the next Call
}

// current is the task currently executing, mirroring fiber.Current():
// set by Resume immediately before handing control to the fiber, and
// only read from inside that same fiber's call stack. Needed so Call
// (invoked deep inside a target method, with no Task handle in scope)
// knows which task's child slot to write.
var current *Task

// Current returns the task presently executing, or nil.
func Current() *Task { return current }

func newTask(name string, args any, strArgs []string, method Method, targetPtr any, suspension int) *Task {
	t := &Task{
		name:       name,
		args:       args,
		strArgs:    strArgs,
		method:     method,
		targetPtr:  targetPtr,
		suspension: suspension,
	}
	t.fib = fiber.New(func() {
		ret := t.method(t.targetPtr, t.args)
		t.mu.Lock()
		t.ret = ret
		t.returned = true
		t.mu.Unlock()
	})
	return t
}

// Resume advances the task to its next yield. Precondition: not
// returned — violating it is a precondition violation (spec §7), and
// Resume panics before touching the underlying fiber.
func (t *Task) Resume() {
	if t.IsReturned() {
		panic("task: precondition violation: resume of a returned task")
	}
	prev := current
	current = t
	t.fib.Resume()
	current = prev
}

// Terminate forcibly unwinds and destroys the task's fiber, abandoning
// whatever exploration branch it belonged to.
func (t *Task) Terminate() {
	t.fib.Terminate()
}

// IsReturned reports whether the task's method has run to completion.
func (t *Task) IsReturned() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.returned
}

// IsParked reports whether the task is suspended on its token.
func (t *Task) IsParked() bool {
	return t.token != nil && t.token.IsParked()
}

// IsSuspended reports whether the task cannot make progress right now
// without an external resume: either it is parked, or its fiber has
// yielded and is waiting to be resumed again.
func (t *Task) IsSuspended() bool {
	if t.IsParked() {
		return true
	}
	return t.fib.State() == fiber.Suspended
}

// GetRetVal returns the task's return value. Precondition: returned.
func (t *Task) GetRetVal() valuebox.Box {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.returned {
		panic("task: precondition violation: get-return-value of a non-returned task")
	}
	return t.ret
}

// Err surfaces a target assertion failure (a panic inside the method
// body), if the task's fiber exited that way. Spec §7: this is treated
// as a linearizability failure for the history it appears in, not a
// fatal engine error.
func (t *Task) Err() error {
	return t.fib.Err()
}

// GetArgs returns the opaque argument tuple passed to the method.
func (t *Task) GetArgs() any { return t.args }

// GetStrArgs returns the pre-rendered display form of the arguments.
func (t *Task) GetStrArgs() []string { return t.strArgs }

// GetName returns the method name this task invokes.
func (t *Task) GetName() string { return t.name }

// SuspensionBudget returns the builder-supplied approximate suspension
// point count. The scheduler does not read it; the budget it enforces
// is Config.StepBudget.
func (t *Task) SuspensionBudget() int { return t.suspension }

// SetToken attaches a parking token to the task.
func (t *Task) SetToken(tok *fiber.Token) { t.token = tok }

// Token returns the task's attached token, or nil.
func (t *Task) Token() *fiber.Token { return t.token }

// Restart returns a fresh task with the same name, arguments, rendered
// arguments, method, and token as t, executing against a new target
// pointer. Precondition: t is returned (spec §4.3, tested by spec §8
// property 2 — restart identity).
func (t *Task) Restart(targetPtr any) *Task {
	if !t.IsReturned() {
		panic("task: precondition violation: restart of a non-returned task")
	}
	nt := newTask(t.name, t.args, t.strArgs, t.method, targetPtr, t.suspension)
	nt.token = t.token
	return nt
}

// hasPendingChild reports whether the task's last resume wrote a child
// handle into its slot (spec §4.4 step 2).
func (t *Task) hasPendingChild() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingChild != nil
}

// takeChild clears and returns the pending child. Calling resume again
// without first clearing the slot (via takeChild or Terminate) violates
// the child protocol (spec §8 property 4).
func (t *Task) takeChild() *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.pendingChild
	t.pendingChild = nil
	return c
}

func (t *Task) setLastReturned(v valuebox.Box) {
	t.mu.Lock()
	t.lastReturned = v
	t.mu.Unlock()
}

func (t *Task) takeLastReturned() valuebox.Box {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.lastReturned
	t.lastReturned = valuebox.Box{}
	return v
}

func (t *Task) String() string {
	return fmt.Sprintf("Task[%s(%v) returned=%v]", t.name, t.strArgs, t.IsReturned())
}
