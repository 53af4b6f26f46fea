package task

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/thanhhung97/ltest/fiber"
	"github.com/thanhhung97/ltest/valuebox"
)

// StackfulTask is the scheduler-facing unit of scheduling (C4): a root
// task plus the dynamically growing stack of child tasks produced when
// the running method calls another annotated method. The stack is a
// slice of *Task pointers — the pointers are the stable addresses the
// protocol requires (spec §5 "stable-address container"); reslicing the
// backing array on append never relocates the Task values themselves,
// only the slice of pointers to them, so references callers hold onto
// individual *Task values stay valid for the stackful task's lifetime.
type StackfulTask struct {
	id      uuid.UUID
	root    *Task
	stack   []*Task // children beneath root, top of stack is the last element
	thread  int
	builder *Builder
	target  any
}

// New builds a stackful task rooted at a fresh invocation of builder
// against target, for the given thread index.
func New(builder *Builder, target any, thread int) *StackfulTask {
	return &StackfulTask{
		id:      uuid.New(),
		root:    builder.Build(target, thread),
		thread:  thread,
		builder: builder,
		target:  target,
	}
}

// ID uniquely identifies this stackful task for the life of a round; it
// is what history events use to match an invoke to its response.
func (s *StackfulTask) ID() uuid.UUID { return s.id }

// Builder returns the root method's builder, e.g. for restart or
// diagnostics.
func (s *StackfulTask) Builder() *Builder { return s.builder }

// Thread returns the thread index this stackful task is scheduled on.
func (s *StackfulTask) Thread() int { return s.thread }

// Name is the root method's name, used for history events.
func (s *StackfulTask) Name() string { return s.root.GetName() }

// StrArgs is the root method's rendered argument list.
func (s *StackfulTask) StrArgs() []string { return s.root.GetStrArgs() }

// Args is the root method's opaque argument tuple, as passed to the
// checker for replay against a reference specification.
func (s *StackfulTask) Args() any { return s.root.GetArgs() }

// IsBlocking reports whether the root method is a dual (blocking)
// operation, rendered as Request/FollowUp pairs in the history.
func (s *StackfulTask) IsBlocking() bool { return s.builder.Blocking }

// top returns the currently executing task: the top of the child
// stack, or the root if no child is pending.
func (s *StackfulTask) top() *Task {
	if len(s.stack) == 0 {
		return s.root
	}
	return s.stack[len(s.stack)-1]
}

// IsReturned reports whether the whole stackful task has completed:
// true iff the root task itself is returned, which — in any execution
// obeying the child protocol — only happens once the child stack has
// unwound back to empty.
func (s *StackfulTask) IsReturned() bool { return s.root.IsReturned() }

// IsParked reports whether the top task is parked on its token.
func (s *StackfulTask) IsParked() bool { return s.top().IsParked() }

// IsSuspended reports whether the stackful task is parked, or its top
// task has yielded and is awaiting the next resume.
func (s *StackfulTask) IsSuspended() bool { return s.top().IsSuspended() }

// Resume advances the top task by one step and applies the child
// protocol (spec §4.4): if the step wrote a pending child, it is pushed
// onto the stack; if the top task returned, it is popped and its value
// is handed to the new top as its "last returned" observation.
func (s *StackfulTask) Resume() error {
	if s.IsReturned() {
		return fmt.Errorf("task: precondition violation: resume of a returned stackful task")
	}

	top := s.top()
	top.Resume()

	if err := top.Err(); err != nil {
		return err
	}

	if top.hasPendingChild() {
		child := top.takeChild()
		s.stack = append(s.stack, child)
		return nil
	}

	if top.IsReturned() && len(s.stack) > 0 {
		retVal := top.GetRetVal()
		s.stack = s.stack[:len(s.stack)-1]
		s.top().setLastReturned(retVal)
	}

	return nil
}

// ReturnValue returns the overall return value of the stackful task.
// Precondition: IsReturned.
func (s *StackfulTask) ReturnValue() valuebox.Box { return s.root.GetRetVal() }

// Terminate abandons the stackful task: every live task on the stack,
// innermost first, then the root, is forcibly terminated. Used when the
// scheduler aborts a round over budget (spec §4.7).
func (s *StackfulTask) Terminate() {
	for i := len(s.stack) - 1; i >= 0; i-- {
		s.stack[i].Terminate()
	}
	s.stack = nil
	s.root.Terminate()
}

// Token returns the token attached to the root task, if any.
func (s *StackfulTask) Token() *fiber.Token { return s.root.Token() }

// SetToken attaches a parking token to the root task.
func (s *StackfulTask) SetToken(tok *fiber.Token) { s.root.SetToken(tok) }

func (s *StackfulTask) String() string {
	return fmt.Sprintf("StackfulTask[thread=%d %s depth=%d]", s.thread, s.root.GetName(), len(s.stack)+1)
}
