package task

import (
	"github.com/thanhhung97/ltest/fiber"
	"github.com/thanhhung97/ltest/valuebox"
)

// Call is the nested-call suspension point (spec §4.4 step 1): it is
// what a compiler-inserted call site runs when a target method invokes
// another annotated method. It builds the child task, writes it into
// the calling task's slot, and yields — the enclosing StackfulTask is
// responsible for picking the child up, running it to completion, and
// feeding its return value back here (step 3), which is why Call
// returns a value at all: the call looks, to the method body, like an
// ordinary synchronous call.
//
// Call must run on the fiber of the task that is invoking it; it finds
// that task via Current(), exactly as a compiler-inserted yield would.
func Call(builder *Builder, target any, thread int) valuebox.Box {
	self := Current()
	if self == nil {
		panic("task: Call invoked outside a running task")
	}
	if self.hasPendingChild() {
		panic("task: child protocol violation: previous child was never cleared")
	}

	child := builder.Build(target, thread)
	self.mu.Lock()
	self.pendingChild = child
	self.mu.Unlock()

	fiber.Yield()

	return self.takeLastReturned()
}
