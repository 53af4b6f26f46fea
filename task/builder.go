package task

import "github.com/thanhhung97/ltest/valuebox"

// Builder is the target-registration triple from spec §6: a method
// name, a factory that builds a task for a (target, thread) pair, and
// (bundled into ArgsFactory) the argument renderer.
type Builder struct {
	Name          string
	Blocking      bool // rendered as a Request/FollowUp dual pair (spec §4.4)
	SuspensionPts int

	// ArgsFactory produces a fresh opaque argument tuple plus its
	// rendered display form for a given thread index. Argument
	// generation itself is the compiler/test-harness's job (spec §1
	// Non-goals / out of scope); the factory is whatever the caller
	// plugs in for it.
	ArgsFactory func(thread int) (args any, strArgs []string)

	// Method is the type-erased call into the bound target method.
	Method Method
}

// Build constructs a fresh Task for this method against target, for the
// given thread index.
func (b *Builder) Build(target any, thread int) *Task {
	args, strArgs := b.ArgsFactory(thread)
	return newTask(b.Name, args, strArgs, b.Method, target, b.SuspensionPts)
}

// Register builds a type-safe Builder for a method on *Target taking
// Args, modeling the generic `register_method<Method, Args...>` utility
// the source generates via macros (spec Design Notes).
func Register[Target any, Args any](
	name string,
	blocking bool,
	suspensionPts int,
	argsFactory func(thread int) Args,
	renderArgs func(Args) []string,
	method func(target *Target, args Args) valuebox.Box,
) *Builder {
	return &Builder{
		Name:          name,
		Blocking:      blocking,
		SuspensionPts: suspensionPts,
		ArgsFactory: func(thread int) (any, []string) {
			a := argsFactory(thread)
			return a, renderArgs(a)
		},
		Method: func(targetPtr any, args any) valuebox.Box {
			return method(targetPtr.(*Target), args.(Args))
		},
	}
}
