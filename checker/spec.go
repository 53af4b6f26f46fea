// Package checker implements the linearizability decision procedure
// (C8): given a well-formed history and a reference sequential
// specification, it decides whether every response in the history is
// consistent with some linearization of the concurrent calls.
package checker

import "github.com/thanhhung97/ltest/valuebox"

// FollowUpSuffix is appended to a blocking method's name to key its
// follow-up half in a Spec's Methods table, per spec §4.8's "the method
// table is expected to expose both halves." A spec registering "pop" as
// blocking also registers "pop/followup" for the half applied when the
// FollowUpResponse is linearized.
const FollowUpSuffix = "/followup"

// Method applies one operation to the reference state, returning the
// resulting state and the value the operation would have returned.
type Method func(state any, args any) (next any, ret valuebox.Box)

// Spec is the reference sequential specification (spec §6): an initial
// state, a hash and equality function over states, and the method
// table. Method names must cover every target method name the history
// can contain, including both halves of any blocking method.
type Spec struct {
	Init    func() any
	Hash    func(state any) uint64
	Equal   func(a, b any) bool
	Methods map[string]Method
}

// method looks up the method table, reporting a fatal configuration
// error (spec §7) if a recorded event names a method the spec never
// registered.
func (s *Spec) method(name string) (Method, error) {
	m, ok := s.Methods[name]
	if !ok {
		return nil, &ConfigError{Method: name}
	}
	return m, nil
}

// ConfigError reports a specification method missing for a recorded
// event — a fatal configuration error per spec §7, not a linearizability
// verdict.
type ConfigError struct {
	Method string
}

func (e *ConfigError) Error() string {
	return "checker: specification has no method registered for \"" + e.Method + "\""
}
