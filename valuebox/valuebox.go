// Package valuebox implements a type-erased carrier for method return
// values, so the scheduler and checker can compare and render values
// returned by heterogeneous target/spec methods without knowing their
// static types.
package valuebox

import "fmt"

// Box carries a value of unknown static type plus the two erased
// operations the checker needs: equality against another box, and
// rendering to a display string. A zero Box is empty.
type Box struct {
	value    any
	has      bool
	void     bool
	typeName string
	eq       func(a, b any) bool
	render   func(a any) string
}

// Of wraps a comparable value using == for equality and fmt.Sprint for
// rendering. This is the default used by most target/spec methods.
func Of[T comparable](v T) Box {
	return OfFunc(v, func(a, b T) bool { return a == b }, func(a T) string { return fmt.Sprint(a) })
}

// OfFunc wraps a value with an explicit equality and render function,
// for return types that are not comparable with == (slices, structs
// holding slices, etc).
func OfFunc[T any](v T, eq func(a, b T) bool, render func(a T) string) Box {
	return Box{
		value:    v,
		has:      true,
		typeName: fmt.Sprintf("%T", v),
		eq:       func(a, b any) bool { return eq(a.(T), b.(T)) },
		render:   func(a any) string { return render(a.(T)) },
	}
}

// voidBox is the distinguished Void box. It compares equal only to
// itself and renders as the literal "void".
var voidBox = Box{void: true}

// Void returns the distinguished box used for methods that return
// nothing, mirroring the source's VoidV singleton.
func Void() Box { return voidBox }

// IsEmpty reports whether the box holds neither a value nor Void.
func (b Box) IsEmpty() bool { return !b.has && !b.void }

// IsVoid reports whether the box is the distinguished Void value.
func (b Box) IsVoid() bool { return b.void }

// Equal compares two boxes. Cross-type comparison, and comparison
// where either side is empty of the expected type, is defined as
// inequality. Void is equal only to Void.
func (b Box) Equal(other Box) bool {
	if b.void || other.void {
		return b.void && other.void
	}
	if !b.has || !other.has {
		return false
	}
	if b.typeName != other.typeName {
		return false
	}
	return b.eq(b.value, other.value)
}

// String renders the box for history output and counterexamples.
func (b Box) String() string {
	switch {
	case b.void:
		return "void"
	case !b.has:
		return "<empty>"
	default:
		return b.render(b.value)
	}
}

// As extracts the typed value, failing if the box is empty, Void, or
// holds a different type than T.
func As[T any](b Box) (T, bool) {
	var zero T
	if !b.has || b.void {
		return zero, false
	}
	v, ok := b.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
