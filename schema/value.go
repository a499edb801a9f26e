package schema

type valueKind uint8

const (
	valueUnset valueKind = iota
	valueLiteral
	valueComputed
)

// Value is a host-level configuration field. It is either unset, a Literal
// or a Computed function of the tab it is resolved for.
type Value[T any] struct {
	kind    valueKind
	literal T
	compute func(TabSnapshot) T
}

// Literal wraps a plain value.
func Literal[T any](v T) Value[T] {
	return Value[T]{kind: valueLiteral, literal: v}
}

// Computed wraps a function evaluated per tab at resolution time.
// A nil function yields an unset value.
func Computed[T any](fn func(TabSnapshot) T) Value[T] {
	if fn == nil {
		return Value[T]{}
	}
	return Value[T]{kind: valueComputed, compute: fn}
}

// IsSet reports whether the value carries a literal or a function.
func (v Value[T]) IsSet() bool {
	return v.kind != valueUnset
}

// IsComputed reports whether the value is function-valued.
func (v Value[T]) IsComputed() bool {
	return v.kind == valueComputed
}

// LiteralValue returns the literal and true for Literal values.
func (v Value[T]) LiteralValue() (T, bool) {
	if v.kind != valueLiteral {
		var zero T
		return zero, false
	}
	return v.literal, true
}

// Eval returns the literal, or the function result for the given tab.
func (v Value[T]) Eval(tab TabSnapshot) T {
	switch v.kind {
	case valueLiteral:
		return v.literal
	case valueComputed:
		return v.compute(tab)
	default:
		var zero T
		return zero
	}
}
