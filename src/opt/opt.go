// Package opt provides an explicit optional value used for every derived
// crash-report fact. A missing value is never encoded as zero or as an
// extreme number; comparisons against an unknown value are always false.
package opt

import (
	"cmp"
	"fmt"
)

// Value holds a T that may be unknown.
type Value[T cmp.Ordered] struct {
	v  T
	ok bool
}

// Some returns a known value.
func Some[T cmp.Ordered](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// None returns an unknown value.
func None[T cmp.Ordered]() Value[T] {
	return Value[T]{}
}

// From converts a (value, ok) pair.
func From[T cmp.Ordered](v T, ok bool) Value[T] {
	if !ok {
		return None[T]()
	}
	return Some(v)
}

// Known reports whether the value is known.
func (o Value[T]) Known() bool {
	return o.ok
}

// Get returns the value and whether it is known.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.ok
}

// OrElse returns the value, or def when unknown.
func (o Value[T]) OrElse(def T) T {
	if !o.ok {
		return def
	}
	return o.v
}

// Or returns o when known, otherwise other.
func (o Value[T]) Or(other Value[T]) Value[T] {
	if o.ok {
		return o
	}
	return other
}

// Gt reports o > other. False when either side is unknown.
func (o Value[T]) Gt(other Value[T]) bool {
	return o.ok && other.ok && o.v > other.v
}

// Ge reports o >= other. False when either side is unknown.
func (o Value[T]) Ge(other Value[T]) bool {
	return o.ok && other.ok && o.v >= other.v
}

// Lt reports o < other. False when either side is unknown.
func (o Value[T]) Lt(other Value[T]) bool {
	return o.ok && other.ok && o.v < other.v
}

// Le reports o <= other. False when either side is unknown.
func (o Value[T]) Le(other Value[T]) bool {
	return o.ok && other.ok && o.v <= other.v
}

// Eq reports whether both values are known and equal.
func (o Value[T]) Eq(other Value[T]) bool {
	return o.ok && other.ok && o.v == other.v
}

// Is reports whether o is known and equal to v.
func (o Value[T]) Is(v T) bool {
	return o.ok && o.v == v
}

// GtV reports o > v. False when o is unknown.
func (o Value[T]) GtV(v T) bool {
	return o.ok && o.v > v
}

// LtV reports o < v. False when o is unknown.
func (o Value[T]) LtV(v T) bool {
	return o.ok && o.v < v
}

func (o Value[T]) String() string {
	if !o.ok {
		return "unknown"
	}
	return fmt.Sprint(o.v)
}

// Map applies f to a known value.
func Map[T, U cmp.Ordered](o Value[T], f func(T) U) Value[U] {
	if !o.ok {
		return None[U]()
	}
	return Some(f(o.v))
}

// Sub returns a - b when both are known.
func Sub[T int64 | int | float64](a, b Value[T]) Value[T] {
	if !a.ok || !b.ok {
		return None[T]()
	}
	return Some(a.v - b.v)
}

// Add returns a + b when both are known.
func Add[T int64 | int | float64](a, b Value[T]) Value[T] {
	if !a.ok || !b.ok {
		return None[T]()
	}
	return Some(a.v + b.v)
}

// Min returns the smaller of the known values, or unknown if neither is known.
func Min[T cmp.Ordered](a, b Value[T]) Value[T] {
	switch {
	case !a.ok:
		return b
	case !b.ok:
		return a
	case b.v < a.v:
		return b
	default:
		return a
	}
}

// First returns the first known value in order.
func First[T cmp.Ordered](values ...Value[T]) Value[T] {
	for _, v := range values {
		if v.ok {
			return v
		}
	}
	return None[T]()
}
