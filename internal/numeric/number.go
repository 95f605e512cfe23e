// Package numeric defines the scalar domain the CGP evaluator is generic
// over. Two concrete types implement it: Float (plain float64 arithmetic)
// and Dual (first-order forward-mode automatic differentiation).
package numeric

// Number is the minimal capability set a scalar domain must provide for
// kernel evaluation: field arithmetic, the elementary transcendentals the
// built-in kernels reach for, and a way to lift float64 constants into the
// domain. Implementations must be value types whose zero value is usable as
// a receiver for Lift.
type Number[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Exp() T
	Log() T
	Sin() T
	Cos() T
	Tanh() T
	Sqrt() T

	// Lift returns the given constant as a member of the domain.
	Lift(float64) T
	// Float returns the primal value.
	Float() float64
	// IsFinite reports whether the primal value is neither NaN nor Inf.
	IsFinite() bool
}
