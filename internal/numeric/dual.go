package numeric

import "math"

// Dual is a first-order forward-mode AD number: Re carries the primal value,
// Du the derivative with respect to a single chosen variable. Seeding
// Du = 1 on one input and 0 elsewhere makes every evaluation also produce
// the partial derivative of the output with respect to that input.
type Dual struct {
	Re float64
	Du float64
}

// Variable returns v seeded as the differentiation variable.
func Variable(v float64) Dual { return Dual{Re: v, Du: 1} }

// Constant returns v with zero derivative.
func Constant(v float64) Dual { return Dual{Re: v} }

func (x Dual) Add(y Dual) Dual { return Dual{x.Re + y.Re, x.Du + y.Du} }
func (x Dual) Sub(y Dual) Dual { return Dual{x.Re - y.Re, x.Du - y.Du} }
func (x Dual) Neg() Dual       { return Dual{-x.Re, -x.Du} }

func (x Dual) Mul(y Dual) Dual {
	return Dual{x.Re * y.Re, x.Du*y.Re + x.Re*y.Du}
}

func (x Dual) Div(y Dual) Dual {
	return Dual{x.Re / y.Re, (x.Du*y.Re - x.Re*y.Du) / (y.Re * y.Re)}
}

func (x Dual) Exp() Dual {
	e := math.Exp(x.Re)
	return Dual{e, x.Du * e}
}

func (x Dual) Log() Dual {
	return Dual{math.Log(x.Re), x.Du / x.Re}
}

func (x Dual) Sin() Dual {
	return Dual{math.Sin(x.Re), x.Du * math.Cos(x.Re)}
}

func (x Dual) Cos() Dual {
	return Dual{math.Cos(x.Re), -x.Du * math.Sin(x.Re)}
}

func (x Dual) Tanh() Dual {
	t := math.Tanh(x.Re)
	return Dual{t, x.Du * (1 - t*t)}
}

func (x Dual) Sqrt() Dual {
	s := math.Sqrt(x.Re)
	return Dual{s, x.Du / (2 * s)}
}

func (Dual) Lift(v float64) Dual { return Dual{Re: v} }
func (x Dual) Float() float64    { return x.Re }

func (x Dual) IsFinite() bool {
	return !math.IsNaN(x.Re) && !math.IsInf(x.Re, 0)
}
