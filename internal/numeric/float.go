package numeric

import "math"

// Float is the plain float64 specialization of Number.
type Float float64

func (x Float) Add(y Float) Float { return x + y }
func (x Float) Sub(y Float) Float { return x - y }
func (x Float) Mul(y Float) Float { return x * y }
func (x Float) Div(y Float) Float { return x / y }
func (x Float) Neg() Float        { return -x }

func (x Float) Exp() Float  { return Float(math.Exp(float64(x))) }
func (x Float) Log() Float  { return Float(math.Log(float64(x))) }
func (x Float) Sin() Float  { return Float(math.Sin(float64(x))) }
func (x Float) Cos() Float  { return Float(math.Cos(float64(x))) }
func (x Float) Tanh() Float { return Float(math.Tanh(float64(x))) }
func (x Float) Sqrt() Float { return Float(math.Sqrt(float64(x))) }

func (Float) Lift(v float64) Float { return Float(v) }
func (x Float) Float() float64     { return float64(x) }

func (x Float) IsFinite() bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Floats lifts a float64 slice into the Float domain.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}
