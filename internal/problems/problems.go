// Package problems provides small analytic regression targets used by the
// CLI demo and the training tests.
package problems

import (
	"fmt"
	"math"
	"math/rand"
)

// Problem is a deterministic sampler for a supervised regression target.
type Problem struct {
	Name    string
	Inputs  int
	Outputs int
	target  func(in, out []float64)
}

// Mimic3 is a smooth three-input, two-output analytic target:
// y0 = cos(x0+x1+x2)/5 - x0*x1, y1 = x0*x1*x2.
func Mimic3() Problem {
	return Problem{
		Name:    "mimic3",
		Inputs:  3,
		Outputs: 2,
		target: func(in, out []float64) {
			out[0] = math.Cos(in[0]+in[1]+in[2])/5 - in[0]*in[1]
			out[1] = in[0] * in[1] * in[2]
		},
	}
}

// Koza1 is the quartic polynomial x + x^2 + x^3 + x^4 on one input.
func Koza1() Problem {
	return Problem{
		Name:    "koza1",
		Inputs:  1,
		Outputs: 1,
		target: func(in, out []float64) {
			x := in[0]
			out[0] = x + x*x + x*x*x + x*x*x*x
		},
	}
}

// ByName resolves a problem by its name.
func ByName(name string) (Problem, error) {
	switch name {
	case "mimic3":
		return Mimic3(), nil
	case "koza1":
		return Koza1(), nil
	default:
		return Problem{}, fmt.Errorf("unknown problem: %s", name)
	}
}

// Sample draws count points uniformly from [-1, 1)^Inputs and labels them
// with the target function.
func (p Problem) Sample(count int, seed int64) (points, labels [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	points = make([][]float64, count)
	labels = make([][]float64, count)
	for i := 0; i < count; i++ {
		in := make([]float64, p.Inputs)
		for j := range in {
			in[j] = rng.Float64()*2 - 1
		}
		out := make([]float64, p.Outputs)
		p.target(in, out)
		points[i] = in
		labels[i] = out
	}
	return points, labels
}
