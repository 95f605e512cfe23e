package cgp

import (
	"fmt"

	"dcgp/internal/kernel"
	"dcgp/internal/numeric"
)

// Expression is a CGP expression generic over the numeric domain. The
// forward pass visits active nodes in ascending id order against a per-call
// scratch buffer, so evaluation is pure and safe to run concurrently.
type Expression[T numeric.Number[T]] struct {
	program
	kernels []kernel.Kernel[T]
}

// NewExpression constructs a random expression of the given shape. The
// chromosome is sampled uniformly within its per-gene bounds using seed.
func NewExpression[T numeric.Number[T]](n, m, r, c, l int, arity []int, kernels []kernel.Kernel[T], seed int64) (*Expression[T], error) {
	p, err := newProgram(n, m, r, c, l, arity, len(kernels), seed)
	if err != nil {
		return nil, err
	}
	return &Expression[T]{
		program: p,
		kernels: append([]kernel.Kernel[T](nil), kernels...),
	}, nil
}

// Kernels returns the kernel sequence the expression was built with.
func (ex *Expression[T]) Kernels() []kernel.Kernel[T] {
	return append([]kernel.Kernel[T](nil), ex.kernels...)
}

// Evaluate computes the m outputs for the given n inputs. Only active nodes
// are visited. Non-finite intermediate values propagate; they are not an
// error.
func (ex *Expression[T]) Evaluate(inputs []T) ([]T, error) {
	if len(inputs) != ex.n {
		return nil, fmt.Errorf("%w: got %d inputs, want %d", ErrInput, len(inputs), ex.n)
	}
	buf := make([]T, ex.n+ex.r*ex.c)
	copy(buf, inputs)

	args := make([]T, 0, 8)
	for _, id := range ex.activeNodes {
		if id < ex.n {
			continue
		}
		g, a := ex.nodeGene(id)
		args = args[:0]
		for k := 1; k <= a; k++ {
			args = append(args, buf[ex.x[g+k]])
		}
		buf[id] = ex.kernels[ex.x[g]].Evaluate(args)
	}

	out := make([]T, ex.m)
	for k, target := range ex.outputTargets() {
		out[k] = buf[target]
	}
	return out, nil
}

// EvaluateFloats is Evaluate over plain float64 slices.
func (ex *Expression[T]) EvaluateFloats(inputs []float64) ([]float64, error) {
	var zero T
	lifted := make([]T, len(inputs))
	for i, v := range inputs {
		lifted[i] = zero.Lift(v)
	}
	outs, err := ex.Evaluate(lifted)
	if err != nil {
		return nil, err
	}
	floats := make([]float64, len(outs))
	for i, o := range outs {
		floats[i] = o.Float()
	}
	return floats, nil
}

// Symbolic renders the m outputs as strings over the given input symbols.
func (ex *Expression[T]) Symbolic(symbols []string) ([]string, error) {
	if len(symbols) != ex.n {
		return nil, fmt.Errorf("%w: got %d symbols, want %d", ErrInput, len(symbols), ex.n)
	}
	buf := make([]string, ex.n+ex.r*ex.c)
	copy(buf, symbols)

	args := make([]string, 0, 8)
	for _, id := range ex.activeNodes {
		if id < ex.n {
			continue
		}
		g, a := ex.nodeGene(id)
		args = args[:0]
		for k := 1; k <= a; k++ {
			args = append(args, buf[ex.x[g+k]])
		}
		buf[id] = ex.kernels[ex.x[g]].Symbol(args)
	}

	out := make([]string, ex.m)
	for k, target := range ex.outputTargets() {
		out[k] = buf[target]
	}
	return out, nil
}

// Loss aggregates the per-sample loss of kind ("MSE" or "CE") over the point
// set, as a mean over all samples. Samples producing non-finite outputs
// contribute zero. With shards > 1 the samples are split into that many
// contiguous shards evaluated concurrently; the reduction order may then
// differ from the serial one in the last ULP.
func (ex *Expression[T]) Loss(points, labels [][]float64, kind string, shards int) (float64, error) {
	lk, err := parseLossKind(kind)
	if err != nil {
		return 0, err
	}
	if err := checkSamples(points, labels, ex.n, ex.m); err != nil {
		return 0, err
	}
	total := shardedSum(len(points), shards, func(lo, hi int) float64 {
		sum := 0.0
		for i := lo; i < hi; i++ {
			out, _ := ex.EvaluateFloats(points[i])
			sum += sampleLoss(out, labels[i], lk)
		}
		return sum
	})
	return total / float64(len(points)), nil
}

// String returns the stable human-readable description of the expression.
func (ex *Expression[T]) String() string {
	return ex.describe("dCGP expression")
}
