package cgp

import (
	"errors"
	"math"
	"strings"
	"testing"

	"dcgp/internal/numeric"
)

// squareDoubler builds x -> 2*x^2 explicitly: node 1 = mul(x, x),
// node 2 = sum(node1, node1), output = node 2.
func squareDoubler(t *testing.T) *Expression[numeric.Float] {
	t.Helper()
	ks := floatSet(t, "sum", "mul")
	ex, err := NewExpression(1, 1, 1, 2, 1, Uniform(2, 2), ks, 3)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := ex.Set([]int{1, 0, 0, 0, 1, 1, 2}); err != nil {
		t.Fatalf("set: %v", err)
	}
	return ex
}

func TestEvaluateKnownChromosome(t *testing.T) {
	ex := squareDoubler(t)
	out, err := ex.Evaluate([]numeric.Float{3})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(out) != 1 || math.Abs(out[0].Float()-18) > 1e-14 {
		t.Fatalf("got %v, want [18]", out)
	}

	floats, err := ex.EvaluateFloats([]float64{-2})
	if err != nil {
		t.Fatalf("evaluate floats: %v", err)
	}
	if math.Abs(floats[0]-8) > 1e-14 {
		t.Fatalf("got %g, want 8", floats[0])
	}
}

func TestEvaluateWrongInputLength(t *testing.T) {
	ex := squareDoubler(t)
	if _, err := ex.Evaluate([]numeric.Float{1, 2}); !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	ex := squareDoubler(t)
	chromoBefore := ex.Chromosome()
	a, err := ex.EvaluateFloats([]float64{0.37})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i := 0; i < 10; i++ {
		b, err := ex.EvaluateFloats([]float64{0.37})
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if b[0] != a[0] {
			t.Fatalf("evaluation not bit-reproducible: %v vs %v", a[0], b[0])
		}
	}
	if !equalInts(chromoBefore, ex.Chromosome()) {
		t.Fatal("evaluate mutated the chromosome")
	}
}

func TestSymbolic(t *testing.T) {
	ex := squareDoubler(t)
	syms, err := ex.Symbolic([]string{"x"})
	if err != nil {
		t.Fatalf("symbolic: %v", err)
	}
	if syms[0] != "(2*x^2)" {
		t.Fatalf("got %q, want %q", syms[0], "(2*x^2)")
	}
	if _, err := ex.Symbolic([]string{"x", "y"}); !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput on symbol count, got %v", err)
	}
}

func TestDualGradientThroughExpression(t *testing.T) {
	// d/dx (2*x^2) = 4x
	ks, err := kernelSetDual("sum", "mul")
	if err != nil {
		t.Fatalf("kernel set: %v", err)
	}
	ex, err := NewExpression(1, 1, 1, 2, 1, Uniform(2, 2), ks, 3)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := ex.Set([]int{1, 0, 0, 0, 1, 1, 2}); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := ex.Evaluate([]numeric.Dual{numeric.Variable(3)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(out[0].Re-18) > 1e-12 || math.Abs(out[0].Du-12) > 1e-12 {
		t.Fatalf("got (%g, %g), want (18, 12)", out[0].Re, out[0].Du)
	}
}

func TestLossMSE(t *testing.T) {
	ex := squareDoubler(t)
	points := [][]float64{{1}, {2}}
	labels := [][]float64{{2}, {7}}
	// Predictions are 2 and 8: loss = ((2-2)^2 + (8-7)^2) / 2 = 0.5.
	got, err := ex.Loss(points, labels, "MSE", 0)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if math.Abs(got-0.5) > 1e-14 {
		t.Fatalf("got %g, want 0.5", got)
	}
}

func TestLossCE(t *testing.T) {
	// Two outputs wired straight to the two inputs.
	ks := floatSet(t, "sum")
	ex, err := NewExpression(2, 2, 1, 1, 2, Uniform(2, 1), ks, 3)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := ex.Set([]int{0, 0, 1, 0, 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	points := [][]float64{{1, 2}}
	labels := [][]float64{{0, 1}}
	e1, e2 := math.Exp(1.0), math.Exp(2.0)
	want := -math.Log(e2 / (e1 + e2))
	got, err := ex.Loss(points, labels, "CE", 0)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %g, want %g", got, want)
	}
}

func TestLossValidation(t *testing.T) {
	ex := squareDoubler(t)
	if _, err := ex.Loss([][]float64{{1}}, [][]float64{{1}, {2}}, "MSE", 0); !errors.Is(err, ErrInput) {
		t.Fatalf("size mismatch: expected ErrInput, got %v", err)
	}
	if _, err := ex.Loss([][]float64{{1, 2}}, [][]float64{{1}}, "MSE", 0); !errors.Is(err, ErrInput) {
		t.Fatalf("point dimension: expected ErrInput, got %v", err)
	}
	if _, err := ex.Loss([][]float64{{1}}, [][]float64{{1, 2}}, "MSE", 0); !errors.Is(err, ErrInput) {
		t.Fatalf("label dimension: expected ErrInput, got %v", err)
	}
	if _, err := ex.Loss([][]float64{{1}}, [][]float64{{1}}, "RMSE", 0); !errors.Is(err, ErrInput) {
		t.Fatalf("unknown kind: expected ErrInput, got %v", err)
	}
}

func TestLossSkipsNonFinite(t *testing.T) {
	// Single div node: 0/0 produces NaN for the first point, which must
	// contribute zero while still counting in the denominator.
	ks := floatSet(t, "div")
	ex, err := NewExpression(1, 1, 1, 1, 1, Uniform(2, 1), ks, 3)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := ex.Set([]int{0, 0, 0, 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	points := [][]float64{{0}, {2}}
	labels := [][]float64{{5}, {0}}
	// Predictions: NaN (skipped) and 1. Loss = (0 + 1) / 2.
	got, err := ex.Loss(points, labels, "MSE", 0)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if math.Abs(got-0.5) > 1e-14 {
		t.Fatalf("got %g, want 0.5", got)
	}
}

func TestParallelLossMatchesSerial(t *testing.T) {
	ks := floatSet(t, "sum", "diff", "mul", "div")
	ex, err := NewExpression(2, 2, 4, 6, 3, Uniform(2, 6), ks, 42)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	points := make([][]float64, 101)
	labels := make([][]float64, 101)
	for i := range points {
		a := float64(i)/50 - 1
		points[i] = []float64{a, -a / 2}
		labels[i] = []float64{a * a, a / 3}
	}
	serial, err := ex.Loss(points, labels, "MSE", 0)
	if err != nil {
		t.Fatalf("serial loss: %v", err)
	}
	for _, shards := range []int{1, 2, 3, 8, 200} {
		parallel, err := ex.Loss(points, labels, "MSE", shards)
		if err != nil {
			t.Fatalf("parallel loss (%d shards): %v", shards, err)
		}
		if diff := math.Abs(parallel - serial); diff > 1e-9*(1+math.Abs(serial)) {
			t.Fatalf("%d shards: |%g - %g| = %g", shards, parallel, serial, diff)
		}
	}
}

func TestStringDescription(t *testing.T) {
	ex := squareDoubler(t)
	s := ex.String()
	for _, want := range []string{
		"dCGP expression",
		"Number of inputs",
		"Number of outputs",
		"lower bounds",
		"upper bounds",
		"Active nodes",
		"Active genes",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("description missing %q:\n%s", want, s)
		}
	}
}
