package cgp

import (
	"fmt"
	"math"
)

type lossKind int

const (
	lossMSE lossKind = iota
	lossCE
)

// LossKinds lists the accepted loss kind literals.
func LossKinds() []string { return []string{"MSE", "CE"} }

func parseLossKind(kind string) (lossKind, error) {
	switch kind {
	case "MSE":
		return lossMSE, nil
	case "CE":
		return lossCE, nil
	default:
		return 0, fmt.Errorf("%w: unknown loss kind %q", ErrInput, kind)
	}
}

func checkSamples(points, labels [][]float64, n, m int) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: empty point set", ErrInput)
	}
	if len(points) != len(labels) {
		return fmt.Errorf("%w: %d points vs %d labels", ErrInput, len(points), len(labels))
	}
	for i := range points {
		if len(points[i]) != n {
			return fmt.Errorf("%w: point %d has dimension %d, want %d", ErrInput, i, len(points[i]), n)
		}
		if len(labels[i]) != m {
			return fmt.Errorf("%w: label %d has dimension %d, want %d", ErrInput, i, len(labels[i]), m)
		}
	}
	return nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// sampleLoss returns the contribution of one sample; non-finite predictions
// contribute zero so pathological chromosomes stay cheap to evaluate.
func sampleLoss(predicted, label []float64, kind lossKind) float64 {
	if !allFinite(predicted) {
		return 0
	}
	switch kind {
	case lossMSE:
		sum := 0.0
		for j := range predicted {
			d := predicted[j] - label[j]
			sum += d * d
		}
		return sum / float64(len(predicted))
	case lossCE:
		p := softmax(predicted)
		sum := 0.0
		for j := range p {
			sum -= label[j] * math.Log(p[j])
		}
		return sum
	}
	return 0
}

// outputGrad fills dy with the derivative of the per-sample loss with
// respect to each raw output. For CE it uses p - y, which is that derivative
// when the label entries sum to 1.
func outputGrad(predicted, label []float64, kind lossKind, dy []float64) {
	switch kind {
	case lossMSE:
		m := float64(len(predicted))
		for j := range predicted {
			dy[j] = 2 * (predicted[j] - label[j]) / m
		}
	case lossCE:
		p := softmax(predicted)
		for j := range p {
			dy[j] = p[j] - label[j]
		}
	}
}

// softmax is computed against the shifted maximum for stability.
func softmax(values []float64) []float64 {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
