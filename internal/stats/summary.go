// Package stats provides summary statistics for training traces.
package stats

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Summary condenses a loss trace.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
	First float64
	Last  float64
}

// Mean returns the arithmetic mean of values.
func Mean[F constraints.Float](values []F) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("values must not be empty")
	}
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values)), nil
}

// Std returns the population standard deviation of values.
func Std[F constraints.Float](values []F) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range values {
		d := mean - float64(v)
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values))), nil
}

// Summarize computes the full summary of a trace.
func Summarize[F constraints.Float](values []F) (Summary, error) {
	mean, err := Mean(values)
	if err != nil {
		return Summary{}, err
	}
	std, err := Std(values)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Count: len(values),
		Mean:  mean,
		Std:   std,
		Min:   float64(values[0]),
		Max:   float64(values[0]),
		First: float64(values[0]),
		Last:  float64(values[len(values)-1]),
	}
	for _, v := range values {
		f := float64(v)
		if f < s.Min {
			s.Min = f
		}
		if f > s.Max {
			s.Max = f
		}
	}
	return s, nil
}

// Improved reports whether the trace ends strictly below where it started.
func Improved[F constraints.Float](values []F) bool {
	return len(values) >= 2 && values[len(values)-1] < values[0]
}
