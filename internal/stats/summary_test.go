package stats

import (
	"math"
	"testing"
)

func TestMeanStd(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	mean, err := Mean(values)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	if mean != 2.5 {
		t.Fatalf("mean: got %g, want 2.5", mean)
	}
	std, err := Std(values)
	if err != nil {
		t.Fatalf("std: %v", err)
	}
	if math.Abs(std-math.Sqrt(1.25)) > 1e-14 {
		t.Fatalf("std: got %g, want %g", std, math.Sqrt(1.25))
	}
	if _, err := Mean([]float64{}); err == nil {
		t.Fatal("expected error on empty input")
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float32{3, 1, 2})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Count != 3 || s.Min != 1 || s.Max != 3 || s.First != 3 || s.Last != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.Mean-2) > 1e-6 {
		t.Fatalf("mean: got %g, want 2", s.Mean)
	}
}

func TestImproved(t *testing.T) {
	if !Improved([]float64{2, 1.5, 1}) {
		t.Fatal("descending trace must report improvement")
	}
	if Improved([]float64{1, 2}) {
		t.Fatal("ascending trace must not report improvement")
	}
	if Improved([]float64{1}) {
		t.Fatal("single sample has no trend")
	}
}
