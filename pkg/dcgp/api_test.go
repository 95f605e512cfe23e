package dcgp

import (
	"context"
	"errors"
	"testing"
)

func TestConstructorsAndIntrospection(t *testing.T) {
	set, err := NewKernelSet("sum", "diff", "mul", "div")
	if err != nil {
		t.Fatalf("kernel set: %v", err)
	}
	ex, err := New(2, 1, 3, 4, 2, 2, set, 7)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if ex.Inputs() != 2 || ex.Outputs() != 1 || ex.Rows() != 3 || ex.Cols() != 4 || ex.LevelsBack() != 2 {
		t.Fatal("introspection disagrees with construction")
	}
	if len(ex.ActiveGenes()) == 0 || len(ex.ActiveNodes()) == 0 {
		t.Fatal("freshly constructed expression has no active set")
	}
}

func TestNewANNRejectsNonANNKernels(t *testing.T) {
	set, err := NewKernelSet("sum", "mul")
	if err != nil {
		t.Fatalf("kernel set: %v", err)
	}
	if _, err := NewANN(1, 1, 1, 2, 1, 2, set, 7); !errors.Is(err, ErrKernelIncompatible) {
		t.Fatalf("expected ErrKernelIncompatible, got %v", err)
	}
}

func TestKernelSetUnknownName(t *testing.T) {
	if _, err := NewKernelSet("sum", "nope"); !errors.Is(err, ErrKernelNotFound) {
		t.Fatalf("expected ErrKernelNotFound, got %v", err)
	}
}

func TestClientTrainAndRuns(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer func() { _ = client.Close() }()

	result, err := client.Train(ctx, TrainRequest{
		Problem:    "mimic3",
		Rows:       10,
		Cols:       2,
		LevelsBack: 1,
		Arity:      3,
		Kernels:    []string{"sig", "tanh"},
		LossKind:   "MSE",
		Samples:    40,
		Epochs:     3,
		BatchSize:  8,
		LearnRate:  0.01,
		Seed:       77,
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("train must assign a run id")
	}
	if len(result.Losses) != 4 {
		t.Fatalf("got %d trace entries, want 4", len(result.Losses))
	}

	runs, err := client.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != result.RunID {
		t.Fatalf("unexpected runs listing: %+v", runs)
	}
}

func TestClientTrainValidation(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, Options{})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer func() { _ = client.Close() }()

	if _, err := client.Train(ctx, TrainRequest{Problem: "nope", Epochs: 1, Samples: 1}); err == nil {
		t.Fatal("expected error for unknown problem")
	}
	if _, err := client.Train(ctx, TrainRequest{Problem: "mimic3", Samples: 10}); err == nil {
		t.Fatal("expected error for zero epochs")
	}
}
