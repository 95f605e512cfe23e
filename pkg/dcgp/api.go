// Package dcgp is the public surface of the differentiable CGP core: typed
// constructors over the two numeric domains, the ANN variant, and a small
// client that trains expressions and records run traces.
package dcgp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dcgp/internal/cgp"
	"dcgp/internal/kernel"
	"dcgp/internal/numeric"
	"dcgp/internal/problems"
	"dcgp/internal/storage"
)

// Numeric domain and error re-exports.
type (
	Float = numeric.Float
	Dual  = numeric.Dual

	Expression     = cgp.Expression[numeric.Float]
	ExpressionDual = cgp.Expression[numeric.Dual]
	ExpressionANN  = cgp.ExpressionANN

	KernelSet     = kernel.Set[numeric.Float]
	KernelSetDual = kernel.Set[numeric.Dual]
)

var (
	ErrInput              = cgp.ErrInput
	ErrKernelNotFound     = kernel.ErrKernelNotFound
	ErrKernelIncompatible = kernel.ErrKernelIncompatible
)

// Variable seeds a dual number as the differentiation variable.
func Variable(v float64) Dual { return numeric.Variable(v) }

// Constant lifts a float64 into the dual domain with zero derivative.
func Constant(v float64) Dual { return numeric.Constant(v) }

// LossKinds lists the accepted loss kind literals.
func LossKinds() []string { return cgp.LossKinds() }

// KernelNames lists the built-in kernel registry.
func KernelNames() []string { return kernel.Names() }

// ANNKernelNames lists the ANN-compatible subset.
func ANNKernelNames() []string { return kernel.ANNNames() }

// NewKernelSet assembles an ordered kernel set over float64 semantics.
func NewKernelSet(names ...string) (*KernelSet, error) {
	return kernel.NewSet[numeric.Float](names...)
}

// NewKernelSetDual assembles an ordered kernel set over dual-number
// semantics, for gradient-carrying evaluation.
func NewKernelSetDual(names ...string) (*KernelSetDual, error) {
	return kernel.NewSet[numeric.Dual](names...)
}

// New constructs a random CGP expression over float64. arity applies to
// every column.
func New(n, m, r, c, l, arity int, set *KernelSet, seed int64) (*Expression, error) {
	return cgp.NewExpression(n, m, r, c, l, cgp.Uniform(arity, c), set.Kernels(), seed)
}

// NewWithArities is New with a per-column arity vector.
func NewWithArities(n, m, r, c, l int, arity []int, set *KernelSet, seed int64) (*Expression, error) {
	return cgp.NewExpression(n, m, r, c, l, arity, set.Kernels(), seed)
}

// NewDual constructs a random CGP expression over dual numbers.
func NewDual(n, m, r, c, l, arity int, set *KernelSetDual, seed int64) (*ExpressionDual, error) {
	return cgp.NewExpression(n, m, r, c, l, cgp.Uniform(arity, c), set.Kernels(), seed)
}

// NewANN constructs a random ANN expression. Every kernel in the set must
// belong to the ANN-compatible subset.
func NewANN(n, m, r, c, l, arity int, set *KernelSet, seed int64) (*ExpressionANN, error) {
	return cgp.NewExpressionANN(n, m, r, c, l, cgp.Uniform(arity, c), set.Kernels(), seed)
}

// NewANNWithArities is NewANN with a per-column arity vector.
func NewANNWithArities(n, m, r, c, l int, arity []int, set *KernelSet, seed int64) (*ExpressionANN, error) {
	return cgp.NewExpressionANN(n, m, r, c, l, arity, set.Kernels(), seed)
}

// RandomSeed returns a nondeterministic seed for callers that did not pick
// one.
func RandomSeed() int64 { return time.Now().UnixNano() }

// Options configures the client's run store.
type Options struct {
	StoreKind string // "memory" (default) or "sqlite"
	DBPath    string
}

// Client trains expressions and records run traces through a storage
// backend.
type Client struct {
	store storage.Store
}

// NewClient opens the configured store.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// TrainRequest describes one ANN training run on a named analytic problem.
type TrainRequest struct {
	Problem    string
	Rows       int
	Cols       int
	LevelsBack int
	Arity      int
	Kernels    []string
	LossKind   string
	Samples    int
	Epochs     int
	BatchSize  int
	LearnRate  float64
	Shards     int
	Seed       int64
}

// TrainResult reports the run trace. Losses holds the full-batch loss
// before training followed by one entry per epoch.
type TrainResult struct {
	RunID       string
	InitialLoss float64
	FinalLoss   float64
	Losses      []float64
	Elapsed     time.Duration
}

// Train samples the problem, trains a random ANN expression with mini-batch
// SGD and records the run.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainResult, error) {
	problem, err := problems.ByName(req.Problem)
	if err != nil {
		return TrainResult{}, err
	}
	if req.Epochs <= 0 {
		return TrainResult{}, errors.New("epochs must be positive")
	}
	if req.Samples <= 0 {
		return TrainResult{}, errors.New("samples must be positive")
	}
	set, err := NewKernelSet(req.Kernels...)
	if err != nil {
		return TrainResult{}, err
	}
	ex, err := NewANN(problem.Inputs, problem.Outputs, req.Rows, req.Cols, req.LevelsBack, req.Arity, set, req.Seed)
	if err != nil {
		return TrainResult{}, err
	}
	ex.RandomiseWeights(0, 1, req.Seed+1)
	ex.RandomiseBiases(0, 1, req.Seed+2)

	points, labels := problem.Sample(req.Samples, req.Seed+3)

	start := time.Now()
	initial, err := ex.Loss(points, labels, req.LossKind, req.Shards)
	if err != nil {
		return TrainResult{}, err
	}
	losses := []float64{initial}
	for epoch := 0; epoch < req.Epochs; epoch++ {
		if _, err := ex.SGD(points, labels, req.LearnRate, req.BatchSize, req.LossKind, req.Shards, true); err != nil {
			return TrainResult{}, err
		}
		loss, err := ex.Loss(points, labels, req.LossKind, req.Shards)
		if err != nil {
			return TrainResult{}, err
		}
		losses = append(losses, loss)
	}
	elapsed := time.Since(start)

	run := storage.RunRecord{
		ID:       uuid.NewString(),
		Problem:  problem.Name,
		LossKind: req.LossKind,
		Kernels:  req.Kernels,
		Shape: fmt.Sprintf("n=%d m=%d r=%d c=%d l=%d a=%d",
			problem.Inputs, problem.Outputs, req.Rows, req.Cols, req.LevelsBack, req.Arity),
		Seed:      req.Seed,
		Samples:   req.Samples,
		Epochs:    req.Epochs,
		Losses:    losses,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return TrainResult{}, err
	}

	return TrainResult{
		RunID:       run.ID,
		InitialLoss: initial,
		FinalLoss:   losses[len(losses)-1],
		Losses:      losses,
		Elapsed:     elapsed,
	}, nil
}

// Runs lists the recorded runs, oldest first.
func (c *Client) Runs(ctx context.Context) ([]storage.RunRecord, error) {
	return c.store.ListRuns(ctx)
}
