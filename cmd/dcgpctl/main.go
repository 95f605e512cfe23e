package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"dcgp/pkg/dcgp"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: dcgpctl <train|show|runs> [flags]", msg)
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON config file (flags override)")
	problem := fs.String("problem", "mimic3", "analytic target to train on")
	rows := fs.Int("rows", 100, "grid rows")
	cols := fs.Int("cols", 3, "grid columns")
	levelsBack := fs.Int("levels-back", 1, "levels-back")
	arity := fs.Int("arity", 10, "node arity (uniform)")
	kernels := fs.String("kernels", "sig,tanh,ReLu", "comma-separated ANN kernels")
	lossKind := fs.String("loss", "MSE", "loss kind (MSE or CE)")
	samples := fs.Int("samples", 200, "training samples")
	epochs := fs.Int("epochs", 20, "SGD epochs")
	batch := fs.Int("batch", 32, "mini-batch size")
	lr := fs.Float64("lr", 0.001, "learning rate")
	shards := fs.Int("shards", 0, "parallel shards (0 = serial)")
	seed := fs.Int64("seed", 0, "RNG seed (0 = nondeterministic)")
	store := fs.String("store", "memory", "run store backend (memory or sqlite)")
	dbPath := fs.String("db", "dcgp.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := dcgp.TrainRequest{
		Problem:    *problem,
		Rows:       *rows,
		Cols:       *cols,
		LevelsBack: *levelsBack,
		Arity:      *arity,
		Kernels:    strings.Split(*kernels, ","),
		LossKind:   *lossKind,
		Samples:    *samples,
		Epochs:     *epochs,
		BatchSize:  *batch,
		LearnRate:  *lr,
		Shards:     *shards,
		Seed:       *seed,
	}
	if *configPath != "" {
		loaded, err := loadTrainRequest(*configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", *configPath, err)
		}
		req = mergeTrainRequest(loaded, fs, req)
	}
	if req.Seed == 0 {
		req.Seed = dcgp.RandomSeed()
	}

	client, err := dcgp.NewClient(ctx, dcgp.Options{StoreKind: *store, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	result, err := client.Train(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: trained on %s samples of %s for %d epochs in %s\n",
		result.RunID, humanize.Comma(int64(req.Samples)), req.Problem, req.Epochs,
		result.Elapsed.Round(time.Millisecond))
	fmt.Printf("loss (%s): %.6g -> %.6g\n", req.LossKind, result.InitialLoss, result.FinalLoss)
	return nil
}

func runShow(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	inputs := fs.Int("inputs", 1, "expression inputs")
	outputs := fs.Int("outputs", 1, "expression outputs")
	rows := fs.Int("rows", 1, "grid rows")
	cols := fs.Int("cols", 15, "grid columns")
	levelsBack := fs.Int("levels-back", 16, "levels-back")
	arity := fs.Int("arity", 2, "node arity (uniform)")
	kernels := fs.String("kernels", "sum,diff,mul,div", "comma-separated kernels")
	seed := fs.Int64("seed", 0, "RNG seed (0 = nondeterministic)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *seed == 0 {
		*seed = dcgp.RandomSeed()
	}

	set, err := dcgp.NewKernelSet(strings.Split(*kernels, ",")...)
	if err != nil {
		return err
	}
	ex, err := dcgp.New(*inputs, *outputs, *rows, *cols, *levelsBack, *arity, set, *seed)
	if err != nil {
		return err
	}

	symbols := make([]string, *inputs)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("x%d", i)
	}
	formulas, err := ex.Symbolic(symbols)
	if err != nil {
		return err
	}

	fmt.Print(ex.String())
	for i, formula := range formulas {
		fmt.Printf("\ty%d = %s\n", i, formula)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	store := fs.String("store", "memory", "run store backend (memory or sqlite)")
	dbPath := fs.String("db", "dcgp.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dcgp.NewClient(ctx, dcgp.Options{StoreKind: *store, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, run := range runs {
		final := 0.0
		if len(run.Losses) > 0 {
			final = run.Losses[len(run.Losses)-1]
		}
		fmt.Printf("%s  %s  %s  %s epochs=%d loss=%.6g  %s\n",
			run.ID, run.Problem, run.LossKind, run.Shape, run.Epochs, final,
			humanize.Time(run.CreatedAt))
	}
	return nil
}
