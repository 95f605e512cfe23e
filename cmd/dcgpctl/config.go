package main

import (
	"encoding/json"
	"flag"
	"os"
	"strings"

	"dcgp/pkg/dcgp"
)

// trainConfig mirrors TrainRequest with JSON keys; kernels may be given as a
// list or a comma-separated string.
type trainConfig struct {
	Problem    string          `json:"problem"`
	Rows       int             `json:"rows"`
	Cols       int             `json:"cols"`
	LevelsBack int             `json:"levels_back"`
	Arity      int             `json:"arity"`
	Kernels    json.RawMessage `json:"kernels"`
	LossKind   string          `json:"loss"`
	Samples    int             `json:"samples"`
	Epochs     int             `json:"epochs"`
	BatchSize  int             `json:"batch"`
	LearnRate  float64         `json:"lr"`
	Shards     int             `json:"shards"`
	Seed       int64           `json:"seed"`
}

func loadTrainRequest(path string) (dcgp.TrainRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dcgp.TrainRequest{}, err
	}
	var cfg trainConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return dcgp.TrainRequest{}, err
	}

	req := dcgp.TrainRequest{
		Problem:    cfg.Problem,
		Rows:       cfg.Rows,
		Cols:       cfg.Cols,
		LevelsBack: cfg.LevelsBack,
		Arity:      cfg.Arity,
		LossKind:   cfg.LossKind,
		Samples:    cfg.Samples,
		Epochs:     cfg.Epochs,
		BatchSize:  cfg.BatchSize,
		LearnRate:  cfg.LearnRate,
		Shards:     cfg.Shards,
		Seed:       cfg.Seed,
	}
	if len(cfg.Kernels) > 0 {
		var list []string
		if err := json.Unmarshal(cfg.Kernels, &list); err == nil {
			req.Kernels = list
		} else {
			var joined string
			if err := json.Unmarshal(cfg.Kernels, &joined); err != nil {
				return dcgp.TrainRequest{}, err
			}
			req.Kernels = strings.Split(joined, ",")
		}
	}
	return req, nil
}

// mergeTrainRequest overlays flags the user set explicitly on top of the
// config file values.
func mergeTrainRequest(base dcgp.TrainRequest, fs *flag.FlagSet, flags dcgp.TrainRequest) dcgp.TrainRequest {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["problem"] {
		base.Problem = flags.Problem
	}
	if set["rows"] {
		base.Rows = flags.Rows
	}
	if set["cols"] {
		base.Cols = flags.Cols
	}
	if set["levels-back"] {
		base.LevelsBack = flags.LevelsBack
	}
	if set["arity"] {
		base.Arity = flags.Arity
	}
	if set["kernels"] {
		base.Kernels = flags.Kernels
	}
	if set["loss"] {
		base.LossKind = flags.LossKind
	}
	if set["samples"] {
		base.Samples = flags.Samples
	}
	if set["epochs"] {
		base.Epochs = flags.Epochs
	}
	if set["batch"] {
		base.BatchSize = flags.BatchSize
	}
	if set["lr"] {
		base.LearnRate = flags.LearnRate
	}
	if set["shards"] {
		base.Shards = flags.Shards
	}
	if set["seed"] {
		base.Seed = flags.Seed
	}
	if base.Kernels == nil {
		base.Kernels = flags.Kernels
	}
	return base
}
