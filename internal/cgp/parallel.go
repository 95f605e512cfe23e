package cgp

import "golang.org/x/sync/errgroup"

// shardedSum partitions [0, n) into contiguous shards and reduces the
// per-shard partial sums. With shards < 2 the whole range runs on the
// calling goroutine, which keeps the reduction order bit-reproducible.
// Workers read the expression's configuration only; callers guarantee no
// mutation happens while a parallel evaluation is in flight.
func shardedSum(n, shards int, f func(lo, hi int) float64) float64 {
	if shards > n {
		shards = n
	}
	if shards < 2 {
		return f(0, n)
	}
	partials := make([]float64, shards)
	var g errgroup.Group
	for s := 0; s < shards; s++ {
		lo := s * n / shards
		hi := (s + 1) * n / shards
		s := s
		g.Go(func() error {
			partials[s] = f(lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	total := 0.0
	for _, p := range partials {
		total += p
	}
	return total
}
