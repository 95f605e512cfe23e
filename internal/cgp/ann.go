package cgp

import (
	"fmt"
	"math"
	"math/rand"

	"dcgp/internal/kernel"
	"dcgp/internal/numeric"
	"golang.org/x/sync/errgroup"
)

// ExpressionANN is a CGP expression carrying one weight per incoming edge
// and one bias per non-input node. Node u with kernel k computes
// v_u = phi_k(b_u + sum_i w_{u,i} * v_{s_i}); for the "sum" kernel phi is
// the identity. Weights default to 1 and biases to 0.
type ExpressionANN struct {
	program
	kernels []kernel.Kernel[numeric.Float]
	act     []func(float64) float64
	dact    []func(float64) float64

	weights []float64
	biases  []float64

	// wOffset[j] is the linear weight index of column j's first weight.
	wOffset []int
}

// NewExpressionANN constructs a random ANN expression. Every kernel must
// belong to the ANN-compatible subset {sig, tanh, ReLu, ELU, ISRU, sum}.
func NewExpressionANN(n, m, r, c, l int, arity []int, kernels []kernel.Kernel[numeric.Float], seed int64) (*ExpressionANN, error) {
	for _, k := range kernels {
		if !kernel.IsANNCompatible(k.Name()) {
			return nil, fmt.Errorf("%w: %s", kernel.ErrKernelIncompatible, k.Name())
		}
	}
	p, err := newProgram(n, m, r, c, l, arity, len(kernels), seed)
	if err != nil {
		return nil, err
	}
	ex := &ExpressionANN{
		program: p,
		kernels: append([]kernel.Kernel[numeric.Float](nil), kernels...),
		act:     make([]func(float64) float64, len(kernels)),
		dact:    make([]func(float64) float64, len(kernels)),
		wOffset: make([]int, c+1),
	}
	for i, k := range kernels {
		ex.act[i] = activation(k.Name())
		ex.dact[i] = activationDerivative(k.Name())
	}
	off := 0
	for j := 0; j < c; j++ {
		ex.wOffset[j] = off
		off += r * arity[j]
	}
	ex.wOffset[c] = off
	ex.weights = make([]float64, off)
	for i := range ex.weights {
		ex.weights[i] = 1
	}
	ex.biases = make([]float64, r*c)
	return ex, nil
}

// Kernels returns the kernel sequence the expression was built with.
func (ex *ExpressionANN) Kernels() []kernel.Kernel[numeric.Float] {
	return append([]kernel.Kernel[numeric.Float](nil), ex.kernels...)
}

func activation(name string) func(float64) float64 {
	switch name {
	case "sig":
		return func(z float64) float64 { return 1 / (1 + math.Exp(-z)) }
	case "tanh":
		return math.Tanh
	case "ReLu":
		return func(z float64) float64 {
			if z > 0 {
				return z
			}
			return 0
		}
	case "ELU":
		return func(z float64) float64 {
			if z > 0 {
				return z
			}
			return math.Exp(z) - 1
		}
	case "ISRU":
		return func(z float64) float64 { return z / math.Sqrt(1+z*z) }
	default: // sum
		return func(z float64) float64 { return z }
	}
}

func activationDerivative(name string) func(float64) float64 {
	switch name {
	case "sig":
		return func(z float64) float64 {
			s := 1 / (1 + math.Exp(-z))
			return s * (1 - s)
		}
	case "tanh":
		return func(z float64) float64 {
			t := math.Tanh(z)
			return 1 - t*t
		}
	case "ReLu":
		return func(z float64) float64 {
			if z > 0 {
				return 1
			}
			return 0
		}
	case "ELU":
		return func(z float64) float64 {
			if z > 0 {
				return 1
			}
			return math.Exp(z)
		}
	case "ISRU":
		return func(z float64) float64 {
			d := 1 + z*z
			return 1 / (d * math.Sqrt(d))
		}
	default: // sum
		return func(float64) float64 { return 1 }
	}
}

// WeightIndex maps (node id, input slot) to the linear weight index.
func (ex *ExpressionANN) WeightIndex(nodeID, slot int) (int, error) {
	if nodeID < ex.n || nodeID >= ex.n+ex.r*ex.c {
		return 0, fmt.Errorf("%w: node id %d is not a function node", ErrInput, nodeID)
	}
	col := (nodeID - ex.n) / ex.r
	row := (nodeID - ex.n) % ex.r
	if slot < 0 || slot >= ex.arity[col] {
		return 0, fmt.Errorf("%w: input slot %d out of range for column %d", ErrInput, slot, col)
	}
	return ex.wOffset[col] + row*ex.arity[col] + slot, nil
}

// Weights returns a copy of the dense weight vector.
func (ex *ExpressionANN) Weights() []float64 { return append([]float64(nil), ex.weights...) }

// Biases returns a copy of the dense bias vector.
func (ex *ExpressionANN) Biases() []float64 { return append([]float64(nil), ex.biases...) }

// Weight returns the weight at the linear index.
func (ex *ExpressionANN) Weight(idx int) (float64, error) {
	if idx < 0 || idx >= len(ex.weights) {
		return 0, fmt.Errorf("%w: weight index %d out of range", ErrInput, idx)
	}
	return ex.weights[idx], nil
}

// WeightAt returns the weight of a node's input slot.
func (ex *ExpressionANN) WeightAt(nodeID, slot int) (float64, error) {
	idx, err := ex.WeightIndex(nodeID, slot)
	if err != nil {
		return 0, err
	}
	return ex.weights[idx], nil
}

// SetWeight sets the weight at the linear index.
func (ex *ExpressionANN) SetWeight(idx int, w float64) error {
	if idx < 0 || idx >= len(ex.weights) {
		return fmt.Errorf("%w: weight index %d out of range", ErrInput, idx)
	}
	ex.weights[idx] = w
	return nil
}

// SetWeightAt sets the weight of a node's input slot.
func (ex *ExpressionANN) SetWeightAt(nodeID, slot int, w float64) error {
	idx, err := ex.WeightIndex(nodeID, slot)
	if err != nil {
		return err
	}
	ex.weights[idx] = w
	return nil
}

// SetWeights replaces the whole weight vector.
func (ex *ExpressionANN) SetWeights(ws []float64) error {
	if len(ws) != len(ex.weights) {
		return fmt.Errorf("%w: got %d weights, want %d", ErrInput, len(ws), len(ex.weights))
	}
	copy(ex.weights, ws)
	return nil
}

// Bias returns the bias of the idx-th non-input node (node id n + idx).
func (ex *ExpressionANN) Bias(idx int) (float64, error) {
	if idx < 0 || idx >= len(ex.biases) {
		return 0, fmt.Errorf("%w: bias index %d out of range", ErrInput, idx)
	}
	return ex.biases[idx], nil
}

// SetBias sets the bias of the idx-th non-input node.
func (ex *ExpressionANN) SetBias(idx int, b float64) error {
	if idx < 0 || idx >= len(ex.biases) {
		return fmt.Errorf("%w: bias index %d out of range", ErrInput, idx)
	}
	ex.biases[idx] = b
	return nil
}

// SetBiases replaces the whole bias vector.
func (ex *ExpressionANN) SetBiases(bs []float64) error {
	if len(bs) != len(ex.biases) {
		return fmt.Errorf("%w: got %d biases, want %d", ErrInput, len(bs), len(ex.biases))
	}
	copy(ex.biases, bs)
	return nil
}

// RandomiseWeights draws every weight independently from N(mean, std).
func (ex *ExpressionANN) RandomiseWeights(mean, std float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range ex.weights {
		ex.weights[i] = rng.NormFloat64()*std + mean
	}
}

// RandomiseBiases draws every bias independently from N(mean, std).
func (ex *ExpressionANN) RandomiseBiases(mean, std float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range ex.biases {
		ex.biases[i] = rng.NormFloat64()*std + mean
	}
}

// SetOutputF sets the function gene of every node directly feeding an output
// to the named kernel. Output genes pointing at input nodes are unaffected.
func (ex *ExpressionANN) SetOutputF(name string) error {
	fID := -1
	for i, k := range ex.kernels {
		if k.Name() == name {
			fID = i
			break
		}
	}
	if fID < 0 {
		return fmt.Errorf("%w: kernel %q is not in the set", ErrInput, name)
	}
	for _, target := range ex.outputTargets() {
		if target < ex.n {
			continue
		}
		g, _ := ex.nodeGene(target)
		ex.x[g] = fID
	}
	ex.updateActive()
	return nil
}

// NActiveWeights counts the weights attached to the active subgraph. With
// unique set, parallel edges between the same (source, destination) pair
// count once.
func (ex *ExpressionANN) NActiveWeights(unique bool) int {
	count := 0
	seen := make(map[[2]int]bool)
	for _, id := range ex.activeNodes {
		if id < ex.n {
			continue
		}
		g, a := ex.nodeGene(id)
		for k := 1; k <= a; k++ {
			if unique {
				edge := [2]int{ex.x[g+k], id}
				if seen[edge] {
					continue
				}
				seen[edge] = true
			}
			count++
		}
	}
	return count
}

// forward fills values (node values, indexed by node id) and, when pre is
// non-nil, the pre-activations of non-input nodes.
func (ex *ExpressionANN) forward(inputs, values, pre []float64) {
	copy(values, inputs)
	for _, id := range ex.activeNodes {
		if id < ex.n {
			continue
		}
		g, a := ex.nodeGene(id)
		widx, _ := ex.WeightIndex(id, 0)
		z := ex.biases[id-ex.n]
		for k := 0; k < a; k++ {
			z += ex.weights[widx+k] * values[ex.x[g+1+k]]
		}
		if pre != nil {
			pre[id] = z
		}
		values[id] = ex.act[ex.x[g]](z)
	}
}

// Evaluate computes the m outputs for the given n inputs.
func (ex *ExpressionANN) Evaluate(inputs []float64) ([]float64, error) {
	if len(inputs) != ex.n {
		return nil, fmt.Errorf("%w: got %d inputs, want %d", ErrInput, len(inputs), ex.n)
	}
	values := make([]float64, ex.n+ex.r*ex.c)
	ex.forward(inputs, values, nil)
	out := make([]float64, ex.m)
	for k, target := range ex.outputTargets() {
		out[k] = values[target]
	}
	return out, nil
}

// Symbolic renders the m outputs as strings with weights and biases inlined.
func (ex *ExpressionANN) Symbolic(symbols []string) ([]string, error) {
	if len(symbols) != ex.n {
		return nil, fmt.Errorf("%w: got %d symbols, want %d", ErrInput, len(symbols), ex.n)
	}
	buf := make([]string, ex.n+ex.r*ex.c)
	copy(buf, symbols)
	for _, id := range ex.activeNodes {
		if id < ex.n {
			continue
		}
		g, a := ex.nodeGene(id)
		widx, _ := ex.WeightIndex(id, 0)
		s := kernel.FormatWeight(ex.biases[id-ex.n])
		for k := 0; k < a; k++ {
			s += "+" + kernel.FormatWeight(ex.weights[widx+k]) + "*" + buf[ex.x[g+1+k]]
		}
		s = "(" + s + ")"
		if name := ex.kernels[ex.x[g]].Name(); name != "sum" {
			s = name + "(" + s + ")"
		}
		buf[id] = s
	}
	out := make([]string, ex.m)
	for k, target := range ex.outputTargets() {
		out[k] = buf[target]
	}
	return out, nil
}

// Loss aggregates the per-sample loss over the point set; see
// Expression.Loss for the aggregation rules.
func (ex *ExpressionANN) Loss(points, labels [][]float64, kind string, shards int) (float64, error) {
	lk, err := parseLossKind(kind)
	if err != nil {
		return 0, err
	}
	if err := checkSamples(points, labels, ex.n, ex.m); err != nil {
		return 0, err
	}
	total := shardedSum(len(points), shards, func(lo, hi int) float64 {
		values := make([]float64, ex.n+ex.r*ex.c)
		out := make([]float64, ex.m)
		sum := 0.0
		for i := lo; i < hi; i++ {
			ex.forward(points[i], values, nil)
			for k, target := range ex.outputTargets() {
				out[k] = values[target]
			}
			sum += sampleLoss(out, labels[i], lk)
		}
		return sum
	})
	return total / float64(len(points)), nil
}

// annScratch holds the per-call buffers one backpropagation needs. One
// scratch per worker; never shared.
type annScratch struct {
	values []float64
	pre    []float64
	delta  []float64
	out    []float64
	dy     []float64
}

func (ex *ExpressionANN) newScratch() *annScratch {
	size := ex.n + ex.r*ex.c
	return &annScratch{
		values: make([]float64, size),
		pre:    make([]float64, size),
		delta:  make([]float64, size),
		out:    make([]float64, ex.m),
		dy:     make([]float64, ex.m),
	}
}

// DLoss computes the per-sample loss and its exact gradients with respect
// to all weights and biases. Inactive weights and biases receive zero. For
// "CE" the gradients are exact when the label entries sum to 1.
func (ex *ExpressionANN) DLoss(input, label []float64, kind string) (float64, []float64, []float64, error) {
	lk, err := parseLossKind(kind)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(input) != ex.n {
		return 0, nil, nil, fmt.Errorf("%w: got %d inputs, want %d", ErrInput, len(input), ex.n)
	}
	if len(label) != ex.m {
		return 0, nil, nil, fmt.Errorf("%w: got %d labels, want %d", ErrInput, len(label), ex.m)
	}
	gradW := make([]float64, len(ex.weights))
	gradB := make([]float64, len(ex.biases))
	value := ex.backprop(input, label, lk, ex.newScratch(), gradW, gradB)
	return value, gradW, gradB, nil
}

// backprop runs one forward and one reverse pass, accumulating gradients
// into gradW and gradB, and returns the per-sample loss. Samples whose
// outputs are non-finite contribute nothing.
func (ex *ExpressionANN) backprop(input, label []float64, lk lossKind, s *annScratch, gradW, gradB []float64) float64 {
	ex.forward(input, s.values, s.pre)
	targets := ex.outputTargets()
	for k, target := range targets {
		s.out[k] = s.values[target]
	}
	if !allFinite(s.out) {
		return 0
	}
	value := sampleLoss(s.out, label, lk)

	for i := range s.delta {
		s.delta[i] = 0
	}
	outputGrad(s.out, label, lk, s.dy)
	for k, target := range targets {
		s.delta[target] += s.dy[k]
	}

	// Reverse walk: descending node id guarantees every consumer of a node
	// has already deposited its share of delta.
	for i := len(ex.activeNodes) - 1; i >= 0; i-- {
		id := ex.activeNodes[i]
		if id < ex.n {
			continue
		}
		g, a := ex.nodeGene(id)
		widx, _ := ex.WeightIndex(id, 0)
		dz := s.delta[id] * ex.dact[ex.x[g]](s.pre[id])
		for k := 0; k < a; k++ {
			src := ex.x[g+1+k]
			gradW[widx+k] += dz * s.values[src]
			if src >= ex.n {
				s.delta[src] += dz * ex.weights[widx+k]
			}
		}
		gradB[id-ex.n] += dz
	}
	return value
}

// SGD runs one epoch of mini-batch stochastic gradient descent and returns
// the mean of the per-batch average losses (a proxy for the epoch loss, not
// a full re-evaluation). When shuffle is set the sample order is permuted
// with the expression's RNG first. With shards > 1 each batch is split
// across workers holding thread-local gradient accumulators that are
// reduced by sum before the update.
func (ex *ExpressionANN) SGD(points, labels [][]float64, lr float64, batchSize int, kind string, shards int, shuffle bool) (float64, error) {
	lk, err := parseLossKind(kind)
	if err != nil {
		return 0, err
	}
	if err := checkSamples(points, labels, ex.n, ex.m); err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		return 0, fmt.Errorf("%w: batch size must be positive", ErrInput)
	}
	total := len(points)
	if batchSize > total {
		batchSize = total
	}

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		ex.rng.Shuffle(total, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	if shards < 1 {
		shards = 1
	}
	gradW := make([][]float64, shards)
	gradB := make([][]float64, shards)
	losses := make([]float64, shards)
	scratch := make([]*annScratch, shards)
	for s := 0; s < shards; s++ {
		gradW[s] = make([]float64, len(ex.weights))
		gradB[s] = make([]float64, len(ex.biases))
		scratch[s] = ex.newScratch()
	}

	lossSum := 0.0
	batches := 0
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := order[start:end]

		workers := shards
		if workers > len(batch) {
			workers = len(batch)
		}
		for s := 0; s < workers; s++ {
			clearFloats(gradW[s])
			clearFloats(gradB[s])
			losses[s] = 0
		}
		if workers < 2 {
			for _, i := range batch {
				losses[0] += ex.backprop(points[i], labels[i], lk, scratch[0], gradW[0], gradB[0])
			}
		} else {
			var g errgroup.Group
			for s := 0; s < workers; s++ {
				lo := s * len(batch) / workers
				hi := (s + 1) * len(batch) / workers
				s := s
				g.Go(func() error {
					for _, i := range batch[lo:hi] {
						losses[s] += ex.backprop(points[i], labels[i], lk, scratch[s], gradW[s], gradB[s])
					}
					return nil
				})
			}
			_ = g.Wait()
			for s := 1; s < workers; s++ {
				addFloats(gradW[0], gradW[s])
				addFloats(gradB[0], gradB[s])
				losses[0] += losses[s]
			}
		}

		inv := 1.0 / float64(len(batch))
		for i := range ex.weights {
			ex.weights[i] -= lr * gradW[0][i] * inv
		}
		for i := range ex.biases {
			ex.biases[i] -= lr * gradB[0][i] * inv
		}
		lossSum += losses[0] * inv
		batches++
	}
	return lossSum / float64(batches), nil
}

func clearFloats(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

func addFloats(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// String returns the stable human-readable description, weights and biases
// included.
func (ex *ExpressionANN) String() string {
	s := ex.describe("dCGP-ANN expression")
	s += fmt.Sprintf("\n\tWeights:\t\t\t%v\n", ex.weights)
	s += fmt.Sprintf("\tBiases:\t\t\t\t%v\n", ex.biases)
	return s
}
