// Package gbdt implements gradient-boosted decision trees for binary
// log-loss with native categorical splits and exact TreeSHAP attributions.
package gbdt

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mkdev28/Cropp/internal/domain/evaluation"
	"github.com/mkdev28/Cropp/internal/domain/features"
)

const (
	minSplitGain      = 1e-9
	minHessian        = 1e-16
	parallelThreshold = 2048
)

// Dataset is a labelled batch of feature vectors. Labels are 0 or 1.
type Dataset struct {
	Rows   []features.Vector
	Labels []float64
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Model is a fitted boosted ensemble. It is immutable after Fit and safe for
// concurrent prediction.
type Model struct {
	Schema        features.Schema `json:"schema"`
	BaseScore     float64         `json:"base_score"`
	Trees         []Tree          `json:"trees"`
	ClassWeights  [2]float64      `json:"class_weights"`
	BestIteration int             `json:"best_iteration"`
	Iterations    int             `json:"iterations"`
	ValidationAUC float64         `json:"validation_auc"`
	Importance    []float64       `json:"importance"`
}

// Margin returns the raw log-odds prediction for x.
func (m *Model) Margin(x features.Vector) float64 {
	s := m.BaseScore
	for i := range m.Trees {
		s += m.Trees[i].Predict(x)
	}
	return s
}

// PredictProba returns the uncalibrated claim probability for x.
func (m *Model) PredictProba(x features.Vector) float64 {
	return sigmoid(m.Margin(x))
}

// Fit trains a model on train, early-stopping on the validation AUC and
// truncating the ensemble to its best iteration. An empty validation set
// disables early stopping.
func Fit(ctx context.Context, cfg Config, schema features.Schema, train, valid Dataset) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid boosting config: %w", err)
	}
	n := train.Len()
	if n == 0 || len(train.Labels) != n || len(valid.Labels) != valid.Len() {
		return nil, fmt.Errorf("training set has %d rows and %d labels", n, len(train.Labels))
	}

	m := &Model{Schema: schema, ClassWeights: classWeights(train.Labels, cfg.BalancedClassWeight)}

	weights := make([]float64, n)
	var wSum, wPos float64
	for i, y := range train.Labels {
		weights[i] = m.ClassWeights[int(y)]
		wSum += weights[i]
		wPos += weights[i] * y
	}
	prior := math.Min(math.Max(wPos/wSum, 1e-6), 1-1e-6)
	m.BaseScore = math.Log(prior / (1 - prior))

	b := &builder{
		cfg:     cfg,
		schema:  schema,
		data:    quantize(schema, train.Rows, cfg.BorderCount),
		grad:    make([]float64, n),
		hess:    make([]float64, n),
		weights: weights,
		delta:   make([]float64, n),
	}

	margins := make([]float64, n)
	for i := range margins {
		margins[i] = m.BaseScore
	}
	validMargins := make([]float64, valid.Len())
	for i := range validMargins {
		validMargins[i] = m.BaseScore
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	bestAUC := math.Inf(-1)
	for it := 0; it < cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training cancelled at iteration %d: %w", it, err)
		}

		for i, y := range train.Labels {
			p := sigmoid(margins[i])
			b.grad[i] = weights[i] * (p - y)
			b.hess[i] = weights[i] * math.Max(p*(1-p), minHessian)
		}

		tree, err := b.build(ctx, all)
		if err != nil {
			return nil, err
		}
		m.Trees = append(m.Trees, tree)
		m.Iterations = it + 1

		for i := range margins {
			margins[i] += b.delta[i]
		}
		if valid.Len() == 0 {
			m.BestIteration = it
			continue
		}
		for i, row := range valid.Rows {
			validMargins[i] += tree.Predict(row)
		}

		auc := evaluation.AUC(validMargins, valid.Labels)
		if auc > bestAUC {
			bestAUC = auc
			m.BestIteration = it
		} else if cfg.EarlyStoppingRounds > 0 && it-m.BestIteration >= cfg.EarlyStoppingRounds {
			break
		}
	}

	m.Trees = m.Trees[:m.BestIteration+1]
	if valid.Len() > 0 {
		m.ValidationAUC = bestAUC
	}
	m.Importance = predictionValuesChange(m.Trees, schema.Len())
	return m, nil
}

// classWeights returns per-class sample weights. Balanced weighting scales
// each class to the size of the majority class.
func classWeights(labels []float64, balanced bool) [2]float64 {
	w := [2]float64{1, 1}
	if !balanced {
		return w
	}
	var counts [2]float64
	for _, y := range labels {
		counts[int(y)]++
	}
	top := math.Max(counts[0], counts[1])
	for c := range w {
		if counts[c] > 0 {
			w[c] = top / counts[c]
		}
	}
	return w
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

type builder struct {
	cfg     Config
	schema  features.Schema
	data    *quantizedData
	grad    []float64
	hess    []float64
	weights []float64
	delta   []float64 // leaf value assigned to each training row by the last tree
}

type candidate struct {
	gain      float64
	feature   int
	border    int     // numeric: rows with bin <= border go left
	leftCodes []int32 // categorical: codes going left
}

type sums struct {
	g, h, w float64
	n       int
}

func (s *sums) add(o sums) {
	s.g += o.g
	s.h += o.h
	s.w += o.w
	s.n += o.n
}

func (b *builder) score(s sums) float64 {
	return s.g * s.g / (s.h + b.cfg.L2LeafReg)
}

func (b *builder) build(ctx context.Context, all []int) (Tree, error) {
	var t Tree
	if _, err := b.grow(ctx, &t, all, 0); err != nil {
		return Tree{}, err
	}
	return t, nil
}

func (b *builder) grow(ctx context.Context, t *Tree, idx []int, depth int) (int, error) {
	var total sums
	for _, i := range idx {
		total.add(sums{g: b.grad[i], h: b.hess[i], w: b.weights[i], n: 1})
	}

	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Cover: total.w})

	var best candidate
	if depth < b.cfg.Depth && len(idx) >= 2*b.cfg.MinDataInLeaf {
		var err error
		best, err = b.bestSplit(ctx, idx, total)
		if err != nil {
			return 0, err
		}
	}

	if best.gain <= minSplitGain {
		value := -total.g / (total.h + b.cfg.L2LeafReg) * b.cfg.LearningRate
		t.Nodes[self].Value = value
		for _, i := range idx {
			b.delta[i] = value
		}
		return self, nil
	}

	col := b.data.columns[best.feature]
	var goesLeft func(i int) bool
	node := Node{Feature: best.feature, Cover: total.w}
	if b.schema.IsCategorical(best.feature) {
		left := make(map[int32]bool, len(best.leftCodes))
		levels := make([]string, 0, len(best.leftCodes))
		for _, c := range best.leftCodes {
			left[c] = true
			levels = append(levels, b.data.levels[best.feature][c])
		}
		sort.Strings(levels)
		node.Categories = levels
		goesLeft = func(i int) bool { return left[col[i]] }
	} else {
		node.Threshold = b.data.borders[best.feature][best.border]
		goesLeft = func(i int) bool { return int(col[i]) <= best.border }
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		if goesLeft(i) {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	l, err := b.grow(ctx, t, leftIdx, depth+1)
	if err != nil {
		return 0, err
	}
	r, err := b.grow(ctx, t, rightIdx, depth+1)
	if err != nil {
		return 0, err
	}
	node.Left, node.Right = l, r
	t.Nodes[self] = node
	return self, nil
}

// bestSplit evaluates every feature and returns the highest-gain split.
// Ties go to the lowest feature index so results do not depend on
// scheduling.
func (b *builder) bestSplit(ctx context.Context, idx []int, total sums) (candidate, error) {
	nf := b.schema.Len()
	results := make([]candidate, nf)

	search := func(f int) {
		if b.schema.IsCategorical(f) {
			results[f] = b.categoricalSplit(f, idx, total)
		} else {
			results[f] = b.numericSplit(f, idx, total)
		}
	}

	if len(idx) >= parallelThreshold {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for f := 0; f < nf; f++ {
			f := f
			g.Go(func() error {
				search(f)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return candidate{}, err
		}
	} else {
		for f := 0; f < nf; f++ {
			search(f)
		}
	}

	var best candidate
	for _, c := range results {
		if c.gain > best.gain {
			best = c
		}
	}
	return best, nil
}

func (b *builder) numericSplit(f int, idx []int, total sums) candidate {
	borders := b.data.borders[f]
	if len(borders) == 0 {
		return candidate{}
	}
	hist := make([]sums, len(borders)+1)
	col := b.data.columns[f]
	for _, i := range idx {
		hist[col[i]].add(sums{g: b.grad[i], h: b.hess[i], w: b.weights[i], n: 1})
	}

	parent := b.score(total)
	best := candidate{feature: f}
	var left sums
	for k := 0; k < len(borders); k++ {
		left.add(hist[k])
		right := sums{g: total.g - left.g, h: total.h - left.h, n: total.n - left.n}
		if left.n < b.cfg.MinDataInLeaf || right.n < b.cfg.MinDataInLeaf {
			continue
		}
		if gain := b.score(left) + b.score(right) - parent; gain > best.gain {
			best.gain = gain
			best.border = k
		}
	}
	return best
}

// categoricalSplit orders the levels present in the node by their mean
// gradient and scans the ordered prefixes, the optimal binary partition
// for a second-order loss.
func (b *builder) categoricalSplit(f int, idx []int, total sums) candidate {
	levels := b.data.levels[f]
	if len(levels) < 2 {
		return candidate{}
	}
	hist := make([]sums, len(levels))
	col := b.data.columns[f]
	for _, i := range idx {
		hist[col[i]].add(sums{g: b.grad[i], h: b.hess[i], w: b.weights[i], n: 1})
	}

	present := make([]int32, 0, len(levels))
	for c := range hist {
		if hist[c].n > 0 {
			present = append(present, int32(c))
		}
	}
	if len(present) < 2 {
		return candidate{}
	}
	ratio := func(c int32) float64 { return hist[c].g / (hist[c].h + b.cfg.L2LeafReg) }
	sort.SliceStable(present, func(a, c int) bool { return ratio(present[a]) < ratio(present[c]) })

	parent := b.score(total)
	best := candidate{feature: f}
	bestPrefix := 0
	var left sums
	for k := 0; k < len(present)-1; k++ {
		left.add(hist[present[k]])
		right := sums{g: total.g - left.g, h: total.h - left.h, n: total.n - left.n}
		if left.n < b.cfg.MinDataInLeaf || right.n < b.cfg.MinDataInLeaf {
			continue
		}
		if gain := b.score(left) + b.score(right) - parent; gain > best.gain {
			best.gain = gain
			bestPrefix = k + 1
		}
	}
	if bestPrefix > 0 {
		best.leftCodes = append([]int32(nil), present[:bestPrefix]...)
	}
	return best
}
