// Package calibration maps raw model probabilities onto observed claim
// frequencies with isotonic regression.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDegenerate is returned when the calibration sample cannot support a
// monotone fit.
var ErrDegenerate = errors.New("degenerate calibration sample")

// Isotonic is a fitted non-decreasing step function with linear
// interpolation between knots. Inputs outside the fitted range are clipped
// to the end knots.
type Isotonic struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type block struct {
	xMin, xMax float64
	sum        float64 // weighted label sum
	weight     float64
}

func (b block) mean() float64 { return b.sum / b.weight }

// FitIsotonic fits pool-adjacent-violators on (raw probability, label) pairs.
// It fails with ErrDegenerate when there are fewer than two distinct inputs,
// only one class, or non-finite values.
func FitIsotonic(raw, labels []float64) (*Isotonic, error) {
	if len(raw) != len(labels) {
		return nil, fmt.Errorf("%d inputs but %d labels: %w", len(raw), len(labels), ErrDegenerate)
	}

	idx := make([]int, len(raw))
	var positives int
	for i := range raw {
		if math.IsNaN(raw[i]) || math.IsInf(raw[i], 0) {
			return nil, fmt.Errorf("non-finite input at %d: %w", i, ErrDegenerate)
		}
		if labels[i] > 0.5 {
			positives++
		}
		idx[i] = i
	}
	if positives == 0 || positives == len(raw) {
		return nil, fmt.Errorf("single-class sample of %d: %w", len(raw), ErrDegenerate)
	}
	sort.SliceStable(idx, func(a, b int) bool { return raw[idx[a]] < raw[idx[b]] })

	// Tied inputs are merged first so they always share one fitted value.
	blocks := make([]block, 0, len(raw))
	for _, i := range idx {
		if n := len(blocks); n > 0 && blocks[n-1].xMax == raw[i] {
			blocks[n-1].sum += labels[i]
			blocks[n-1].weight++
			continue
		}
		blocks = append(blocks, block{xMin: raw[i], xMax: raw[i], sum: labels[i], weight: 1})
	}
	if len(blocks) < 2 {
		return nil, fmt.Errorf("only %d distinct input: %w", len(blocks), ErrDegenerate)
	}

	pooled := make([]block, 0, len(blocks))
	for _, b := range blocks {
		pooled = append(pooled, b)
		for n := len(pooled); n > 1 && pooled[n-2].mean() >= pooled[n-1].mean(); n = len(pooled) {
			last := pooled[n-1]
			pooled = pooled[:n-1]
			prev := &pooled[n-2]
			prev.xMax = last.xMax
			prev.sum += last.sum
			prev.weight += last.weight
		}
	}

	iso := &Isotonic{}
	for _, b := range pooled {
		y := b.mean()
		iso.X = append(iso.X, b.xMin)
		iso.Y = append(iso.Y, y)
		if b.xMax != b.xMin {
			iso.X = append(iso.X, b.xMax)
			iso.Y = append(iso.Y, y)
		}
	}
	return iso, nil
}

// Predict returns the calibrated probability for a raw probability. The
// result is non-decreasing in p and lies in [0, 1].
func (c *Isotonic) Predict(p float64) float64 {
	n := len(c.X)
	switch {
	case n == 0:
		return clamp01(p)
	case p <= c.X[0]:
		return clamp01(c.Y[0])
	case p >= c.X[n-1]:
		return clamp01(c.Y[n-1])
	}

	i := sort.SearchFloat64s(c.X, p)
	if c.X[i] == p {
		return clamp01(c.Y[i])
	}
	x0, x1 := c.X[i-1], c.X[i]
	y0, y1 := c.Y[i-1], c.Y[i]
	return clamp01(y0 + (p-x0)/(x1-x0)*(y1-y0))
}

// Validate checks the knots are sorted, finite and non-decreasing.
func (c *Isotonic) Validate() error {
	if len(c.X) != len(c.Y) || len(c.X) == 0 {
		return fmt.Errorf("calibrator has %d knots and %d values", len(c.X), len(c.Y))
	}
	for i := range c.X {
		if math.IsNaN(c.X[i]) || math.IsNaN(c.Y[i]) {
			return fmt.Errorf("calibrator knot %d is not a number", i)
		}
		if i > 0 && (c.X[i] < c.X[i-1] || c.Y[i] < c.Y[i-1]) {
			return fmt.Errorf("calibrator knot %d breaks monotonicity", i)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
