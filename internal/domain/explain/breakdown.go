// Package explain turns per-feature log-odds contributions into the
// human-facing parts of a risk report.
package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mkdev28/Cropp/internal/domain/model"
	vo "github.com/mkdev28/Cropp/internal/domain/valueobject"
)

const (
	topDrivers = 3
	midpoint   = vo.BreakdownMax / 2.0
)

// Breakdown folds contributions into the four category scores.
//
// Each bucket's net contribution is scaled by T, the sum of the absolute
// bucket totals, and mapped around the 12.5 midpoint of the 0-25 range.
// Weather is reported as a risk, so risk-increasing weather raises it;
// the other three are reported as strengths, so risk-increasing
// contributions lower them. Scores are truncated, which puts a neutral
// bucket (and every bucket when T is zero) at 12.
func Breakdown(names []string, contributions []float64) (vo.Breakdown, error) {
	if len(names) != len(contributions) {
		return vo.Breakdown{}, fmt.Errorf("%d feature names for %d contributions", len(names), len(contributions))
	}

	totals := make(map[vo.BreakdownCategory]float64, 4)
	for i, name := range names {
		bucket, ok := featureBuckets[name]
		if !ok {
			return vo.Breakdown{}, fmt.Errorf("feature %q has no breakdown category", name)
		}
		totals[bucket] += contributions[i]
	}
	var absTotal float64
	for _, total := range totals {
		absTotal += math.Abs(total)
	}

	var b vo.Breakdown
	for _, c := range vo.BreakdownCategories() {
		share := 0.0
		if absTotal > 0 {
			share = totals[c] / absTotal
		}
		if !c.Inverted() {
			share = -share
		}
		score := math.Max(0, math.Min(vo.BreakdownMax, midpoint+share*midpoint))
		b.Set(c, int(score))
	}
	return b, nil
}

// Drivers returns up to three risk-increasing features by descending
// contribution and up to three protective features by descending magnitude.
// Ties keep schema order. Protective impacts are reported as magnitudes.
func Drivers(names []string, contributions []float64) (risk, protective []model.Driver) {
	type pair struct {
		name  string
		value float64
	}
	var pos, neg []pair
	for i, c := range contributions {
		switch {
		case c > 0:
			pos = append(pos, pair{names[i], c})
		case c < 0:
			neg = append(neg, pair{names[i], -c})
		}
	}
	sort.SliceStable(pos, func(a, b int) bool { return pos[a].value > pos[b].value })
	sort.SliceStable(neg, func(a, b int) bool { return neg[a].value > neg[b].value })

	risk = make([]model.Driver, 0, topDrivers)
	for _, p := range pos[:min(topDrivers, len(pos))] {
		risk = append(risk, model.Driver{Feature: p.name, Impact: Round(p.value, 3)})
	}
	protective = make([]model.Driver, 0, topDrivers)
	for _, p := range neg[:min(topDrivers, len(neg))] {
		protective = append(protective, model.Driver{Feature: p.name, Impact: Round(p.value, 3)})
	}
	return risk, protective
}

// RiskScore converts a calibrated claim probability into the 0-100 score
// where higher is safer.
func RiskScore(p float64) int {
	return int(math.Round(math.Max(0, math.Min(100, (1-p)*100))))
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
