package explain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/explain"
	"github.com/mkdev28/Cropp/internal/domain/features"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/valueobject"
)

func TestEveryFeatureHasOneBucket(t *testing.T) {
	counts := map[valueobject.BreakdownCategory]int{}
	for _, name := range features.DefaultSchema().Names {
		c, ok := explain.BucketOf(name)
		require.True(t, ok, "feature %s", name)
		counts[c]++
	}
	assert.Len(t, counts, 4)
}

func contributionsFor(values map[string]float64) ([]string, []float64) {
	names := features.DefaultSchema().Names
	contrib := make([]float64, len(names))
	for i, n := range names {
		contrib[i] = values[n]
	}
	return names, contrib
}

func TestBreakdown(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float64
		want   valueobject.Breakdown
	}{
		{
			name: "all zero sits at truncated midpoint",
			want: valueobject.Breakdown{WeatherRisk: 12, Infrastructure: 12, Diversification: 12, FinancialHealth: 12},
		},
		{
			name:   "drought pushes weather risk up",
			values: map[string]float64{"rainfall_deficit_pct": 1.0},
			want:   valueobject.Breakdown{WeatherRisk: 25, Infrastructure: 12, Diversification: 12, FinancialHealth: 12},
		},
		{
			name:   "favourable weather lowers weather risk",
			values: map[string]float64{"heatwave_days": -1.0},
			want:   valueobject.Breakdown{WeatherRisk: 0, Infrastructure: 12, Diversification: 12, FinancialHealth: 12},
		},
		{
			name: "mixed buckets",
			values: map[string]float64{
				"kcc_repayment_rate": 0.5,
				"irrigation_type":    -0.25,
				"crop_count":         -0.25,
			},
			want: valueobject.Breakdown{WeatherRisk: 12, Infrastructure: 15, Diversification: 15, FinancialHealth: 6},
		},
		{
			name: "cancellation inside a bucket scales by bucket totals",
			values: map[string]float64{
				"rainfall_deficit_pct": 2.0,
				"monsoon_reliability":  -1.0,
			},
			want: valueobject.Breakdown{WeatherRisk: 25, Infrastructure: 12, Diversification: 12, FinancialHealth: 12},
		},
		{
			name: "partial cancellation against another bucket",
			values: map[string]float64{
				"rainfall_deficit_pct": 2.0,
				"heatwave_days":        -1.0,
				"kcc_repayment_rate":   1.0,
			},
			want: valueobject.Breakdown{WeatherRisk: 18, Infrastructure: 12, Diversification: 12, FinancialHealth: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, contrib := contributionsFor(tt.values)
			got, err := explain.Breakdown(names, contrib)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestBreakdown_UnknownFeature(t *testing.T) {
	_, err := explain.Breakdown([]string{"mystery"}, []float64{1})
	assert.Error(t, err)
}

func TestDrivers(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	contrib := []float64{0.5, -0.2, 0.5, 0.9, -0.7, 0.1, -0.2, -0.05}

	risk, protective := explain.Drivers(names, contrib)

	assert.Equal(t, []model.Driver{{Feature: "d", Impact: 0.9}, {Feature: "a", Impact: 0.5}, {Feature: "c", Impact: 0.5}}, risk)
	assert.Equal(t, []model.Driver{{Feature: "e", Impact: 0.7}, {Feature: "b", Impact: 0.2}, {Feature: "g", Impact: 0.2}}, protective)
}

func TestDrivers_FewerThanThree(t *testing.T) {
	risk, protective := explain.Drivers([]string{"a", "b"}, []float64{0.12345, 0})

	assert.Equal(t, []model.Driver{{Feature: "a", Impact: 0.123}}, risk)
	assert.Empty(t, protective)
}

func TestRiskScoreAndBand(t *testing.T) {
	tests := []struct {
		p        float64
		score    int
		category valueobject.RiskCategory
		label    string
	}{
		{0.0, 100, valueobject.RiskCategoryLow, "Low Risk (Safe)"},
		{0.25, 75, valueobject.RiskCategoryLow, "Low Risk (Safe)"},
		{0.26, 74, valueobject.RiskCategoryMedium, "Moderate Risk"},
		{0.5, 50, valueobject.RiskCategoryMedium, "Moderate Risk"},
		{0.7, 30, valueobject.RiskCategoryHigh, "High Risk"},
		{0.76, 24, valueobject.RiskCategoryHigh, "Critical Risk"},
		{1.0, 0, valueobject.RiskCategoryHigh, "Critical Risk"},
	}

	for _, tt := range tests {
		score := explain.RiskScore(tt.p)
		band := valueobject.RiskBandFromScore(score)
		assert.Equal(t, tt.score, score)
		assert.True(t, tt.category.Equal(band.Category()))
		assert.Equal(t, tt.label, band.Label())
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.35, explain.Round(12.345, 2))
	assert.Equal(t, 0.667, explain.Round(2.0/3, 3))
}
