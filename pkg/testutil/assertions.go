package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/valueobject"
)

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), expected)
}

// AssertWellFormedReport checks the structural guarantees every report must
// satisfy regardless of the bundle that produced it.
func AssertWellFormedReport(t *testing.T, report model.RiskReport) {
	t.Helper()

	assert.GreaterOrEqual(t, report.RiskScore, 0)
	assert.LessOrEqual(t, report.RiskScore, 100)
	assert.GreaterOrEqual(t, report.ClaimProbability, 0.0)
	assert.LessOrEqual(t, report.ClaimProbability, 100.0)
	assert.NoError(t, report.Breakdown.Validate())

	band := valueobject.RiskBandFromScore(report.RiskScore)
	assert.True(t, band.Category().Equal(report.RiskCategory), "category %s for score %d", report.RiskCategory, report.RiskScore)
	assert.Equal(t, band.Label(), report.CategoryLabel)

	assert.LessOrEqual(t, len(report.TopRiskDrivers), 3)
	assert.LessOrEqual(t, len(report.TopProtectiveFactors), 3)
	for i, d := range report.TopRiskDrivers {
		assert.GreaterOrEqual(t, d.Impact, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, report.TopRiskDrivers[i-1].Impact, d.Impact)
		}
	}
	for i, d := range report.TopProtectiveFactors {
		assert.GreaterOrEqual(t, d.Impact, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, report.TopProtectiveFactors[i-1].Impact, d.Impact)
		}
	}
}
