package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/pkg/events"
)

// Assessment is the aggregate root for a stored farm risk assessment.
type Assessment struct {
	events.EventCollector

	assessedAt time.Time
	report     RiskReport
	id         uuid.UUID
}

// NewAssessment wraps a freshly scored report and raises FarmAssessed, plus
// HighRiskFarmDetected for Critical Risk reports.
func NewAssessment(report RiskReport) (*Assessment, error) {
	if report.BundleID == uuid.Nil {
		return nil, fmt.Errorf("bundle ID is required")
	}
	if report.RiskScore < 0 || report.RiskScore > 100 {
		return nil, fmt.Errorf("risk score must be between 0 and 100, got %d", report.RiskScore)
	}
	if err := report.Breakdown.Validate(); err != nil {
		return nil, err
	}
	if report.FarmerID == "" {
		report.FarmerID = UnknownFarmer
	}

	a := &Assessment{
		id:         uuid.New(),
		report:     report,
		assessedAt: time.Now().UTC(),
	}

	a.Record(event.FarmAssessed{
		AssessmentID:     a.id,
		BundleID:         report.BundleID,
		FarmerID:         report.FarmerID,
		RiskScore:        report.RiskScore,
		RiskCategory:     report.RiskCategory.String(),
		CategoryLabel:    report.CategoryLabel,
		ClaimProbability: report.ClaimProbability,
		AssessedAt:       a.assessedAt,
	})

	if report.Band().IsCritical() {
		a.Record(event.HighRiskFarmDetected{
			AssessmentID:   a.id,
			FarmerID:       report.FarmerID,
			RiskScore:      report.RiskScore,
			TopRiskDrivers: report.DriverNames(),
			DetectedAt:     a.assessedAt,
		})
	}

	return a, nil
}

// ReconstructAssessment rebuilds an Assessment from persisted data (no validation, no events).
func ReconstructAssessment(id uuid.UUID, report RiskReport, assessedAt time.Time) *Assessment {
	return &Assessment{
		id:         id,
		report:     report,
		assessedAt: assessedAt,
	}
}

func (a *Assessment) ID() uuid.UUID         { return a.id }
func (a *Assessment) Report() RiskReport    { return a.report }
func (a *Assessment) AssessedAt() time.Time { return a.assessedAt }
func (a *Assessment) BundleID() uuid.UUID   { return a.report.BundleID }
func (a *Assessment) FarmerID() string      { return a.report.FarmerID }
