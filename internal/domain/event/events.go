package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeFarmAssessed is emitted for every scored farm record.
	EventTypeFarmAssessed = "agririsk.farm.assessed"

	// EventTypeHighRiskFarmDetected is emitted when a farm lands in the Critical band.
	EventTypeHighRiskFarmDetected = "agririsk.farm.high_risk_detected"

	// EventTypeBundleTrained is emitted after a training run produced a bundle.
	EventTypeBundleTrained = "agririsk.bundle.trained"

	// EventTypeBundleActivated is emitted when a bundle becomes the serving bundle.
	EventTypeBundleActivated = "agririsk.bundle.activated"
)

// FarmAssessed is published when a farm record has been scored.
type FarmAssessed struct {
	AssessmentID     uuid.UUID `json:"assessment_id"`
	BundleID         uuid.UUID `json:"bundle_id"`
	FarmerID         string    `json:"farmer_id"`
	RiskScore        int       `json:"risk_score"`
	RiskCategory     string    `json:"risk_category"`
	CategoryLabel    string    `json:"category_label"`
	ClaimProbability float64   `json:"claim_probability"`
	AssessedAt       time.Time `json:"assessed_at"`
}

func (e FarmAssessed) EventType() string      { return EventTypeFarmAssessed }
func (e FarmAssessed) AggregateID() uuid.UUID { return e.AssessmentID }
func (e FarmAssessed) OccurredAt() time.Time  { return e.AssessedAt }

// HighRiskFarmDetected is published for Critical Risk assessments so that
// field verification can be scheduled.
type HighRiskFarmDetected struct {
	AssessmentID   uuid.UUID `json:"assessment_id"`
	FarmerID       string    `json:"farmer_id"`
	RiskScore      int       `json:"risk_score"`
	TopRiskDrivers []string  `json:"top_risk_drivers"`
	DetectedAt     time.Time `json:"detected_at"`
}

func (e HighRiskFarmDetected) EventType() string      { return EventTypeHighRiskFarmDetected }
func (e HighRiskFarmDetected) AggregateID() uuid.UUID { return e.AssessmentID }
func (e HighRiskFarmDetected) OccurredAt() time.Time  { return e.DetectedAt }

// BundleTrained is published when training finished and the bundle was stored.
type BundleTrained struct {
	BundleID            uuid.UUID `json:"bundle_id"`
	AUC                 float64   `json:"auc"`
	Brier               float64   `json:"brier"`
	BestIteration       int       `json:"best_iteration"`
	CalibrationFallback bool      `json:"calibration_fallback"`
	TrainedAt           time.Time `json:"trained_at"`
}

func (e BundleTrained) EventType() string      { return EventTypeBundleTrained }
func (e BundleTrained) AggregateID() uuid.UUID { return e.BundleID }
func (e BundleTrained) OccurredAt() time.Time  { return e.TrainedAt }

// BundleActivated is published when a bundle becomes the serving bundle.
// Serving replicas consume it to swap their in-memory bundle.
type BundleActivated struct {
	BundleID         uuid.UUID `json:"bundle_id"`
	PreviousBundleID uuid.UUID `json:"previous_bundle_id"`
	ActivatedAt      time.Time `json:"activated_at"`
}

func (e BundleActivated) EventType() string      { return EventTypeBundleActivated }
func (e BundleActivated) AggregateID() uuid.UUID { return e.BundleID }
func (e BundleActivated) OccurredAt() time.Time  { return e.ActivatedAt }
