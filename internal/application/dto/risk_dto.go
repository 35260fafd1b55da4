package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
)

// ScoreFarmRequest is the input DTO for the ScoreFarm use case.
type ScoreFarmRequest struct {
	Record model.FarmRecord `json:"record"`
}

// ScoreFarmResponse is the output DTO returned after scoring.
type ScoreFarmResponse struct {
	AssessedAt   time.Time        `json:"assessed_at"`
	Report       model.RiskReport `json:"report"`
	AssessmentID uuid.UUID        `json:"assessment_id"`
}

// ScoreBatchRequest is the input DTO for the ScoreBatch use case.
type ScoreBatchRequest struct {
	Records []model.FarmRecord `json:"records"`
}

// ScoreBatchResponse holds one report per input record, in input order.
type ScoreBatchResponse struct {
	Reports  []model.RiskReport `json:"reports"`
	BundleID uuid.UUID          `json:"bundle_id"`
	Count    int                `json:"count"`
}

// TrainBundleRequest is the input DTO for the TrainBundle use case.
type TrainBundleRequest struct {
	Records  []model.LabeledRecord
	Activate bool
}

// TrainBundleResponse describes the stored bundle.
type TrainBundleResponse struct {
	Summary      bundle.Summary `json:"summary"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	Activated    bool           `json:"activated"`
}

// ActivateBundleRequest is the input DTO for the ActivateBundle use case.
type ActivateBundleRequest struct {
	BundleID uuid.UUID `json:"bundle_id"`
}

// ActivateBundleResponse reports the swap.
type ActivateBundleResponse struct {
	ActivatedAt      time.Time `json:"activated_at"`
	BundleID         uuid.UUID `json:"bundle_id"`
	PreviousBundleID uuid.UUID `json:"previous_bundle_id"`
}

// ModelInfoResponse describes the serving bundle.
type ModelInfoResponse struct {
	CreatedAt           time.Time                  `json:"created_at"`
	Metrics             bundle.Metrics             `json:"metrics"`
	CategoricalFeatures []string                   `json:"categorical_features"`
	TopFeatures         []bundle.FeatureImportance `json:"top_features"`
	BundleID            uuid.UUID                  `json:"bundle_id"`
	FeatureCount        int                        `json:"feature_count"`
	Calibrated          bool                       `json:"calibrated"`
}

// GetAssessmentRequest is the input DTO for retrieving an assessment.
type GetAssessmentRequest struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// AssessmentResponse is the output DTO for a stored assessment.
type AssessmentResponse struct {
	AssessedAt time.Time        `json:"assessed_at"`
	Report     model.RiskReport `json:"report"`
	ID         uuid.UUID        `json:"id"`
}

// FromAssessment maps the aggregate to the response DTO.
func FromAssessment(a *model.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:         a.ID(),
		Report:     a.Report(),
		AssessedAt: a.AssessedAt(),
	}
}

// ExplainFarmResponse is the full attribution of one record against the
// serving bundle.
type ExplainFarmResponse struct {
	Explanation bundle.Explanation `json:"explanation"`
	BundleID    uuid.UUID          `json:"bundle_id"`
}

// ListAssessmentsRequest selects one farmer's assessments.
type ListAssessmentsRequest struct {
	FarmerID string `json:"farmer_id"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// ListAssessmentsResponse is a page of stored assessments, newest first.
type ListAssessmentsResponse struct {
	Assessments []AssessmentResponse `json:"assessments"`
	Count       int                  `json:"count"`
}
