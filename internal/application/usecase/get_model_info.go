package usecase

import (
	"context"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/domain/model"
)

const modelInfoTopFeatures = 10

// GetModelInfo is the use case for describing the serving bundle.
type GetModelInfo struct {
	active *ActiveBundle
}

// NewGetModelInfo creates a new GetModelInfo use case.
func NewGetModelInfo(active *ActiveBundle) *GetModelInfo {
	return &GetModelInfo{active: active}
}

// Execute returns metrics and the top features of the active bundle.
func (uc *GetModelInfo) Execute(_ context.Context) (dto.ModelInfoResponse, error) {
	b := uc.active.Load()
	if !b.Ready() {
		return dto.ModelInfoResponse{}, model.ErrNotReady
	}
	return dto.ModelInfoResponse{
		BundleID:            b.ID(),
		CreatedAt:           b.CreatedAt(),
		Metrics:             b.Metrics(),
		FeatureCount:        b.Schema().Len(),
		CategoricalFeatures: b.Schema().Categorical(),
		TopFeatures:         b.TopFeatures(modelInfoTopFeatures),
		Calibrated:          b.Calibrated(),
	}, nil
}
