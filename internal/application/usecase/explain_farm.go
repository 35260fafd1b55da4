package usecase

import (
	"context"
	"fmt"

	"github.com/mkdev28/Cropp/internal/application/dto"
)

// ExplainFarm is the use case for the unrounded feature attribution of a
// record.
type ExplainFarm struct {
	active *ActiveBundle
}

// NewExplainFarm creates a new ExplainFarm use case.
func NewExplainFarm(active *ActiveBundle) *ExplainFarm {
	return &ExplainFarm{active: active}
}

// Execute explains the record with the active bundle.
func (uc *ExplainFarm) Execute(ctx context.Context, req dto.ScoreFarmRequest) (dto.ExplainFarmResponse, error) {
	_, span := tracer.Start(ctx, "ExplainFarm")
	defer span.End()

	b := uc.active.Load()
	exp, err := b.Explain(req.Record)
	if err != nil {
		return dto.ExplainFarmResponse{}, fmt.Errorf("failed to explain farm: %w", err)
	}
	return dto.ExplainFarmResponse{Explanation: exp, BundleID: b.ID()}, nil
}
