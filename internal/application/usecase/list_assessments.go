package usecase

import (
	"context"
	"fmt"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListAssessments is the use case for paging through a farmer's history.
type ListAssessments struct {
	repo port.AssessmentRepository
}

// NewListAssessments creates a new ListAssessments use case.
func NewListAssessments(repo port.AssessmentRepository) *ListAssessments {
	return &ListAssessments{repo: repo}
}

// Execute returns a page of assessments for the farmer, newest first.
func (uc *ListAssessments) Execute(ctx context.Context, req dto.ListAssessmentsRequest) (dto.ListAssessmentsResponse, error) {
	if req.FarmerID == "" {
		return dto.ListAssessmentsResponse{}, &model.ValidationError{
			Fields: []model.FieldError{{Field: "farmer_id", Reason: "is required"}},
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(req.Offset, 0)

	found, err := uc.repo.FindByFarmerID(ctx, req.FarmerID, limit, offset)
	if err != nil {
		return dto.ListAssessmentsResponse{}, fmt.Errorf("failed to list assessments: %w", err)
	}

	out := make([]dto.AssessmentResponse, 0, len(found))
	for _, a := range found {
		out = append(out, dto.FromAssessment(a))
	}
	return dto.ListAssessmentsResponse{Assessments: out, Count: len(out)}, nil
}
