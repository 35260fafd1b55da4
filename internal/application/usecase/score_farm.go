package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/pkg/observability"
)

// ScoreFarm is the use case for scoring a single farm record with the
// active bundle.
type ScoreFarm struct {
	active    *ActiveBundle
	repo      port.AssessmentRepository
	publisher port.EventPublisher
	metrics   *observability.ScoringMetrics
	logger    *slog.Logger
}

// NewScoreFarm creates a new ScoreFarm use case. The repository and
// publisher are optional; without them assessments are neither stored nor
// announced.
func NewScoreFarm(
	active *ActiveBundle,
	repo port.AssessmentRepository,
	publisher port.EventPublisher,
	metrics *observability.ScoringMetrics,
	logger *slog.Logger,
) *ScoreFarm {
	return &ScoreFarm{
		active:    active,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute scores the record, stores the assessment and publishes its events.
func (uc *ScoreFarm) Execute(ctx context.Context, req dto.ScoreFarmRequest) (dto.ScoreFarmResponse, error) {
	ctx, span := tracer.Start(ctx, "ScoreFarm")
	defer span.End()

	start := time.Now()
	b := uc.active.Load()
	report, err := b.Score(req.Record)
	if err != nil {
		uc.metrics.RecordFailure(ctx, failureReason(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return dto.ScoreFarmResponse{}, fmt.Errorf("failed to score farm: %w", err)
	}
	uc.metrics.RecordScore(ctx, report.RiskCategory.String(), time.Since(start))
	span.SetAttributes(
		attribute.String("bundle.id", report.BundleID.String()),
		attribute.Int("risk.score", report.RiskScore),
	)

	assessment, err := model.NewAssessment(report)
	if err != nil {
		return dto.ScoreFarmResponse{}, fmt.Errorf("failed to create assessment: %w", err)
	}

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, assessment); err != nil {
			return dto.ScoreFarmResponse{}, fmt.Errorf("failed to save assessment: %w", err)
		}
	}

	if evts := assessment.ClearEvents(); len(evts) > 0 && uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			return dto.ScoreFarmResponse{}, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	uc.logger.Debug("farm scored",
		"assessment_id", assessment.ID(),
		"farmer_id", report.FarmerID,
		"risk_score", report.RiskScore,
		"confidence", report.Confidence,
	)

	return dto.ScoreFarmResponse{
		AssessmentID: assessment.ID(),
		AssessedAt:   assessment.AssessedAt(),
		Report:       report,
	}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotReady):
		return "not_ready"
	default:
		return "internal"
	}
}
