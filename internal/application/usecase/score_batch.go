package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/observability"
)

// MaxBatchSize bounds a single batch request.
const MaxBatchSize = 1000

// ScoreBatch is the use case for scoring many records against one bundle.
type ScoreBatch struct {
	active  *ActiveBundle
	metrics *observability.ScoringMetrics
	logger  *slog.Logger
}

// NewScoreBatch creates a new ScoreBatch use case.
func NewScoreBatch(active *ActiveBundle, metrics *observability.ScoringMetrics, logger *slog.Logger) *ScoreBatch {
	return &ScoreBatch{active: active, metrics: metrics, logger: logger}
}

// Execute scores every record in parallel. All records see the same bundle;
// the first failure fails the whole batch.
func (uc *ScoreBatch) Execute(ctx context.Context, req dto.ScoreBatchRequest) (dto.ScoreBatchResponse, error) {
	ctx, span := tracer.Start(ctx, "ScoreBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(req.Records)))

	if len(req.Records) > MaxBatchSize {
		return dto.ScoreBatchResponse{}, &model.ValidationError{Fields: []model.FieldError{{
			Field:  "inputs",
			Reason: fmt.Sprintf("batch of %d exceeds the limit of %d", len(req.Records), MaxBatchSize),
		}}}
	}

	b := uc.active.Load()
	if !b.Ready() {
		uc.metrics.RecordFailure(ctx, "not_ready")
		return dto.ScoreBatchResponse{}, fmt.Errorf("failed to score batch: %w", model.ErrNotReady)
	}

	reports := make([]model.RiskReport, len(req.Records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range req.Records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			report, err := b.Score(req.Records[i])
			if err != nil {
				uc.metrics.RecordFailure(gctx, failureReason(err))
				return fmt.Errorf("record %d: %w", i, err)
			}
			uc.metrics.RecordScore(gctx, report.RiskCategory.String(), time.Since(start))
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.ScoreBatchResponse{}, fmt.Errorf("failed to score batch: %w", err)
	}

	uc.logger.Debug("batch scored", "count", len(reports), "bundle_id", b.ID())
	return dto.ScoreBatchResponse{Reports: reports, BundleID: b.ID(), Count: len(reports)}, nil
}
