package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/internal/domain/service"
	"github.com/mkdev28/Cropp/pkg/observability"
)

// TrainBundle is the use case for training, storing and optionally
// activating a new bundle.
type TrainBundle struct {
	trainer   *service.Trainer
	repo      port.BundleRepository
	exporter  port.BundleExporter
	publisher port.EventPublisher
	activate  *ActivateBundle
	metrics   *observability.ScoringMetrics
	logger    *slog.Logger
}

// NewTrainBundle creates a new TrainBundle use case. Exporter, publisher and
// activate are optional.
func NewTrainBundle(
	trainer *service.Trainer,
	repo port.BundleRepository,
	exporter port.BundleExporter,
	publisher port.EventPublisher,
	activate *ActivateBundle,
	metrics *observability.ScoringMetrics,
	logger *slog.Logger,
) *TrainBundle {
	return &TrainBundle{
		trainer:   trainer,
		repo:      repo,
		exporter:  exporter,
		publisher: publisher,
		activate:  activate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute trains a bundle from labelled records and stores it.
func (uc *TrainBundle) Execute(ctx context.Context, req dto.TrainBundleRequest) (dto.TrainBundleResponse, error) {
	ctx, span := tracer.Start(ctx, "TrainBundle",
		trace.WithAttributes(attribute.Int("training.records", len(req.Records))))
	defer span.End()

	b, err := uc.trainer.Train(ctx, req.Records)
	if err != nil {
		return dto.TrainBundleResponse{}, fmt.Errorf("failed to train bundle: %w", err)
	}
	if !b.Calibrated() {
		uc.metrics.RecordCalibrationFallback(ctx)
	}

	if err := uc.repo.Save(ctx, b); err != nil {
		return dto.TrainBundleResponse{}, fmt.Errorf("failed to save bundle: %w", err)
	}

	resp := dto.TrainBundleResponse{Summary: b.Summary()}
	if uc.exporter != nil {
		path, err := uc.exporter.Export(ctx, b)
		if err != nil {
			return dto.TrainBundleResponse{}, fmt.Errorf("failed to export bundle: %w", err)
		}
		resp.ArtifactPath = path
	}

	m := b.Metrics()
	if uc.publisher != nil {
		trained := event.BundleTrained{
			BundleID:            b.ID(),
			AUC:                 m.AUC,
			Brier:               m.Brier,
			BestIteration:       m.BestIteration,
			CalibrationFallback: m.CalibrationFallback,
			TrainedAt:           b.CreatedAt(),
		}
		if err := uc.publisher.Publish(ctx, trained); err != nil {
			return dto.TrainBundleResponse{}, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	uc.logger.Info("bundle stored",
		"bundle_id", b.ID(),
		"auc", m.AUC,
		"artifact", resp.ArtifactPath,
	)

	if req.Activate && uc.activate != nil {
		if _, err := uc.activate.Execute(ctx, dto.ActivateBundleRequest{BundleID: b.ID()}); err != nil {
			return dto.TrainBundleResponse{}, err
		}
		resp.Activated = true
	}
	return resp, nil
}
