package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/pkg/observability"
)

// ActivateBundle is the use case for putting a stored bundle into service.
type ActivateBundle struct {
	repo      port.BundleRepository
	active    *ActiveBundle
	publisher port.EventPublisher
	metrics   *observability.ScoringMetrics
	logger    *slog.Logger
}

// NewActivateBundle creates a new ActivateBundle use case. The publisher is
// optional.
func NewActivateBundle(
	repo port.BundleRepository,
	active *ActiveBundle,
	publisher port.EventPublisher,
	metrics *observability.ScoringMetrics,
	logger *slog.Logger,
) *ActivateBundle {
	return &ActivateBundle{
		repo:      repo,
		active:    active,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute marks the bundle active in the repository, swaps it into the
// local holder and announces the change to other replicas.
func (uc *ActivateBundle) Execute(ctx context.Context, req dto.ActivateBundleRequest) (dto.ActivateBundleResponse, error) {
	ctx, span := tracer.Start(ctx, "ActivateBundle")
	defer span.End()

	b, err := uc.repo.FindByID(ctx, req.BundleID)
	if err != nil {
		return dto.ActivateBundleResponse{}, fmt.Errorf("failed to find bundle: %w", err)
	}
	if err := uc.repo.Activate(ctx, b.ID()); err != nil {
		return dto.ActivateBundleResponse{}, fmt.Errorf("failed to activate bundle: %w", err)
	}

	var previous uuid.UUID
	if prev := uc.active.Swap(b); prev != nil {
		previous = prev.ID()
	}
	uc.metrics.RecordActivation(ctx)

	activated := event.BundleActivated{
		BundleID:         b.ID(),
		PreviousBundleID: previous,
		ActivatedAt:      time.Now().UTC(),
	}
	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, activated); err != nil {
			return dto.ActivateBundleResponse{}, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	uc.logger.Info("bundle activated", "bundle_id", b.ID(), "previous_bundle_id", previous)
	return dto.ActivateBundleResponse{
		BundleID:         b.ID(),
		PreviousBundleID: previous,
		ActivatedAt:      activated.ActivatedAt,
	}, nil
}

// Reload swaps in a bundle another replica activated. It neither touches
// the repository's active flag nor publishes, and is a no-op when the
// bundle is already being served.
func (uc *ActivateBundle) Reload(ctx context.Context, id uuid.UUID) error {
	if current := uc.active.Load(); current != nil && current.ID() == id {
		return nil
	}
	b, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load bundle %s: %w", id, err)
	}
	uc.active.Swap(b)
	uc.metrics.RecordActivation(ctx)
	uc.logger.Info("bundle reloaded", "bundle_id", id)
	return nil
}

// LoadActive installs the repository's active bundle at startup. Having no
// active bundle is not an error; the service starts unready.
func (uc *ActivateBundle) LoadActive(ctx context.Context) error {
	b, err := uc.repo.FindActive(ctx)
	if errors.Is(err, model.ErrBundleNotFound) {
		uc.logger.Warn("no active bundle, scoring disabled until one is activated")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load active bundle: %w", err)
	}
	uc.active.Swap(b)
	uc.logger.Info("active bundle loaded", "bundle_id", b.ID())
	return nil
}
