package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/events"
)

// BundleInfo is the catalogue entry of a stored bundle.
type BundleInfo struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	ActivatedAt         *time.Time `json:"activated_at,omitempty" db:"activated_at"`
	Active              bool       `json:"active" db:"active"`
	AUC                 float64    `json:"auc" db:"auc"`
	Brier               float64    `json:"brier" db:"brier"`
	CalibrationFallback bool       `json:"calibration_fallback" db:"calibration_fallback"`
}

// BundleRepository defines the persistence port for trained bundles.
type BundleRepository interface {
	// Save stores a bundle. Saving an existing ID is an error.
	Save(ctx context.Context, b *bundle.Bundle) error

	// FindByID returns model.ErrBundleNotFound for unknown IDs.
	FindByID(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error)

	// Activate marks a stored bundle as the serving bundle, deactivating
	// any other.
	Activate(ctx context.Context, id uuid.UUID) error

	// FindActive returns model.ErrBundleNotFound when nothing is active.
	FindActive(ctx context.Context) (*bundle.Bundle, error)

	// List returns catalogue entries, newest first.
	List(ctx context.Context, limit, offset int) ([]BundleInfo, error)
}

// AssessmentRepository defines the persistence port for farm assessments.
type AssessmentRepository interface {
	// Save persists a new assessment.
	Save(ctx context.Context, assessment *model.Assessment) error

	// FindByID returns model.ErrAssessmentNotFound for unknown IDs.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)

	// FindByFarmerID returns a farmer's assessments, newest first.
	FindByFarmerID(ctx context.Context, farmerID string, limit, offset int) ([]*model.Assessment, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// BundleExporter writes a bundle artifact and its human-readable summary
// somewhere outside the repository, returning the artifact location.
type BundleExporter interface {
	Export(ctx context.Context, b *bundle.Bundle) (string, error)
}
