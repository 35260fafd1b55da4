package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	pgpkg "github.com/mkdev28/Cropp/pkg/postgres"
)

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	db pgpkg.Querier
}

var _ port.AssessmentRepository = (*AssessmentRepository)(nil)

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(db pgpkg.Querier) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Save persists a new assessment. The full report is kept as JSONB; score
// and category are duplicated into columns for reporting queries.
func (r *AssessmentRepository) Save(ctx context.Context, a *model.Assessment) error {
	report := a.Report()
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO farm_assessments (
			id, bundle_id, farmer_id, risk_score, risk_category, report, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID(), a.BundleID(), a.FarmerID(), report.RiskScore, report.RiskCategory.String(), payload, a.AssessedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

const selectAssessment = `SELECT id, report, assessed_at FROM farm_assessments`

// FindByID retrieves an assessment by its unique identifier.
func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a, err := scanAssessment(r.db.QueryRow(ctx, selectAssessment+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrAssessmentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assessment: %w", err)
	}
	return a, nil
}

// FindByFarmerID returns a farmer's assessments, newest first.
func (r *AssessmentRepository) FindByFarmerID(ctx context.Context, farmerID string, limit, offset int) ([]*model.Assessment, error) {
	rows, err := r.db.Query(ctx,
		selectAssessment+` WHERE farmer_id = $1 ORDER BY assessed_at DESC LIMIT $2 OFFSET $3`,
		farmerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Assessment, error) {
		return scanAssessment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan assessments: %w", err)
	}
	return out, nil
}

func scanAssessment(row pgx.Row) (*model.Assessment, error) {
	var (
		id         uuid.UUID
		payload    []byte
		assessedAt time.Time
	)
	if err := row.Scan(&id, &payload, &assessedAt); err != nil {
		return nil, err
	}
	var report model.RiskReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report for %s: %w", id, err)
	}
	return model.ReconstructAssessment(id, report, assessedAt.UTC()), nil
}
