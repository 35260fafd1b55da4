package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/internal/infrastructure/artifact"
	pgpkg "github.com/mkdev28/Cropp/pkg/postgres"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pgpkg.Querier
	pgpkg.TxBeginner
}

// BundleRepository implements port.BundleRepository using PostgreSQL.
// Bundles are stored as compressed artifacts alongside their summary.
type BundleRepository struct {
	db  DB
	now func() time.Time
}

var _ port.BundleRepository = (*BundleRepository)(nil)

// NewBundleRepository creates a new PostgreSQL-backed bundle repository.
func NewBundleRepository(db DB) *BundleRepository {
	return &BundleRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Save inserts a bundle. Bundles are immutable, so an existing ID is an error.
func (r *BundleRepository) Save(ctx context.Context, b *bundle.Bundle) error {
	data, err := artifact.Encode(b)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	summary, err := json.Marshal(b.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal bundle summary: %w", err)
	}
	m := b.Metrics()

	_, err = r.db.Exec(ctx, `
		INSERT INTO risk_bundles (
			id, created_at, auc, brier, calibration_fallback, summary, artifact
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID(), b.CreatedAt(), m.AUC, m.Brier, m.CalibrationFallback, summary, data,
	)
	if pgpkg.IsUniqueViolation(err) {
		return fmt.Errorf("bundle %s already exists", b.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to save bundle: %w", err)
	}
	return nil
}

// FindByID loads and decodes a stored bundle.
func (r *BundleRepository) FindByID(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	return r.load(ctx, `SELECT artifact FROM risk_bundles WHERE id = $1`, id)
}

// FindActive loads the serving bundle.
func (r *BundleRepository) FindActive(ctx context.Context) (*bundle.Bundle, error) {
	return r.load(ctx, `SELECT artifact FROM risk_bundles WHERE active`)
}

func (r *BundleRepository) load(ctx context.Context, query string, args ...any) (*bundle.Bundle, error) {
	var data []byte
	err := r.db.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrBundleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	return artifact.Decode(data)
}

// Activate flips the active flag to id in one transaction. The partial
// unique index guarantees a single active bundle.
func (r *BundleRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return pgpkg.WithTransaction(ctx, r.db, func(q pgpkg.Querier) error {
		if _, err := q.Exec(ctx, `UPDATE risk_bundles SET active = FALSE WHERE active AND id <> $1`, id); err != nil {
			return fmt.Errorf("failed to deactivate bundles: %w", err)
		}
		tag, err := q.Exec(ctx, `UPDATE risk_bundles SET active = TRUE, activated_at = $2 WHERE id = $1`, id, r.now())
		if err != nil {
			return fmt.Errorf("failed to activate bundle: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", model.ErrBundleNotFound, id)
		}
		return nil
	})
}

// List returns catalogue entries, newest first.
func (r *BundleRepository) List(ctx context.Context, limit, offset int) ([]port.BundleInfo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, created_at, activated_at, active, auc, brier, calibration_fallback
		FROM risk_bundles
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundles: %w", err)
	}
	infos, err := pgx.CollectRows(rows, pgx.RowToStructByName[port.BundleInfo])
	if err != nil {
		return nil, fmt.Errorf("failed to scan bundles: %w", err)
	}
	return infos, nil
}
