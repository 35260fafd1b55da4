// Package sqlite is a single-file bundle registry for deployments without
// Postgres. It keeps every trained bundle, the active pointer and the
// activation history used for rollback.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // register the "sqlite" driver

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/internal/infrastructure/artifact"
)

// ErrNoPreviousBundle is returned by Rollback when nothing was active
// before the current bundle.
var ErrNoPreviousBundle = errors.New("no previously active bundle")

// Fixed width so that text ordering is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	id                   TEXT PRIMARY KEY,
	created_at           TEXT NOT NULL,
	auc                  REAL NOT NULL,
	brier                REAL NOT NULL,
	calibration_fallback INTEGER NOT NULL,
	summary              TEXT NOT NULL,
	artifact             BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS active_bundle (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	bundle_id TEXT NOT NULL REFERENCES bundles(id)
);

CREATE TABLE IF NOT EXISTS bundle_activations (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	bundle_id    TEXT NOT NULL REFERENCES bundles(id),
	activated_at TEXT NOT NULL
);
`

type bundleRow struct {
	ID                  string  `db:"id"`
	CreatedAt           string  `db:"created_at"`
	AUC                 float64 `db:"auc"`
	Brier               float64 `db:"brier"`
	CalibrationFallback bool    `db:"calibration_fallback"`
	Summary             string  `db:"summary"`
	Artifact            []byte  `db:"artifact"`
}

type infoRow struct {
	ID                  string         `db:"id"`
	CreatedAt           string         `db:"created_at"`
	ActivatedAt         sql.NullString `db:"activated_at"`
	Active              bool           `db:"active"`
	AUC                 float64        `db:"auc"`
	Brier               float64        `db:"brier"`
	CalibrationFallback bool           `db:"calibration_fallback"`
}

// Registry implements port.BundleRepository on SQLite.
type Registry struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ port.BundleRepository = (*Registry)(nil)

// Open opens or creates the registry database at path.
func Open(path string) (*Registry, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create %s: %w", dir, err)
		}
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Registry{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Ping checks the database file is still usable.
func (r *Registry) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Save stores a bundle.
func (r *Registry) Save(ctx context.Context, b *bundle.Bundle) error {
	data, err := artifact.Encode(b)
	if err != nil {
		return fmt.Errorf("sqlite: encode bundle: %w", err)
	}
	summary, err := json.Marshal(b.Summary())
	if err != nil {
		return fmt.Errorf("sqlite: marshal summary: %w", err)
	}
	m := b.Metrics()
	row := bundleRow{
		ID:                  b.ID().String(),
		CreatedAt:           b.CreatedAt().UTC().Format(timeLayout),
		AUC:                 m.AUC,
		Brier:               m.Brier,
		CalibrationFallback: m.CalibrationFallback,
		Summary:             string(summary),
		Artifact:            data,
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM bundles WHERE id = ?`, row.ID); err != nil {
		return fmt.Errorf("sqlite: check bundle: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("sqlite: bundle %s already exists", row.ID)
	}

	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO bundles (id, created_at, auc, brier, calibration_fallback, summary, artifact)
		 VALUES (:id, :created_at, :auc, :brier, :calibration_fallback, :summary, :artifact)`, row)
	if err != nil {
		return fmt.Errorf("sqlite: insert bundle: %w", err)
	}
	return nil
}

// FindByID loads a stored bundle.
func (r *Registry) FindByID(ctx context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	var data []byte
	err := r.db.GetContext(ctx, &data, `SELECT artifact FROM bundles WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrBundleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find bundle: %w", err)
	}
	return artifact.Decode(data)
}

// Activate points the registry at id and appends to the activation history.
func (r *Registry) Activate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := activate(ctx, tx, id.String(), r.now()); err != nil {
		return err
	}
	return tx.Commit()
}

func activate(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error {
	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM bundles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: check bundle: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", model.ErrBundleNotFound, id)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO active_bundle (id, bundle_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET bundle_id = excluded.bundle_id`, id); err != nil {
		return fmt.Errorf("sqlite: set active: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bundle_activations (bundle_id, activated_at) VALUES (?, ?)`,
		id, at.Format(timeLayout)); err != nil {
		return fmt.Errorf("sqlite: log activation: %w", err)
	}
	return nil
}

// FindActive loads the active bundle.
func (r *Registry) FindActive(ctx context.Context) (*bundle.Bundle, error) {
	var data []byte
	err := r.db.GetContext(ctx, &data,
		`SELECT b.artifact FROM active_bundle a JOIN bundles b ON b.id = a.bundle_id WHERE a.id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrBundleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find active bundle: %w", err)
	}
	return artifact.Decode(data)
}

// List returns catalogue entries, newest first.
func (r *Registry) List(ctx context.Context, limit, offset int) ([]port.BundleInfo, error) {
	var rows []infoRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT b.id, b.created_at, b.auc, b.brier, b.calibration_fallback,
		       (SELECT MAX(l.activated_at) FROM bundle_activations l WHERE l.bundle_id = b.id) AS activated_at,
		       COALESCE((SELECT a.bundle_id = b.id FROM active_bundle a WHERE a.id = 1), 0) AS active
		FROM bundles b
		ORDER BY b.created_at DESC, b.id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list bundles: %w", err)
	}

	out := make([]port.BundleInfo, 0, len(rows))
	for _, row := range rows {
		info, err := row.toInfo()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Rollback reactivates the bundle that was active before the current one
// and returns its ID. The rollback is itself recorded as an activation.
func (r *Registry) Rollback(ctx context.Context) (uuid.UUID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.GetContext(ctx, &current, `SELECT bundle_id FROM active_bundle WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNoPreviousBundle
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("sqlite: read active bundle: %w", err)
	}

	var previous string
	err = tx.GetContext(ctx, &previous, `
		SELECT bundle_id FROM bundle_activations
		WHERE bundle_id <> ? AND seq < (SELECT MAX(seq) FROM bundle_activations)
		ORDER BY seq DESC LIMIT 1`, current)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNoPreviousBundle
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("sqlite: read activation history: %w", err)
	}

	if err := activate(ctx, tx, previous, r.now()); err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("sqlite: commit: %w", err)
	}
	return uuid.Parse(previous)
}

func (row infoRow) toInfo() (port.BundleInfo, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return port.BundleInfo{}, fmt.Errorf("sqlite: bad bundle id %q: %w", row.ID, err)
	}
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return port.BundleInfo{}, fmt.Errorf("sqlite: bad created_at %q: %w", row.CreatedAt, err)
	}
	info := port.BundleInfo{
		ID:                  id,
		CreatedAt:           created,
		Active:              row.Active,
		AUC:                 row.AUC,
		Brier:               row.Brier,
		CalibrationFallback: row.CalibrationFallback,
	}
	if row.ActivatedAt.Valid {
		at, err := time.Parse(timeLayout, row.ActivatedAt.String)
		if err != nil {
			return port.BundleInfo{}, fmt.Errorf("sqlite: bad activated_at %q: %w", row.ActivatedAt.String, err)
		}
		info.ActivatedAt = &at
	}
	return info, nil
}
