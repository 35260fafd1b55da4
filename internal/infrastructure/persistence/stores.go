// Package persistence selects the bundle and assessment stores for a
// process: Postgres when a database URL is configured, otherwise the local
// SQLite registry.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/internal/infrastructure/persistence/postgres"
	"github.com/mkdev28/Cropp/internal/infrastructure/persistence/sqlite"
	"github.com/mkdev28/Cropp/migrations"
	pgpkg "github.com/mkdev28/Cropp/pkg/postgres"
)

// Options select and configure the backing store.
type Options struct {
	DatabaseURL   string
	RunMigrations bool
	RegistryPath  string
}

// Stores are the repositories a process works with. Assessments is nil on
// the SQLite backend.
type Stores struct {
	Bundles     port.BundleRepository
	Assessments port.AssessmentRepository

	// Exactly one of Pool and Registry is set.
	Pool     *pgxpool.Pool
	Registry *sqlite.Registry
}

// Open connects to the configured store.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Stores, error) {
	if opts.DatabaseURL == "" {
		reg, err := sqlite.Open(opts.RegistryPath)
		if err != nil {
			return nil, err
		}
		logger.Info("using local bundle registry", "path", opts.RegistryPath)
		return &Stores{Bundles: reg, Registry: reg}, nil
	}

	if opts.RunMigrations {
		if err := pgpkg.RunMigrations(opts.DatabaseURL, migrations.FS, "."); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	pool, err := pgpkg.NewPool(ctx, pgpkg.Config{URL: opts.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database")

	return &Stores{
		Bundles:     postgres.NewBundleRepository(pool),
		Assessments: postgres.NewAssessmentRepository(pool),
		Pool:        pool,
	}, nil
}

// Ping checks the store is reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.Pool != nil {
		return pgpkg.HealthCheck(ctx, s.Pool)
	}
	return s.Registry.Ping(ctx)
}

// Close releases the store.
func (s *Stores) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
		return nil
	}
	return s.Registry.Close()
}
