package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager applies pending migrations from a directory of an fs.FS.
type Manager struct {
	fsys     fs.FS
	dir      string
	executor *Executor
	logger   *slog.Logger
}

// NewManager wires a migration source and executor.
func NewManager(fsys fs.FS, dir string, executor *Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{fsys: fsys, dir: dir, executor: executor, logger: logger.With("component", "migration")}
}

// Status compares the migration files against schema_migrations. An applied
// version whose checksum no longer matches its file is reported as
// ErrChecksumMismatch.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	migrations, err := Scan(m.fsys, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]AppliedMigration, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		byVersion[a.Version] = a
		if a.Version > status.CurrentVersion {
			status.CurrentVersion = a.Version
		}
	}

	for _, migration := range migrations {
		a, ok := byVersion[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if a.Checksum != migration.Checksum {
			return Status{}, NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return status, nil
}

// Run applies every pending migration in version order and stops at the
// first failure.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to determine migration status", "error", err)
		return err
	}

	m.logger.InfoContext(ctx, "migration status",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		m.logger.InfoContext(ctx, "applying migration",
			"version", migration.Version,
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(status.Pending)),
		)
		if err := m.executor.Apply(ctx, migration); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
	}

	m.logger.InfoContext(ctx, "migrations completed",
		"applied", len(status.Pending),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}
