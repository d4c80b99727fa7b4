package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
)

// Manager applies pending migrations from a filesystem in version order.
type Manager struct {
	fsys     fs.FS
	dir      string
	executor *Executor
	logger   *slog.Logger
}

// NewManager creates a manager reading migrations from dir within fsys.
func NewManager(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		fsys:     fsys,
		dir:      dir,
		executor: NewExecutor(db),
		logger:   logger.With("component", "migration"),
	}
}

// Pending returns the migrations not yet recorded as applied.
//
// An applied migration whose file content changed is reported as
// ErrChecksumMismatch rather than silently skipped.
func (m *Manager) Pending(ctx context.Context) ([]Migration, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, err
	}
	all, err := Scan(m.fsys, m.dir)
	if err != nil {
		return nil, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]Migration, 0, len(all))
	for _, mig := range all {
		record, ok := applied[mig.Version]
		if !ok {
			pending = append(pending, mig)
			continue
		}
		if record.Checksum != mig.Checksum {
			return nil, newMigrationError(mig.Version, mig.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return pending, nil
}

// Run executes every pending migration and returns the number applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "database schema is up to date")
		return 0, nil
	}

	m.logger.InfoContext(ctx, "executing database migrations", "pending", len(pending))
	for i, mig := range pending {
		if err := m.executor.Execute(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "error", err)
			return i, fmt.Errorf("apply migrations: %w", err)
		}
		m.logger.InfoContext(ctx, "migration applied", "version", mig.Version, "description", mig.Description)
	}
	return len(pending), nil
}
