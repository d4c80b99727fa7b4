package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Executor runs migrations and tracks them in schema_migrations.
type Executor struct {
	db  *sql.DB
	now func() time.Time
}

// NewExecutor creates an executor bound to db.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	_, err := e.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return newMigrationError("", "", "initialize version table", err)
	}
	return nil
}

// Applied returns the migrations recorded in schema_migrations keyed by version.
func (e *Executor) Applied(ctx context.Context) (map[string]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT version, checksum, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, newMigrationError("", "", "query applied versions", err)
	}
	defer rows.Close()

	applied := make(map[string]AppliedMigration)
	for rows.Next() {
		var (
			m         AppliedMigration
			appliedAt string
		)
		if err := rows.Scan(&m.Version, &m.Checksum, &appliedAt); err != nil {
			return nil, newMigrationError("", "", "scan applied version", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, appliedAt); err == nil {
			m.AppliedAt = ts
		}
		applied[m.Version] = m
	}
	if err := rows.Err(); err != nil {
		return nil, newMigrationError("", "", "iterate applied versions", err)
	}
	return applied, nil
}

// Execute runs a single migration and records it within one transaction.
func (e *Executor) Execute(ctx context.Context, m Migration) (err error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return newMigrationError(m.Version, m.FilePath, "parse SQL", fmt.Errorf("%w: no statements", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return newMigrationError(m.Version, m.FilePath, fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, checksum, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Checksum, e.now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return newMigrationError(m.Version, m.FilePath, "record version", err)
	}

	if err = tx.Commit(); err != nil {
		return newMigrationError(m.Version, m.FilePath, "commit transaction", err)
	}
	return nil
}

// splitStatements drops "--" comment lines and splits on semicolons.
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	var statements []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
