package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AdvisoryLocker serializes work per key with session-level advisory locks.
//
// Each held lock pins one pooled connection until it is released, so the pool
// must allow more connections than concurrent admissions.
type AdvisoryLocker struct {
	DB *sql.DB
}

// NewAdvisoryLocker returns a locker sharing the store's handle.
func NewAdvisoryLocker(db *sql.DB) *AdvisoryLocker {
	return &AdvisoryLocker{DB: db}
}

// Lock blocks until the advisory lock for key is held or ctx is done.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	conn, err := l.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire connection for lock %q: %w", key, err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, key); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: lock %q: %w", key, err)
	}

	release := func(ctx context.Context) error {
		_, unlockErr := conn.ExecContext(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key)
		if unlockErr != nil {
			unlockErr = fmt.Errorf("postgres: unlock %q: %w", key, unlockErr)
		}
		return errors.Join(unlockErr, conn.Close())
	}
	return release, nil
}
