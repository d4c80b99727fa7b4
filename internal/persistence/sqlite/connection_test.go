package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/persistence"
)

func TestErrorMapper(t *testing.T) {
	mapper := NewErrorMapper()

	assert.NoError(t, mapper.MapError(nil))
	assert.ErrorIs(t, mapper.MapError(sql.ErrNoRows), persistence.ErrNotFound)
	assert.ErrorIs(t, mapper.MapError(errors.New("UNIQUE constraint failed: reservations.id")), persistence.ErrDuplicate)
	assert.ErrorIs(t, mapper.MapError(errors.New("CHECK constraint failed: start_time < end_time")), persistence.ErrConstraintViolation)
	assert.ErrorIs(t, mapper.MapError(errors.New("database is locked (5) (SQLITE_BUSY)")), errDatabaseLocked)

	other := errors.New("disk I/O error")
	assert.Same(t, other, mapper.MapError(other))
}

func fastRetry() *RetryHelper {
	return NewRetryHelper(RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2})
}

func TestRetryHelper_RetriesWhileLocked(t *testing.T) {
	calls := 0
	err := fastRetry().WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryHelper_GivesUp(t *testing.T) {
	calls := 0
	err := fastRetry().WithRetry(context.Background(), func() error {
		calls++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDatabaseLocked)
	assert.Equal(t, 3, calls)
}

func TestRetryHelper_DoesNotRetryConstraintErrors(t *testing.T) {
	calls := 0
	err := fastRetry().WithRetry(context.Background(), func() error {
		calls++
		return errors.New("UNIQUE constraint failed: reservations.id")
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	assert.Equal(t, 1, calls)
}

func TestRetryHelper_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRetryHelper(DefaultRetryConfig()).WithRetry(ctx, func() error {
		return errors.New("database is locked")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
