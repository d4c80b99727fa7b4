package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
	_ "modernc.org/sqlite"
)

// ConnectionPool owns the *sql.DB for one SQLite database.
type ConnectionPool struct {
	db *sql.DB
}

// NewConnectionPool opens dsn with a single connection. SQLite has one
// writer, and a single connection also keeps ":memory:" databases shared.
func NewConnectionPool(dsn string) (*ConnectionPool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite: dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	return &ConnectionPool{db: db}, nil
}

func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

func (cp *ConnectionPool) Close() error {
	if cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

var errDatabaseLocked = errors.New("sqlite: database locked")

// ErrorMapper translates driver messages into persistence sentinels.
type ErrorMapper struct{}

func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	for _, rule := range errorRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %v", rule.sentinel, err)
			}
		}
	}
	return err
}

var errorRules = []struct {
	sentinel  error
	fragments []string
}{
	{persistence.ErrDuplicate, []string{"UNIQUE constraint failed", "PRIMARY KEY constraint failed"}},
	{persistence.ErrConstraintViolation, []string{"CHECK constraint failed", "NOT NULL constraint failed"}},
	{errDatabaseLocked, []string{"database is locked", "SQLITE_BUSY"}},
}

// RetryConfig is the exponential backoff applied while the database is locked.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryHelper reruns writes that fail with SQLITE_BUSY. Any other error,
// including a constraint violation, is mapped and returned at once.
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
}

func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config, mapper: NewErrorMapper()}
}

func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	delay := rh.config.InitialDelay
	var err error
	for attempt := 0; ; attempt++ {
		if err = rh.mapper.MapError(fn()); err == nil || !errors.Is(err, errDatabaseLocked) {
			return err
		}
		if attempt == rh.config.MaxRetries {
			return fmt.Errorf("sqlite: giving up after %d retries: %w", rh.config.MaxRetries, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(time.Duration(float64(delay)*rh.config.BackoffFactor), rh.config.MaxDelay)
	}
}
