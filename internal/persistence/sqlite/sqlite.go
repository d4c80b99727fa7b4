package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage is a SQLite-backed persistence.ReservationRepository.
type Storage struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	logger *slog.Logger
}

// Option customises a Storage.
type Option func(*Storage)

// WithLogger sets the logger used for migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryConfig overrides the backoff used when the database is locked.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Storage) {
		s.retry = NewRetryHelper(cfg)
	}
}

// Open returns a Storage for dsn. Call Migrate before first use.
func Open(dsn string, opts ...Option) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := migration.NewManager(s.pool.DB(), migrationFiles, "migrations", s.logger).Run(ctx)
	return err
}

const reservationColumns = `id, room_id, date, start_time, end_time, title, organizer,
	participant_names, origin_identifier, created_at, updated_at`

// CreateReservation inserts a new reservation.
func (s *Storage) CreateReservation(ctx context.Context, r persistence.Reservation) error {
	if r.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return s.retry.WithRetry(ctx, func() error {
		_, err := s.pool.DB().ExecContext(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.RoomID, r.Date, r.StartTime, r.EndTime, r.Title, r.Organizer,
			nullString(r.ParticipantNames), nullString(r.OriginIdentifier),
			formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
		)
		return err
	})
}

// UpdateReservation replaces the mutable fields of an existing reservation.
// The identifier and creation timestamp are never changed.
func (s *Storage) UpdateReservation(ctx context.Context, r persistence.Reservation) error {
	return s.retry.WithRetry(ctx, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `
			UPDATE reservations
			SET room_id = ?, date = ?, start_time = ?, end_time = ?, title = ?, organizer = ?,
				participant_names = ?, origin_identifier = ?, updated_at = ?
			WHERE id = ?`,
			r.RoomID, r.Date, r.StartTime, r.EndTime, r.Title, r.Organizer,
			nullString(r.ParticipantNames), nullString(r.OriginIdentifier),
			formatTime(r.UpdatedAt), r.ID,
		)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// GetReservation retrieves a reservation by ID.
func (s *Storage) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := s.pool.DB().QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, s.mapper.MapError(err)
	}
	return r, nil
}

// ListReservations returns every reservation ordered by date, start time and ID.
func (s *Storage) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.query(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY date, start_time, id`)
}

// ListReservationsByRoomAndDate returns the reservations of one room on one date.
func (s *Storage) ListReservationsByRoomAndDate(ctx context.Context, roomID, date string) ([]persistence.Reservation, error) {
	return s.query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE room_id = ? AND date = ? ORDER BY start_time, id`, roomID, date)
}

// DeleteReservation removes a reservation by ID.
func (s *Storage) DeleteReservation(ctx context.Context, id string) error {
	return s.retry.WithRetry(ctx, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

func (s *Storage) query(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	reservations := make([]persistence.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return reservations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		r                    persistence.Reservation
		participants, origin sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&r.ID, &r.RoomID, &r.Date, &r.StartTime, &r.EndTime, &r.Title, &r.Organizer,
		&participants, &origin, &createdAt, &updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	if participants.Valid {
		v := participants.String
		r.ParticipantNames = &v
	}
	if origin.Valid {
		v := origin.String
		r.OriginIdentifier = &v
	}

	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: reservation %s: created_at: %w", r.ID, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: reservation %s: updated_at: %w", r.ID, err)
	}
	return r, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
