// Package postgres stores reservations in PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/example/room-booking/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    title TEXT NOT NULL,
    organizer TEXT NOT NULL,
    participant_names TEXT,
    origin_identifier TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT reservations_interval_check CHECK (start_time < end_time)
);
CREATE INDEX IF NOT EXISTS idx_reservations_room_date ON reservations (room_id, date)`

const reservationColumns = `id, room_id, date, start_time, end_time, title, organizer, participant_names, origin_identifier, created_at, updated_at`

// Store is a PostgreSQL-backed persistence.ReservationRepository.
type Store struct {
	DB *sql.DB
}

// Open connects to the database at url.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the reservations table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// CreateReservation inserts a new reservation.
func (s *Store) CreateReservation(ctx context.Context, r persistence.Reservation) error {
	if r.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO reservations (`+reservationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.RoomID, r.Date, r.StartTime, r.EndTime, r.Title, r.Organizer,
		nullString(r.ParticipantNames), nullString(r.OriginIdentifier), r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	return mapError(err)
}

// UpdateReservation replaces the mutable fields of an existing reservation.
func (s *Store) UpdateReservation(ctx context.Context, r persistence.Reservation) error {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE reservations SET room_id = $1, date = $2, start_time = $3, end_time = $4, title = $5, organizer = $6, participant_names = $7, origin_identifier = $8, updated_at = $9 WHERE id = $10`,
		r.RoomID, r.Date, r.StartTime, r.EndTime, r.Title, r.Organizer,
		nullString(r.ParticipantNames), nullString(r.OriginIdentifier), r.UpdatedAt.UTC(), r.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetReservation retrieves a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	r, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	return r, nil
}

// ListReservations returns every reservation ordered by date, start time and ID.
func (s *Store) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.query(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY date, start_time, id`)
}

// ListReservationsByRoomAndDate returns the reservations of one room on one date.
func (s *Store) ListReservationsByRoomAndDate(ctx context.Context, roomID, date string) ([]persistence.Reservation, error) {
	return s.query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE room_id = $1 AND date = $2 ORDER BY start_time, id`, roomID, date)
}

// DeleteReservation removes a reservation by ID.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, mapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		r                    persistence.Reservation
		participants, origin sql.NullString
	)
	err := row.Scan(&r.ID, &r.RoomID, &r.Date, &r.StartTime, &r.EndTime, &r.Title, &r.Organizer,
		&participants, &origin, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
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
	return r, nil
}

// mapError translates driver errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
		case "23502", "23503", "23514":
			return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
		}
	}
	return err
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
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
