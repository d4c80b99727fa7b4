// Package bolt stores reservations in a single BoltDB file, one JSON value per
// reservation keyed by its identifier.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/example/room-booking/internal/persistence"
)

const bucketName = "reservations"

// Store is a BoltDB-backed persistence.ReservationRepository.
//
// Bolt allows one writer at a time, so each write is serialized by the
// database itself. Listing by room and date scans the bucket.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file at path and ensures the bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

type record struct {
	ID               string    `json:"id"`
	RoomID           string    `json:"room_id"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	Title            string    `json:"title"`
	Organizer        string    `json:"organizer"`
	ParticipantNames *string   `json:"participant_names,omitempty"`
	OriginIdentifier *string   `json:"origin_identifier,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toRecord(r persistence.Reservation) record {
	return record{
		ID:               r.ID,
		RoomID:           r.RoomID,
		Date:             r.Date,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Title:            r.Title,
		Organizer:        r.Organizer,
		ParticipantNames: r.ParticipantNames,
		OriginIdentifier: r.OriginIdentifier,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func (rec record) reservation() persistence.Reservation {
	return persistence.Reservation{
		ID:               rec.ID,
		RoomID:           rec.RoomID,
		Date:             rec.Date,
		StartTime:        rec.StartTime,
		EndTime:          rec.EndTime,
		Title:            rec.Title,
		Organizer:        rec.Organizer,
		ParticipantNames: rec.ParticipantNames,
		OriginIdentifier: rec.OriginIdentifier,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

// CreateReservation stores a new reservation. An existing key is ErrDuplicate.
func (s *Store) CreateReservation(ctx context.Context, r persistence.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return persistence.ErrConstraintViolation
	}

	value, err := json.Marshal(toRecord(r))
	if err != nil {
		return fmt.Errorf("bolt: encode reservation %s: %w", r.ID, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get([]byte(r.ID)) != nil {
			return persistence.ErrDuplicate
		}
		return b.Put([]byte(r.ID), value)
	})
}

// UpdateReservation overwrites an existing reservation, preserving its
// creation timestamp.
func (s *Store) UpdateReservation(ctx context.Context, r persistence.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		current := b.Get([]byte(r.ID))
		if current == nil {
			return persistence.ErrNotFound
		}

		var stored record
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("bolt: decode reservation %s: %w", r.ID, err)
		}

		next := toRecord(r)
		next.CreatedAt = stored.CreatedAt
		value, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("bolt: encode reservation %s: %w", r.ID, err)
		}
		return b.Put([]byte(r.ID), value)
	})
}

// GetReservation retrieves a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Reservation{}, err
	}

	var rec record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if v == nil {
			return persistence.ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return rec.reservation(), nil
}

// ListReservations returns every reservation ordered by date, start time and ID.
func (s *Store) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.scan(ctx, func(persistence.Reservation) bool { return true })
}

// ListReservationsByRoomAndDate returns the reservations of one room on one date.
func (s *Store) ListReservationsByRoomAndDate(ctx context.Context, roomID, date string) ([]persistence.Reservation, error) {
	return s.scan(ctx, func(r persistence.Reservation) bool {
		return r.RoomID == roomID && r.Date == date
	})
}

// DeleteReservation removes a reservation by ID.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get([]byte(id)) == nil {
			return persistence.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) scan(ctx context.Context, keep func(persistence.Reservation) bool) ([]persistence.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]persistence.Reservation, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("bolt: decode reservation %s: %w", k, err)
			}
			if r := rec.reservation(); keep(r) {
				items = append(items, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	persistence.SortReservations(items)
	return items, nil
}
