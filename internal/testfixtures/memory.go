package testfixtures

import (
	"context"
	"sync"

	"github.com/example/room-booking/internal/persistence"
)

// MemoryStore is a goroutine safe in-memory persistence.ReservationRepository.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]persistence.Reservation
}

// NewMemoryStore returns a store holding copies of seed.
func NewMemoryStore(seed ...persistence.Reservation) *MemoryStore {
	s := &MemoryStore{rows: make(map[string]persistence.Reservation, len(seed))}
	for _, r := range seed {
		s.rows[r.ID] = r.Clone()
	}
	return s
}

func (s *MemoryStore) CreateReservation(ctx context.Context, r persistence.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[r.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.rows[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) UpdateReservation(ctx context.Context, r persistence.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[r.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	r = r.Clone()
	r.CreatedAt = existing.CreatedAt
	s.rows[r.ID] = r
	return nil
}

func (s *MemoryStore) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Reservation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.filter(ctx, func(persistence.Reservation) bool { return true })
}

func (s *MemoryStore) ListReservationsByRoomAndDate(ctx context.Context, roomID, date string) ([]persistence.Reservation, error) {
	return s.filter(ctx, func(r persistence.Reservation) bool {
		return r.RoomID == roomID && r.Date == date
	})
}

func (s *MemoryStore) DeleteReservation(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Len reports the number of stored reservations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *MemoryStore) filter(ctx context.Context, keep func(persistence.Reservation) bool) ([]persistence.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]persistence.Reservation, 0, len(s.rows))
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	persistence.SortReservations(out)
	return out, nil
}
