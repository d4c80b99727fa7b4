// Package storetest exercises a persistence.ReservationRepository
// implementation against the behaviour every store must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/persistence"
)

// Factory returns an empty repository owned by t.
type Factory func(t *testing.T) persistence.ReservationRepository

// Run executes the shared repository suite.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		participants := "alice, bob"
		r := Reservation("r-1", "room-1", "2025-03-10", "10:00", "11:00")
		r.ParticipantNames = &participants

		require.NoError(t, repo.CreateReservation(ctx, r))

		got, err := repo.GetReservation(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, r.RoomID, got.RoomID)
		assert.Equal(t, r.StartTime, got.StartTime)
		assert.Equal(t, r.EndTime, got.EndTime)
		assert.Equal(t, r.Title, got.Title)
		require.NotNil(t, got.ParticipantNames)
		assert.Equal(t, participants, *got.ParticipantNames)
		assert.Nil(t, got.OriginIdentifier)
		assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("duplicate id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		r := Reservation("r-1", "room-1", "2025-03-10", "10:00", "11:00")
		require.NoError(t, repo.CreateReservation(ctx, r))
		assert.ErrorIs(t, repo.CreateReservation(ctx, r), persistence.ErrDuplicate)
	})

	t.Run("missing records", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetReservation(ctx, "absent")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteReservation(ctx, "absent"), persistence.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateReservation(ctx, Reservation("absent", "room-1", "2025-03-10", "10:00", "11:00")), persistence.ErrNotFound)
	})

	t.Run("update keeps creation time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		r := Reservation("r-1", "room-1", "2025-03-10", "10:00", "11:00")
		require.NoError(t, repo.CreateReservation(ctx, r))

		changed := r
		changed.RoomID = "room-2"
		changed.StartTime = "14:00"
		changed.EndTime = "15:00"
		changed.Title = "Retro"
		changed.CreatedAt = r.CreatedAt.Add(48 * time.Hour)
		changed.UpdatedAt = r.UpdatedAt.Add(time.Hour)
		require.NoError(t, repo.UpdateReservation(ctx, changed))

		got, err := repo.GetReservation(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, "room-2", got.RoomID)
		assert.Equal(t, "14:00", got.StartTime)
		assert.Equal(t, "Retro", got.Title)
		assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, changed.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("list ordering and filtering", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, r := range []persistence.Reservation{
			Reservation("c", "room-1", "2025-03-10", "13:00", "14:00"),
			Reservation("a", "room-1", "2025-03-10", "09:00", "10:00"),
			Reservation("b", "room-2", "2025-03-10", "09:00", "10:00"),
			Reservation("d", "room-1", "2025-03-11", "08:00", "09:00"),
		} {
			require.NoError(t, repo.CreateReservation(ctx, r))
		}

		all, err := repo.ListReservations(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(all))

		scoped, err := repo.ListReservationsByRoomAndDate(ctx, "room-1", "2025-03-10")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids(scoped))

		empty, err := repo.ListReservationsByRoomAndDate(ctx, "room-3", "2025-03-10")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.CreateReservation(ctx, Reservation("r-1", "room-1", "2025-03-10", "10:00", "11:00")))
		require.NoError(t, repo.DeleteReservation(ctx, "r-1"))

		_, err := repo.GetReservation(ctx, "r-1")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

// Reservation builds a stored reservation with fixed timestamps.
func Reservation(id, roomID, date, start, end string) persistence.Reservation {
	created := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	return persistence.Reservation{
		ID:        id,
		RoomID:    roomID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Title:     "Standup",
		Organizer: "alice",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func ids(reservations []persistence.Reservation) []string {
	out := make([]string, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.ID)
	}
	return out
}
