package application

import (
	"context"
	"errors"
	"testing"
)

func TestRoomService_ListRoomsSortedByName(t *testing.T) {
	t.Parallel()

	svc := NewRoomService([]Room{
		{ID: "room-3", Name: "Cedar", Capacity: 4},
		{ID: "room-1", Name: "aspen", Capacity: 10, Amenities: []string{"projector"}},
		{ID: "room-2", Name: "Birch", Capacity: 6},
		{ID: "room-1", Name: "duplicate"},
	}, nil)

	rooms, err := svc.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms returned error: %v", err)
	}
	if len(rooms) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(rooms))
	}
	got := []string{rooms[0].ID, rooms[1].ID, rooms[2].ID}
	want := []string{"room-1", "room-2", "room-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	rooms[0].Amenities[0] = "mutated"
	again, _ := svc.ListRooms(context.Background())
	if again[0].Amenities[0] != "projector" {
		t.Fatalf("expected catalog to be isolated from callers")
	}
}

func TestRoomService_GetRoomAndExists(t *testing.T) {
	t.Parallel()

	svc := NewRoomService([]Room{{ID: "room-1", Name: "2204会议室", Capacity: 10}}, nil)
	ctx := context.Background()

	room, err := svc.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetRoom returned error: %v", err)
	}
	if room.Name != "2204会议室" {
		t.Fatalf("unexpected room %+v", room)
	}

	if _, err := svc.GetRoom(ctx, "room-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if ok, err := svc.RoomExists(ctx, "room-1"); err != nil || !ok {
		t.Fatalf("expected room-1 to exist, got %v %v", ok, err)
	}
	if ok, _ := svc.RoomExists(ctx, "room-9"); ok {
		t.Fatalf("expected room-9 to be unknown")
	}
}
