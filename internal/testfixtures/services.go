package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/lock"
	"github.com/example/room-booking/internal/persistence"
)

// ServiceFactory builds application services with deterministic identifiers
// and timestamps.
type ServiceFactory struct {
	Clock  *Clock
	IDs    *IDSequence
	Rooms  []application.Room
	Logger *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	f := &ServiceFactory{
		Clock: NewClock(time.Time{}),
		IDs:   NewIDSequence("bk"),
		Rooms: Rooms(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.Clock == nil {
		f.Clock = NewClock(time.Time{})
	}
	if f.IDs == nil {
		f.IDs = NewIDSequence("bk")
	}
	return f
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

func WithIDSequence(ids *IDSequence) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.IDs = ids }
}

func WithRooms(rooms ...application.Room) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Rooms = rooms }
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Logger = logger }
}

// NewRoomService returns a catalog of the factory rooms.
func (f *ServiceFactory) NewRoomService() *application.RoomService {
	return application.NewRoomService(f.Rooms, f.Logger)
}

// NewReservationService wires store to the factory catalog. A nil locker
// selects the in-process keyed mutex.
func (f *ServiceFactory) NewReservationService(store persistence.ReservationRepository, locker lock.Locker) *application.ReservationService {
	return application.NewReservationService(
		store,
		f.NewRoomService(),
		locker,
		f.IDs.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}
