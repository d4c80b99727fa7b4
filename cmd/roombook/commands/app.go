package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/lock"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/bolt"
	"github.com/example/room-booking/internal/persistence/postgres"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg          config.Config
	logger       *slog.Logger
	store        persistence.ReservationRepository
	pinger       func(context.Context) error
	locker       lock.Locker
	lockBackend  string
	rooms        *application.RoomService
	reservations *application.ReservationService
	closers      []func() error
}

// loadApp reads configuration, opens and migrates the configured store and
// selects the admission lock. Logs are written to logOut.
func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logging.New(logOut, level)}
	if err := a.openStore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.openLocker(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.rooms = application.NewRoomService(catalogRooms(cfg.Rooms), a.logger)
	a.reservations = application.NewReservationService(a.store, a.rooms, a.locker, nil, time.Now, a.logger)

	a.logger.DebugContext(ctx, "application wired", "store", cfg.Store, "lock", a.lockBackend, "rooms", len(cfg.Rooms))
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store {
	case config.StorePostgres:
		store, err := postgres.Open(ctx, a.cfg.PostgresURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		a.store = store
		a.pinger = store.DB.PingContext
		// Without Redis the advisory lock serializes admissions across replicas.
		if a.cfg.RedisURL == "" {
			a.locker = postgres.NewAdvisoryLocker(store.DB)
			a.lockBackend = "postgres"
		}
	case config.StoreBolt:
		store, err := bolt.Open(a.cfg.BoltPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		a.store = store
	default:
		store, err := sqlite.Open(a.cfg.SQLiteDSN, sqlite.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		a.store = store
		a.pinger = store.Ping
	}
	return nil
}

func (a *app) openLocker(ctx context.Context) error {
	if a.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		a.locker = lock.NewRedisLocker(client, a.cfg.LockTTL)
		a.lockBackend = "redis"
		return nil
	}
	if a.locker == nil {
		a.locker = lock.NewKeyedMutex()
		a.lockBackend = "process"
	}
	return nil
}

// Close releases everything opened by loadApp in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func catalogRooms(rooms []config.Room) []application.Room {
	out := make([]application.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, application.Room{
			ID:        r.ID,
			Name:      r.Name,
			Capacity:  r.Capacity,
			Amenities: r.Amenities,
		})
	}
	return out
}
