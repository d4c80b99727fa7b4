// Package lock serializes check-then-write sequences per room and date.
package lock

import (
	"context"
	"errors"
	"slices"
)

// Release gives up a held lock.
type Release = func(context.Context) error

// Locker grants exclusive ownership of a key until the returned Release is
// called. Lock blocks until the key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Release, error)
}

// Key names the lock guarding one room on one date.
func Key(roomID, date string) string {
	return roomID + "|" + date
}

// Acquire locks every distinct key in sorted order so that two callers
// needing overlapping key sets cannot deadlock. The returned Release unlocks
// in reverse order.
func Acquire(ctx context.Context, l Locker, keys ...string) (Release, error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]Release, 0, len(sorted))
	releaseAll := func(ctx context.Context) error {
		var errs []error
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, key := range sorted {
		release, err := l.Lock(ctx, key)
		if err != nil {
			_ = releaseAll(context.WithoutCancel(ctx))
			return nil, err
		}
		held = append(held, release)
	}
	return releaseAll, nil
}
