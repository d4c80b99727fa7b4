package lock

import (
	"context"
	"sync"
)

// KeyedMutex is an in-process Locker. Entries are reference counted and
// removed once nobody holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	slot chan struct{}
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock implements Locker.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (Release, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		m.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.slot
			m.drop(key, e)
		})
		return nil
	}, nil
}

func (m *KeyedMutex) drop(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
