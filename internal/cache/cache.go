// Package cache remembers the entity the viewer is currently browsing, per
// forum type.
package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/kingrea/forumterm/internal/forum"
)

// ErrMiss is returned when no entity of the type has been cached.
var ErrMiss = errors.New("cache: no current entity")

// Store holds one current entity per forum type. The last write wins.
type Store interface {
	Current(ctx context.Context, t forum.Type) (forum.Entity, error)
	SetCurrent(ctx context.Context, e forum.Entity) error
	Clear(ctx context.Context, t forum.Type) error
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	current map[forum.Type]forum.Entity
}

func NewMemory() *Memory {
	return &Memory{current: map[forum.Type]forum.Entity{}}
}

func (m *Memory) Current(_ context.Context, t forum.Type) (forum.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.current[t]
	if !ok {
		return forum.Entity{}, ErrMiss
	}
	return e, nil
}

func (m *Memory) SetCurrent(_ context.Context, e forum.Entity) error {
	if err := e.Ref.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[e.Ref.Type] = e
	return nil
}

func (m *Memory) Clear(_ context.Context, t forum.Type) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.current, t)
	return nil
}

// Open returns a Redis store when redisURL is set and a Memory store otherwise.
func Open(redisURL string) (Store, error) {
	if redisURL == "" {
		return NewMemory(), nil
	}
	return NewRedis(redisURL)
}
