package syncache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"verge-groups/internal/domain"
)

// Fetcher loads the authoritative value from the backend.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Cache keeps the last known value of one backend query. Reads never block
// on the backend; Revalidate refreshes the value and Mutate applies an
// optimistic change that is always followed by an authoritative refetch.
type Cache[T any] struct {
	key     string
	fetch   Fetcher[T]
	metrics domain.MetricsCollector
	logger  *zap.Logger

	mu            sync.RWMutex
	value         T
	authoritative T
	loaded        bool
	revalidatedAt time.Time
	mutating      bool
	// gen advances when a mutation applies its optimistic value and again
	// when its refetch lands; a plain revalidation that started under an
	// older generation must not overwrite the newer state.
	gen uint64

	flights  singleflight.Group
	mutateMu sync.Mutex
}

func New[T any](key string, fetch Fetcher[T], metrics domain.MetricsCollector, logger *zap.Logger) *Cache[T] {
	return &Cache[T]{
		key:     key,
		fetch:   fetch,
		metrics: metrics,
		logger:  logger.With(zap.String("component", "syncache"), zap.String("key", key)),
	}
}

func (c *Cache[T]) Key() string {
	return c.key
}

// Read returns the current value and whether it was ever loaded.
func (c *Cache[T]) Read() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.loaded
}

// MustRead is Read returning ErrPending before the first load.
func (c *Cache[T]) MustRead() (T, error) {
	v, ok := c.Read()
	if !ok {
		return v, fmt.Errorf("%s: %w", c.key, ErrPending)
	}
	return v, nil
}

// State describes the cache entry.
type State struct {
	Key           string    `json:"key"`
	Loaded        bool      `json:"loaded"`
	Mutating      bool      `json:"mutating"`
	RevalidatedAt time.Time `json:"revalidatedAt"`
}

func (c *Cache[T]) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Key:           c.key,
		Loaded:        c.loaded,
		Mutating:      c.mutating,
		RevalidatedAt: c.revalidatedAt,
	}
}

// Revalidate refetches the value. Concurrent calls share one fetch. A result
// is discarded when a mutation started while it was in flight; the
// mutation's own refetch supersedes it.
func (c *Cache[T]) Revalidate(ctx context.Context) error {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	_, err, _ := c.flights.Do(c.key, func() (interface{}, error) {
		v, err := c.fetch(ctx)
		if err != nil {
			c.metrics.RecordRevalidation(c.key, "error")
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen || c.mutating {
			c.metrics.RecordRevalidation(c.key, "superseded")
			return nil, nil
		}
		c.setLocked(v)
		c.metrics.RecordRevalidation(c.key, "success")
		return nil, nil
	})
	if err != nil {
		c.logger.Warn("revalidation failed", zap.Error(err))
		return fmt.Errorf("revalidate %s: %w", c.key, err)
	}
	return nil
}

// Mutate applies the optimistic change, performs the write and then
// replaces the value with a fresh authoritative fetch, whatever the write
// returned. A failed write is reported as *MutationError. Mutations of one
// cache run one at a time. apply receives the current value and must return
// a modified copy rather than change shared data in place.
func (c *Cache[T]) Mutate(ctx context.Context, apply func(T) T, write func(ctx context.Context) error) error {
	c.mutateMu.Lock()
	defer c.mutateMu.Unlock()

	c.mu.Lock()
	c.mutating = true
	c.gen++
	if apply != nil {
		c.value = apply(c.value)
	}
	c.mu.Unlock()

	writeErr := write(ctx)
	if writeErr != nil {
		c.logger.Warn("mutation write failed", zap.Error(writeErr))
	}

	resyncErr := c.resync(ctx)

	c.mu.Lock()
	c.mutating = false
	c.mu.Unlock()

	switch {
	case writeErr != nil:
		c.metrics.RecordMutation(c.key, "error")
		return &MutationError{Key: c.key, Err: writeErr, ResyncErr: resyncErr}
	case resyncErr != nil:
		c.metrics.RecordMutation(c.key, "unconfirmed")
		return fmt.Errorf("confirm %s: %w", c.key, resyncErr)
	default:
		c.metrics.RecordMutation(c.key, "success")
		return nil
	}
}

// resync runs after a write. It bypasses any revalidation that may have
// started before or during the write and applies its result unconditionally.
// When the fetch fails the optimistic value is rolled back to the last
// authoritative one. Either way the generation advances so that revalidations
// still in flight are discarded.
func (c *Cache[T]) resync(ctx context.Context) error {
	c.flights.Forget(c.key)

	v, err := c.fetch(context.WithoutCancel(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err != nil {
		c.value = c.authoritative
		c.metrics.RecordRevalidation(c.key, "error")
		c.logger.Warn("post-mutation refetch failed, rolled back", zap.Error(err))
		return err
	}
	c.setLocked(v)
	c.metrics.RecordRevalidation(c.key, "success")
	return nil
}

func (c *Cache[T]) setLocked(v T) {
	c.value = v
	c.authoritative = v
	c.loaded = true
	c.revalidatedAt = time.Now()
}
