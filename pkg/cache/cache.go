// Package cache implements the two-tier stale-while-revalidate cache: a
// memory tier that lives as long as the process and a persistent tier.
package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Store is one cache tier.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Purger is a Store that can drop everything it holds.
type Purger interface {
	Purge(ctx context.Context) error
}

// Cache keys.
const (
	KeyCourses  = "courses"
	KeyMessages = "messages"
)

// CourseKey is the cache key of a course overview.
func CourseKey(id string) string { return "course:" + id }

// FilesKey is the cache key of a course file tree.
func FilesKey(id string) string { return "files:" + id }

// MessageKey is the cache key of a message body.
func MessageKey(id string) string { return "message:" + id }

// Memory is a session-scoped Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
}

// Cache combines a short-lived and a persistent tier. Either may be nil.
type Cache struct {
	short  Store
	long   Store
	logger *logrus.Entry
}

// New creates a cache over the two tiers.
func New(short, long Store, logger *logrus.Entry) *Cache {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Cache{short: short, long: long, logger: logger.WithField("component", "cache")}
}

// lookup returns the cached value, trying the memory tier first.
func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	for _, store := range []Store{c.short, c.long} {
		if store == nil {
			continue
		}
		v, ok, err := store.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).WithField("key", key).Debug("cache read failed")
			continue
		}
		if ok {
			return v, true
		}
	}
	return nil, false
}

// store writes value to both tiers. Write failures only get logged.
func (c *Cache) store(ctx context.Context, key string, value []byte) {
	for _, store := range []Store{c.short, c.long} {
		if store == nil {
			continue
		}
		if err := store.Put(ctx, key, value); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
}

// Update is one value emitted by Revalidate.
type Update[T any] struct {
	Value T
	Stale bool
	Err   error
}

// Revalidate emits the cached value for key, if any, marked stale, and then
// the result of fetch. At most two updates are sent; the channel is closed
// afterwards. A successful fetch is written to both tiers.
func Revalidate[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) <-chan Update[T] {
	out := make(chan Update[T], 2)
	go func() {
		defer close(out)

		if raw, ok := c.lookup(ctx, key); ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				out <- Update[T]{Value: cached, Stale: true}
			} else {
				c.logger.WithError(err).WithField("key", key).Debug("dropping unreadable cache entry")
			}
		}

		fresh, err := fetch(ctx)
		if err != nil {
			out <- Update[T]{Err: err}
			return
		}
		if raw, err := json.Marshal(fresh); err == nil {
			c.store(ctx, key, raw)
		}
		out <- Update[T]{Value: fresh}
	}()
	return out
}

// Latest drains updates and returns the last value. When the fresh fetch
// failed after a stale value was delivered, the stale value is returned
// together with the fetch error.
func Latest[T any](updates <-chan Update[T]) (T, bool, error) {
	var (
		last  T
		stale bool
		have  bool
		err   error
	)
	for u := range updates {
		if u.Err != nil {
			err = u.Err
			continue
		}
		last, stale, have = u.Value, u.Stale, true
	}
	if !have {
		return last, false, err
	}
	return last, stale, err
}

// Peek returns the cached value for key without fetching.
func Peek[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	raw, ok := c.lookup(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// Reset drops the session-scoped tier.
func (c *Cache) Reset() {
	if m, ok := c.short.(*Memory); ok {
		m.Clear()
	}
}

// Purge drops both tiers. Used when the cached data belongs to another
// account.
func (c *Cache) Purge(ctx context.Context) error {
	c.Reset()
	if p, ok := c.long.(Purger); ok {
		return p.Purge(ctx)
	}
	return nil
}

// Set writes v to both tiers.
func Set[T any](ctx context.Context, c *Cache, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cannot cache value")
		return
	}
	c.store(ctx, key, raw)
}
