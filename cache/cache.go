// Package cache persists validation runs per domain for a limited time.
// A Cache adds the freshness rule on top of a Backend that only stores
// bytes; FileBackend keeps one JSON file per domain and RedisBackend one key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/optimode/autodiscover/internal/logger"
	"github.com/optimode/autodiscover/types"
)

// DefaultTTL is the freshness window of an entry.
const DefaultTTL = time.Hour

// Backend stores encoded entries keyed by domain.
// Get returns ErrMiss when nothing is stored for domain.
type Backend interface {
	Get(ctx context.Context, domain string) ([]byte, error)
	Put(ctx context.Context, domain string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, domain string) error
}

// Cache reads and writes validation runs.
type Cache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over b. A ttl <= 0 means DefaultTTL.
func New(b Backend, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{backend: b, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Save overwrites the entry for target.Domain with l.
func (c *Cache) Save(ctx context.Context, target types.Target, l *types.Ledger) error {
	key, err := Key(target.Domain)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(NewEntry(target, l, c.now()), "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.backend.Put(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("cache: save %s: %w", key, err)
	}
	logger.Named("cache").Debug().Str("domain", key).Int("tests", l.Len()).Msg("cache entry saved")
	return nil
}

// Load returns the ledger stored for domain. It returns ErrMiss when there
// is no entry or the entry is at least TTL old, and ErrCorrupt when the
// entry cannot be decoded.
func (c *Cache) Load(ctx context.Context, domain string) (*types.Ledger, Entry, error) {
	log := logger.Named("cache")

	key, err := Key(domain)
	if err != nil {
		return nil, Entry{}, err
	}
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			log.Info().Str("domain", key).Msg("cache miss")
			return nil, Entry{}, ErrMiss
		}
		return nil, Entry{}, fmt.Errorf("cache: load %s: %w", key, err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, Entry{}, fmt.Errorf("cache: load %s: %w", key, err)
	}
	age := c.now().Sub(entry.CreatedAt())
	if age >= c.ttl {
		log.Info().Str("domain", key).Dur("age", age).Msg("cache entry expired")
		return nil, Entry{}, fmt.Errorf("%w: entry is %s old", ErrMiss, age.Truncate(time.Second))
	}

	l, err := entry.Ledger()
	if err != nil {
		return nil, Entry{}, fmt.Errorf("cache: load %s: %w", key, err)
	}
	log.Info().Str("domain", key).Dur("age", age).Int("tests", l.Len()).Msg("cache hit")
	return l, entry, nil
}

// Invalidate removes the entry for domain. A missing entry is not an error.
func (c *Cache) Invalidate(ctx context.Context, domain string) error {
	key, err := Key(domain)
	if err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrMiss) {
		return fmt.Errorf("cache: invalidate %s: %w", key, err)
	}
	return nil
}

// Key normalizes domain into a cache key. Anything that could escape a
// directory or address another key is rejected.
func Key(domain string) (string, error) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\:*? `) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, domain)
	}
	return key, nil
}
