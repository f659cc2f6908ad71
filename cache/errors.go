package cache

import "errors"

var (
	// ErrMiss is returned when no entry exists for a domain or the entry is older than the TTL.
	ErrMiss = errors.New("cache: miss")

	// ErrInvalidKey is returned for a domain that cannot be used as a cache key.
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrCorrupt is returned when a stored entry cannot be decoded.
	// Malformed entries are never partially loaded.
	ErrCorrupt = errors.New("cache: corrupt entry")
)
