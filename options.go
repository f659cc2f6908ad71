package autodiscover

import (
	"crypto/tls"
	"time"
)

// ProbeOptions configures the DNS and HTTP probes.
type ProbeOptions struct {
	// DNSTimeout bounds a single DNS query. Default: 10s
	DNSTimeout time.Duration
	// HTTPTimeout bounds a single HTTP request. Default: 30s
	HTTPTimeout time.Duration
	// Retries is the number of attempts per probe on transport failure. Default: 3
	Retries int
	// RetryDelay is the fixed pause between attempts. Default: 1s
	RetryDelay time.Duration
	// Nameservers to query. Default: the system resolvers
	Nameservers []string
	// TLSConfig is the base TLS configuration; TLS 1.2 is always the minimum.
	TLSConfig *tls.Config
}

func defaultProbeOptions() ProbeOptions {
	return ProbeOptions{
		DNSTimeout:  10 * time.Second,
		HTTPTimeout: 30 * time.Second,
		Retries:     3,
		RetryDelay:  time.Second,
	}
}

// ConcurrencyOptions configures how many checks run at once.
type ConcurrencyOptions struct {
	// Workers is the number of checks in flight. Default: 1 (sequential)
	Workers int
}

// Mode selects how the cache is used by Run.
type Mode int

const (
	// ModeDefault uses a fresh cache entry when there is one and probes otherwise.
	ModeDefault Mode = iota
	// ModeCacheOnly only loads from the cache and fails with ErrCacheOnlyMiss.
	ModeCacheOnly
	// ModeCacheRefresh drops the cache entry, probes and saves the new result.
	ModeCacheRefresh
)

func (m Mode) String() string {
	switch m {
	case ModeCacheOnly:
		return "cache-only"
	case ModeCacheRefresh:
		return "cache-refresh"
	default:
		return "default"
	}
}
