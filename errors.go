package autodiscover

import (
	"errors"

	"github.com/optimode/autodiscover/internal/parse"
)

var (
	// ErrInvalidEmail is returned when the address fails the syntax check.
	// Nothing is probed.
	ErrInvalidEmail = parse.ErrInvalidEmail

	// ErrInvalidMailServer is returned when the mail server is not a valid hostname.
	ErrInvalidMailServer = parse.ErrInvalidHost

	// ErrCacheOnlyMiss is returned in ModeCacheOnly when there is no fresh
	// cache entry for the domain. Probing is never used as a fallback.
	ErrCacheOnlyMiss = errors.New("autodiscover: no fresh cache entry (cache-only mode)")
)
