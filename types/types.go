// Package types contains the shared types for autodiscover.
// This package does not import anything from other autodiscover packages
// to avoid circular imports.
package types

import "fmt"

// Status is the classification of a single test outcome.
type Status int

const (
	StatusConfigured Status = iota
	StatusMissing
	StatusNeedsReview
)

// Cache file encodings of Status. The mapping is 1:1 and must stay stable,
// cache entries written by older runs are decoded with it.
const (
	CachePass        = "PASS"
	CacheFail        = "FAIL"
	CacheInvestigate = "INVESTIGATE"
)

func (s Status) String() string {
	switch s {
	case StatusConfigured:
		return "CONFIGURED"
	case StatusMissing:
		return "MISSING"
	case StatusNeedsReview:
		return "NEEDS_REVIEW"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// CacheCode returns the cache file encoding of s.
func (s Status) CacheCode() string {
	switch s {
	case StatusConfigured:
		return CachePass
	case StatusMissing:
		return CacheFail
	default:
		return CacheInvestigate
	}
}

// ParseCacheCode is the inverse of Status.CacheCode.
// Unknown codes are an error, never a silent default.
func ParseCacheCode(code string) (Status, error) {
	switch code {
	case CachePass:
		return StatusConfigured, nil
	case CacheFail:
		return StatusMissing, nil
	case CacheInvestigate:
		return StatusNeedsReview, nil
	default:
		return 0, fmt.Errorf("unknown cache status %q", code)
	}
}

// Outcome is the result of one test in a validation run.
type Outcome struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Target identifies a validation run.
// Domain is always derived from Email.
type Target struct {
	Email      string `json:"email"`
	Local      string `json:"-"`
	Domain     string `json:"domain"`
	MailServer string `json:"mailServer"`
}
