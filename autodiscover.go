// Package autodiscover checks that a domain is set up for Zimbra mail client
// autodiscovery: the SRV, TXT and CNAME records and the HTTP endpoints that
// IMAP, SMTP, CalDAV, CardDAV and ActiveSync clients look for.
//
// Basic usage:
//
//	res, err := autodiscover.New().Run(ctx, "user@example.com", "", autodiscover.ModeDefault)
//
// With authenticated checks, a cache and concurrent probes:
//
//	c := cache.New(backend, time.Hour)
//	res, err := autodiscover.New().
//	    WithCredentials("user@example.com", password).
//	    WithCache(c).
//	    WithConcurrency(autodiscover.ConcurrencyOptions{Workers: 8}).
//	    Run(ctx, "user@example.com", "mail.example.com", autodiscover.ModeDefault)
package autodiscover

import "github.com/optimode/autodiscover/types"

// Status is a re-export from the types package so that consumers
// don't need to import the types package directly.
type Status = types.Status

// Outcome is a re-export.
type Outcome = types.Outcome

// Ledger is a re-export.
type Ledger = types.Ledger

// Target is a re-export.
type Target = types.Target

// Status constants re-exported.
const (
	StatusConfigured  = types.StatusConfigured
	StatusMissing     = types.StatusMissing
	StatusNeedsReview = types.StatusNeedsReview
)
