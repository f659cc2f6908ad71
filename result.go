package autodiscover

import (
	"time"

	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/report"
	"github.com/optimode/autodiscover/types"
)

// Result is the outcome of one Run.
type Result struct {
	Target types.Target
	Ledger *types.Ledger
	// FromCache is true when the ledger was loaded instead of probed.
	FromCache bool
	// CheckedAt is when the probes ran, which is the entry time for cached results.
	CheckedAt time.Time
}

// Summary counts the ledger by status.
func (r Result) Summary() report.Summary { return report.Summarize(r.Ledger) }

// Verdict returns the overall verdict.
func (r Result) Verdict() report.Verdict { return r.Summary().Verdict() }

// MissingRecords returns the DNS records that would fix the MISSING tests.
func (r Result) MissingRecords() []plan.Record {
	return plan.MissingRecords(r.Target.Domain, r.Target.MailServer, r.Ledger)
}
