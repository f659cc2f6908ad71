// Package report renders a finished ledger. Every function here is a pure
// view: nothing probes, and the same ledger always gives the same output.
package report

import (
	"strings"

	"github.com/optimode/autodiscover/types"
)

// Verdict is the overall state of a domain.
type Verdict string

const (
	VerdictComplete         Verdict = "complete"
	VerdictMostlyConfigured Verdict = "mostly_configured"
	VerdictIncomplete       Verdict = "incomplete"
)

// VerdictFor maps a MISSING count to a verdict: none is complete, one or
// two is mostly configured, more is incomplete.
func VerdictFor(missing int) Verdict {
	switch {
	case missing <= 0:
		return VerdictComplete
	case missing <= 2:
		return VerdictMostlyConfigured
	default:
		return VerdictIncomplete
	}
}

// Label is the upper-case form used in the human report.
func (v Verdict) Label() string { return strings.ToUpper(string(v)) }

// Summary counts a ledger by status.
type Summary struct {
	Total              int `json:"total"`
	Passed             int `json:"passed"`
	Failed             int `json:"failed"`
	NeedsInvestigation int `json:"needsInvestigation"`
}

// Summarize counts l.
func Summarize(l *types.Ledger) Summary {
	return Summary{
		Total:              l.Len(),
		Passed:             l.Count(types.StatusConfigured),
		Failed:             l.Count(types.StatusMissing),
		NeedsInvestigation: l.Count(types.StatusNeedsReview),
	}
}

// Verdict returns the verdict for s.
func (s Summary) Verdict() Verdict { return VerdictFor(s.Failed) }
