package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/optimode/autodiscover/types"
)

// JSON is the machine-readable report.
type JSON struct {
	Timestamp  string  `json:"timestamp"`
	Domain     string  `json:"domain"`
	Email      string  `json:"email"`
	MailServer string  `json:"mailServer"`
	Summary    Summary `json:"summary"`
	Results    Results `json:"results"`
	Status     Verdict `json:"status"`
}

// Results lists test names per status, in ledger order.
type Results struct {
	Passed             []string `json:"passed"`
	Failed             []string `json:"failed"`
	NeedsInvestigation []string `json:"needsInvestigation"`
}

func names(outcomes []types.Outcome) []string {
	out := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.Name)
	}
	return out
}

// NewJSON builds the report for t at now.
func NewJSON(t types.Target, l *types.Ledger, now time.Time) JSON {
	s := Summarize(l)
	return JSON{
		Timestamp:  now.UTC().Format(time.RFC3339),
		Domain:     t.Domain,
		Email:      t.Email,
		MailServer: t.MailServer,
		Summary:    s,
		Results: Results{
			Passed:             names(l.Passed()),
			Failed:             names(l.Failed()),
			NeedsInvestigation: names(l.NeedsReview()),
		},
		Status: s.Verdict(),
	}
}

// WriteJSON writes the indented JSON report to w.
func WriteJSON(w io.Writer, t types.Target, l *types.Ledger, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSON(t, l, now))
}
