package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/optimode/autodiscover/types"
)

var groups = []struct {
	status types.Status
	mark   string
}{
	{types.StatusConfigured, "+"},
	{types.StatusNeedsReview, "?"},
	{types.StatusMissing, "-"},
}

// WriteHuman writes the grouped report: CONFIGURED, then NEEDS_REVIEW, then
// MISSING, each in ledger order, followed by the counts and the verdict.
func WriteHuman(w io.Writer, t types.Target, l *types.Ledger) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Autodiscovery check for %s\n", t.Email)
	fmt.Fprintf(tw, "Domain: %s\tMail server: %s\n", t.Domain, t.MailServer)

	for _, g := range groups {
		outcomes := l.WithStatus(g.status)
		fmt.Fprintf(tw, "\n%s (%d)\n", g.status, len(outcomes))
		for _, o := range outcomes {
			fmt.Fprintf(tw, "  %s %s\t%s\n", g.mark, o.Name, o.Detail)
		}
	}

	s := Summarize(l)
	fmt.Fprintf(tw, "\nTotal: %d\tconfigured: %d\tneeds review: %d\tmissing: %d\n",
		s.Total, s.Passed, s.NeedsInvestigation, s.Failed)
	fmt.Fprintf(tw, "Verdict: %s\n", s.Verdict().Label())
	return tw.Flush()
}

// WriteQuiet writes the one-line verdict.
func WriteQuiet(w io.Writer, t types.Target, l *types.Ledger) error {
	s := Summarize(l)
	_, err := fmt.Fprintf(w, "%s: %s (%d/%d configured, %d missing, %d need review)\n",
		t.Domain, s.Verdict().Label(), s.Passed, s.Total, s.Failed, s.NeedsInvestigation)
	return err
}
