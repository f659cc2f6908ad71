package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// ActionSummary returns one zone line per MISSING test that a DNS record
// would fix.
func ActionSummary(domain, mailServer string, l *types.Ledger) []string {
	recs := plan.MissingRecords(domain, mailServer, l)
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ZoneLine()
	}
	return out
}

// WriteActionSummary writes the records to add, or nothing when none are missing.
func WriteActionSummary(w io.Writer, domain, mailServer string, l *types.Ledger) error {
	lines := ActionSummary(domain, mailServer, l)
	if len(lines) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nRecords to add (%d):\n", len(lines)); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// ProviderInfo describes a deployment provider for the instructions text.
type ProviderInfo struct {
	Name      string
	Available bool
	Help      string
}

// WriteDeployInstructions writes the records to add followed by how each
// provider would add them.
func WriteDeployInstructions(w io.Writer, domain, mailServer string, l *types.Ledger, providers []ProviderInfo) error {
	lines := ActionSummary(domain, mailServer, l)
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "\nNo DNS records are missing; nothing to deploy.")
		return err
	}
	if err := WriteActionSummary(w, domain, mailServer, l); err != nil {
		return err
	}
	if len(providers) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "\nDeploy with -deploy <provider>:"); err != nil {
		return err
	}
	return WriteProviders(w, providers)
}

// WriteProviders lists providers with their state and indented help text.
func WriteProviders(w io.Writer, providers []ProviderInfo) error {
	for _, p := range providers {
		state := "not configured"
		if p.Available {
			state = "available"
		}
		if _, err := fmt.Fprintf(w, "\n  %s (%s)\n", p.Name, state); err != nil {
			return err
		}
		if p.Help != "" {
			if _, err := fmt.Fprintf(w, "%s\n", indent(p.Help, "    ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return prefix + strings.Join(lines, "\n"+prefix)
}
