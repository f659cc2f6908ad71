package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/optimode/autodiscover/internal/probe"
	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// LookupFunc resolves name for record type qtype. An empty answer means no record.
type LookupFunc func(ctx context.Context, qtype uint16, name string) []string

// DNSChecker runs the SRV, TXT and CNAME tests.
type DNSChecker struct {
	lookup LookupFunc // injectable for testability
}

func NewDNSChecker(r *probe.Resolver) *DNSChecker {
	return &DNSChecker{lookup: r.Lookup}
}

// NewDNSCheckerWithLookup is a test-oriented constructor that overrides the lookup function.
func NewDNSCheckerWithLookup(fn LookupFunc) *DNSChecker {
	return &DNSChecker{lookup: fn}
}

var qtypes = map[plan.Kind]uint16{
	plan.KindSRV:   dns.TypeSRV,
	plan.KindTXT:   dns.TypeTXT,
	plan.KindCNAME: dns.TypeCNAME,
}

func (c *DNSChecker) Check(ctx context.Context, spec plan.Spec) types.Outcome {
	qtype, ok := qtypes[spec.Kind]
	if !ok {
		return types.Outcome{Name: spec.Name, Status: types.StatusNeedsReview,
			Detail: fmt.Sprintf("skipped: %s is not a DNS test", spec.Kind)}
	}

	answers := c.lookup(ctx, qtype, spec.Host)
	status := ClassifyDNS(answers)
	if status == types.StatusMissing {
		return types.Outcome{Name: spec.Name, Status: status, Detail: "no record found"}
	}

	detail := answers[0]
	// TXT content is advisory: a record with an unexpected value still counts.
	if spec.Kind == plan.KindTXT && spec.ExpectTXT != "" {
		matched := false
		for _, a := range answers {
			if strings.TrimSpace(a) == spec.ExpectTXT {
				matched = true
				break
			}
		}
		if !matched {
			detail = fmt.Sprintf("%s (expected %q)", detail, spec.ExpectTXT)
		}
	}
	return types.Outcome{Name: spec.Name, Status: status, Detail: detail}
}
