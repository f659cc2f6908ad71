package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/optimode/autodiscover/plan"
)

// ZoneFile returns the full autodiscovery record set for domain in BIND
// syntax, whatever the state of the domain.
func ZoneFile(domain, mailServer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; Zimbra autodiscovery records for %s\n", domain)
	fmt.Fprintf(&b, "; Mail server: %s\n", strings.TrimSuffix(mailServer, "."))
	fmt.Fprintf(&b, "$TTL %d\n", plan.DefaultTTL)

	section := ""
	for _, rt := range plan.ZoneTemplates() {
		if title := sectionTitle(rt); title != section {
			section = title
			fmt.Fprintf(&b, "\n; %s\n", title)
		}
		b.WriteString(rt.Render(domain, mailServer).ZoneLine())
		b.WriteByte('\n')
	}
	return b.String()
}

func sectionTitle(rt plan.RecordTemplate) string {
	switch rt.Type {
	case "SRV":
		return "Service locations (RFC 6186, RFC 6764)"
	case "TXT":
		return "CalDAV / CardDAV context path"
	default:
		return "Client autodiscovery aliases"
	}
}

// WriteZone writes ZoneFile to w.
func WriteZone(w io.Writer, domain, mailServer string) error {
	_, err := io.WriteString(w, ZoneFile(domain, mailServer))
	return err
}
