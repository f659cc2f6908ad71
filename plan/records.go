package plan

import (
	"fmt"
	"strings"

	"github.com/optimode/autodiscover/types"
)

// DefaultTTL is the TTL used for generated and deployed records.
const DefaultTTL = 3600

// RecordTemplate describes the DNS record that satisfies a test.
// Name is relative to the zone; Value may contain {domain}, {mailserver}
// and {email} placeholders.
type RecordTemplate struct {
	Type  string
	Name  string
	Value string
}

// Record is a RecordTemplate rendered for a concrete domain.
type Record struct {
	Type  string
	Name  string // FQDN, no trailing dot
	Value string // TXT values are unquoted
}

func srvTemplate(service string, port int) RecordTemplate {
	return RecordTemplate{Type: "SRV", Name: service, Value: fmt.Sprintf("10 0 %d {mailserver}.", port)}
}

func txtTemplate(service string) RecordTemplate {
	return RecordTemplate{Type: "TXT", Name: service, Value: "path=" + DAVHomePath}
}

func cnameTemplate(label string) RecordTemplate {
	return RecordTemplate{Type: "CNAME", Name: label, Value: "{mailserver}."}
}

// Render fills the template for domain and mailServer.
func (rt RecordTemplate) Render(domain, mailServer string) Record {
	t := types.Target{Domain: domain, MailServer: mailServer}
	return Record{
		Type:  rt.Type,
		Name:  FQDN(domain, rt.Name),
		Value: expand(rt.Value, t),
	}
}

// ZoneLine renders r as a BIND resource record line.
func (r Record) ZoneLine() string {
	value := r.Value
	if r.Type == "TXT" {
		value = `"` + value + `"`
	}
	return fmt.Sprintf("%s. IN %s %s", r.Name, r.Type, value)
}

// TemplateFor returns the remediation template of the named test.
// Tests without a DNS remediation (HTTP and authenticated checks) report false.
func TemplateFor(name string) (RecordTemplate, bool) {
	for _, d := range dnsTests {
		if d.name == name {
			return d.record, true
		}
	}
	return RecordTemplate{}, false
}

// ZoneTemplates returns the canonical record set for an autodiscovery zone.
// It includes records no test probes for (the autoconfig CNAME).
func ZoneTemplates() []RecordTemplate {
	out := make([]RecordTemplate, 0, len(dnsTests)+1)
	for _, d := range dnsTests {
		out = append(out, d.record)
	}
	return append(out, cnameTemplate("autoconfig"))
}

func expand(s string, t types.Target) string {
	return strings.NewReplacer(
		"{domain}", t.Domain,
		"{mailserver}", strings.TrimSuffix(t.MailServer, "."),
		"{email}", t.Email,
	).Replace(s)
}

// FQDN joins a relative name onto zone.
//
//	FQDN("example.com", "@")            -> "example.com"
//	FQDN("example.com", "_imaps._tcp")  -> "_imaps._tcp.example.com"
//	FQDN("example.com", "x.example.com") -> "x.example.com"
func FQDN(zone, name string) string {
	zone = strings.TrimSuffix(strings.TrimSpace(zone), ".")
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")

	if name == "" || name == "@" || name == zone {
		return zone
	}
	if strings.HasSuffix(name, "."+zone) {
		return name
	}
	return name + "." + zone
}

// RelativeName strips zone from name, returning "@" for the apex.
func RelativeName(zone, name string) string {
	zone = strings.TrimSuffix(strings.TrimSpace(zone), ".")
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")

	if name == "" || name == zone {
		return "@"
	}
	if rel, ok := strings.CutSuffix(name, "."+zone); ok {
		return rel
	}
	return name
}

// MissingRecords renders the remediation record of every MISSING outcome in
// l, in ledger order. MISSING tests without a template (HTTP and
// authenticated checks) have no DNS fix and are skipped.
func MissingRecords(domain, mailServer string, l *types.Ledger) []Record {
	var out []Record
	for _, o := range l.Failed() {
		rt, ok := TemplateFor(o.Name)
		if !ok {
			continue
		}
		out = append(out, rt.Render(domain, mailServer))
	}
	return out
}
