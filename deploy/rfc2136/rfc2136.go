// Package rfc2136 adds records with DNS UPDATE messages (RFC 2136),
// optionally signed with TSIG (RFC 8945).
package rfc2136

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/optimode/autodiscover/deploy"
)

// Name is the registry name.
const Name = "rfc2136"

// ErrMissingServer is returned when no primary server is configured.
var ErrMissingServer = errors.New("rfc2136: server is not set")

var algorithms = map[string]string{
	"hmac-sha1":   dns.HmacSHA1,
	"hmac-sha224": dns.HmacSHA224,
	"hmac-sha256": dns.HmacSHA256,
	"hmac-sha384": dns.HmacSHA384,
	"hmac-sha512": dns.HmacSHA512,
}

// Provider sends UPDATE messages to one primary server.
type Provider struct {
	server    string
	zone      string
	keyName   string
	secret    string
	algorithm string
	net       string
	timeout   time.Duration
}

// Build reads server (host[:port]), zone (defaults to the domain),
// tsig_name, tsig_secret (base64), tsig_algorithm (default hmac-sha256),
// net (udp or tcp) and timeout.
func Build(config map[string]string) (deploy.Provider, error) {
	p := &Provider{
		server:    strings.TrimSpace(config["server"]),
		zone:      strings.TrimSpace(config["zone"]),
		keyName:   strings.TrimSpace(config["tsig_name"]),
		secret:    strings.TrimSpace(config["tsig_secret"]),
		algorithm: dns.HmacSHA256,
		net:       "udp",
		timeout:   10 * time.Second,
	}
	if p.server != "" {
		if _, _, err := net.SplitHostPort(p.server); err != nil {
			p.server = net.JoinHostPort(p.server, "53")
		}
	}
	if a := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(config["tsig_algorithm"]), ".")); a != "" {
		alg, ok := algorithms[a]
		if !ok {
			return nil, fmt.Errorf("rfc2136: unsupported tsig_algorithm %q", a)
		}
		p.algorithm = alg
	}
	if n := strings.TrimSpace(config["net"]); n != "" {
		if n != "udp" && n != "tcp" {
			return nil, fmt.Errorf("rfc2136: net must be udp or tcp, got %q", n)
		}
		p.net = n
	}
	if t := strings.TrimSpace(config["timeout"]); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("rfc2136: timeout: %w", err)
		}
		p.timeout = d
	}
	if (p.keyName == "") != (p.secret == "") {
		return nil, errors.New("rfc2136: tsig_name and tsig_secret must be set together")
	}
	if p.keyName != "" {
		p.keyName = dns.Fqdn(p.keyName)
	}
	return p, nil
}

func init() {
	deploy.Register(Name, Build)
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Detect() bool { return p.server != "" }

func (p *Provider) client() *dns.Client {
	c := &dns.Client{Net: p.net, Timeout: p.timeout}
	if p.keyName != "" {
		c.TsigSecret = map[string]string{p.keyName: p.secret}
	}
	return c
}

func (p *Provider) sign(m *dns.Msg) {
	if p.keyName != "" {
		m.SetTsig(p.keyName, p.algorithm, 300, time.Now().Unix())
	}
}

func (p *Provider) zoneFor(domain string) string {
	if p.zone != "" {
		return dns.Fqdn(p.zone)
	}
	return dns.Fqdn(domain)
}

func (p *Provider) exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	if p.server == "" {
		return nil, ErrMissingServer
	}
	p.sign(m)
	resp, _, err := p.client().ExchangeContext(ctx, m, p.server)
	if err != nil {
		return nil, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return resp, fmt.Errorf("server answered %s", dns.RcodeToString[resp.Rcode])
	}
	return resp, nil
}

// Validate asks the server for the SOA of the configured zone. Without a
// zone there is nothing to ask for and only the server address is checked.
func (p *Provider) Validate(ctx context.Context) error {
	if p.server == "" {
		return ErrMissingServer
	}
	if p.zone == "" {
		return nil
	}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(p.zone), dns.TypeSOA)
	if _, err := p.exchange(ctx, m); err != nil {
		return fmt.Errorf("rfc2136: SOA %s: %w", p.zone, err)
	}
	return nil
}

func (p *Provider) AddRecord(ctx context.Context, domain, recordType, name, value string, ttl int) error {
	if recordType == "TXT" && !strings.HasPrefix(value, `"`) {
		value = `"` + value + `"`
	}
	rr, err := dns.NewRR(fmt.Sprintf("%s %d IN %s %s", dns.Fqdn(name), ttl, recordType, value))
	if err != nil {
		return fmt.Errorf("rfc2136: build %s %s: %w", recordType, name, err)
	}

	m := new(dns.Msg)
	m.SetUpdate(p.zoneFor(domain))
	m.Insert([]dns.RR{rr})
	if _, err := p.exchange(ctx, m); err != nil {
		return fmt.Errorf("rfc2136: update %s %s: %w", recordType, name, err)
	}
	return nil
}

func (p *Provider) Help() string {
	return `Sends DNS UPDATE messages to the primary server of the zone.
  [provider.rfc2136]
  server         = ns1.example.com:53
  zone           = example.com            (optional, defaults to the domain)
  tsig_name      = autodiscover-key.      (optional)
  tsig_secret    = <base64 secret>        (optional)
  tsig_algorithm = hmac-sha256            (optional)`
}
