// Package probe provides the network primitives used by the checkers:
// a DNS record lookup and an HTTP request, each with its own timeout and a
// bounded number of attempts separated by a fixed delay.
//
// Neither primitive returns an error for "nothing there". A lookup that
// finds no record, or that keeps failing until it gives up, yields an
// empty answer; an HTTP request only fails when no response was received.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/miekg/dns"

	"github.com/optimode/autodiscover/internal/logger"
)

// DNSConfig configures the resolver.
type DNSConfig struct {
	// Nameservers to query ("host:port"). Default: /etc/resolv.conf, then 8.8.8.8 and 1.1.1.1.
	Nameservers []string
	// Timeout bounds a single query. Default: 10s
	Timeout time.Duration
	// MaxAttempts is the number of tries before giving up. Default: 3
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts. Zero retries immediately.
	RetryDelay time.Duration
}

// Resolver looks up DNS records with miekg/dns.
type Resolver struct {
	cfg    DNSConfig
	client *dns.Client
}

// NewResolver creates a resolver, filling unset config fields with defaults.
func NewResolver(cfg DNSConfig) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if len(cfg.Nameservers) == 0 {
		cfg.Nameservers = systemNameservers()
	} else {
		servers := make([]string, len(cfg.Nameservers))
		for i, s := range cfg.Nameservers {
			servers[i] = withPort(strings.TrimSpace(s), "53")
		}
		cfg.Nameservers = servers
	}
	return &Resolver{
		cfg:    cfg,
		client: &dns.Client{Timeout: cfg.Timeout},
	}
}

func systemNameservers() []string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	out := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		out = append(out, withPort(s, conf.Port))
	}
	return out
}

func withPort(server, port string) string {
	if port == "" {
		port = "53"
	}
	if strings.HasPrefix(server, "[") {
		if strings.Contains(server, "]:") {
			return server
		}
		return server + ":" + port
	}
	if strings.Count(server, ":") == 1 {
		return server
	}
	if strings.Contains(server, ":") {
		return "[" + server + "]:" + port
	}
	return server + ":" + port
}

// Config returns the effective configuration.
func (r *Resolver) Config() DNSConfig { return r.cfg }

// errRcode marks a response that should be retried (SERVFAIL, REFUSED, ...).
var errRcode = errors.New("dns: unusable response code")

// Lookup resolves name for the record type qtype (dns.TypeSRV, dns.TypeTXT,
// dns.TypeCNAME, ...) and returns the answers in presentation form:
//
//	SRV   "10 0 993 mail.example.com."
//	TXT   "path=/service/dav/home/"   (character strings joined)
//	CNAME "mail.example.com."
//
// NXDOMAIN and NOERROR/NODATA are clean empty answers and are not retried.
// Transport failures are retried up to MaxAttempts, then yield an empty answer.
func (r *Resolver) Lookup(ctx context.Context, qtype uint16, name string) []string {
	log := logger.Named("probe.dns")

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	attempt := 0
	op := func() ([]string, error) {
		attempt++
		resp, err := r.exchange(ctx, m)
		if err != nil {
			return nil, err
		}
		switch resp.Rcode {
		case dns.RcodeSuccess, dns.RcodeNameError:
			return extract(resp.Answer, qtype), nil
		default:
			return nil, fmt.Errorf("%w: %s", errRcode, dns.RcodeToString[resp.Rcode])
		}
	}

	answers, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.cfg.RetryDelay)),
		backoff.WithMaxTries(uint(r.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("name", name).Str("type", dns.TypeToString[qtype]).
				Int("attempt", attempt).Dur("retry_in", next).Msg("dns lookup failed, retrying")
		}),
	)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Str("type", dns.TypeToString[qtype]).
			Int("attempts", attempt).Msg("dns lookup gave up")
		return nil
	}
	return answers
}

// exchange tries each nameserver in turn and returns the first response.
func (r *Resolver) exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	var lastErr error
	for _, server := range r.cfg.Nameservers {
		qctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		resp, _, err := r.client.ExchangeContext(qctx, m, server)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("query %s: %w", server, err)
			continue
		}
		if resp.Truncated {
			tcp := &dns.Client{Net: "tcp", Timeout: r.cfg.Timeout}
			qctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
			resp, _, err = tcp.ExchangeContext(qctx, m, server)
			cancel()
			if err != nil {
				lastErr = fmt.Errorf("query %s over tcp: %w", server, err)
				continue
			}
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("dns: no nameservers configured")
	}
	return nil, lastErr
}

func extract(rrs []dns.RR, qtype uint16) []string {
	var out []string
	for _, rr := range rrs {
		switch v := rr.(type) {
		case *dns.SRV:
			if qtype == dns.TypeSRV {
				out = append(out, fmt.Sprintf("%d %d %d %s", v.Priority, v.Weight, v.Port, v.Target))
			}
		case *dns.TXT:
			if qtype == dns.TypeTXT {
				out = append(out, strings.Join(v.Txt, ""))
			}
		case *dns.CNAME:
			if qtype == dns.TypeCNAME {
				out = append(out, v.Target)
			}
		case *dns.A:
			if qtype == dns.TypeA {
				out = append(out, v.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				out = append(out, v.AAAA.String())
			}
		}
	}
	return out
}
