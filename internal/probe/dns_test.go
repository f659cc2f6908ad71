package probe_test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/autodiscover/internal/probe"
)

// startDNS runs an in-process UDP nameserver and returns its address.
func startDNS(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func zoneHandler(records map[uint16]map[string][]string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		byName, ok := records[q.Qtype]
		if !ok {
			m.Rcode = dns.RcodeNameError
			_ = w.WriteMsg(m)
			return
		}
		lines, ok := byName[q.Name]
		if !ok {
			m.Rcode = dns.RcodeNameError
			_ = w.WriteMsg(m)
			return
		}
		for _, l := range lines {
			rr, err := dns.NewRR(l)
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	}
}

func newResolver(addr string) *probe.Resolver {
	return probe.NewResolver(probe.DNSConfig{
		Nameservers: []string{addr},
		Timeout:     time.Second,
		MaxAttempts: 3,
	})
}

func TestResolver_Lookup(t *testing.T) {
	addr := startDNS(t, zoneHandler(map[uint16]map[string][]string{
		dns.TypeSRV: {
			"_imaps._tcp.example.com.": {"_imaps._tcp.example.com. 3600 IN SRV 10 0 993 mail.example.com."},
		},
		dns.TypeTXT: {
			"_caldavs._tcp.example.com.": {`_caldavs._tcp.example.com. 3600 IN TXT "path=/service/" "dav/home/"`},
		},
		dns.TypeCNAME: {
			"autodiscover.example.com.": {"autodiscover.example.com. 3600 IN CNAME mail.example.com."},
		},
	}))
	r := newResolver(addr)
	ctx := context.Background()

	tests := []struct {
		name  string
		qtype uint16
		host  string
		want  []string
	}{
		{"srv", dns.TypeSRV, "_imaps._tcp.example.com", []string{"10 0 993 mail.example.com."}},
		{"txt joined", dns.TypeTXT, "_caldavs._tcp.example.com", []string{"path=/service/dav/home/"}},
		{"cname", dns.TypeCNAME, "autodiscover.example.com.", []string{"mail.example.com."}},
		{"nxdomain is empty", dns.TypeSRV, "_carddavs._tcp.example.com", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Lookup(ctx, tt.qtype, tt.host))
		})
	}
}

func TestResolver_NXDomainNotRetried(t *testing.T) {
	var calls atomic.Int32
	addr := startDNS(t, func(w dns.ResponseWriter, r *dns.Msg) {
		calls.Add(1)
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeNameError)
		_ = w.WriteMsg(m)
	})

	got := newResolver(addr).Lookup(context.Background(), dns.TypeSRV, "_imaps._tcp.example.com")
	assert.Empty(t, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolver_ServfailGivesUpEmpty(t *testing.T) {
	var calls atomic.Int32
	addr := startDNS(t, func(w dns.ResponseWriter, r *dns.Msg) {
		calls.Add(1)
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeServerFailure)
		_ = w.WriteMsg(m)
	})

	got := newResolver(addr).Lookup(context.Background(), dns.TypeTXT, "_caldavs._tcp.example.com")
	assert.Empty(t, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolver_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	addr := startDNS(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		if calls.Add(1) == 1 {
			m.SetRcode(r, dns.RcodeServerFailure)
			_ = w.WriteMsg(m)
			return
		}
		m.SetReply(r)
		rr, _ := dns.NewRR("autodiscover.example.com. 60 IN CNAME mail.example.com.")
		m.Answer = append(m.Answer, rr)
		_ = w.WriteMsg(m)
	})

	got := newResolver(addr).Lookup(context.Background(), dns.TypeCNAME, "autodiscover.example.com")
	assert.Equal(t, []string{"mail.example.com."}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolver_UnreachableServer(t *testing.T) {
	r := probe.NewResolver(probe.DNSConfig{
		Nameservers: []string{"127.0.0.1:1"},
		Timeout:     200 * time.Millisecond,
		MaxAttempts: 2,
	})
	assert.Empty(t, r.Lookup(context.Background(), dns.TypeSRV, "_imaps._tcp.example.com"))
}

func TestNewResolver_Defaults(t *testing.T) {
	r := probe.NewResolver(probe.DNSConfig{Nameservers: []string{
		"192.0.2.1", "192.0.2.2:5353", "2001:db8::2", "[2001:db8::1]:5353", "[::1]",
	}})
	cfg := r.Config()
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, []string{
		"192.0.2.1:53", "192.0.2.2:5353", "[2001:db8::2]:53", "[2001:db8::1]:5353", "[::1]:53",
	}, cfg.Nameservers)
}
