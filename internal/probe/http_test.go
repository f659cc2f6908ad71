package probe_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/autodiscover/internal/probe"
)

func trustingProber(srv *httptest.Server) *probe.HTTPProber {
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return probe.NewHTTPProber(probe.HTTPConfig{
		Timeout:     2 * time.Second,
		MaxAttempts: 2,
		TLSConfig:   &tls.Config{RootCAs: pool},
	})
}

func TestHTTPProber_StatusIsFinal(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"ok", http.StatusOK},
		{"unauthorized", http.StatusUnauthorized},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			resp, err := trustingProber(srv).Do(context.Background(), probe.Request{
				Method: http.MethodHead,
				URL:    srv.URL + "/Autodiscover/Autodiscover.xml",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestHTTPProber_SendsMethodHeadersBody(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPFIND", r.Method)
		assert.Equal(t, "0", r.Header.Get("Depth"))
		assert.Equal(t, "Basic dTpw", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(b), "propfind")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, `<d:multistatus xmlns:d="DAV:"/>`)
	}))
	defer srv.Close()

	resp, err := trustingProber(srv).Do(context.Background(), probe.Request{
		Method:  "PROPFIND",
		URL:     srv.URL + "/dav/user@example.com/",
		Headers: map[string]string{"Depth": "0", "Authorization": "Basic dTpw"},
		Body:    "<propfind/>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	assert.Contains(t, resp.Body, "multistatus")
}

func TestHTTPProber_Redirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/caldav", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dav/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/dav/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()
	p := trustingProber(srv)
	ctx := context.Background()

	resp, err := p.Do(ctx, probe.Request{Method: http.MethodHead, URL: srv.URL + "/.well-known/caldav"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode, "redirect not followed")

	resp, err = p.Do(ctx, probe.Request{Method: http.MethodHead, URL: srv.URL + "/.well-known/caldav", FollowRedirects: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = p.Do(ctx, probe.Request{Method: http.MethodHead, URL: srv.URL + "/loop", FollowRedirects: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "redirect chain is bounded")
}

func TestHTTPProber_UntrustedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := probe.NewHTTPProber(probe.HTTPConfig{Timeout: time.Second, MaxAttempts: 2})
	resp, err := p.Do(context.Background(), probe.Request{Method: http.MethodHead, URL: srv.URL})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, probe.ErrNoResponse)
}

func TestHTTPProber_RejectsTLS11(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	srv.TLS = &tls.Config{MinVersion: tls.VersionTLS10, MaxVersion: tls.VersionTLS11}
	srv.StartTLS()
	defer srv.Close()

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	p := probe.NewHTTPProber(probe.HTTPConfig{
		Timeout:     time.Second,
		MaxAttempts: 1,
		// a caller asking for less than TLS 1.2 still gets 1.2
		TLSConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS10},
	})
	resp, err := p.Do(context.Background(), probe.Request{Method: http.MethodGet, URL: srv.URL})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, probe.ErrNoResponse)
	assert.Zero(t, hits.Load())
}

func TestHTTPProber_ConnectionRefused(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := probe.NewHTTPProber(probe.HTTPConfig{Timeout: time.Second, MaxAttempts: 3})
	_, err := p.Do(context.Background(), probe.Request{Method: http.MethodGet, URL: url})
	assert.ErrorIs(t, err, probe.ErrNoResponse)
}

func TestHTTPProber_MalformedURL(t *testing.T) {
	p := probe.NewHTTPProber(probe.HTTPConfig{MaxAttempts: 3})
	_, err := p.Do(context.Background(), probe.Request{Method: "BAD METHOD", URL: "https://example.com"})
	assert.ErrorIs(t, err, probe.ErrNoResponse)
}
