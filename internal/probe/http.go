package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/optimode/autodiscover/internal/logger"
)

// maxBodyBytes caps how much of a response body is kept for inspection.
const maxBodyBytes = 1 << 20

// HTTPConfig configures the HTTP prober.
type HTTPConfig struct {
	// Timeout bounds a single request including redirects. Default: 30s
	Timeout time.Duration
	// MaxAttempts is the number of tries on connection failure. Default: 3
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts. Zero retries immediately.
	RetryDelay time.Duration
	// MaxRedirects bounds redirect following. Default: 5
	MaxRedirects int
	// TLSConfig is the base TLS configuration. MinVersion is always raised to TLS 1.2.
	TLSConfig *tls.Config
	// UserAgent sent with every request.
	UserAgent string
}

// Request is one HTTP probe.
type Request struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	FollowRedirects bool
}

// Response is what came back from the server.
type Response struct {
	StatusCode int
	Status     string
	Body       string
}

// ErrNoResponse is returned when every attempt failed before a response arrived.
var ErrNoResponse = errors.New("probe: no http response")

// HTTPProber issues HTTP probes.
type HTTPProber struct {
	cfg      HTTPConfig
	follow   *http.Client
	noFollow *http.Client
}

// NewHTTPProber creates a prober, filling unset config fields with defaults.
func NewHTTPProber(cfg HTTPConfig) *HTTPProber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "autodiscover-check"
	}

	tlsConfig := &tls.Config{}
	if cfg.TLSConfig != nil {
		tlsConfig = cfg.TLSConfig.Clone()
	}
	if tlsConfig.MinVersion < tls.VersionTLS12 {
		tlsConfig.MinVersion = tls.VersionTLS12
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	maxRedirects := cfg.MaxRedirects
	return &HTTPProber{
		cfg: cfg,
		follow: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		noFollow: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do performs req. Any received status, 404 included, is a final answer.
// Connection-level failures (refused, timeout, TLS handshake or certificate
// errors) are retried; when attempts run out the error wraps ErrNoResponse.
func (p *HTTPProber) Do(ctx context.Context, req Request) (*Response, error) {
	log := logger.Named("probe.http")

	client := p.noFollow
	if req.FollowRedirects {
		client = p.follow
	}

	attempt := 0
	op := func() (*Response, error) {
		attempt++
		return p.once(ctx, client, req)
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.cfg.RetryDelay)),
		backoff.WithMaxTries(uint(p.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("method", req.Method).Str("url", req.URL).
				Int("attempt", attempt).Dur("retry_in", next).Msg("http probe failed, retrying")
		}),
	)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Str("url", req.URL).
			Int("attempts", attempt).Msg("http probe gave up")
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNoResponse, req.Method, req.URL, err)
	}
	return resp, nil
}

func (p *HTTPProber) once(ctx context.Context, client *http.Client, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		// a malformed request will not improve on retry
		return nil, backoff.Permanent(err)
	}
	hreq.Header.Set("User-Agent", p.cfg.UserAgent)
	for k, v := range req.Headers {
		hreq.Header.Set(k, v)
	}

	hresp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = hresp.Body.Close() }()

	// A truncated or failed body read still leaves a usable status code.
	b, _ := io.ReadAll(io.LimitReader(hresp.Body, maxBodyBytes))
	return &Response{
		StatusCode: hresp.StatusCode,
		Status:     hresp.Status,
		Body:       string(b),
	}, nil
}
