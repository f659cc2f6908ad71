package autodiscover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/optimode/autodiscover/cache"
	"github.com/optimode/autodiscover/check"
	"github.com/optimode/autodiscover/internal/logger"
	"github.com/optimode/autodiscover/internal/parse"
	"github.com/optimode/autodiscover/internal/probe"
	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// Validator is the main fluent builder struct.
// Instantiate with the New() function.
type Validator struct {
	dns     *check.DNSChecker
	http    *check.HTTPChecker
	auth    *check.AuthChecker
	creds   *plan.Credentials
	cache   *cache.Cache
	workers int
	now     func() time.Time
}

// New creates a Validator with real DNS and HTTP probes.
// Optionally overrides the default ProbeOptions; zero fields keep their defaults.
func New(opts ...ProbeOptions) *Validator {
	v := &Validator{workers: 1, now: time.Now}
	o := defaultProbeOptions()
	if len(opts) > 0 {
		o = mergeProbeOptions(opts[0], o)
	}

	resolver := probe.NewResolver(probe.DNSConfig{
		Nameservers: o.Nameservers,
		Timeout:     o.DNSTimeout,
		MaxAttempts: o.Retries,
		RetryDelay:  o.RetryDelay,
	})
	prober := probe.NewHTTPProber(probe.HTTPConfig{
		Timeout:     o.HTTPTimeout,
		MaxAttempts: o.Retries,
		RetryDelay:  o.RetryDelay,
		TLSConfig:   o.TLSConfig,
	})

	v.dns = check.NewDNSChecker(resolver)
	v.http = check.NewHTTPChecker(prober)
	v.auth = check.NewAuthChecker(prober)
	return v
}

func mergeProbeOptions(o, def ProbeOptions) ProbeOptions {
	if o.DNSTimeout <= 0 {
		o.DNSTimeout = def.DNSTimeout
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = def.HTTPTimeout
	}
	if o.Retries <= 0 {
		o.Retries = def.Retries
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = def.RetryDelay
	}
	return o
}

// WithCredentials enables the three authenticated checks.
// Both values must be non-empty, otherwise the block stays off.
func (v *Validator) WithCredentials(username, password string) *Validator {
	v.creds = &plan.Credentials{Username: username, Password: password}
	return v
}

// WithCache stores fresh results in c and serves them back according to Mode.
func (v *Validator) WithCache(c *cache.Cache) *Validator {
	v.cache = c
	return v
}

// WithConcurrency runs up to opts.Workers checks at once. Results are still
// recorded in plan order.
func (v *Validator) WithConcurrency(opts ConcurrencyOptions) *Validator {
	v.workers = max(opts.Workers, 1)
	return v
}

// WithLookup replaces the DNS probe, e.g. with a fake in tests.
func (v *Validator) WithLookup(fn check.LookupFunc) *Validator {
	v.dns = check.NewDNSCheckerWithLookup(fn)
	return v
}

// WithHTTPDo replaces the HTTP probe used by both the plain and the
// authenticated checks.
func (v *Validator) WithHTTPDo(fn check.DoFunc) *Validator {
	v.http = check.NewHTTPCheckerWithDo(fn)
	v.auth = check.NewAuthCheckerWithDo(fn)
	return v
}

// Run validates the autodiscovery setup for email. mailServer may be empty,
// in which case mail.<domain> is assumed.
//
// An invalid email or mail server is reported before anything is probed.
// In ModeCacheOnly nothing is probed at all and a missing or stale entry
// yields ErrCacheOnlyMiss. A run cut short by ctx returns the partial
// ledger together with the context error and is never cached.
func (v *Validator) Run(ctx context.Context, email, mailServer string, mode Mode) (Result, error) {
	log := logger.Named("validator")

	target, err := parse.NewTarget(email, mailServer)
	if err != nil {
		return Result{}, err
	}
	explicit := strings.TrimSpace(mailServer) != ""
	log.Info().Str("domain", target.Domain).Str("mail_server", target.MailServer).
		Stringer("mode", mode).Msg("validation started")

	switch mode {
	case ModeCacheOnly:
		return v.fromCache(ctx, target, explicit)
	case ModeCacheRefresh:
		if v.cache != nil {
			if err := v.cache.Invalidate(ctx, target.Domain); err != nil {
				log.Warn().Err(err).Str("domain", target.Domain).Msg("cache invalidate failed")
			}
		}
	default:
		if v.cache != nil {
			res, err := v.fromCache(ctx, target, explicit)
			switch {
			case err == nil && !v.creds.Empty() && !hasAuthBlock(res.Ledger):
				log.Info().Str("domain", target.Domain).Msg("cached result lacks the authenticated checks, running again")
			case err == nil:
				return res, nil
			case !errors.Is(err, cache.ErrMiss):
				log.Warn().Err(err).Str("domain", target.Domain).Msg("cache unusable, probing")
			}
		}
	}

	started := v.now()
	l := v.Check(ctx, target)
	res := Result{Target: target, Ledger: l, CheckedAt: started}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if v.cache != nil {
		if err := v.cache.Save(ctx, target, l); err != nil {
			log.Warn().Err(err).Str("domain", target.Domain).Msg("cache save failed")
		}
	}
	log.Info().Str("domain", target.Domain).Int("tests", l.Len()).
		Int("missing", l.Count(types.StatusMissing)).Msg("validation finished")
	return res, nil
}

// fromCache loads the cached result for target.Domain. An entry taken
// against another mail server counts as a miss when the caller named one.
func (v *Validator) fromCache(ctx context.Context, target types.Target, explicit bool) (Result, error) {
	if v.cache == nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCacheOnlyMiss, cache.ErrMiss)
	}
	l, entry, err := v.cache.Load(ctx, target.Domain)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCacheOnlyMiss, err)
	}
	if entry.MailServer != "" && entry.MailServer != target.MailServer {
		if explicit {
			return Result{}, fmt.Errorf("%w: %w: cached result is for mail server %s",
				ErrCacheOnlyMiss, cache.ErrMiss, entry.MailServer)
		}
		logger.Named("validator").Warn().Str("cached", entry.MailServer).
			Str("requested", target.MailServer).Msg("cached result was taken against another mail server")
		target.MailServer = entry.MailServer
	}
	return Result{Target: target, Ledger: l, FromCache: true, CheckedAt: entry.CreatedAt()}, nil
}

func hasAuthBlock(l *types.Ledger) bool {
	_, ok := l.Get(plan.NameAuthActiveSync)
	return ok
}

// Check runs the whole plan for target and returns the ledger. Checks run
// on up to Workers goroutines but are recorded in plan order.
func (v *Validator) Check(ctx context.Context, target types.Target) *types.Ledger {
	specs := plan.Build(target, v.creds)
	l := types.NewLedger()

	if v.workers <= 1 {
		for _, s := range specs {
			if ctx.Err() != nil {
				break
			}
			l.Record(v.checkOne(ctx, s))
		}
		return l
	}

	type indexed struct {
		idx     int
		outcome types.Outcome
	}
	results := make(chan indexed, len(specs))
	done := make(chan struct{})

	// single writer: outcomes are committed strictly in plan order
	go func() {
		defer close(done)
		pending := make(map[int]types.Outcome, len(specs))
		next := 0
		for r := range results {
			pending[r.idx] = r.outcome
			for o, ok := pending[next]; ok; o, ok = pending[next] {
				l.Record(o)
				delete(pending, next)
				next++
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(v.workers)
	for i, s := range specs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results <- indexed{idx: i, outcome: v.checkOne(ctx, s)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done
	return l
}

func (v *Validator) checkOne(ctx context.Context, s plan.Spec) types.Outcome {
	var o types.Outcome
	switch {
	case s.Kind.IsDNS():
		o = v.dns.Check(ctx, s)
	case s.Kind == plan.KindHTTP:
		o = v.http.Check(ctx, s)
	case s.Kind == plan.KindAuthHTTP:
		o = v.auth.Check(ctx, s)
	default:
		o = types.Outcome{Name: s.Name, Status: types.StatusNeedsReview, Detail: "unknown check kind " + string(s.Kind)}
	}
	logger.Named("validator").Debug().Str("test", o.Name).Stringer("status", o.Status).
		Str("detail", o.Detail).Msg("check done")
	return o
}
