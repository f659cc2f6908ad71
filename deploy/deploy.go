package deploy

import (
	"context"
	"fmt"

	"github.com/optimode/autodiscover/internal/logger"
	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// RecordError is a record the provider refused.
type RecordError struct {
	Record plan.Record
	Err    error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Record.Type, e.Record.Name, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Result is the outcome of a deployment.
type Result struct {
	Attempted []plan.Record
	Failed    []RecordError
}

// Succeeded returns how many records were added.
func (r Result) Succeeded() int { return len(r.Attempted) - len(r.Failed) }

// Deploy adds the record of every MISSING test in l through p. A failing
// record does not stop the others; the error wraps ErrDeployFailed when any
// failed. With nothing missing Deploy does nothing and succeeds without
// contacting the provider.
func Deploy(ctx context.Context, p Provider, domain, mailServer string, l *types.Ledger) (Result, error) {
	log := logger.Named("deploy").With().Str("provider", p.Name()).Str("domain", domain).Logger()

	records := plan.MissingRecords(domain, mailServer, l)
	if len(records) == 0 {
		log.Info().Msg("no missing records, nothing to deploy")
		return Result{}, nil
	}

	if !p.Detect() {
		return Result{}, fmt.Errorf("%w: %s is not configured", ErrProviderUnavailable, p.Name())
	}
	if err := p.Validate(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, p.Name(), err)
	}

	res := Result{Attempted: records}
	for _, r := range records {
		if err := p.AddRecord(ctx, domain, r.Type, r.Name, r.Value, plan.DefaultTTL); err != nil {
			log.Error().Err(err).Str("type", r.Type).Str("name", r.Name).Msg("record not added")
			res.Failed = append(res.Failed, RecordError{Record: r, Err: err})
			continue
		}
		log.Info().Str("type", r.Type).Str("name", r.Name).Str("value", r.Value).Msg("record added")
	}

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%w: %d of %d", ErrDeployFailed, len(res.Failed), len(records))
	}
	return res, nil
}
