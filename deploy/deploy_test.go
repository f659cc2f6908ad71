package deploy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/autodiscover/deploy"
	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

type call struct {
	domain, recordType, name, value string
	ttl                             int
}

type fakeProvider struct {
	detect      bool
	validateErr error
	failNames   map[string]bool
	calls       []call
}

func (f *fakeProvider) Name() string                   { return "fake" }
func (f *fakeProvider) Detect() bool                   { return f.detect }
func (f *fakeProvider) Validate(context.Context) error { return f.validateErr }
func (f *fakeProvider) Help() string                   { return "fake provider" }

func (f *fakeProvider) AddRecord(_ context.Context, domain, recordType, name, value string, ttl int) error {
	f.calls = append(f.calls, call{domain, recordType, name, value, ttl})
	if f.failNames[name] {
		return errors.New("api rejected record")
	}
	return nil
}

var target = types.Target{Email: "user@example.com", Domain: "example.com", MailServer: "mail.example.com"}

func noDNSLedger() *types.Ledger {
	l := types.NewLedger()
	for _, s := range plan.Build(target, &plan.Credentials{Username: "u", Password: "p"}) {
		status := types.StatusConfigured
		if s.Kind.IsDNS() || s.Kind == plan.KindAuthHTTP {
			status = types.StatusMissing
		}
		l.Record(types.Outcome{Name: s.Name, Status: status})
	}
	return l
}

func TestDeploy_AllSucceed(t *testing.T) {
	p := &fakeProvider{detect: true}
	res, err := deploy.Deploy(context.Background(), p, "example.com", "mail.example.com", noDNSLedger())
	require.NoError(t, err)
	assert.Len(t, res.Attempted, 8)
	assert.Equal(t, 8, res.Succeeded())
	require.Len(t, p.calls, 8, "authenticated MISSING tests have no record")
	assert.Equal(t, call{"example.com", "SRV", "_imaps._tcp.example.com", "10 0 993 mail.example.com.", plan.DefaultTTL}, p.calls[0])
	assert.Equal(t, call{"example.com", "TXT", "_caldavs._tcp.example.com", "path=/service/dav/home/", plan.DefaultTTL}, p.calls[5])
}

func TestDeploy_PartialFailureAttemptsAll(t *testing.T) {
	p := &fakeProvider{detect: true, failNames: map[string]bool{
		"_submission._tcp.example.com": true,
		"autodiscover.example.com":     true,
	}}
	res, err := deploy.Deploy(context.Background(), p, "example.com", "mail.example.com", noDNSLedger())
	assert.ErrorIs(t, err, deploy.ErrDeployFailed)
	assert.Contains(t, err.Error(), "2 of 8")
	assert.Len(t, p.calls, 8, "no short-circuit")
	require.Len(t, res.Failed, 2)
	assert.Equal(t, 6, res.Succeeded())
	assert.Equal(t, "CNAME", res.Failed[1].Record.Type)
	assert.EqualError(t, res.Failed[1], "CNAME autodiscover.example.com: api rejected record")
}

func TestDeploy_NothingMissingIsNoop(t *testing.T) {
	l := types.NewLedger()
	l.Record(types.Outcome{Name: plan.NameSRVIMAPS, Status: types.StatusConfigured})
	l.Record(types.Outcome{Name: plan.NameTXTCalDAVS, Status: types.StatusNeedsReview})
	l.Record(types.Outcome{Name: plan.NameHTTPDAV, Status: types.StatusMissing})

	p := &fakeProvider{}
	res, err := deploy.Deploy(context.Background(), p, "example.com", "mail.example.com", l)
	require.NoError(t, err)
	assert.Empty(t, res.Attempted)
	assert.Empty(t, p.calls)
}

func TestDeploy_ProviderUnavailable(t *testing.T) {
	_, err := deploy.Deploy(context.Background(), &fakeProvider{}, "example.com", "mail.example.com", noDNSLedger())
	assert.ErrorIs(t, err, deploy.ErrProviderUnavailable)

	p := &fakeProvider{detect: true, validateErr: errors.New("invalid token")}
	_, err = deploy.Deploy(context.Background(), p, "example.com", "mail.example.com", noDNSLedger())
	assert.ErrorIs(t, err, deploy.ErrProviderUnavailable)
	assert.Empty(t, p.calls)
}

func TestRegistry(t *testing.T) {
	var got map[string]string
	deploy.Register("registry-test", func(cfg map[string]string) (deploy.Provider, error) {
		got = cfg
		return &fakeProvider{}, nil
	})
	assert.Contains(t, deploy.Names(), "registry-test")
	assert.Panics(t, func() {
		deploy.Register("registry-test", func(map[string]string) (deploy.Provider, error) { return nil, nil })
	})

	p, err := deploy.Build("registry-test", nil)
	require.NoError(t, err)
	assert.Equal(t, "fake", p.Name())
	assert.NotNil(t, got, "nil config is replaced by an empty map")

	_, err = deploy.Build("nope", nil)
	assert.ErrorIs(t, err, deploy.ErrUnknownProvider)
}
