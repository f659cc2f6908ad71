// Package gcloud adds records to a Google Cloud DNS managed zone by running
// the gcloud command line tool.
package gcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/optimode/autodiscover/deploy"
)

// Name is the registry name.
const Name = "gcloud"

// ErrMissingZone is returned when no managed zone is configured.
var ErrMissingZone = errors.New("gcloud: managed_zone is not set")

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Provider drives the gcloud CLI.
type Provider struct {
	bin     string
	zone    string
	project string
	run     Runner
}

// Option configures a Provider.
type Option func(*Provider)

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(p *Provider) { p.run = r }
}

// New creates a provider from managed_zone, project (optional) and
// binary (default "gcloud").
func New(config map[string]string, opts ...Option) *Provider {
	p := &Provider{
		bin:     strings.TrimSpace(config["binary"]),
		zone:    strings.TrimSpace(config["managed_zone"]),
		project: strings.TrimSpace(config["project"]),
		run:     execRunner,
	}
	if p.bin == "" {
		p.bin = "gcloud"
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Build is the registry builder.
func Build(config map[string]string) (deploy.Provider, error) {
	return New(config), nil
}

func init() {
	deploy.Register(Name, Build)
}

func (p *Provider) Name() string { return Name }

// Detect reports whether the binary is on PATH and a zone is configured.
func (p *Provider) Detect() bool {
	if p.zone == "" {
		return false
	}
	_, err := exec.LookPath(p.bin)
	return err == nil
}

// Validate checks that gcloud has an active account.
func (p *Provider) Validate(ctx context.Context) error {
	if p.zone == "" {
		return ErrMissingZone
	}
	out, err := p.run(ctx, p.bin, "auth", "list", "--filter=status:ACTIVE", "--format=value(account)")
	if err != nil {
		return fmt.Errorf("gcloud: auth list: %w: %s", err, bytes.TrimSpace(out))
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return errors.New("gcloud: no active account, run 'gcloud auth login'")
	}
	return nil
}

func (p *Provider) AddRecord(ctx context.Context, _, recordType, name, value string, ttl int) error {
	if p.zone == "" {
		return ErrMissingZone
	}
	if recordType == "TXT" && !strings.HasPrefix(value, `"`) {
		value = `"` + value + `"`
	}
	args := []string{
		"dns", "record-sets", "create", strings.TrimSuffix(name, ".") + ".",
		"--zone=" + p.zone,
		"--type=" + recordType,
		"--ttl=" + strconv.Itoa(ttl),
		"--rrdatas=" + value,
	}
	if p.project != "" {
		args = append(args, "--project="+p.project)
	}
	out, err := p.run(ctx, p.bin, args...)
	if err != nil {
		return fmt.Errorf("gcloud: create %s %s: %w: %s", recordType, name, err, bytes.TrimSpace(out))
	}
	return nil
}

func (p *Provider) Help() string {
	return `Runs 'gcloud dns record-sets create' against a Cloud DNS managed zone.
Requires the gcloud CLI on PATH and an active account (gcloud auth login).
  [provider.gcloud]
  managed_zone = example-com
  project      = my-project   (optional)`
}
