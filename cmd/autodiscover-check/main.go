// Command autodiscover-check validates the DNS records and HTTP endpoints
// that mail clients use to autodiscover a Zimbra server, prints a report and
// optionally creates the missing records through a DNS provider.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/optimode/autodiscover"
	"github.com/optimode/autodiscover/cache"
	"github.com/optimode/autodiscover/deploy"
	_ "github.com/optimode/autodiscover/deploy/cloudflare"
	_ "github.com/optimode/autodiscover/deploy/gcloud"
	_ "github.com/optimode/autodiscover/deploy/rfc2136"
	"github.com/optimode/autodiscover/internal/config"
	"github.com/optimode/autodiscover/internal/logger"
	"github.com/optimode/autodiscover/internal/parse"
	"github.com/optimode/autodiscover/internal/version"
	"github.com/optimode/autodiscover/report"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	quiet          bool
	json           bool
	configPath     string
	generateZone   bool
	zoneOnly       bool
	exampleConfig  bool
	cacheOnly      bool
	cacheRefresh   bool
	deploy         string
	listProviders  bool
	skipAuthPrompt bool
	version        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("autodiscover-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: autodiscover-check [flags] <email> [mail-server]")
		fs.PrintDefaults()
	}

	fs.BoolVar(&o.quiet, "quiet", false, "only print the verdict line")
	fs.BoolVar(&o.quiet, "q", false, "shorthand for -quiet")
	fs.BoolVar(&o.json, "json", false, "print the JSON report")
	fs.StringVar(&o.configPath, "config", "", "INI config `file`")
	fs.BoolVar(&o.generateZone, "generate-zone", false, "after validation, also print the zone file (not with -quiet or -json)")
	fs.BoolVar(&o.zoneOnly, "zone-only", false, "print the zone file and exit without probing")
	fs.BoolVar(&o.exampleConfig, "example-config", false, "print an example config file and exit")
	fs.BoolVar(&o.cacheOnly, "cache-only", false, "load results from the cache; fail if absent or stale")
	fs.BoolVar(&o.cacheRefresh, "cache-refresh", false, "ignore cached results, probe and save again")
	fs.StringVar(&o.deploy, "deploy", "", "create MISSING records through `provider`")
	fs.BoolVar(&o.listProviders, "list-providers", false, "list deployment providers and exit")
	fs.BoolVar(&o.skipAuthPrompt, "skip-auth-prompt", false, "never prompt for credentials")
	fs.BoolVar(&o.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	if o.cacheOnly && o.cacheRefresh {
		return o, nil, errors.New("-cache-only and -cache-refresh are mutually exclusive")
	}
	if o.quiet && o.json {
		return o, nil, errors.New("-quiet and -json are mutually exclusive")
	}
	if o.generateZone && (o.quiet || o.json) {
		return o, nil, errors.New("-generate-zone only applies to the full report; drop -quiet or -json")
	}
	if fs.NArg() > 2 {
		return o, nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[2:])
	}
	return o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	}

	switch {
	case o.version:
		fmt.Fprintln(stdout, version.String())
		return exitOK
	case o.exampleConfig:
		fmt.Fprint(stdout, config.ExampleINI)
		return exitOK
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	}

	level := cfg.Log.Level
	if level == "" {
		level = "info"
		if o.quiet || o.json {
			level = "warn"
		}
	}
	logger.Init(logger.Options{Level: level, Format: cfg.Log.Format, Component: "autodiscover-check"})
	log := logger.Get().With().Str("run_id", uuid.NewString()).Logger()

	if o.listProviders {
		fmt.Fprintln(stdout, "Deployment providers:")
		if err := report.WriteProviders(stdout, providerInfos(cfg)); err != nil {
			return exitFailure
		}
		return exitOK
	}

	email, mailServer := cfg.Target.Email, cfg.Target.MailServer
	if len(rest) > 0 {
		email = rest[0]
	}
	if len(rest) > 1 {
		mailServer = rest[1]
	}
	if email == "" {
		fmt.Fprintln(stderr, "error: an email address is required")
		fmt.Fprintln(stderr, "Usage: autodiscover-check [flags] <email> [mail-server]")
		return exitUsage
	}

	if o.zoneOnly {
		t, err := parse.NewTarget(email, mailServer)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitUsage
		}
		if err := report.WriteZone(stdout, t.Domain, t.MailServer); err != nil {
			return exitFailure
		}
		return exitOK
	}

	var provider deploy.Provider
	if o.deploy != "" {
		provider, err = deploy.Build(o.deploy, cfg.Provider(o.deploy))
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			if errors.Is(err, deploy.ErrUnknownProvider) {
				fmt.Fprintln(stderr, "known providers:", strings.Join(deploy.Names(), ", "))
				return exitUsage
			}
			return exitFailure
		}
	}

	mode := autodiscover.ModeDefault
	switch {
	case o.cacheOnly:
		mode = autodiscover.ModeCacheOnly
	case o.cacheRefresh:
		mode = autodiscover.ModeCacheRefresh
	}

	c, closeCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		if mode == autodiscover.ModeCacheOnly {
			fmt.Fprintln(stderr, "error:", err)
			return exitFailure
		}
		log.Warn().Err(err).Msg("cache unavailable, continuing without it")
	}
	defer closeCache()

	v := autodiscover.New(autodiscover.ProbeOptions{
		DNSTimeout:  cfg.Probe.DNSTimeout,
		HTTPTimeout: cfg.Probe.HTTPTimeout,
		Retries:     cfg.Probe.Retries,
		RetryDelay:  cfg.Probe.RetryDelay,
		Nameservers: cfg.Probe.Nameservers,
	}).WithConcurrency(autodiscover.ConcurrencyOptions{Workers: cfg.Probe.Concurrency})
	if c != nil {
		v = v.WithCache(c)
	}

	username, password := cfg.Auth.Username, cfg.Auth.Password
	if password == "" && mode != autodiscover.ModeCacheOnly && !o.skipAuthPrompt && !o.quiet && !o.json {
		username, password = promptCredentials(stderr, username, email)
	}
	if username != "" && password != "" {
		v = v.WithCredentials(username, password)
	}

	res, err := v.Run(ctx, email, mailServer, mode)
	switch {
	case errors.Is(err, autodiscover.ErrInvalidEmail), errors.Is(err, autodiscover.ErrInvalidMailServer):
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	case errors.Is(err, autodiscover.ErrCacheOnlyMiss):
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	case err != nil:
		log.Error().Err(err).Msg("validation interrupted")
		return exitFailure
	}

	var ready []report.ProviderInfo
	if provider == nil && !o.quiet && !o.json {
		for _, pi := range providerInfos(cfg) {
			if pi.Available {
				ready = append(ready, pi)
			}
		}
	}
	if err := writeReport(stdout, o, res, ready); err != nil {
		log.Error().Err(err).Msg("writing report failed")
		return exitFailure
	}

	if provider != nil {
		// keep stdout a single JSON document
		out := stdout
		if o.json {
			out = stderr
		}
		return runDeploy(ctx, out, stderr, provider, res)
	}
	return exitOK
}

// writeReport prints the report in the selected format. In the human format,
// providers that are ready to use are suggested for the missing records.
func writeReport(w io.Writer, o options, res autodiscover.Result, providers []report.ProviderInfo) error {
	switch {
	case o.json:
		return report.WriteJSON(w, res.Target, res.Ledger, time.Now())
	case o.quiet:
		return report.WriteQuiet(w, res.Target, res.Ledger)
	}

	if res.FromCache {
		fmt.Fprintf(w, "Cached result from %s\n\n", res.CheckedAt.Local().Format(time.DateTime))
	}
	if err := report.WriteHuman(w, res.Target, res.Ledger); err != nil {
		return err
	}
	if len(providers) > 0 {
		if err := report.WriteDeployInstructions(w, res.Target.Domain, res.Target.MailServer, res.Ledger, providers); err != nil {
			return err
		}
	} else if err := report.WriteActionSummary(w, res.Target.Domain, res.Target.MailServer, res.Ledger); err != nil {
		return err
	}
	if o.generateZone {
		fmt.Fprintln(w)
		return report.WriteZone(w, res.Target.Domain, res.Target.MailServer)
	}
	return nil
}

func runDeploy(ctx context.Context, stdout, stderr io.Writer, p deploy.Provider, res autodiscover.Result) int {
	out, err := deploy.Deploy(ctx, p, res.Target.Domain, res.Target.MailServer, res.Ledger)
	if errors.Is(err, deploy.ErrProviderUnavailable) {
		fmt.Fprintln(stderr, "error:", err)
		fmt.Fprintln(stderr, p.Help())
		return exitFailure
	}

	if len(out.Attempted) == 0 {
		fmt.Fprintln(stdout, "\nNo DNS records are missing; nothing to deploy.")
		return exitOK
	}
	fmt.Fprintf(stdout, "\nDeployed %d of %d records via %s\n", out.Succeeded(), len(out.Attempted), p.Name())
	for _, f := range out.Failed {
		fmt.Fprintf(stdout, "  failed: %s\n", f.Error())
	}
	if err != nil {
		return exitFailure
	}
	return exitOK
}

func providerInfos(cfg *config.Config) []report.ProviderInfo {
	var out []report.ProviderInfo
	for _, name := range deploy.Names() {
		p, err := deploy.Build(name, cfg.Provider(name))
		if err != nil {
			out = append(out, report.ProviderInfo{Name: name, Help: err.Error()})
			continue
		}
		out = append(out, report.ProviderInfo{Name: name, Available: p.Detect(), Help: p.Help()})
	}
	return out
}

// openCache returns the configured cache. The close func is always safe to call.
func openCache(ctx context.Context, cfg config.CacheConfig) (*cache.Cache, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "redis":
		b, err := cache.NewRedisBackend(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, noop, err
		}
		return cache.New(b, cfg.TTL), func() { _ = b.Close() }, nil
	default:
		b, err := cache.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return cache.New(b, cfg.TTL), noop, nil
	}
}
