// Package config loads settings from an INI file, a .env file and the
// environment. Priority is ENV > INI > default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	Target    TargetConfig
	Auth      AuthConfig
	Probe     ProbeConfig
	Cache     CacheConfig
	Log       LogConfig
	Providers map[string]map[string]string
}

// TargetConfig holds the address to check
type TargetConfig struct {
	Email      string
	MailServer string
}

// AuthConfig holds credentials for the authenticated checks
type AuthConfig struct {
	Username string
	Password string
}

// ProbeConfig holds network probe settings
type ProbeConfig struct {
	DNSTimeout  time.Duration
	HTTPTimeout time.Duration
	Retries     int
	RetryDelay  time.Duration
	Nameservers []string
	Concurrency int
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Backend       string // file or redis
	Dir           string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// providerEnv maps environment variables onto provider section keys.
var providerEnv = map[string][2]string{
	"CLOUDFLARE_API_TOKEN": {"cloudflare", "api_token"},
	"CLOUDFLARE_ZONE_ID":   {"cloudflare", "zone_id"},
	"RFC2136_SERVER":       {"rfc2136", "server"},
	"RFC2136_ZONE":         {"rfc2136", "zone"},
	"RFC2136_TSIG_NAME":    {"rfc2136", "tsig_name"},
	"RFC2136_TSIG_SECRET":  {"rfc2136", "tsig_secret"},
	"GCLOUD_MANAGED_ZONE":  {"gcloud", "managed_zone"},
	"GCLOUD_PROJECT":       {"gcloud", "project"},
}

// Load reads iniPath (optional) after loading a .env file if one exists.
func Load(iniPath string) (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfgFile := ini.Empty()
	if iniPath != "" {
		f, err := ini.Load(iniPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load INI file: %w", err)
		}
		cfgFile = f
	}

	l := loader{file: cfgFile}
	cfg := &Config{
		Target: TargetConfig{
			Email:      l.str("AUTODISCOVER_EMAIL", "target", "email", ""),
			MailServer: l.str("AUTODISCOVER_MAIL_SERVER", "target", "mail_server", ""),
		},
		Auth: AuthConfig{
			Username: l.str("AUTODISCOVER_USERNAME", "auth", "username", ""),
			Password: l.str("AUTODISCOVER_PASSWORD", "auth", "password", ""),
		},
		Probe: ProbeConfig{
			DNSTimeout:  l.duration("AUTODISCOVER_DNS_TIMEOUT", "probe", "dns_timeout", 10*time.Second),
			HTTPTimeout: l.duration("AUTODISCOVER_HTTP_TIMEOUT", "probe", "http_timeout", 30*time.Second),
			Retries:     l.integer("AUTODISCOVER_RETRIES", "probe", "retries", 3),
			RetryDelay:  l.duration("AUTODISCOVER_RETRY_DELAY", "probe", "retry_delay", time.Second),
			Nameservers: splitList(l.str("AUTODISCOVER_NAMESERVERS", "probe", "nameservers", "")),
			Concurrency: l.integer("AUTODISCOVER_CONCURRENCY", "probe", "concurrency", 1),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(l.str("AUTODISCOVER_CACHE_BACKEND", "cache", "backend", "file")),
			Dir:           l.str("AUTODISCOVER_CACHE_DIR", "cache", "dir", ""),
			TTL:           l.duration("AUTODISCOVER_CACHE_TTL", "cache", "ttl", time.Hour),
			RedisAddr:     l.str("REDIS_ADDR", "cache", "redis_addr", "localhost:6379"),
			RedisPassword: l.str("REDIS_PASS", "cache", "redis_password", ""),
			RedisDB:       l.integer("REDIS_DB", "cache", "redis_db", 0),
		},
		Log: LogConfig{
			Level:  l.str("LOG_LEVEL", "log", "level", ""),
			Format: l.str("LOG_FORMAT", "log", "format", ""),
		},
		Providers: providers(cfgFile),
	}
	if l.err != nil {
		return nil, l.err
	}

	switch cfg.Cache.Backend {
	case "file", "redis":
	default:
		return nil, fmt.Errorf("cache backend must be file or redis, got %q", cfg.Cache.Backend)
	}
	if cfg.Probe.Retries < 1 {
		return nil, fmt.Errorf("retries must be at least 1, got %d", cfg.Probe.Retries)
	}
	if cfg.Probe.Concurrency < 1 {
		cfg.Probe.Concurrency = 1
	}
	return cfg, nil
}

// Provider returns the settings of the named provider section.
func (c *Config) Provider(name string) map[string]string {
	out := map[string]string{}
	for k, v := range c.Providers[name] {
		out[k] = v
	}
	return out
}

type loader struct {
	file *ini.File
	err  error
}

// str returns the value with priority: ENV > INI > default
func (l *loader) str(envKey, section, key, def string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if value := l.file.Section(section).Key(key).String(); value != "" {
		return value
	}
	return def
}

func (l *loader) integer(envKey, section, key string, def int) int {
	raw := l.str(envKey, section, key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		l.fail(fmt.Errorf("%s.%s: invalid integer %q", section, key, raw))
		return def
	}
	return n
}

// duration accepts Go durations ("1m30s") or plain seconds ("90").
func (l *loader) duration(envKey, section, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(l.str(envKey, section, key, ""))
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		l.fail(fmt.Errorf("%s.%s: invalid duration %q", section, key, raw))
		return def
	}
	return d
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func providers(f *ini.File) map[string]map[string]string {
	out := map[string]map[string]string{}
	for _, s := range f.Sections() {
		name, ok := strings.CutPrefix(s.Name(), "provider.")
		if !ok || name == "" {
			continue
		}
		out[name] = s.KeysHash()
	}
	for env, target := range providerEnv {
		value := os.Getenv(env)
		if value == "" {
			continue
		}
		if out[target[0]] == nil {
			out[target[0]] = map[string]string{}
		}
		out[target[0]][target[1]] = value
	}
	return out
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
