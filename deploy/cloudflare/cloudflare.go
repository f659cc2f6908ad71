// Package cloudflare adds records through the Cloudflare API using an API token.
package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cloudflare/cloudflare-go"

	"github.com/optimode/autodiscover/deploy"
)

// Name is the registry name.
const Name = "cloudflare"

// ErrMissingCredentials is returned when no API token is configured.
var ErrMissingCredentials = errors.New("cloudflare: api_token is not set")

// Provider is the Cloudflare deployment provider.
type Provider struct {
	token   string
	zoneID  string
	baseURL string

	once sync.Once
	api  *cloudflare.API
	err  error

	mu    sync.Mutex
	zones map[string]string
}

// Build reads api_token, zone_id (optional, skips the zone lookup) and
// base_url (optional API endpoint).
func Build(config map[string]string) (deploy.Provider, error) {
	return &Provider{
		token:   strings.TrimSpace(config["api_token"]),
		zoneID:  strings.TrimSpace(config["zone_id"]),
		baseURL: strings.TrimSpace(config["base_url"]),
		zones:   map[string]string{},
	}, nil
}

func init() {
	deploy.Register(Name, Build)
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Detect() bool { return p.token != "" }

func (p *Provider) client() (*cloudflare.API, error) {
	p.once.Do(func() {
		if p.token == "" {
			p.err = ErrMissingCredentials
			return
		}
		var opts []cloudflare.Option
		if p.baseURL != "" {
			opts = append(opts, cloudflare.BaseURL(p.baseURL))
		}
		p.api, p.err = cloudflare.NewWithAPIToken(p.token, opts...)
	})
	return p.api, p.err
}

// Validate verifies the token is active.
func (p *Provider) Validate(ctx context.Context) error {
	api, err := p.client()
	if err != nil {
		return err
	}
	tok, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("cloudflare: verify token: %w", err)
	}
	if tok.Status != "active" {
		return fmt.Errorf("cloudflare: token status is %q", tok.Status)
	}
	return nil
}

func (p *Provider) zone(domain string) (string, error) {
	if p.zoneID != "" {
		return p.zoneID, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.zones[domain]; ok {
		return id, nil
	}
	api, err := p.client()
	if err != nil {
		return "", err
	}
	id, err := api.ZoneIDByName(domain)
	if err != nil {
		return "", fmt.Errorf("cloudflare: zone %s: %w", domain, err)
	}
	p.zones[domain] = id
	return id, nil
}

func (p *Provider) AddRecord(ctx context.Context, domain, recordType, name, value string, ttl int) error {
	api, err := p.client()
	if err != nil {
		return err
	}
	zoneID, err := p.zone(domain)
	if err != nil {
		return err
	}
	params, err := recordParams(recordType, name, value, ttl)
	if err != nil {
		return err
	}
	if _, err := api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), params); err != nil {
		return fmt.Errorf("cloudflare: create %s %s: %w", recordType, name, err)
	}
	return nil
}

// recordParams converts a zone-style value into the API shape. SRV values
// ("10 0 993 mail.example.com.") go into the structured data field.
func recordParams(recordType, name, value string, ttl int) (cloudflare.CreateDNSRecordParams, error) {
	params := cloudflare.CreateDNSRecordParams{
		Type: recordType,
		Name: name,
		TTL:  ttl,
	}
	switch recordType {
	case "SRV":
		f := strings.Fields(value)
		if len(f) != 4 {
			return params, fmt.Errorf("cloudflare: malformed SRV value %q", value)
		}
		nums := make([]int, 3)
		for i := range nums {
			n, err := strconv.Atoi(f[i])
			if err != nil {
				return params, fmt.Errorf("cloudflare: malformed SRV value %q: %w", value, err)
			}
			nums[i] = n
		}
		params.Data = map[string]any{
			"priority": nums[0],
			"weight":   nums[1],
			"port":     nums[2],
			"target":   strings.TrimSuffix(f[3], "."),
		}
	case "CNAME":
		params.Content = strings.TrimSuffix(value, ".")
	default:
		params.Content = value
	}
	return params, nil
}

func (p *Provider) Help() string {
	return `Adds records through the Cloudflare API.
  [provider.cloudflare]
  api_token = <token with Zone.DNS edit permission>   (or CLOUDFLARE_API_TOKEN)
  zone_id   = <zone id>                               (optional, looked up by domain otherwise)`
}
