// Package deploy adds missing autodiscovery records through a DNS provider.
//
// Providers register a Builder under their name from an init function; the
// command line imports them for side effects:
//
//	import _ "github.com/optimode/autodiscover/deploy/cloudflare"
//
// Deploy only ever looks at MISSING outcomes that have a record template.
package deploy

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider creates DNS records at one DNS service.
type Provider interface {
	// Name is the registry name.
	Name() string
	// Detect reports whether the tooling and credentials the provider needs are present.
	Detect() bool
	// Validate checks the credentials against the service.
	Validate(ctx context.Context) error
	// AddRecord creates one record. name is fully qualified without a trailing dot.
	AddRecord(ctx context.Context, domain, recordType, name, value string, ttl int) error
	// Help explains how to configure the provider.
	Help() string
}

// Builder creates a provider from its configuration section.
// Missing credentials are not a build error; Detect reports them.
type Builder func(config map[string]string) (Provider, error)

var (
	mu       sync.RWMutex
	builders = map[string]Builder{}
)

// Register makes a provider available under name. Registering a name twice panics.
func Register(name string, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := builders[name]; dup {
		panic("deploy: provider registered twice: " + name)
	}
	builders[name] = b
}

// Names returns the registered provider names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build creates the provider registered under name.
func Build(name string, config map[string]string) (Provider, error) {
	mu.RLock()
	b, ok := builders[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	if config == nil {
		config = map[string]string{}
	}
	p, err := b(config)
	if err != nil {
		return nil, fmt.Errorf("deploy: build %s: %w", name, err)
	}
	return p, nil
}
