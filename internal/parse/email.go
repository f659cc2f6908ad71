// Package parse turns user input into a validated types.Target.
// Domains are normalized to their ASCII (Punycode) form for DNS and HTTP,
// while the Unicode form is kept for display.
package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/idna"

	"github.com/optimode/autodiscover/types"
)

var (
	// ErrInvalidEmail is returned for an address that fails the syntax rules.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidHost is returned for a mail server that is not a valid hostname.
	ErrInvalidHost = errors.New("invalid hostname")
)

var validate = validator.New()

// Email is a parsed address.
type Email struct {
	Raw           string // trimmed input
	Local         string // part before @
	Domain        string // part after @, ASCII/Punycode, lower case
	DomainUnicode string // part after @, Unicode form
}

// Address returns the address with the ASCII domain.
func (e Email) Address() string { return e.Local + "@" + e.Domain }

// NewEmail parses and validates raw. Only unquoted ASCII local parts are
// accepted; internationalized domains are converted with IDNA2008.
func NewEmail(raw string) (Email, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Email{}, fmt.Errorf("%w: empty", ErrInvalidEmail)
	}

	at := strings.LastIndex(raw, "@")
	if at < 1 || at == len(raw)-1 {
		return Email{}, fmt.Errorf("%w: %q: expected local@domain", ErrInvalidEmail, raw)
	}
	local, domain := raw[:at], strings.ToLower(raw[at+1:])

	if len(raw) > 254 {
		return Email{}, fmt.Errorf("%w: %q: exceeds 254 characters", ErrInvalidEmail, raw)
	}
	if err := validateLocal(local); err != nil {
		return Email{}, fmt.Errorf("%w: %q: %v", ErrInvalidEmail, raw, err)
	}

	ascii, unicode, err := convertDomain(domain)
	if err != nil {
		return Email{}, fmt.Errorf("%w: %q: %v", ErrInvalidEmail, raw, err)
	}
	if err := validateDomain(unicode); err != nil {
		return Email{}, fmt.Errorf("%w: %q: %v", ErrInvalidEmail, raw, err)
	}

	e := Email{Raw: raw, Local: local, Domain: ascii, DomainUnicode: unicode}
	if err := validate.Var(e.Address(), "email"); err != nil {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return e, nil
}

// Hostname normalizes a mail server name: trimmed, lower case, no trailing
// dot, ASCII form.
func Hostname(raw string) (string, error) {
	host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if host == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHost)
	}
	ascii, unicode, err := convertDomain(host)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidHost, raw, err)
	}
	if err := validateDomain(unicode); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidHost, raw, err)
	}
	if err := validate.Var(ascii, "hostname_rfc1123,max=253"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, raw)
	}
	return ascii, nil
}

// NewTarget builds the identity of a run. The domain is always taken from
// email; an empty mailServer defaults to "mail.<domain>".
func NewTarget(email, mailServer string) (types.Target, error) {
	e, err := NewEmail(email)
	if err != nil {
		return types.Target{}, err
	}
	if strings.TrimSpace(mailServer) == "" {
		mailServer = "mail." + e.Domain
	}
	host, err := Hostname(mailServer)
	if err != nil {
		return types.Target{}, err
	}
	return types.Target{
		Email:      e.Address(),
		Local:      e.Local,
		Domain:     e.Domain,
		MailServer: host,
	}, nil
}

// convertDomain returns the ASCII and Unicode forms of domain.
func convertDomain(domain string) (ascii, unicode string, err error) {
	hasNonASCII := false
	for _, r := range domain {
		if r > 127 {
			hasNonASCII = true
			break
		}
	}

	if hasNonASCII {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return "", "", fmt.Errorf("idna: %w", err)
		}
		return a, domain, nil
	}

	// already ASCII: decode existing Punycode for display (xn--mnchen-3ya.de -> münchen.de)
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, nil
}
