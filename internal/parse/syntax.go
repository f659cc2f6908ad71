package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// validateLocal checks an unquoted RFC 5321 dot-atom local part.
func validateLocal(local string) error {
	if local == "" {
		return errors.New("local part is empty")
	}
	if len(local) > 64 {
		return errors.New("local part exceeds 64 characters")
	}

	const special = "!#$%&'*+/=?^_`{|}~-."
	for _, ch := range local {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		if !strings.ContainsRune(special, ch) {
			return fmt.Errorf("local part contains invalid character %q", ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return errors.New("local part cannot start or end with a dot")
	}
	if strings.Contains(local, "..") {
		return errors.New("local part cannot contain consecutive dots")
	}
	return nil
}

// validateDomain checks the Unicode form of a domain name.
// IP literals are rejected: autodiscovery needs a DNS zone.
func validateDomain(domain string) error {
	if domain == "" {
		return errors.New("domain is empty")
	}
	if strings.HasPrefix(domain, "[") {
		return errors.New("IP literals are not supported")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return errors.New("domain must have at least two labels")
	}

	for _, label := range labels {
		if label == "" {
			return errors.New("domain contains empty label")
		}
		if len(label) > 63 {
			return errors.New("domain label exceeds 63 characters")
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return errors.New("domain label cannot start or end with a hyphen")
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
				return fmt.Errorf("domain label contains invalid character %q", ch)
			}
		}
	}

	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return errors.New("TLD cannot be all digits")
	}
	return nil
}
