package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/autodiscover/internal/parse"
)

func TestNewEmail_ASCII(t *testing.T) {
	e, err := parse.NewEmail("  first.last+tag@EXAMPLE.COM ")
	require.NoError(t, err)
	assert.Equal(t, "first.last+tag", e.Local)
	assert.Equal(t, "example.com", e.Domain)
	assert.Equal(t, "example.com", e.DomainUnicode)
	assert.Equal(t, "first.last+tag@example.com", e.Address())
}

func TestNewEmail_Invalid(t *testing.T) {
	tests := []string{
		"",
		"noatsign",
		"@nodomain",
		"nolocal@",
		".user@example.com",
		"user.@example.com",
		"us..er@example.com",
		"us er@example.com",
		`"quoted"@example.com`,
		"用户@example.com",
		"user@localhost",
		"user@example..com",
		"user@-example.com",
		"user@example.123",
		"user@[127.0.0.1]",
		"user@exa_mple.com",
	}
	for _, raw := range tests {
		_, err := parse.NewEmail(raw)
		assert.ErrorIs(t, err, parse.ErrInvalidEmail, "expected invalid for %q", raw)
	}
}

func TestNewEmail_IDN(t *testing.T) {
	tests := []struct {
		raw, ascii, unicode string
	}{
		{"user@münchen.de", "xn--mnchen-3ya.de", "münchen.de"},
		{"user@xn--mnchen-3ya.de", "xn--mnchen-3ya.de", "münchen.de"},
		{"user@例え.jp", "xn--r8jz45g.jp", "例え.jp"},
		{"user@почта.рф", "xn--80a1acny.xn--p1ai", "почта.рф"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			e, err := parse.NewEmail(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.ascii, e.Domain)
			assert.Equal(t, tt.unicode, e.DomainUnicode)
		})
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"mail.example.com", "mail.example.com", false},
		{" MAIL.Example.COM. ", "mail.example.com", false},
		{"mail.münchen.de", "mail.xn--mnchen-3ya.de", false},
		{"", "", true},
		{"mail", "", true},
		{"mail..example.com", "", true},
		{"mail_server.example.com", "", true},
		{"https://mail.example.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parse.Hostname(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, parse.ErrInvalidHost)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTarget(t *testing.T) {
	tg, err := parse.NewTarget("user@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "example.com", tg.Domain)
	assert.Equal(t, "mail.example.com", tg.MailServer)
	assert.Equal(t, "user", tg.Local)

	tg, err = parse.NewTarget("user@Example.com", "zimbra.example.net.")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", tg.Email)
	assert.Equal(t, "zimbra.example.net", tg.MailServer)

	_, err = parse.NewTarget("user@example.com", "bad host")
	assert.ErrorIs(t, err, parse.ErrInvalidHost)

	_, err = parse.NewTarget("bad", "mail.example.com")
	assert.ErrorIs(t, err, parse.ErrInvalidEmail)
}
