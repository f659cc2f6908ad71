package check_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/autodiscover/check"
	"github.com/optimode/autodiscover/types"
)

func TestClassifyDNS(t *testing.T) {
	assert.Equal(t, types.StatusMissing, check.ClassifyDNS(nil))
	assert.Equal(t, types.StatusMissing, check.ClassifyDNS([]string{}))
	assert.Equal(t, types.StatusConfigured, check.ClassifyDNS([]string{"10 0 993 mail.example.com."}))
}

func TestClassifyHTTP_Boundaries(t *testing.T) {
	activeSync := []int{200, 401, 405}
	autoconfig := []int{200}
	fail := []int{404}

	tests := []struct {
		name string
		code int
		pass []int
		want types.Status
	}{
		{"200 passes", 200, autoconfig, types.StatusConfigured},
		{"404 fails", 404, activeSync, types.StatusMissing},
		{"401 in pass set", 401, activeSync, types.StatusConfigured},
		{"405 in pass set", 405, activeSync, types.StatusConfigured},
		{"401 outside pass set", 401, autoconfig, types.StatusNeedsReview},
		{"405 outside pass set", 405, autoconfig, types.StatusNeedsReview},
		{"500 needs review", 500, activeSync, types.StatusNeedsReview},
		{"redirect outside pass set", 302, autoconfig, types.StatusNeedsReview},
		{"no response", 0, activeSync, types.StatusMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, check.ClassifyHTTP(tt.code, tt.pass, fail))
		})
	}
}

func TestClassifyAuth(t *testing.T) {
	expect := regexp.MustCompile(`(?i)<([a-z0-9]+:)?multistatus[\s>]`)

	tests := []struct {
		name string
		code int
		body string
		want types.Status
	}{
		{"multistatus", 207, `<?xml version="1.0"?><D:multistatus xmlns:D="DAV:">`, types.StatusConfigured},
		{"must authenticate", 200, "<html>You must authenticate</html>", types.StatusMissing},
		{"401 with empty body", 401, "", types.StatusMissing},
		{"auth_failed code", 500, "<soap:Fault>account.AUTH_FAILED</soap:Fault>", types.StatusMissing},
		{"something else", 200, "<html>welcome</html>", types.StatusNeedsReview},
		{"no response", 0, "", types.StatusMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, check.ClassifyAuth(tt.code, tt.body, expect))
		})
	}
}
