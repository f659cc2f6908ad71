package check

import (
	"net/http"
	"regexp"
	"slices"

	"github.com/optimode/autodiscover/types"
)

// authFailure matches bodies of servers that rejected the supplied credentials.
var authFailure = regexp.MustCompile(`(?i)(unauthori[sz]ed|must authenticate|authentication failed|auth_failed|invalid credentials)`)

// ClassifyDNS maps a lookup answer to a status. DNS tests never need review:
// any answer is CONFIGURED, no answer is MISSING.
func ClassifyDNS(answers []string) types.Status {
	if len(answers) == 0 {
		return types.StatusMissing
	}
	return types.StatusConfigured
}

// ClassifyHTTP maps a status code to a status. A code of 0 means no response
// was received at all and counts as MISSING, like a code in fail.
// Everything outside both sets needs review.
func ClassifyHTTP(code int, pass, fail []int) types.Status {
	switch {
	case code == 0:
		return types.StatusMissing
	case slices.Contains(pass, code):
		return types.StatusConfigured
	case slices.Contains(fail, code):
		return types.StatusMissing
	default:
		return types.StatusNeedsReview
	}
}

// ClassifyAuth inspects the body of an authenticated probe.
// The expected root element wins over any failure marker; a 401 without the
// expected element is an authentication failure.
func ClassifyAuth(code int, body string, expect *regexp.Regexp) types.Status {
	switch {
	case code == 0:
		return types.StatusMissing
	case expect != nil && expect.MatchString(body):
		return types.StatusConfigured
	case code == http.StatusUnauthorized || authFailure.MatchString(body):
		return types.StatusMissing
	default:
		return types.StatusNeedsReview
	}
}
