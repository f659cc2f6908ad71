package check

import (
	"context"

	"github.com/optimode/autodiscover/internal/probe"
	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// AuthChecker runs the authenticated ActiveSync and DAV tests.
// Classification looks at the response body, not the status code.
type AuthChecker struct {
	do DoFunc
}

func NewAuthChecker(p *probe.HTTPProber) *AuthChecker {
	return &AuthChecker{do: p.Do}
}

// NewAuthCheckerWithDo is a test-oriented constructor that overrides the request function.
func NewAuthCheckerWithDo(fn DoFunc) *AuthChecker {
	return &AuthChecker{do: fn}
}

func (c *AuthChecker) Check(ctx context.Context, spec plan.Spec) types.Outcome {
	resp, err := c.do(ctx, requestFor(spec))
	if err != nil {
		return types.Outcome{Name: spec.Name, Status: types.StatusMissing, Detail: "no response: " + err.Error()}
	}

	status := ClassifyAuth(resp.StatusCode, resp.Body, spec.Expect)
	detail := statusLine(resp)
	switch status {
	case types.StatusConfigured:
		detail += ", service answered"
	case types.StatusMissing:
		detail += ", authentication failed"
	default:
		detail += ", unexpected response body"
	}
	return types.Outcome{Name: spec.Name, Status: status, Detail: detail}
}
