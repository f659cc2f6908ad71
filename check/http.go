package check

import (
	"context"
	"fmt"

	"github.com/optimode/autodiscover/internal/probe"
	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// DoFunc performs one HTTP probe.
type DoFunc func(ctx context.Context, req probe.Request) (*probe.Response, error)

// HTTPChecker runs the unauthenticated endpoint tests.
type HTTPChecker struct {
	do DoFunc
}

func NewHTTPChecker(p *probe.HTTPProber) *HTTPChecker {
	return &HTTPChecker{do: p.Do}
}

// NewHTTPCheckerWithDo is a test-oriented constructor that overrides the request function.
func NewHTTPCheckerWithDo(fn DoFunc) *HTTPChecker {
	return &HTTPChecker{do: fn}
}

func (c *HTTPChecker) Check(ctx context.Context, spec plan.Spec) types.Outcome {
	resp, err := c.do(ctx, requestFor(spec))
	if err != nil {
		return types.Outcome{Name: spec.Name, Status: types.StatusMissing, Detail: "no response: " + err.Error()}
	}
	return types.Outcome{
		Name:   spec.Name,
		Status: ClassifyHTTP(resp.StatusCode, spec.Pass, spec.Fail),
		Detail: statusLine(resp),
	}
}

func requestFor(spec plan.Spec) probe.Request {
	return probe.Request{
		Method:          spec.Method,
		URL:             spec.URL,
		Headers:         spec.Headers,
		Body:            spec.Body,
		FollowRedirects: spec.FollowRedirects,
	}
}

func statusLine(resp *probe.Response) string {
	if resp.Status != "" {
		return "HTTP " + resp.Status
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
