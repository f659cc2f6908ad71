package autodiscover_test

import (
	"context"
	"fmt"
	"os"

	"github.com/optimode/autodiscover"
	"github.com/optimode/autodiscover/internal/probe"
	"github.com/optimode/autodiscover/report"
)

func ExampleValidator_Run() {
	// A domain with no autodiscovery records and a mail server that answers
	// every request with 200.
	noRecords := func(context.Context, uint16, string) []string { return nil }
	ok := func(context.Context, probe.Request) (*probe.Response, error) {
		return &probe.Response{StatusCode: 200, Status: "200 OK"}, nil
	}

	res, err := autodiscover.New().
		WithLookup(noRecords).
		WithHTTPDo(ok).
		Run(context.Background(), "user@example.com", "", autodiscover.ModeDefault)
	if err != nil {
		fmt.Println(err)
		return
	}

	_ = report.WriteQuiet(os.Stdout, res.Target, res.Ledger)
	for _, r := range res.MissingRecords()[:2] {
		fmt.Println(r.ZoneLine())
	}
	// Output:
	// example.com: INCOMPLETE (5/13 configured, 8 missing, 0 need review)
	// _imaps._tcp.example.com. IN SRV 10 0 993 mail.example.com.
	// _submission._tcp.example.com. IN SRV 10 0 587 mail.example.com.
}

func ExampleValidator_Run_cacheOnly() {
	_, err := autodiscover.New().Run(context.Background(), "user@example.com", "", autodiscover.ModeCacheOnly)
	fmt.Println(err != nil)
	// Output: true
}
