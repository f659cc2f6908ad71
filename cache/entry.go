package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/optimode/autodiscover/plan"
	"github.com/optimode/autodiscover/types"
)

// EntryTest is one test in a stored entry.
type EntryTest struct {
	Status string `json:"status"` // PASS, FAIL or INVESTIGATE
	Result string `json:"result"`
}

// Entry is the stored form of one validation run:
//
//	{"domain": "...", "mailServer": "...", "timestamp": 1700000000,
//	 "tests": {"DNS SRV _imaps._tcp": {"status": "FAIL", "result": "no record found"}}}
type Entry struct {
	Domain     string               `json:"domain"`
	MailServer string               `json:"mailServer"`
	Timestamp  int64                `json:"timestamp"`
	Tests      map[string]EntryTest `json:"tests"`
}

// NewEntry snapshots l for target at now.
func NewEntry(target types.Target, l *types.Ledger, now time.Time) Entry {
	e := Entry{
		Domain:     target.Domain,
		MailServer: target.MailServer,
		Timestamp:  now.Unix(),
		Tests:      make(map[string]EntryTest, l.Len()),
	}
	for _, o := range l.Outcomes() {
		e.Tests[o.Name] = EntryTest{Status: o.Status.CacheCode(), Result: o.Detail}
	}
	return e
}

// CreatedAt returns the time the entry was written.
func (e Entry) CreatedAt() time.Time { return time.Unix(e.Timestamp, 0) }

// Ledger rebuilds the ledger. Tests are recorded in plan order; names the
// plan does not know follow in lexical order. Any unknown status code fails
// the whole entry.
func (e Entry) Ledger() (*types.Ledger, error) {
	names := make([]string, 0, len(e.Tests))
	seen := make(map[string]bool, len(e.Tests))
	for _, name := range plan.Order() {
		if _, ok := e.Tests[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range e.Tests {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	l := types.NewLedger()
	for _, name := range names {
		t := e.Tests[name]
		status, err := types.ParseCacheCode(t.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: test %q: %v", ErrCorrupt, name, err)
		}
		l.Record(types.Outcome{Name: name, Status: status, Detail: t.Result})
	}
	return l, nil
}

func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if e.Domain == "" || e.Timestamp == 0 || e.Tests == nil {
		return Entry{}, fmt.Errorf("%w: missing domain, timestamp or tests", ErrCorrupt)
	}
	return e, nil
}
