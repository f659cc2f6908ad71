package types

import "sync"

// Ledger is the ordered, keyed collection of outcomes for one validation run.
// It is safe for concurrent use; Record is the single write point.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Outcome
	order   []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]Outcome)}
}

// Record stores o under o.Name. A second write for the same name replaces
// the status and detail but keeps the original position.
func (l *Ledger) Record(o Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[o.Name]; !ok {
		l.order = append(l.order, o.Name)
	}
	l.entries[o.Name] = o
}

// Get returns the outcome recorded for name.
func (l *Ledger) Get(name string) (Outcome, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.entries[name]
	return o, ok
}

// Len returns the number of recorded outcomes.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Names returns test names in insertion order.
func (l *Ledger) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.order...)
}

// Outcomes returns all outcomes in insertion order.
func (l *Ledger) Outcomes() []Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Outcome, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.entries[name])
	}
	return out
}

// WithStatus returns the outcomes with the given status in insertion order.
// Partitions are computed on every call so they can never drift from the map.
func (l *Ledger) WithStatus(s Status) []Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Outcome
	for _, name := range l.order {
		if o := l.entries[name]; o.Status == s {
			out = append(out, o)
		}
	}
	return out
}

// Passed returns the CONFIGURED outcomes.
func (l *Ledger) Passed() []Outcome { return l.WithStatus(StatusConfigured) }

// Failed returns the MISSING outcomes.
func (l *Ledger) Failed() []Outcome { return l.WithStatus(StatusMissing) }

// NeedsReview returns the NEEDS_REVIEW outcomes.
func (l *Ledger) NeedsReview() []Outcome { return l.WithStatus(StatusNeedsReview) }

// Count returns how many outcomes have status s.
func (l *Ledger) Count(s Status) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, o := range l.entries {
		if o.Status == s {
			n++
		}
	}
	return n
}
