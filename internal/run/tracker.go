package run

import "sync"

// Tracker collects outcomes as the run progresses. The run loop appends;
// the optional status server reads snapshots concurrently.
type Tracker struct {
	mu       sync.Mutex
	total    int
	outcomes []Outcome
}

func NewTracker(total int) *Tracker {
	return &Tracker{total: total, outcomes: make([]Outcome, 0, total)}
}

func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, o)
}

// Outcomes returns a copy of everything recorded so far, in keyword order.
func (t *Tracker) Outcomes() []Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Outcome, len(t.outcomes))
	copy(out, t.outcomes)
	return out
}

// Progress is a point-in-time view of the run.
type Progress struct {
	Total     int       `json:"total_keywords"`
	Processed int       `json:"processed"`
	Outcomes  []Outcome `json:"outcomes"`
}

func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Outcome, len(t.outcomes))
	copy(out, t.outcomes)
	return Progress{Total: t.total, Processed: len(out), Outcomes: out}
}
