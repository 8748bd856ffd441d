package model

import "time"

// Outcome classifies the result of one executed (or skipped) unit
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"  // assertion mismatch
	OutcomeError   Outcome = "error"   // timeout, transport failure, malformed check
	OutcomeSkipped Outcome = "skipped" // offline, disabled, level=skip, claim status
)

// UnitResult is the per-unit entry of a run report.
type UnitResult struct {
	CheckID    string        `json:"check_id"`
	ClaimID    string        `json:"claim_id,omitempty"` // empty for standalone checks
	ClaimText  string        `json:"claim_text,omitempty"`
	Kind       CheckKind     `json:"kind"`
	Level      Level         `json:"level,omitempty"` // owning claim's effective level
	Outcome    Outcome       `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	Output     string        `json:"output,omitempty"` // full command output, shell/url kinds
	SkipReason string        `json:"skip_reason,omitempty"`
	Cached     bool          `json:"cached,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// Totals aggregates outcome counts for a run.
type Totals struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// Add counts one outcome.
func (t *Totals) Add(o Outcome) {
	switch o {
	case OutcomePassed:
		t.Passed++
	case OutcomeFailed:
		t.Failed++
	case OutcomeError:
		t.Errored++
	case OutcomeSkipped:
		t.Skipped++
	}
}

// Total is the number of included units.
func (t Totals) Total() int {
	return t.Passed + t.Failed + t.Errored + t.Skipped
}

// Report is the single artifact a run produces. Units appear in
// document order regardless of execution order.
type Report struct {
	SpecName string       `json:"spec_name,omitempty"`
	RanAt    time.Time    `json:"ran_at"`
	Units    []UnitResult `json:"units"`
	Totals   Totals       `json:"totals"`
	Partial  bool         `json:"partial,omitempty"` // run was cancelled mid-flight
}

// Failed reports whether the run as a whole failed: any failed or
// errored unit fails the run, regardless of warn-level claims.
func (r *Report) Failed() bool {
	return r.Totals.Failed+r.Totals.Errored > 0
}
