package engine

import (
	"context"
	"errors"
	"testing"

	"certo/internal/model"
)

// shellClaim builds a confirmed claim with one shell check.
func shellClaim(claimID, checkID, cmd string) model.Claim {
	return model.Claim{
		ID:     claimID,
		Text:   "claim " + claimID,
		Status: model.ClaimConfirmed,
		Level:  model.LevelBlock,
		Checks: []model.Check{
			&model.ShellCheck{CheckMeta: model.CheckMeta{ID: checkID}, Cmd: cmd, Timeout: 10},
		},
	}
}

func run(t *testing.T, e *Engine, doc *model.Spec, opts Options) *model.Report {
	t.Helper()
	report, err := e.Run(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func TestRunAllPass(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{
		Name: "demo",
		Claims: []model.Claim{
			shellClaim("c1", "k1", "true"),
			shellClaim("c2", "k2", "echo ok"),
		},
	}

	report := run(t, e, doc, Options{NoCache: true})

	if report.Failed() {
		t.Error("report.Failed() = true, want false")
	}
	if report.Totals.Passed != 2 || report.Totals.Total() != 2 {
		t.Errorf("totals = %+v", report.Totals)
	}
	if report.SpecName != "demo" {
		t.Errorf("spec name = %q", report.SpecName)
	}
	if report.Partial {
		t.Error("report marked partial")
	}
}

func TestRunDocumentOrder(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{
		Claims: []model.Claim{
			shellClaim("c1", "k1", "sleep 0.05"),
			shellClaim("c2", "k2", "true"),
			shellClaim("c3", "k3", "true"),
		},
		Checks: []model.Check{
			&model.FactCheck{CheckMeta: model.CheckMeta{ID: "k4"}, Has: "nope"},
		},
	}

	report := run(t, e, doc, Options{NoCache: true})

	want := []string{"k1", "k2", "k3", "k4"}
	if len(report.Units) != len(want) {
		t.Fatalf("got %d units, want %d", len(report.Units), len(want))
	}
	for i, id := range want {
		if report.Units[i].CheckID != id {
			t.Errorf("position %d: %s, want %s", i, report.Units[i].CheckID, id)
		}
	}
}

func TestRunWarnFailureFailsRun(t *testing.T) {
	e := testEngine(t)
	claim := shellClaim("c1", "k1", "false")
	claim.Level = model.LevelWarn
	doc := &model.Spec{Claims: []model.Claim{claim}}

	report := run(t, e, doc, Options{NoCache: true})
	if !report.Failed() {
		t.Error("warn-level failure must still fail the run")
	}
	if report.Units[0].Level != model.LevelWarn {
		t.Errorf("unit level = %s, want warn", report.Units[0].Level)
	}
}

func TestRunClaimStatusFilter(t *testing.T) {
	e := testEngine(t)

	pending := shellClaim("c-pending", "k-pending", "false")
	pending.Status = model.ClaimPending
	rejected := shellClaim("c-rejected", "k-rejected", "false")
	rejected.Status = model.ClaimRejected
	superseded := shellClaim("c-superseded", "k-superseded", "false")
	superseded.Status = model.ClaimSuperseded

	doc := &model.Spec{Claims: []model.Claim{
		pending, rejected, superseded,
		shellClaim("c-live", "k-live", "true"),
	}}

	report := run(t, e, doc, Options{NoCache: true})

	if report.Failed() {
		t.Error("non-confirmed claims must never execute their checks")
	}
	if report.Totals.Skipped != 3 || report.Totals.Passed != 1 {
		t.Errorf("totals = %+v", report.Totals)
	}
	for _, u := range report.Units[:3] {
		if u.Outcome != model.OutcomeSkipped {
			t.Errorf("%s: outcome = %s, want skipped", u.CheckID, u.Outcome)
		}
	}
}

func TestRunDisabledCheck(t *testing.T) {
	e := testEngine(t)
	claim := shellClaim("c1", "k1", "false")
	claim.Checks[0].(*model.ShellCheck).Status = model.CheckDisabled
	doc := &model.Spec{Claims: []model.Claim{claim}}

	report := run(t, e, doc, Options{NoCache: true})

	if report.Failed() {
		t.Error("disabled check executed")
	}
	if report.Units[0].Outcome != model.OutcomeSkipped || report.Units[0].SkipReason != "disabled" {
		t.Errorf("unit = %+v", report.Units[0])
	}
}

func TestRunContextExemption(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{
		Claims: []model.Claim{shellClaim("c1", "k1", "false")},
		Contexts: []model.Context{{
			ID:      "x1",
			Enabled: true,
			Modifications: []model.Modification{
				{Action: model.ModExempt, Claim: "c1"},
			},
		}},
	}

	report := run(t, e, doc, Options{NoCache: true})

	if report.Failed() {
		t.Error("exempted claim's check executed")
	}
	u := report.Units[0]
	if u.Outcome != model.OutcomeSkipped || u.SkipReason != "level=skip" {
		t.Errorf("unit = %+v", u)
	}
	if u.Level != model.LevelSkip {
		t.Errorf("level = %s, want skip", u.Level)
	}
}

func TestRunOnlySelection(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{
		shellClaim("c1", "k1", "true"),
		shellClaim("c2", "k2", "false"), // would fail if run
	}}

	report := run(t, e, doc, Options{Only: []string{"c1"}, NoCache: true})

	if report.Failed() {
		t.Error("--only did not exclude the failing unit")
	}
	if len(report.Units) != 1 || report.Units[0].CheckID != "k1" {
		t.Errorf("units = %+v", report.Units)
	}
}

func TestRunOnlyByCheckID(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{
		shellClaim("c1", "k1", "true"),
		shellClaim("c2", "k2", "false"),
	}}

	report := run(t, e, doc, Options{Only: []string{"k1"}, NoCache: true})
	if len(report.Units) != 1 || report.Units[0].CheckID != "k1" {
		t.Errorf("units = %+v", report.Units)
	}
}

func TestRunSkipSelection(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{
		shellClaim("c1", "k1", "true"),
		shellClaim("c2", "k2", "false"),
	}}

	report := run(t, e, doc, Options{Skip: []string{"c2"}, NoCache: true})

	if report.Failed() {
		t.Error("--skip did not exclude the failing unit")
	}
	if report.Units[1].Outcome != model.OutcomeSkipped {
		t.Errorf("skipped unit = %+v", report.Units[1])
	}
}

func TestRunUnknownSelectionID(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{shellClaim("c1", "k1", "true")}}

	for _, opts := range []Options{
		{Only: []string{"no-such-id"}},
		{Skip: []string{"no-such-id"}},
	} {
		_, err := e.Run(context.Background(), doc, opts)
		var structural *StructuralError
		if !errors.As(err, &structural) {
			t.Errorf("opts %+v: err = %v, want StructuralError", opts, err)
		}
	}
}

func TestRunIssueIDNotSelectable(t *testing.T) {
	// Issue IDs exist in the document but never match an executable
	// unit; selecting one is structural.
	e := testEngine(t)
	doc := &model.Spec{
		Claims: []model.Claim{shellClaim("c1", "k1", "true")},
		Issues: []model.Issue{{ID: "i1", Text: "open question"}},
	}

	_, err := e.Run(context.Background(), doc, Options{Only: []string{"i1"}})
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Errorf("err = %v, want StructuralError", err)
	}
}

func TestRunResultCacheReuse(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{shellClaim("c1", "k1", "true")}}

	first := run(t, e, doc, Options{})
	if first.Units[0].Cached {
		t.Fatal("first run already cached")
	}

	second := run(t, e, doc, Options{})
	if !second.Units[0].Cached {
		t.Error("second run did not reuse the cached pass")
	}
	if second.Units[0].Outcome != model.OutcomePassed {
		t.Errorf("cached outcome = %s", second.Units[0].Outcome)
	}
}

func TestRunFailuresNeverCached(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{shellClaim("c1", "k1", "false")}}

	run(t, e, doc, Options{})
	second := run(t, e, doc, Options{})

	if second.Units[0].Cached {
		t.Error("a failure was served from the cache")
	}
}

func TestRunNoCacheFlag(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{shellClaim("c1", "k1", "true")}}

	run(t, e, doc, Options{})
	second := run(t, e, doc, Options{NoCache: true})

	if second.Units[0].Cached {
		t.Error("--no-cache still consulted the cache")
	}
}

func TestRunFingerprintInvalidation(t *testing.T) {
	e := testEngine(t)

	run(t, e, &model.Spec{Claims: []model.Claim{shellClaim("c1", "k1", "true")}}, Options{})

	// Same ID, different cmd: the fingerprint changes, so no reuse.
	changed := run(t, e, &model.Spec{Claims: []model.Claim{shellClaim("c1", "k1", "echo changed")}}, Options{})
	if changed.Units[0].Cached {
		t.Error("edited check was served a stale cached outcome")
	}
}

func TestRunOfflineSkipsLLM(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{{
		ID:     "c1",
		Text:   "reviewed",
		Status: model.ClaimConfirmed,
		Level:  model.LevelBlock,
		Checks: []model.Check{
			&model.LLMCheck{CheckMeta: model.CheckMeta{ID: "k1"}, Files: []string{"*.go"}},
		},
	}}}

	report := run(t, e, doc, Options{Offline: true, NoCache: true})

	u := report.Units[0]
	if u.Outcome != model.OutcomeSkipped || u.SkipReason != "offline" {
		t.Errorf("unit = %+v", u)
	}
}

func TestRunOfflineSkipsUncachedURL(t *testing.T) {
	e := testEngine(t)
	doc := &model.Spec{Claims: []model.Claim{{
		ID:     "c1",
		Text:   "endpoint is up",
		Status: model.ClaimConfirmed,
		Level:  model.LevelBlock,
		Checks: []model.Check{
			&model.URLCheck{CheckMeta: model.CheckMeta{ID: "k1"}, URL: "http://unreachable.invalid/", CacheTTL: 60},
		},
	}}}

	report := run(t, e, doc, Options{Offline: true})

	u := report.Units[0]
	if u.Outcome != model.OutcomeSkipped || u.SkipReason != "offline" {
		t.Errorf("unit = %+v", u)
	}
}

func TestRunLLMWithoutProvider(t *testing.T) {
	e := testEngine(t) // provider ""
	doc := &model.Spec{Checks: []model.Check{
		&model.LLMCheck{CheckMeta: model.CheckMeta{ID: "k1"}, Files: []string{"*.go"}, Prompt: "p"},
	}}

	report := run(t, e, doc, Options{NoCache: true})

	if report.Units[0].Outcome != model.OutcomeSkipped {
		t.Errorf("unit = %+v, want skipped without a provider", report.Units[0])
	}
	if report.Failed() {
		t.Error("provider-less llm check failed the run")
	}
}

func TestRunTotalsInvariant(t *testing.T) {
	e := testEngine(t)

	disabled := shellClaim("c-off", "k-off", "true")
	disabled.Checks[0].(*model.ShellCheck).Status = model.CheckDisabled

	doc := &model.Spec{Claims: []model.Claim{
		shellClaim("c-pass", "k-pass", "true"),
		shellClaim("c-fail", "k-fail", "false"),
		disabled,
	}, Checks: []model.Check{
		&model.FactCheck{CheckMeta: model.CheckMeta{ID: "k-bad"}}, // malformed: no criterion
	}}

	report := run(t, e, doc, Options{NoCache: true})

	t1 := report.Totals
	if t1.Passed != 1 || t1.Failed != 1 || t1.Errored != 1 || t1.Skipped != 1 {
		t.Errorf("totals = %+v", t1)
	}
	if t1.Total() != len(report.Units) {
		t.Errorf("totals sum %d != %d units", t1.Total(), len(report.Units))
	}
}

func TestRunCancellation(t *testing.T) {
	e := testEngine(t)
	e.cfg.Concurrency.CheckWorkers = 1

	doc := &model.Spec{Claims: []model.Claim{
		shellClaim("c1", "k1", "sleep 3"),
		shellClaim("c2", "k2", "sleep 3"),
		shellClaim("c3", "k3", "sleep 3"),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	report, err := e.Run(ctx, doc, Options{NoCache: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Units) != 3 {
		t.Fatalf("got %d units, want all 3 accounted for", len(report.Units))
	}
}
