// Package render turns a run report into terminal text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"certo/internal/model"
)

// Options controls the text renderer's verbosity.
type Options struct {
	Quiet   bool // failures and the summary only
	Verbose bool // include skipped units and command output
}

// symbol maps an outcome to its terminal marker.
func symbol(o model.Outcome) string {
	switch o {
	case model.OutcomePassed:
		return "✓"
	case model.OutcomeFailed:
		return "✗"
	case model.OutcomeError:
		return "!"
	default:
		return "⊘"
	}
}

// Text writes the human-readable report: units grouped under their
// owning claim, in document order, followed by a one-line summary.
func Text(w io.Writer, r *model.Report, opts Options) {
	if r.SpecName != "" && !opts.Quiet {
		fmt.Fprintf(w, "spec: %s\n\n", r.SpecName)
	}

	lastClaim := ""
	headerShown := false
	for i := range r.Units {
		u := &r.Units[i]

		if !include(u, opts) {
			continue
		}

		if u.ClaimID != lastClaim || !headerShown {
			if headerShown {
				fmt.Fprintln(w)
			}
			writeHeader(w, u)
			lastClaim = u.ClaimID
			headerShown = true
		}

		writeUnit(w, u, opts)
	}

	if headerShown {
		fmt.Fprintln(w)
	}
	writeSummary(w, r)
}

// include decides whether a unit appears at the current verbosity.
func include(u *model.UnitResult, opts Options) bool {
	switch u.Outcome {
	case model.OutcomeFailed, model.OutcomeError:
		return true
	case model.OutcomeSkipped:
		return opts.Verbose
	default:
		return !opts.Quiet
	}
}

func writeHeader(w io.Writer, u *model.UnitResult) {
	if u.ClaimID == "" {
		fmt.Fprintln(w, "standalone checks")
		return
	}
	level := ""
	if u.Level != "" {
		level = fmt.Sprintf(" [%s]", u.Level)
	}
	fmt.Fprintf(w, "%s%s: %s\n", u.ClaimID, level, u.ClaimText)
}

func writeUnit(w io.Writer, u *model.UnitResult, opts Options) {
	detail := u.Detail
	if u.Outcome == model.OutcomeSkipped {
		detail = u.SkipReason
	}

	line := fmt.Sprintf("  %s %s (%s)", symbol(u.Outcome), u.CheckID, u.Kind)
	if detail != "" {
		line += ": " + detail
	}
	if u.Cached {
		line += " [cached result]"
	}
	fmt.Fprintln(w, line)

	if opts.Verbose && u.Output != "" && u.Outcome != model.OutcomePassed {
		for _, outLine := range strings.Split(strings.TrimRight(u.Output, "\n"), "\n") {
			fmt.Fprintf(w, "      %s\n", outLine)
		}
	}
}

func writeSummary(w io.Writer, r *model.Report) {
	t := r.Totals
	fmt.Fprintf(w, "%d passed, %d failed, %d errors, %d skipped\n",
		t.Passed, t.Failed, t.Errored, t.Skipped)
	if r.Partial {
		fmt.Fprintln(w, "run was interrupted; report is partial")
	}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
