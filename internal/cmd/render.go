package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/calder/delegator/internal/gating"
	"github.com/calder/delegator/internal/models"
)

// renderReport prints the final report in a human-readable layout. Severity
// coloring is applied only when writing to a TTY.
func renderReport(w io.Writer, outcome *gating.Outcome) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	report := outcome.Report
	decision := report.Decision

	fmt.Fprintf(w, "\nDecision: %s (confidence %d)\n", paintKind(decision.Kind, useColor), decision.Confidence)
	if report.Annotation != "" {
		fmt.Fprintf(w, "Note: %s\n", report.Annotation)
	}

	switch decision.Kind {
	case models.DecisionProceed:
		fmt.Fprintf(w, "Recommendation: %s\n", decision.Recommendation)
		fmt.Fprintf(w, "Rationale: %s\n", decision.Rationale)
	case models.DecisionPresentOptions:
		fmt.Fprintln(w, "Options:")
		for i, opt := range decision.Options {
			fmt.Fprintf(w, "  %d. %s\n", i+1, opt.Summary)
		}
		if decision.Comparison != "" {
			fmt.Fprintf(w, "Comparison: %s\n", decision.Comparison)
		}
	}

	s := report.Summary
	fmt.Fprintf(w, "\nFindings: %d total (%d critical, %d high, %d medium, %d low)\n",
		s.Total, s.Critical, s.High, s.Medium, s.Low)
	for i := range report.Findings {
		f := &report.Findings[i]
		location := f.Location
		if location == "" {
			location = "-"
		}
		fmt.Fprintf(w, "  %s %s %s\n", paintSeverity(f.Severity, useColor), location, f.Evidence)
	}

	if outcome.Iterations > 0 {
		fmt.Fprintf(w, "\nEscalation rounds: %d\n", outcome.Iterations)
	}
}

func paintKind(kind models.DecisionKind, useColor bool) string {
	if !useColor {
		return string(kind)
	}
	switch kind {
	case models.DecisionProceed:
		return color.GreenString(string(kind))
	case models.DecisionPresentOptions:
		return color.YellowString(string(kind))
	case models.DecisionEscalate:
		return color.RedString(string(kind))
	}
	return string(kind)
}

func paintSeverity(sev models.Severity, useColor bool) string {
	label := fmt.Sprintf("[%s]", sev)
	if !useColor {
		return label
	}
	switch sev {
	case models.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case models.SeverityHigh:
		return color.RedString(label)
	case models.SeverityMedium:
		return color.YellowString(label)
	case models.SeverityLow:
		return color.CyanString(label)
	}
	return label
}
