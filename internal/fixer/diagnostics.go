// diagnostics.go merges mechanical findings with a model review of the
// script, and renders the consolidated lists for prompts and session logs.
package fixer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pop-sh/pop/prompts"
)

// Reviewer is the model capability used for the fix review.
type Reviewer interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Diagnostics is the consolidated fix-mode finding set fed into the first
// regeneration attempt and persisted to the session log.
type Diagnostics struct {
	Issues       []Issue
	Dependencies []Dependency
	Fixes        []string
}

// reviewData holds the template data for the fix review prompt.
type reviewData struct {
	Instructions string
	Code         string
	RunOutput    string
	Findings     []string
}

// Diagnose combines the analyzer report with a model review. A failing
// review degrades to the mechanical findings alone; fix mode never blocks
// on the second model call.
func Diagnose(ctx context.Context, rev Reviewer, model, instructions string, rep *Report) *Diagnostics {
	diag := &Diagnostics{
		Issues:       rep.Issues,
		Dependencies: rep.Dependencies,
	}

	prompt, err := buildReviewPrompt(instructions, rep)
	if err != nil {
		return diag
	}

	reply, err := rev.Generate(ctx, model, prompt)
	if err != nil {
		return diag
	}

	issues, fixes := parseReview(reply)
	diag.Issues = mergeIssues(diag.Issues, issues)
	diag.Fixes = fixes
	return diag
}

// buildReviewPrompt renders the fix review template with the script and
// execution evidence.
func buildReviewPrompt(instructions string, rep *Report) (string, error) {
	tmpl, err := template.New("fixreview").Parse(prompts.FixReviewTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing fix review template: %w", err)
	}

	findings := make([]string, 0, len(rep.Issues)+1)
	for _, iss := range rep.Issues {
		findings = append(findings, iss.Description)
	}
	if len(rep.Imports) > 0 {
		findings = append(findings, "declared imports: "+strings.Join(rep.Imports, ", "))
	}

	runOutput := rep.RunOutput
	if runOutput == "" {
		runOutput = "(no output captured)"
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, reviewData{
		Instructions: instructions,
		Code:         rep.Code,
		RunOutput:    runOutput,
		Findings:     findings,
	})
	if err != nil {
		return "", fmt.Errorf("executing fix review template: %w", err)
	}
	return buf.String(), nil
}

// parseReview extracts ISSUE: and FIX: lines from the model reply.
func parseReview(reply string) ([]Issue, []string) {
	var issues []Issue
	var fixes []string

	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		switch {
		case strings.HasPrefix(trimmed, "ISSUE:"):
			desc := strings.TrimSpace(strings.TrimPrefix(trimmed, "ISSUE:"))
			if desc != "" {
				issues = append(issues, Issue{Description: desc, Category: CategoryOther})
			}
		case strings.HasPrefix(trimmed, "FIX:"):
			fix := strings.TrimSpace(strings.TrimPrefix(trimmed, "FIX:"))
			if fix != "" {
				fixes = append(fixes, fix)
			}
		}
	}
	return issues, fixes
}

// mergeIssues appends reviewed issues to mechanical ones, deduplicating by
// description. Mechanical findings keep their position and category.
func mergeIssues(mechanical, reviewed []Issue) []Issue {
	seen := make(map[string]bool, len(mechanical))
	for _, iss := range mechanical {
		seen[iss.Description] = true
	}

	out := mechanical
	for _, iss := range reviewed {
		if seen[iss.Description] {
			continue
		}
		seen[iss.Description] = true
		out = append(out, iss)
	}
	return out
}

// FeedbackText renders the diagnostics as the feedback block for the first
// regeneration attempt.
func (d *Diagnostics) FeedbackText() string {
	var b strings.Builder

	if len(d.Issues) > 0 {
		b.WriteString("Issues found in the current script:\n")
		for _, iss := range d.Issues {
			fmt.Fprintf(&b, "- [%s] %s\n", iss.Category, iss.Description)
		}
	}
	if len(d.Dependencies) > 0 {
		b.WriteString("Missing dependencies (do not remove these imports; the user will install them):\n")
		for _, dep := range d.Dependencies {
			fmt.Fprintf(&b, "- %s (package %s)\n", dep.Module, dep.Package)
		}
	}
	if len(d.Fixes) > 0 {
		b.WriteString("Fixes to apply:\n")
		for _, fix := range d.Fixes {
			fmt.Fprintf(&b, "- %s\n", fix)
		}
	}

	if b.Len() == 0 {
		return "no mechanical defects detected; apply the user instructions"
	}
	return strings.TrimRight(b.String(), "\n")
}

// LogSections renders the diagnostics for the session log. Section order is
// fixed: Issues Found, Missing Dependencies, Fixes to Apply, Issues Addressed.
func (d *Diagnostics) LogSections(addressed []string) string {
	var b strings.Builder

	b.WriteString("Issues Found:\n")
	if len(d.Issues) == 0 {
		b.WriteString("- none\n")
	}
	for _, iss := range d.Issues {
		fmt.Fprintf(&b, "- [%s] %s\n", iss.Category, iss.Description)
	}

	b.WriteString("\nMissing Dependencies:\n")
	if len(d.Dependencies) == 0 {
		b.WriteString("- none\n")
	}
	for _, dep := range d.Dependencies {
		fmt.Fprintf(&b, "- %s -> %s\n", dep.Module, dep.Package)
	}

	b.WriteString("\nFixes to Apply:\n")
	if len(d.Fixes) == 0 {
		b.WriteString("- none\n")
	}
	for _, fix := range d.Fixes {
		fmt.Fprintf(&b, "- %s\n", fix)
	}

	b.WriteString("\nIssues Addressed:\n")
	if len(addressed) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range addressed {
		fmt.Fprintf(&b, "- %s\n", a)
	}

	return b.String()
}
