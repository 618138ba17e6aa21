package verify

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/pop-sh/pop/prompts"
)

// Reviewer is the model capability used for completeness review.
type Reviewer interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// completenessData holds the template data for the review prompt.
type completenessData struct {
	Prompt   string
	Language string
	Code     string
}

// Completeness asks the backend whether the snippet fully answers the
// original request. Any backend failure, timeout, or unparseable verdict
// degrades to a pass: this check is advisory and must never make the
// pipeline depend on a second fallible call.
func Completeness(ctx context.Context, rev Reviewer, model, code, originalPrompt, lang string) Result {
	prompt, err := buildCompletenessPrompt(originalPrompt, lang, code)
	if err != nil {
		return Result{Pass: true, Diagnostic: "review prompt unavailable"}
	}

	reply, err := rev.Generate(ctx, model, prompt)
	if err != nil {
		return Result{Pass: true, Diagnostic: "review unavailable: " + err.Error()}
	}

	return parseVerdict(reply)
}

// buildCompletenessPrompt renders the review template.
func buildCompletenessPrompt(originalPrompt, lang, code string) (string, error) {
	tmpl, err := template.New("completeness").Parse(prompts.CompletenessTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, completenessData{
		Prompt:   originalPrompt,
		Language: lang,
		Code:     code,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseVerdict extracts the COMPLETE / INCOMPLETE verdict from a reply.
// A reply with no recognizable verdict line passes (advisory-only check).
func parseVerdict(reply string) Result {
	for _, line := range strings.Split(reply, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(upper, "INCOMPLETE"):
			reason := strings.TrimSpace(line)
			if idx := strings.Index(reason, ":"); idx >= 0 {
				reason = strings.TrimSpace(reason[idx+1:])
			}
			if reason == "" {
				reason = "model judged the script incomplete"
			}
			return Result{Pass: false, Diagnostic: reason}
		case strings.HasPrefix(upper, "COMPLETE"):
			return Result{Pass: true}
		}
	}
	return Result{Pass: true, Diagnostic: "no verdict in review reply"}
}
