package generate

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pop-sh/pop/prompts"
)

// PromptData holds the template data for generation prompts.
type PromptData struct {
	Prompt       string
	Language     string
	Minimal      bool
	ShowThinking bool
	Feedback     string
	Attempt      int
}

// BuildTaskPrompt renders the first-attempt generation prompt. Feedback, when
// set, carries fix-mode findings into the initial request.
func BuildTaskPrompt(data PromptData) (string, error) {
	return render("task", prompts.GenerateTaskTemplate, data)
}

// BuildFeedbackPrompt renders the regeneration prompt for attempts after a
// rejection, embedding the specific failure diagnostic.
func BuildFeedbackPrompt(data PromptData) (string, error) {
	return render("feedback", prompts.GenerateFeedbackTemplate, data)
}

func render(name, text string, data PromptData) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", name, err)
	}
	return buf.String(), nil
}
