package prompts

import _ "embed"

//go:embed generate/task.md.tmpl
var GenerateTaskTemplate string

//go:embed generate/feedback.md.tmpl
var GenerateFeedbackTemplate string

//go:embed review/completeness.md.tmpl
var CompletenessTemplate string

//go:embed fix/review.md.tmpl
var FixReviewTemplate string
