// loop.go drives the bounded generate -> extract -> verify -> retry cycle.
package generate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pop-sh/pop/internal/extract"
	"github.com/pop-sh/pop/internal/verify"
)

// Backend is the model capability the loop generates and reviews with.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Recorder observes each finished attempt. Implementations persist attempts
// to the session log; a nil Recorder is allowed.
type Recorder interface {
	RecordAttempt(a Attempt)
}

// Attempt is one generation+verification round. Appended only, never mutated
// after RecordAttempt sees it.
type Attempt struct {
	Index        int
	RawResponse  string
	Extracted    string // empty when extraction failed
	Syntax       verify.Result
	Completeness verify.Result
	Outcome      Outcome
}

// Options configures one run of the retry loop.
type Options struct {
	Model      string
	Prompt     string
	Language   string
	OutputPath string

	Minimal      bool
	ShowThinking bool

	// InitialFeedback seeds the first prompt with fix-mode findings.
	InitialFeedback string
	// Header is prepended to the accepted output as commentary (fix mode).
	Header string
	// FixedOutput writes to OutputPath verbatim instead of incremental naming.
	FixedOutput bool

	MaxAttempts     int
	GenerateTimeout time.Duration
	CheckTimeout    time.Duration
	ReviewTimeout   time.Duration
}

// Result is the terminal outcome of a run.
type Result struct {
	Accepted      bool
	OutputPath    string // accepted artifact, or saved partial when exhausted
	Attempts      []Attempt
	FailureReason string // last rejection diagnostic when exhausted
}

// Run executes up to MaxAttempts generation rounds. Verification failures
// and backend unavailability are consumed by the loop and fed back into the
// next prompt; only infrastructure faults (unwritable output) return an error.
func Run(ctx context.Context, b Backend, opts Options, rec Recorder) (*Result, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	result := &Result{}
	feedback := opts.InitialFeedback

	for index := 1; index <= opts.MaxAttempts; index++ {
		prompt, err := buildAttemptPrompt(opts, index, feedback)
		if err != nil {
			return nil, err
		}

		attempt := Attempt{Index: index}
		lang := opts.Language

		raw, genErr := generateWithTimeout(ctx, b, opts, prompt)
		attempt.RawResponse = raw

		switch {
		case genErr != nil:
			// Backend unavailable: no candidate this round, retry.
			attempt.Outcome = OutcomeExtractionFailed
			feedback = "the model backend did not return a usable response: " + genErr.Error()

		default:
			snippets := extract.Extract(raw, opts.Language, false)
			if len(snippets) == 0 {
				attempt.Outcome = OutcomeExtractionFailed
				feedback = "the reply contained no fenced code block; reply with exactly one fenced code block"
				break
			}

			snippet := snippets[0]
			attempt.Extracted = snippet.Code
			if snippet.Lang != "" {
				lang = snippet.Lang
			}

			attempt.Syntax = checkSyntax(ctx, snippet.Code, lang, opts.CheckTimeout)
			if !attempt.Syntax.Pass {
				attempt.Outcome = OutcomeRejectedSyntax
				feedback = "the script failed the syntax check:\n" + attempt.Syntax.Diagnostic
				break
			}

			attempt.Completeness = checkCompleteness(ctx, b, opts, snippet.Code, lang)
			if !attempt.Completeness.Pass {
				attempt.Outcome = OutcomeRejectedCompleteness
				feedback = "the script was judged incomplete: " + attempt.Completeness.Diagnostic
				break
			}

			attempt.Outcome = OutcomeAccepted
		}

		result.Attempts = append(result.Attempts, attempt)
		if rec != nil {
			rec.RecordAttempt(attempt)
		}

		if attempt.Outcome == OutcomeAccepted {
			path, werr := writeArtifact(attempt.Extracted, lang, opts)
			if werr != nil {
				return nil, werr
			}
			result.Accepted = true
			result.OutputPath = path
			return result, nil
		}
	}

	result.FailureReason = feedback
	result.OutputPath = savePartial(result.Attempts, opts.OutputPath)
	return result, nil
}

// buildAttemptPrompt picks the task template for attempt 1 and the feedback
// template for every retry.
func buildAttemptPrompt(opts Options, index int, feedback string) (string, error) {
	data := PromptData{
		Prompt:       opts.Prompt,
		Language:     opts.Language,
		Minimal:      opts.Minimal,
		ShowThinking: opts.ShowThinking,
		Feedback:     feedback,
		Attempt:      index,
	}
	if index == 1 {
		return BuildTaskPrompt(data)
	}
	return BuildFeedbackPrompt(data)
}

func generateWithTimeout(ctx context.Context, b Backend, opts Options, prompt string) (string, error) {
	if opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.GenerateTimeout)
		defer cancel()
	}
	return b.Generate(ctx, opts.Model, prompt)
}

func checkSyntax(ctx context.Context, code, lang string, timeout time.Duration) verify.Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return verify.Syntax(ctx, code, lang)
}

func checkCompleteness(ctx context.Context, b Backend, opts Options, code, lang string) verify.Result {
	if opts.ReviewTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ReviewTimeout)
		defer cancel()
	}
	return verify.Completeness(ctx, b, opts.Model, code, opts.Prompt, lang)
}

// writeArtifact finalizes and persists an accepted snippet.
func writeArtifact(code, lang string, opts Options) (string, error) {
	code = extract.EnsureShebang(code, lang)
	if opts.Minimal {
		code = extract.StripComments(code, lang)
	}
	if opts.Header != "" {
		code = insertHeader(code, opts.Header)
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}

	path := opts.OutputPath
	if !opts.FixedOutput {
		path = NextAvailable(path)
	}

	if err := os.WriteFile(path, []byte(code), 0755); err != nil {
		return "", fmt.Errorf("writing output %s: %w", path, err)
	}
	return path, nil
}

// insertHeader places commentary after the shebang line, or at the top when
// there is none.
func insertHeader(code, header string) string {
	header = strings.TrimRight(header, "\n")
	if strings.HasPrefix(code, "#!") {
		if idx := strings.Index(code, "\n"); idx >= 0 {
			return code[:idx+1] + header + "\n" + code[idx+1:]
		}
	}
	return header + "\n" + code
}

// savePartial keeps the most recent extracted snippet for inspection after
// the attempt ceiling is reached. Returns the saved path or empty string.
func savePartial(attempts []Attempt, outputPath string) string {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Extracted == "" {
			continue
		}
		path := outputPath + ".partial"
		if err := os.WriteFile(path, []byte(attempts[i].Extracted+"\n"), 0644); err != nil {
			return ""
		}
		return path
	}
	return ""
}
