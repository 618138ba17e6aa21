// recorder.go bridges the retry loop into a session's durable logs: a
// human-readable session.log and the structured events.jsonl stream.
package session

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pop-sh/pop/internal/generate"
	"github.com/pop-sh/pop/internal/log"
)

// Recorder persists loop attempts for one session. It implements
// generate.Recorder.
type Recorder struct {
	id     string
	logDst string
	events *log.Logger

	mu sync.Mutex
}

// NewRecorder returns a recorder writing to the session's log files.
func (m *Manager) NewRecorder(id string) *Recorder {
	return &Recorder{
		id:     id,
		logDst: m.LogPath(id),
		events: log.NewLogger(m.EventsPath(id)),
	}
}

// RecordAttempt appends one attempt to both logs. Failures to write are
// swallowed: logging must never abort the loop.
func (r *Recorder) RecordAttempt(a generate.Attempt) {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Attempt %d (%s) ===\n", a.Index, a.Outcome)
	if a.RawResponse != "" {
		b.WriteString("--- Model response ---\n")
		b.WriteString(strings.TrimRight(a.RawResponse, "\n"))
		b.WriteString("\n")
	}

	switch a.Outcome {
	case generate.OutcomeExtractionFailed:
		b.WriteString("extraction: no usable code block\n")
	case generate.OutcomeRejectedSyntax:
		fmt.Fprintf(&b, "syntax check: FAIL\n%s\n", strings.TrimRight(a.Syntax.Diagnostic, "\n"))
	case generate.OutcomeRejectedCompleteness:
		fmt.Fprintf(&b, "syntax check: PASS\ncompleteness: INCOMPLETE: %s\n", a.Completeness.Diagnostic)
	case generate.OutcomeAccepted:
		b.WriteString("syntax check: PASS\ncompleteness: COMPLETE\n")
	}
	r.appendText(b.String())

	event := log.EventAttemptStarted
	switch a.Outcome {
	case generate.OutcomeAccepted:
		event = log.EventAttemptAccepted
	case generate.OutcomeRejectedSyntax:
		event = log.EventSyntaxFailed
	case generate.OutcomeRejectedCompleteness:
		event = log.EventCompletenessFailed
	case generate.OutcomeExtractionFailed:
		event = log.EventExtractionFailed
	}

	reason := ""
	switch a.Outcome {
	case generate.OutcomeRejectedSyntax:
		reason = a.Syntax.Diagnostic
	case generate.OutcomeRejectedCompleteness:
		reason = a.Completeness.Diagnostic
	}

	_ = r.events.Append(log.LogEvent{
		Event:     event,
		SessionID: r.id,
		Attempt:   a.Index,
		Outcome:   a.Outcome.String(),
		Reason:    reason,
	})
}

// RecordFixSections writes the fix-mode diagnostics summary to the session
// log and notes the review in the event stream.
func (r *Recorder) RecordFixSections(sections string) {
	r.appendText(strings.TrimRight(sections, "\n") + "\n")
	_ = r.events.Append(log.LogEvent{
		Event:     log.EventFixReview,
		SessionID: r.id,
	})
}

// RecordNote writes a free-form line to the session log.
func (r *Recorder) RecordNote(format string, args ...interface{}) {
	r.appendText(fmt.Sprintf(format, args...) + "\n")
}

func (r *Recorder) appendText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.logDst, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s]\n%s\n", time.Now().Format(time.RFC3339), text)
}
