// Package ui provides terminal output components for pop.
// This file implements the progress display shown during foreground runs.
package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// AttemptStatus represents the state of a single generation attempt.
type AttemptStatus int

const (
	StatusPending              AttemptStatus = iota // Not reached yet
	StatusGenerating                                // Waiting on the model / verifiers
	StatusAccepted                                  // Passed both checks
	StatusRejectedSyntax                            // Syntax check failed
	StatusRejectedCompleteness                      // Completeness review failed
	StatusNoCode                                    // Reply had no usable code block
)

// AttemptState holds the display state of one attempt.
type AttemptState struct {
	Index   int
	Status  AttemptStatus
	Detail  string // short rejection reason
	Elapsed time.Duration
}

// ProgressDisplay manages a live-updating terminal view of the retry loop.
type ProgressDisplay struct {
	mu          sync.Mutex
	taskDesc    string
	attempts    []*AttemptState
	started     bool
	isTTY       bool
	linesDrawn  int
	startTimes  map[int]time.Time
	lastPrinted map[int]AttemptStatus // last printed status per attempt (non-TTY)
}

// NewProgressDisplay creates a ProgressDisplay for a task with the given
// attempt ceiling.
func NewProgressDisplay(taskDesc string, maxAttempts int) *ProgressDisplay {
	p := &ProgressDisplay{
		taskDesc:    taskDesc,
		startTimes:  make(map[int]time.Time),
		lastPrinted: make(map[int]AttemptStatus),
		isTTY:       term.IsTerminal(int(os.Stdout.Fd())),
	}
	for i := 1; i <= maxAttempts; i++ {
		p.attempts = append(p.attempts, &AttemptState{Index: i, Status: StatusPending})
	}
	return p
}

// StartAttempt marks an attempt as in flight and draws the display.
func (p *ProgressDisplay) StartAttempt(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := p.attempt(index)
	if state == nil {
		return
	}
	state.Status = StatusGenerating
	p.startTimes[index] = time.Now()
	p.started = true
	p.render()
}

// FinishAttempt records an attempt's outcome and re-renders the display.
func (p *ProgressDisplay) FinishAttempt(index int, status AttemptStatus, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := p.attempt(index)
	if state == nil {
		return
	}
	state.Status = status
	state.Detail = firstLine(detail)
	if start, ok := p.startTimes[index]; ok {
		state.Elapsed = time.Since(start)
	}
	if p.started {
		p.render()
	}
}

// Finish moves the cursor below the display and prints a summary line.
func (p *ProgressDisplay) Finish(accepted bool, output string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isTTY && p.linesDrawn > 0 {
		fmt.Print("\n")
	}

	used := 0
	for _, a := range p.attempts {
		if a.Status != StatusPending {
			used++
		}
	}

	if accepted {
		fmt.Printf("\nAccepted after %d attempt(s): %s\n", used, output)
		return
	}
	fmt.Printf("\nNo accepted script after %d attempt(s)", used)
	if output != "" {
		fmt.Printf("; last candidate saved to %s", output)
	}
	fmt.Println()
}

func (p *ProgressDisplay) attempt(index int) *AttemptState {
	if index < 1 || index > len(p.attempts) {
		return nil
	}
	return p.attempts[index-1]
}

// render draws or redraws the display.
func (p *ProgressDisplay) render() {
	if !p.isTTY {
		p.renderPlain()
		return
	}
	p.renderTTY()
}

// renderTTY draws the display using ANSI escape codes for in-place updates.
func (p *ProgressDisplay) renderTTY() {
	if p.linesDrawn > 0 {
		fmt.Printf("\033[%dA", p.linesDrawn)
	}

	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("\033[2K\033[1mpop - %q\033[0m\n", p.taskDesc))
	buf.WriteString("\033[2K\n")

	for _, a := range p.attempts {
		buf.WriteString("\033[2K")
		buf.WriteString(formatAttemptLine(a, p.startTimes))
		buf.WriteString("\n")
	}

	fmt.Print(buf.String())
	p.linesDrawn = len(p.attempts) + 2 // header + blank + attempts
}

// renderPlain writes non-TTY output (worker logs, CI, piping).
// Only prints on status transitions to avoid duplicate lines.
func (p *ProgressDisplay) renderPlain() {
	for _, a := range p.attempts {
		if a.Status == StatusPending {
			continue
		}
		if prev, seen := p.lastPrinted[a.Index]; seen && prev == a.Status {
			continue
		}
		fmt.Println(formatAttemptLinePlain(a))
		p.lastPrinted[a.Index] = a.Status
	}
}

func formatAttemptLine(a *AttemptState, startTimes map[int]time.Time) string {
	icon := statusIcon(a.Status)
	detail := statusDetail(a, startTimes)
	return fmt.Sprintf("  %s attempt %d  %s", icon, a.Index, detail)
}

func formatAttemptLinePlain(a *AttemptState) string {
	var status string
	switch a.Status {
	case StatusGenerating:
		status = "RUNNING"
	case StatusAccepted:
		status = fmt.Sprintf("ACCEPTED [%s]", formatDuration(a.Elapsed))
	case StatusRejectedSyntax:
		status = "REJECTED (syntax): " + a.Detail
	case StatusRejectedCompleteness:
		status = "REJECTED (incomplete): " + a.Detail
	case StatusNoCode:
		status = "NO CODE: " + a.Detail
	}
	return fmt.Sprintf("attempt %d: %s", a.Index, status)
}

func statusIcon(status AttemptStatus) string {
	switch status {
	case StatusAccepted:
		return "\033[32m✅\033[0m" // green checkmark
	case StatusGenerating:
		return "\033[33m⏳\033[0m" // yellow hourglass
	case StatusRejectedSyntax, StatusRejectedCompleteness, StatusNoCode:
		return "\033[31m❌\033[0m" // red X
	default:
		return "\033[90m○\033[0m" // dim circle
	}
}

func statusDetail(a *AttemptState, startTimes map[int]time.Time) string {
	switch a.Status {
	case StatusAccepted:
		return fmt.Sprintf("\033[90m[%s]\033[0m", formatDuration(a.Elapsed))
	case StatusGenerating:
		elapsed := time.Since(startTimes[a.Index])
		return fmt.Sprintf("\033[33m[%s]\033[0m", formatDuration(elapsed))
	case StatusRejectedSyntax:
		return fmt.Sprintf("\033[31m[syntax: %s]\033[0m", a.Detail)
	case StatusRejectedCompleteness:
		return fmt.Sprintf("\033[31m[incomplete: %s]\033[0m", a.Detail)
	case StatusNoCode:
		return "\033[31m[no code block]\033[0m"
	default:
		return "\033[90m[pending]\033[0m"
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
