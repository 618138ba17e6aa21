// Package session owns the lifecycle of one generation or fix job: identity,
// durable metadata, the active-job index, and liveness reconciliation.
package session

import "time"

// Kind is the job type of a session.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindFix      Kind = "fix"
)

// State is the session lifecycle state. Transitions are monotonic:
// Pending -> Running -> Succeeded | Failed, with no revisits.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// status maps a State to the persisted STATUS value.
func (s State) status() string {
	switch s {
	case StateSucceeded:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "running"
	}
}

// Session is one tracked job from submission to terminal status.
type Session struct {
	ID           string
	Kind         Kind
	Model        string
	Prompt       string
	OutputPath   string
	State        State
	Attempt      int
	CreatedAt    time.Time
	EndedAt      time.Time // zero until terminal
	PID          int
	Reason       string   // terminal failure reason, if any
	Dependencies []string // fix mode: resolved package names
}
