package generate

// Outcome classifies one generation+verification attempt.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejectedSyntax
	OutcomeRejectedCompleteness
	OutcomeExtractionFailed
)

// String returns the log-facing name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejectedSyntax:
		return "rejected_syntax"
	case OutcomeRejectedCompleteness:
		return "rejected_completeness"
	case OutcomeExtractionFailed:
		return "extraction_failed"
	default:
		return "unknown"
	}
}
