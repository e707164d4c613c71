package domain

import "fmt"

// Decision is a persisted human ruling for a single commit. Once recorded it
// overrides score-based classification on every later run.
type Decision rune

const (
	DecisionBackport Decision = 'b'
	DecisionSkip     Decision = 's'
	DecisionPick     Decision = 'p'
)

// ParseDecision decodes the single-character cache payload.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "b":
		return DecisionBackport, nil
	case "s":
		return DecisionSkip, nil
	case "p":
		return DecisionPick, nil
	default:
		return 0, fmt.Errorf("unknown decision %q", s)
	}
}

func (d Decision) String() string {
	switch d {
	case DecisionBackport:
		return "backport"
	case DecisionSkip:
		return "skip"
	case DecisionPick:
		return "pick"
	default:
		return fmt.Sprintf("decision(%q)", rune(d))
	}
}

// Payload returns the one-character form written to the decision cache.
func (d Decision) Payload() string {
	return string(rune(d))
}
