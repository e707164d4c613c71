package domain

import (
	"fmt"
	"strings"
)

// Outcome is the classification result for a single commit.
type Outcome int

const (
	OutcomeSkip Outcome = iota
	OutcomeBackport
	OutcomeAsk
	OutcomeDone // already applied on the target branch
	OutcomePick // descend to per-commit handling (merge commits only)
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeBackport:
		return "backport"
	case OutcomeAsk:
		return "ask"
	case OutcomeDone:
		return "done"
	case OutcomePick:
		return "pick"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PRClass is the aggregate classification of a merge commit. The numeric
// values order the classes by match strength and are part of the contract:
// the driver compares them and tests pin them.
type PRClass int

const (
	PRClassSkip     PRClass = 0 // no member matched
	PRClassPick     PRClass = 1 // partial match, descend per commit
	PRClassAsk      PRClass = 2 // majority match, ask at PR granularity
	PRClassBackport PRClass = 3 // total match, backport wholesale
	PRClassDone     PRClass = 4 // every member already applied
)

func (c PRClass) String() string {
	switch c {
	case PRClassSkip:
		return "skip"
	case PRClassPick:
		return "pick"
	case PRClassAsk:
		return "ask"
	case PRClassBackport:
		return "backport"
	case PRClassDone:
		return "done"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Strategy selects the granularity at which merge commits are backported.
type Strategy int

const (
	// StrategyPR backports whole PRs when their aggregate score allows it.
	StrategyPR Strategy = iota
	// StrategyMixed backports whole PRs only above a member-count threshold.
	StrategyMixed
	// StrategyCommits never backports at PR granularity.
	StrategyCommits
)

// ParseStrategy decodes a configuration or flag value.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pr":
		return StrategyPR, nil
	case "mixed":
		return StrategyMixed, nil
	case "commits":
		return StrategyCommits, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want pr, mixed, or commits)", s)
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyPR:
		return "pr"
	case StrategyMixed:
		return "mixed"
	case StrategyCommits:
		return "commits"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}
