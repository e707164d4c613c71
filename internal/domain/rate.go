package domain

// RateTriple holds the per-signal pattern hit counts for one commit.
// It is derived state and never persisted.
type RateTriple struct {
	Message int
	Path    int
	Author  int
}

// Per-signal score weights. A signal contributes its full weight when its
// rate is nonzero; hit counts beyond one do not change the score.
const (
	WeightMessage = 35
	WeightPath    = 30
	WeightAuthor  = 35

	// MaxScore is the score of a commit matching all three signals.
	MaxScore = WeightMessage + WeightPath + WeightAuthor
)

// Score maps a rate triple to a confidence score in [0,100]. It is a total,
// order-independent function of the triple.
func (t RateTriple) Score() int {
	score := 0
	if t.Message > 0 {
		score += WeightMessage
	}
	if t.Path > 0 {
		score += WeightPath
	}
	if t.Author > 0 {
		score += WeightAuthor
	}
	return score
}
