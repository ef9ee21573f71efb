package judgingdomain

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrNotEnoughJudges is a configuration error: every submission needs k
// distinct judges.
var ErrNotEnoughJudges = errors.New("not enough judges for the requested judges per submission")

// Pair is one planned judge assignment.
type Pair struct {
	SubmissionID int64
	ProfileID    int64
}

// Distribute spreads submissions evenly over judges, k judges each. Judges
// are shuffled once, then k cyclic sequences over the shuffled list are
// zipped with the submissions, sequence i starting i places in. With one
// judge per submission no judge gets more than one submission above any other.
//
// A nil rng uses the global source.
func Distribute(submissions, judges []int64, k int, rng *rand.Rand) ([]Pair, error) {
	if k <= 0 {
		return nil, fmt.Errorf("judges per submission must be positive, got %d", k)
	}
	if len(judges) < k {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughJudges, len(judges), k)
	}

	shuffled := append([]int64(nil), judges...)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng != nil {
		rng.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}

	pairs := make([]Pair, 0, len(submissions)*k)
	n := len(shuffled)
	for pos, submissionID := range submissions {
		for offset := 0; offset < k; offset++ {
			pairs = append(pairs, Pair{
				SubmissionID: submissionID,
				ProfileID:    shuffled[(pos+offset)%n],
			})
		}
	}
	return pairs, nil
}
