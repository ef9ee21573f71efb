package judgingdomain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counts(pairs []Pair) (perJudge map[int64]int, perSubmission map[int64][]int64) {
	perJudge = map[int64]int{}
	perSubmission = map[int64][]int64{}
	for _, p := range pairs {
		perJudge[p.ProfileID]++
		perSubmission[p.SubmissionID] = append(perSubmission[p.SubmissionID], p.ProfileID)
	}
	return perJudge, perSubmission
}

func spread(m map[int64]int) int {
	lo, hi := -1, 0
	for _, n := range m {
		if lo == -1 || n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return hi - lo
}

func TestDistribute_OneJudgeEach(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pairs, err := Distribute([]int64{1, 2, 3, 4, 5}, []int64{100, 200}, 1, rng)
	require.NoError(t, err)
	require.Len(t, pairs, 5)

	perJudge, perSubmission := counts(pairs)
	for _, judges := range perSubmission {
		assert.Len(t, judges, 1)
	}
	assert.GreaterOrEqual(t, perJudge[100], 2)
	assert.GreaterOrEqual(t, perJudge[200], 2)
	assert.LessOrEqual(t, spread(perJudge), 1)
}

func TestDistribute_KJudgesAreDistinct(t *testing.T) {
	submissions := []int64{1, 2, 3, 4, 5, 6, 7}
	judges := []int64{10, 20, 30, 40}

	for seed := uint64(0); seed < 20; seed++ {
		pairs, err := Distribute(submissions, judges, 3, rand.New(rand.NewPCG(seed, seed)))
		require.NoError(t, err)
		require.Len(t, pairs, len(submissions)*3)

		perJudge, perSubmission := counts(pairs)
		for sub, assigned := range perSubmission {
			seen := map[int64]bool{}
			for _, j := range assigned {
				assert.False(t, seen[j], "submission %d got judge %d twice", sub, j)
				seen[j] = true
			}
		}
		assert.LessOrEqual(t, spread(perJudge), 1)
	}
}

func TestDistribute_Errors(t *testing.T) {
	_, err := Distribute([]int64{1}, []int64{10}, 2, nil)
	assert.ErrorIs(t, err, ErrNotEnoughJudges)

	_, err = Distribute([]int64{1}, []int64{10}, 0, nil)
	assert.Error(t, err)
}

func TestDistribute_NoSubmissions(t *testing.T) {
	pairs, err := Distribute(nil, []int64{10, 20}, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDistribute_DoesNotReorderInput(t *testing.T) {
	judges := []int64{10, 20, 30}
	_, err := Distribute([]int64{1, 2}, judges, 1, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, judges)
}
