package judgingdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var criteria = []WeightedCriterion{
	{Criterion: Criterion{ID: 1, Question: "Awesome?", MinValue: 0, MaxValue: 10}, Weight: 10},
	{Criterion: Criterion{ID: 2, Question: "Feasible?", MinValue: 0, MaxValue: 10}, Weight: 30},
}

func TestScore(t *testing.T) {
	score, err := Score(criteria, []Answer{{CriterionID: 1, Rating: 10}, {CriterionID: 2, Rating: 5}})
	require.NoError(t, err)
	// (10*10 + 5*30) / (10*10 + 10*30) * 100
	assert.InDelta(t, 62.5, score, 1e-9)

	score, err = Score(criteria, []Answer{{CriterionID: 1, Rating: 0}, {CriterionID: 2, Rating: 0}})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestScore_Incomplete(t *testing.T) {
	_, err := Score(criteria, []Answer{{CriterionID: 1, Rating: 3}})
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = Score(nil, nil)
	assert.ErrorIs(t, err, ErrNoCriteria)
}

func TestValidateAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers []Answer
		wantErr error
	}{
		{name: "partial is fine", answers: []Answer{{CriterionID: 1, Rating: 4}}},
		{name: "boundaries", answers: []Answer{{CriterionID: 1, Rating: 0}, {CriterionID: 2, Rating: 10}}},
		{name: "unknown criterion", answers: []Answer{{CriterionID: 9, Rating: 4}}, wantErr: ErrUnknownCriterion},
		{name: "above max", answers: []Answer{{CriterionID: 1, Rating: 11}}, wantErr: ErrRatingOutOfRange},
		{name: "below min", answers: []Answer{{CriterionID: 2, Rating: -1}}, wantErr: ErrRatingOutOfRange},
		{name: "duplicate", answers: []Answer{{CriterionID: 1, Rating: 1}, {CriterionID: 1, Rating: 2}}, wantErr: ErrDuplicateAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswers(criteria, tt.answers)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
