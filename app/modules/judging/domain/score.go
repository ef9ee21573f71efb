package judgingdomain

import (
	"errors"
	"fmt"
)

// Criterion is a rated question and its allowed range.
type Criterion struct {
	ID       int64
	Question string
	MinValue int
	MaxValue int
}

// WeightedCriterion is a criterion as attached to a phase.
type WeightedCriterion struct {
	Criterion
	Weight float64
}

// Answer is one rating within a judgement.
type Answer struct {
	CriterionID int64 `json:"criterion_id"`
	Rating      int   `json:"rating"`
}

var (
	ErrIncomplete        = errors.New("judgement is incomplete")
	ErrUnknownCriterion  = errors.New("criterion is not used in this phase")
	ErrRatingOutOfRange  = errors.New("rating is out of range")
	ErrDuplicateAnswer   = errors.New("criterion answered more than once")
	ErrNotJudge          = errors.New("only judges can judge submissions")
	ErrNotAssigned       = errors.New("this submission is not assigned to you")
	ErrSubmissionMissing = errors.New("submission not found")
	ErrNoCriteria        = errors.New("this phase has no judging criteria")
)

// DefaultWeight is the weight a criterion gets when attached without one.
const DefaultWeight = 10.0

// ValidateAnswers checks every answer against the phase's criteria. Answers
// may be partial; Score reports incompleteness.
func ValidateAnswers(criteria []WeightedCriterion, answers []Answer) error {
	byID := make(map[int64]WeightedCriterion, len(criteria))
	for _, c := range criteria {
		byID[c.ID] = c
	}
	seen := make(map[int64]bool, len(answers))
	for _, a := range answers {
		c, ok := byID[a.CriterionID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownCriterion, a.CriterionID)
		}
		if seen[a.CriterionID] {
			return fmt.Errorf("%w: %d", ErrDuplicateAnswer, a.CriterionID)
		}
		seen[a.CriterionID] = true
		if a.Rating < c.MinValue || a.Rating > c.MaxValue {
			return fmt.Errorf("%w: %q must be between %d and %d", ErrRatingOutOfRange, c.Question, c.MinValue, c.MaxValue)
		}
	}
	return nil
}

// Score is the weighted percentage of the judgement:
// sum(rating * weight) / sum(max * weight) * 100. Every criterion must be
// answered.
func Score(criteria []WeightedCriterion, answers []Answer) (float64, error) {
	if len(criteria) == 0 {
		return 0, ErrNoCriteria
	}
	ratings := make(map[int64]int, len(answers))
	for _, a := range answers {
		ratings[a.CriterionID] = a.Rating
	}

	var got, possible float64
	for _, c := range criteria {
		rating, ok := ratings[c.ID]
		if !ok {
			return 0, ErrIncomplete
		}
		got += float64(rating) * c.Weight
		possible += float64(c.MaxValue) * c.Weight
	}
	if possible == 0 {
		return 0, nil
	}
	return got / possible * 100, nil
}
