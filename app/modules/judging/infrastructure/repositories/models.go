package judgingdb

import (
	"time"

	judgingdomain "github.com/mozilla/mozilla-ignite/app/modules/judging/domain"
	"github.com/uptrace/bun"
)

// JudgingCriterion is a question judges rate submissions on.
type JudgingCriterion struct {
	bun.BaseModel `bun:"table:judging_criteria,alias:jc"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Question string `bun:"question,notnull,unique"`
	MinValue int    `bun:"min_value,notnull,default:0"`
	MaxValue int    `bun:"max_value,notnull,default:10"`
}

// PhaseCriterion attaches a criterion to a phase with a weight.
type PhaseCriterion struct {
	bun.BaseModel `bun:"table:phase_criteria,alias:pc"`

	PhaseID     int64   `bun:"phase_id,pk"`
	CriterionID int64   `bun:"criterion_id,pk"`
	Weight      float64 `bun:"weight,notnull,default:10"`

	Criterion *JudgingCriterion `bun:"rel:belongs-to,join:criterion_id=id"`
}

// Judgement is one judge's review of one submission.
type Judgement struct {
	bun.BaseModel `bun:"table:judgements,alias:j"`

	ID           int64           `bun:"id,pk,autoincrement"`
	SubmissionID int64           `bun:"submission_id,notnull"`
	ProfileID    int64           `bun:"profile_id,notnull"`
	Notes        string          `bun:"notes,notnull,default:''"`
	CreatedAt    time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
	Answers      []JudgingAnswer `bun:"rel:has-many,join:id=judgement_id"`
}

// JudgingAnswer is the rating given to one criterion.
type JudgingAnswer struct {
	bun.BaseModel `bun:"table:judging_answers,alias:jan"`

	JudgementID int64 `bun:"judgement_id,pk"`
	CriterionID int64 `bun:"criterion_id,pk"`
	Rating      int   `bun:"rating,notnull"`
}

// JudgeAssignment marks a submission as taken by a judge.
type JudgeAssignment struct {
	bun.BaseModel `bun:"table:judge_assignments,alias:jas"`

	ID           int64     `bun:"id,pk,autoincrement"`
	SubmissionID int64     `bun:"submission_id,notnull"`
	ProfileID    int64     `bun:"profile_id,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Weighted converts the attachment for scoring.
func (pc PhaseCriterion) Weighted() judgingdomain.WeightedCriterion {
	w := judgingdomain.WeightedCriterion{Weight: pc.Weight}
	if pc.Criterion != nil {
		w.Criterion = judgingdomain.Criterion{
			ID:       pc.Criterion.ID,
			Question: pc.Criterion.Question,
			MinValue: pc.Criterion.MinValue,
			MaxValue: pc.Criterion.MaxValue,
		}
	} else {
		w.ID = pc.CriterionID
	}
	return w
}

// DomainAnswers returns the judgement's ratings.
func (j Judgement) DomainAnswers() []judgingdomain.Answer {
	out := make([]judgingdomain.Answer, 0, len(j.Answers))
	for _, a := range j.Answers {
		out = append(out, judgingdomain.Answer{CriterionID: a.CriterionID, Rating: a.Rating})
	}
	return out
}
