package awarddb

import (
	"time"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	"github.com/uptrace/bun"
)

// Award is the budget of a phase, or of one round of a phase.
type Award struct {
	bun.BaseModel `bun:"table:awards,alias:a"`

	ID           int64              `bun:"id,pk,autoincrement"`
	PhaseID      int64              `bun:"phase_id,notnull"`
	PhaseRoundID *int64             `bun:"phase_round_id"`
	Amount       int64              `bun:"amount,notnull"`
	Status       awarddomain.Status `bun:"status,notnull"`
	Note         string             `bun:"note,notnull,default:''"`
	CreatedAt    time.Time          `bun:"created_at,notnull,default:current_timestamp"`
}

// JudgeAllowance is one judge's share of an award.
type JudgeAllowance struct {
	bun.BaseModel `bun:"table:judge_allowances,alias:ja"`

	ID        int64     `bun:"id,pk,autoincrement"`
	AwardID   int64     `bun:"award_id,notnull"`
	ProfileID int64     `bun:"profile_id,notnull"`
	Amount    int64     `bun:"amount,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	Award *Award `bun:"rel:belongs-to,join:award_id=id"`
}

// SubmissionAward is money from one allowance to one submission.
type SubmissionAward struct {
	bun.BaseModel `bun:"table:submission_awards,alias:sa"`

	ID               int64     `bun:"id,pk,autoincrement"`
	JudgeAllowanceID int64     `bun:"judge_allowance_id,notnull"`
	SubmissionID     int64     `bun:"submission_id,notnull"`
	Amount           int64     `bun:"amount,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AllowanceUsage is the aggregate row behind award summaries.
type AllowanceUsage struct {
	AllowanceID int64 `bun:"allowance_id"`
	ProfileID   int64 `bun:"profile_id"`
	Amount      int64 `bun:"amount"`
	Used        int64 `bun:"used"`
}
