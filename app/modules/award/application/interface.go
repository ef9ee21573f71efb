package awardservice

import (
	"context"

	awarddb "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ChallengeReader is the slice of the challenge repository awards read from.
type ChallengeReader interface {
	GetSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*challengedb.Submission, error)
	GetProfile(ctx context.Context, db bun.IDB, profileID int64) (*challengedb.Profile, error)
	GetProfiles(ctx context.Context, db bun.IDB, profileIDs []int64) ([]challengedb.Profile, error)
	ListJudges(ctx context.Context, db bun.IDB) ([]challengedb.Profile, error)
}

// Service is the award module's application surface.
type Service interface {
	CreateAward(ctx context.Context, phaseID int64, roundID *int64, amount int64, note string) (*awarddb.Award, error)
	ReleaseAward(ctx context.Context, awardID int64) error
	FreezeAward(ctx context.Context, awardID int64) error
	// Distribute splits the award evenly among every judge, exactly once.
	Distribute(ctx context.Context, awardID int64) (Distribution, error)

	// Allocate moves amount from the allowance to the submission, replacing
	// what the submission had from it before. It reports false with no
	// change when the amount is not positive or does not fit.
	Allocate(ctx context.Context, allowanceID, submissionID, amount int64) (bool, error)
	AmountUsed(ctx context.Context, allowanceID, excludeSubmissionID int64) (int64, error)
	AllowanceForJudge(ctx context.Context, profileID, phaseID int64, roundID *int64) (*awarddb.JudgeAllowance, error)
	// AwardSubmission is the judge-facing entry point to Allocate.
	AwardSubmission(ctx context.Context, profileID, submissionID, amount int64) (AwardOutcome, error)

	Summary(ctx context.Context, awardID int64) (Summary, error)
	ExportAward(ctx context.Context, awardID int64) ([]byte, error)
	UsageChart(ctx context.Context, awardID int64) ([]byte, error)
}

// Distribution describes a completed Distribute call.
type Distribution struct {
	AwardID       int64
	Share         int64
	Undistributed int64
	Allowances    []awarddb.JudgeAllowance
}

// AwardOutcome is what a judge sees after a successful award.
type AwardOutcome struct {
	Message     string `json:"message"`
	AllowanceID int64  `json:"allowance_id"`
	Amount      int64  `json:"amount"`
	Remaining   int64  `json:"remaining"`
	Created     bool   `json:"created"`
}

// SummaryLine is one judge's allowance within an award.
type SummaryLine struct {
	AllowanceID int64  `json:"allowance_id"`
	ProfileID   int64  `json:"profile_id"`
	Judge       string `json:"judge"`
	Amount      int64  `json:"amount"`
	Used        int64  `json:"used"`
	Remaining   int64  `json:"remaining"`
}

// Summary reports how much of an award has been handed out.
type Summary struct {
	AwardID     int64         `json:"award_id"`
	Status      string        `json:"status"`
	Amount      int64         `json:"amount"`
	Distributed int64         `json:"distributed"`
	Used        int64         `json:"used"`
	Lines       []SummaryLine `json:"allowances"`
}
