package awarddb

import (
	"context"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	"github.com/uptrace/bun"
)

// Repository defines the contract for award persistence.
type Repository interface {
	CreateAward(ctx context.Context, db bun.IDB, award *Award) error
	GetAward(ctx context.Context, db bun.IDB, awardID int64) (*Award, error)
	// GetAwardFor returns the award of the exact (phase, round) pair.
	GetAwardFor(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) (*Award, error)
	UpdateAwardStatus(ctx context.Context, db bun.IDB, awardID int64, status awarddomain.Status) error

	CountAllowances(ctx context.Context, db bun.IDB, awardID int64) (int, error)
	CreateAllowances(ctx context.Context, db bun.IDB, allowances []JudgeAllowance) error
	GetAllowance(ctx context.Context, db bun.IDB, allowanceID int64) (*JudgeAllowance, error)
	// FindReleasedAllowance finds the judge's allowance on a released award of
	// the phase. When roundID is set the award must belong to that round.
	FindReleasedAllowance(ctx context.Context, db bun.IDB, profileID, phaseID int64, roundID *int64) (*JudgeAllowance, error)

	// AmountUsed sums the allowance's submission awards, leaving out
	// excludeSubmissionID when it is non-zero.
	AmountUsed(ctx context.Context, db bun.IDB, allowanceID, excludeSubmissionID int64) (int64, error)
	// FindOrCreateSubmissionAward upserts the (allowance, submission) row to
	// amount and reports whether the row was created.
	FindOrCreateSubmissionAward(ctx context.Context, db bun.IDB, allowanceID, submissionID, amount int64) (bool, error)
	ListSubmissionAwards(ctx context.Context, db bun.IDB, allowanceID int64) ([]SubmissionAward, error)
	// Usage returns one row per allowance of the award with its used total.
	Usage(ctx context.Context, db bun.IDB, awardID int64) ([]AllowanceUsage, error)
}
