package awardservice

import (
	"context"
	"errors"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	awarddb "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
)

type allocation struct {
	Allocated bool
	Created   bool
	Remaining int64
}

// Allocate runs the ledger in its own transaction.
func (s *AwardService) Allocate(ctx context.Context, allowanceID, submissionID, amount int64) (bool, error) {
	alloc, err := execute(s, ctx, "Allocate", id64(allowanceID), func(ctx context.Context, db bun.IDB) (results.OperationResult[allocation, error], error) {
		return s.allocate(ctx, db, allowanceID, submissionID, amount)
	})
	if err != nil {
		return false, err
	}
	return alloc.Allocated, nil
}

// allocate holds the allowance lock for the rest of the transaction, so the
// read of used_by_others and the upsert cannot interleave with another
// allocation on the same allowance, whichever submission it targets.
func (s *AwardService) allocate(ctx context.Context, db bun.IDB, allowanceID, submissionID, amount int64) (results.OperationResult[allocation, error], error) {
	if err := dbtx.AdvisoryLock(ctx, db, allowanceLockKey(allowanceID)); err != nil {
		return infraError[allocation]("failed to lock allowance: %w", err)
	}

	allowance, err := s.repo.GetAllowance(ctx, db, allowanceID)
	if err != nil {
		if errors.Is(err, awarddb.ErrNotFound) {
			return failure[allocation](awarddomain.ErrAllowanceNotFound)
		}
		return infraError[allocation]("failed to get allowance: %w", err)
	}
	if allowance.Award != nil && allowance.Award.Status == awarddomain.StatusFrozen {
		return failure[allocation](awarddomain.ErrAwardFrozen)
	}

	usedByOthers, err := s.repo.AmountUsed(ctx, db, allowanceID, submissionID)
	if err != nil {
		return infraError[allocation]("failed to get amount used: %w", err)
	}
	if !awarddomain.CanAllocate(allowance.Amount, usedByOthers, amount) {
		return success(allocation{Remaining: allowance.Amount - usedByOthers})
	}

	created, err := s.repo.FindOrCreateSubmissionAward(ctx, db, allowanceID, submissionID, amount)
	if err != nil {
		return infraError[allocation]("failed to save submission award: %w", err)
	}
	return success(allocation{
		Allocated: true,
		Created:   created,
		Remaining: allowance.Amount - usedByOthers - amount,
	})
}

// AmountUsed sums what the allowance has handed out. A non-zero
// excludeSubmissionID leaves that submission out of the total.
func (s *AwardService) AmountUsed(ctx context.Context, allowanceID, excludeSubmissionID int64) (int64, error) {
	return execute(s, ctx, "AmountUsed", id64(allowanceID), func(ctx context.Context, db bun.IDB) (results.OperationResult[int64, error], error) {
		used, err := s.repo.AmountUsed(ctx, db, allowanceID, excludeSubmissionID)
		if err != nil {
			return infraError[int64]("failed to get amount used: %w", err)
		}
		return success(used)
	})
}
