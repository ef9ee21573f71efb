package awarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when an award or allowance does not exist.
var ErrNotFound = errors.New("award record not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new award repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateAward(ctx context.Context, db bun.IDB, award *Award) error {
	if award.Status == "" {
		award.Status = awarddomain.StatusPending
	}
	if _, err := r.resolveDB(db).NewInsert().Model(award).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create award: %w", err)
	}
	return nil
}

func (r *Impl) GetAward(ctx context.Context, db bun.IDB, awardID int64) (*Award, error) {
	award := new(Award)
	if err := r.resolveDB(db).NewSelect().Model(award).Where("a.id = ?", awardID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get award: %w", err)
	}
	return award, nil
}

func (r *Impl) GetAwardFor(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) (*Award, error) {
	award := new(Award)
	q := r.resolveDB(db).NewSelect().Model(award).Where("a.phase_id = ?", phaseID)
	if roundID != nil {
		q = q.Where("a.phase_round_id = ?", *roundID)
	} else {
		q = q.Where("a.phase_round_id IS NULL")
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get award for phase: %w", err)
	}
	return award, nil
}

func (r *Impl) UpdateAwardStatus(ctx context.Context, db bun.IDB, awardID int64, status awarddomain.Status) error {
	res, err := r.resolveDB(db).NewUpdate().
		Model((*Award)(nil)).
		Set("status = ?", status).
		Where("id = ?", awardID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update award status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) CountAllowances(ctx context.Context, db bun.IDB, awardID int64) (int, error) {
	n, err := r.resolveDB(db).NewSelect().Model((*JudgeAllowance)(nil)).Where("award_id = ?", awardID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count allowances: %w", err)
	}
	return n, nil
}

func (r *Impl) CreateAllowances(ctx context.Context, db bun.IDB, allowances []JudgeAllowance) error {
	if len(allowances) == 0 {
		return nil
	}
	if _, err := r.resolveDB(db).NewInsert().Model(&allowances).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create allowances: %w", err)
	}
	return nil
}

func (r *Impl) GetAllowance(ctx context.Context, db bun.IDB, allowanceID int64) (*JudgeAllowance, error) {
	allowance := new(JudgeAllowance)
	err := r.resolveDB(db).NewSelect().
		Model(allowance).
		Relation("Award").
		Where("ja.id = ?", allowanceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get allowance: %w", err)
	}
	return allowance, nil
}

func (r *Impl) FindReleasedAllowance(ctx context.Context, db bun.IDB, profileID, phaseID int64, roundID *int64) (*JudgeAllowance, error) {
	allowance := new(JudgeAllowance)
	q := r.resolveDB(db).NewSelect().
		Model(allowance).
		Relation("Award").
		Where("ja.profile_id = ?", profileID).
		Where("award.phase_id = ?", phaseID).
		Where("award.status = ?", awarddomain.StatusReleased)
	if roundID != nil {
		q = q.Where("award.phase_round_id = ?", *roundID)
	}
	if err := q.Order("ja.id DESC").Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find allowance: %w", err)
	}
	return allowance, nil
}

func (r *Impl) AmountUsed(ctx context.Context, db bun.IDB, allowanceID, excludeSubmissionID int64) (int64, error) {
	var used int64
	q := r.resolveDB(db).NewSelect().
		Model((*SubmissionAward)(nil)).
		ColumnExpr("COALESCE(SUM(sa.amount), 0)").
		Where("sa.judge_allowance_id = ?", allowanceID)
	if excludeSubmissionID != 0 {
		q = q.Where("sa.submission_id <> ?", excludeSubmissionID)
	}
	if err := q.Scan(ctx, &used); err != nil {
		return 0, fmt.Errorf("failed to sum amount used: %w", err)
	}
	return used, nil
}

func (r *Impl) FindOrCreateSubmissionAward(ctx context.Context, db bun.IDB, allowanceID, submissionID, amount int64) (bool, error) {
	row := &SubmissionAward{
		JudgeAllowanceID: allowanceID,
		SubmissionID:     submissionID,
		Amount:           amount,
		UpdatedAt:        time.Now().UTC(),
	}
	// xmax is zero only for a freshly inserted tuple.
	var created bool
	err := r.resolveDB(db).NewInsert().
		Model(row).
		On("CONFLICT (judge_allowance_id, submission_id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("(xmax = 0) AS created").
		Scan(ctx, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert submission award: %w", err)
	}
	return created, nil
}

func (r *Impl) ListSubmissionAwards(ctx context.Context, db bun.IDB, allowanceID int64) ([]SubmissionAward, error) {
	var rows []SubmissionAward
	err := r.resolveDB(db).NewSelect().
		Model(&rows).
		Where("sa.judge_allowance_id = ?", allowanceID).
		Order("sa.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission awards: %w", err)
	}
	return rows, nil
}

func (r *Impl) Usage(ctx context.Context, db bun.IDB, awardID int64) ([]AllowanceUsage, error) {
	var rows []AllowanceUsage
	err := r.resolveDB(db).NewSelect().
		TableExpr("judge_allowances AS ja").
		ColumnExpr("ja.id AS allowance_id").
		ColumnExpr("ja.profile_id").
		ColumnExpr("ja.amount").
		ColumnExpr("COALESCE(SUM(sa.amount), 0) AS used").
		Join("LEFT JOIN submission_awards AS sa ON sa.judge_allowance_id = ja.id").
		Where("ja.award_id = ?", awardID).
		GroupExpr("ja.id, ja.profile_id, ja.amount").
		OrderExpr("ja.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load award usage: %w", err)
	}
	return rows, nil
}
