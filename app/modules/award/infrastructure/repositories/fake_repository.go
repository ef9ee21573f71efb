package awarddb

import (
	"context"
	"sort"
	"sync"
	"time"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for service tests.
type FakeRepository struct {
	mu sync.Mutex

	Awards           map[int64]*Award
	Allowances       map[int64]*JudgeAllowance
	SubmissionAwards map[int64]*SubmissionAward
	nextID           int64

	CreateAllowancesFn            func(ctx context.Context, db bun.IDB, allowances []JudgeAllowance) error
	FindOrCreateSubmissionAwardFn func(ctx context.Context, db bun.IDB, allowanceID, submissionID, amount int64) (bool, error)
}

var _ Repository = (*FakeRepository)(nil)

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		Awards:           map[int64]*Award{},
		Allowances:       map[int64]*JudgeAllowance{},
		SubmissionAwards: map[int64]*SubmissionAward{},
		nextID:           1000,
	}
}

func (f *FakeRepository) id(current int64) int64 {
	if current != 0 {
		return current
	}
	f.nextID++
	return f.nextID
}

func (f *FakeRepository) CreateAward(ctx context.Context, db bun.IDB, award *Award) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	award.ID = f.id(award.ID)
	if award.Status == "" {
		award.Status = awarddomain.StatusPending
	}
	cp := *award
	f.Awards[award.ID] = &cp
	return nil
}

func (f *FakeRepository) GetAward(ctx context.Context, db bun.IDB, awardID int64) (*Award, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Awards[awardID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *FakeRepository) GetAwardFor(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) (*Award, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.Awards {
		if a.PhaseID == phaseID && sameRound(a.PhaseRoundID, roundID) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func sameRound(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *FakeRepository) UpdateAwardStatus(ctx context.Context, db bun.IDB, awardID int64, status awarddomain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Awards[awardID]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *FakeRepository) CountAllowances(ctx context.Context, db bun.IDB, awardID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.Allowances {
		if a.AwardID == awardID {
			n++
		}
	}
	return n, nil
}

func (f *FakeRepository) CreateAllowances(ctx context.Context, db bun.IDB, allowances []JudgeAllowance) error {
	if f.CreateAllowancesFn != nil {
		return f.CreateAllowancesFn(ctx, db, allowances)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range allowances {
		allowances[i].ID = f.id(allowances[i].ID)
		cp := allowances[i]
		f.Allowances[cp.ID] = &cp
	}
	return nil
}

func (f *FakeRepository) GetAllowance(ctx context.Context, db bun.IDB, allowanceID int64) (*JudgeAllowance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Allowances[allowanceID]
	if !ok {
		return nil, ErrNotFound
	}
	return f.withAward(a), nil
}

func (f *FakeRepository) withAward(a *JudgeAllowance) *JudgeAllowance {
	cp := *a
	if award, ok := f.Awards[a.AwardID]; ok {
		ac := *award
		cp.Award = &ac
	}
	return &cp
}

func (f *FakeRepository) FindReleasedAllowance(ctx context.Context, db bun.IDB, profileID, phaseID int64, roundID *int64) (*JudgeAllowance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *JudgeAllowance
	for _, a := range f.Allowances {
		award, ok := f.Awards[a.AwardID]
		if !ok || a.ProfileID != profileID || award.PhaseID != phaseID || award.Status != awarddomain.StatusReleased {
			continue
		}
		if roundID != nil && !sameRound(award.PhaseRoundID, roundID) {
			continue
		}
		if found == nil || a.ID > found.ID {
			found = a
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return f.withAward(found), nil
}

func (f *FakeRepository) AmountUsed(ctx context.Context, db bun.IDB, allowanceID, excludeSubmissionID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var used int64
	for _, sa := range f.SubmissionAwards {
		if sa.JudgeAllowanceID != allowanceID {
			continue
		}
		if excludeSubmissionID != 0 && sa.SubmissionID == excludeSubmissionID {
			continue
		}
		used += sa.Amount
	}
	return used, nil
}

func (f *FakeRepository) FindOrCreateSubmissionAward(ctx context.Context, db bun.IDB, allowanceID, submissionID, amount int64) (bool, error) {
	if f.FindOrCreateSubmissionAwardFn != nil {
		return f.FindOrCreateSubmissionAwardFn(ctx, db, allowanceID, submissionID, amount)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, sa := range f.SubmissionAwards {
		if sa.JudgeAllowanceID == allowanceID && sa.SubmissionID == submissionID {
			sa.Amount = amount
			sa.UpdatedAt = now
			return false, nil
		}
	}
	id := f.id(0)
	f.SubmissionAwards[id] = &SubmissionAward{
		ID:               id,
		JudgeAllowanceID: allowanceID,
		SubmissionID:     submissionID,
		Amount:           amount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return true, nil
}

func (f *FakeRepository) ListSubmissionAwards(ctx context.Context, db bun.IDB, allowanceID int64) ([]SubmissionAward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SubmissionAward
	for _, sa := range f.SubmissionAwards {
		if sa.JudgeAllowanceID == allowanceID {
			out = append(out, *sa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRepository) Usage(ctx context.Context, db bun.IDB, awardID int64) ([]AllowanceUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []AllowanceUsage
	for _, a := range f.Allowances {
		if a.AwardID != awardID {
			continue
		}
		row := AllowanceUsage{AllowanceID: a.ID, ProfileID: a.ProfileID, Amount: a.Amount}
		for _, sa := range f.SubmissionAwards {
			if sa.JudgeAllowanceID == a.ID {
				row.Used += sa.Amount
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AllowanceID < out[j].AllowanceID })
	return out, nil
}
