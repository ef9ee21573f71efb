package challengehandlers

import (
	"context"

	challengeservice "github.com/mozilla/mozilla-ignite/app/modules/challenge/application"
	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
)

type FakeService struct {
	CurrentPhaseFunc func(ctx context.Context, slug string) (challengedomain.PhaseStatus, error)
	JudgingPhaseFunc func(ctx context.Context, slug string) (*challengedb.Phase, error)
	PhaseByNameFunc  func(ctx context.Context, slug, name string) (*challengedb.Phase, error)
	IsJudgeFunc      func(ctx context.Context, profileID int64) (bool, error)
}

var _ challengeservice.Service = (*FakeService)(nil)

func (f *FakeService) CurrentPhase(ctx context.Context, slug string) (challengedomain.PhaseStatus, error) {
	if f.CurrentPhaseFunc != nil {
		return f.CurrentPhaseFunc(ctx, slug)
	}
	return challengedomain.PhaseStatus{DaysRemaining: -1}, nil
}

func (f *FakeService) JudgingPhase(ctx context.Context, slug string) (*challengedb.Phase, error) {
	if f.JudgingPhaseFunc != nil {
		return f.JudgingPhaseFunc(ctx, slug)
	}
	return nil, challengeservice.ErrPhaseNotFound
}

func (f *FakeService) PhaseByName(ctx context.Context, slug, name string) (*challengedb.Phase, error) {
	if f.PhaseByNameFunc != nil {
		return f.PhaseByNameFunc(ctx, slug, name)
	}
	return nil, challengeservice.ErrPhaseNotFound
}

func (f *FakeService) IsJudge(ctx context.Context, profileID int64) (bool, error) {
	if f.IsJudgeFunc != nil {
		return f.IsJudgeFunc(ctx, profileID)
	}
	return false, nil
}
