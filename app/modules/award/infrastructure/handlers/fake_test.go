package awardhandlers

import (
	"context"

	awardservice "github.com/mozilla/mozilla-ignite/app/modules/award/application"
	awarddb "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories"
)

type FakeService struct {
	AwardSubmissionFunc func(ctx context.Context, profileID, submissionID, amount int64) (awardservice.AwardOutcome, error)
	SummaryFunc         func(ctx context.Context, awardID int64) (awardservice.Summary, error)
	ExportAwardFunc     func(ctx context.Context, awardID int64) ([]byte, error)
	UsageChartFunc      func(ctx context.Context, awardID int64) ([]byte, error)
}

var _ awardservice.Service = (*FakeService)(nil)

func (f *FakeService) CreateAward(ctx context.Context, phaseID int64, roundID *int64, amount int64, note string) (*awarddb.Award, error) {
	return &awarddb.Award{PhaseID: phaseID, PhaseRoundID: roundID, Amount: amount, Note: note}, nil
}

func (f *FakeService) ReleaseAward(ctx context.Context, awardID int64) error { return nil }

func (f *FakeService) FreezeAward(ctx context.Context, awardID int64) error { return nil }

func (f *FakeService) Distribute(ctx context.Context, awardID int64) (awardservice.Distribution, error) {
	return awardservice.Distribution{AwardID: awardID}, nil
}

func (f *FakeService) Allocate(ctx context.Context, allowanceID, submissionID, amount int64) (bool, error) {
	return true, nil
}

func (f *FakeService) AmountUsed(ctx context.Context, allowanceID, excludeSubmissionID int64) (int64, error) {
	return 0, nil
}

func (f *FakeService) AllowanceForJudge(ctx context.Context, profileID, phaseID int64, roundID *int64) (*awarddb.JudgeAllowance, error) {
	return &awarddb.JudgeAllowance{ProfileID: profileID}, nil
}

func (f *FakeService) AwardSubmission(ctx context.Context, profileID, submissionID, amount int64) (awardservice.AwardOutcome, error) {
	if f.AwardSubmissionFunc != nil {
		return f.AwardSubmissionFunc(ctx, profileID, submissionID, amount)
	}
	return awardservice.AwardOutcome{}, nil
}

func (f *FakeService) Summary(ctx context.Context, awardID int64) (awardservice.Summary, error) {
	if f.SummaryFunc != nil {
		return f.SummaryFunc(ctx, awardID)
	}
	return awardservice.Summary{AwardID: awardID}, nil
}

func (f *FakeService) ExportAward(ctx context.Context, awardID int64) ([]byte, error) {
	if f.ExportAwardFunc != nil {
		return f.ExportAwardFunc(ctx, awardID)
	}
	return []byte("xlsx"), nil
}

func (f *FakeService) UsageChart(ctx context.Context, awardID int64) ([]byte, error) {
	if f.UsageChartFunc != nil {
		return f.UsageChartFunc(ctx, awardID)
	}
	return []byte("\x89PNG"), nil
}
