package judginghandlers

import (
	"context"

	judgingservice "github.com/mozilla/mozilla-ignite/app/modules/judging/application"
	judgingdomain "github.com/mozilla/mozilla-ignite/app/modules/judging/domain"
)

type FakeService struct {
	SubmitJudgementFunc     func(ctx context.Context, profileID, submissionID int64, notes string, answers []judgingdomain.Answer) (judgingservice.JudgementResult, error)
	AssignmentsForJudgeFunc func(ctx context.Context, profileID int64) ([]judgingservice.AssignmentView, error)
	ExportJudgementsFunc    func(ctx context.Context, phaseID int64) ([]byte, error)
}

var _ judgingservice.Service = (*FakeService)(nil)

func (f *FakeService) AssignJudges(ctx context.Context, phaseID int64, roundID *int64, k int, commit bool) (judgingservice.AssignmentPlan, error) {
	return judgingservice.AssignmentPlan{Committed: commit}, nil
}

func (f *FakeService) SubmitJudgement(ctx context.Context, profileID, submissionID int64, notes string, answers []judgingdomain.Answer) (judgingservice.JudgementResult, error) {
	if f.SubmitJudgementFunc != nil {
		return f.SubmitJudgementFunc(ctx, profileID, submissionID, notes, answers)
	}
	return judgingservice.JudgementResult{}, nil
}

func (f *FakeService) AssignmentsForJudge(ctx context.Context, profileID int64) ([]judgingservice.AssignmentView, error) {
	if f.AssignmentsForJudgeFunc != nil {
		return f.AssignmentsForJudgeFunc(ctx, profileID)
	}
	return nil, nil
}

func (f *FakeService) ExportJudgements(ctx context.Context, phaseID int64) ([]byte, error) {
	if f.ExportJudgementsFunc != nil {
		return f.ExportJudgementsFunc(ctx, phaseID)
	}
	return nil, nil
}
