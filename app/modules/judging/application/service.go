package judgingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	judgingdomain "github.com/mozilla/mozilla-ignite/app/modules/judging/domain"
	judgingdb "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// JudgingService implements the Service interface.
type JudgingService struct {
	repo       judgingdb.Repository
	challenges ChallengeReader
	obs        observability.Instrumentation
	db         *bun.DB
	rng        *rand.Rand
}

var _ Service = (*JudgingService)(nil)

// NewJudgingService creates a new JudgingService. rng drives the judge
// shuffle; nil uses the global source.
func NewJudgingService(
	repo judgingdb.Repository,
	challenges ChallengeReader,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	rng *rand.Rand,
) *JudgingService {
	return &JudgingService{
		repo:       repo,
		challenges: challenges,
		obs:        observability.NewInstrumentation("JudgingService", logger, metrics, tracer),
		db:         db,
		rng:        rng,
	}
}

func execute[S any](
	s *JudgingService,
	ctx context.Context,
	op string,
	id int64,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := observability.WithTelemetry(s.obs, ctx, op, strconv.FormatInt(id, 10), func(ctx context.Context) (results.OperationResult[S, error], error) {
		return dbtx.RunInTx(ctx, s.db, fn)
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}

func success[S any](v S) (results.OperationResult[S, error], error) {
	return results.SuccessResult[S, error](v), nil
}

func failure[S any](err error) (results.OperationResult[S, error], error) {
	return results.FailureResult[S, error](err), nil
}

func infraError[S any](format string, err error) (results.OperationResult[S, error], error) {
	return results.OperationResult[S, error]{}, fmt.Errorf(format, err)
}

// AssignJudges distributes the phase's open submissions over every judge.
func (s *JudgingService) AssignJudges(ctx context.Context, phaseID int64, roundID *int64, k int, commit bool) (AssignmentPlan, error) {
	plan, err := execute(s, ctx, "AssignJudges", phaseID, func(ctx context.Context, db bun.IDB) (results.OperationResult[AssignmentPlan, error], error) {
		submissions, err := s.repo.ListAssignableSubmissions(ctx, db, phaseID, roundID)
		if err != nil {
			return infraError[AssignmentPlan]("failed to list submissions: %w", err)
		}
		judges, err := s.challenges.ListJudges(ctx, db)
		if err != nil {
			return infraError[AssignmentPlan]("failed to list judges: %w", err)
		}
		judgeIDs := make([]int64, 0, len(judges))
		for _, j := range judges {
			judgeIDs = append(judgeIDs, j.ID)
		}

		pairs, err := judgingdomain.Distribute(submissions, judgeIDs, k, s.rng)
		if err != nil {
			return failure[AssignmentPlan](err)
		}

		plan := AssignmentPlan{Pairs: pairs, Judges: len(judgeIDs), Submissions: len(submissions), Committed: commit}
		if !commit {
			return success(plan)
		}

		rows := make([]judgingdb.JudgeAssignment, 0, len(pairs))
		for _, p := range pairs {
			rows = append(rows, judgingdb.JudgeAssignment{SubmissionID: p.SubmissionID, ProfileID: p.ProfileID})
		}
		written, err := s.repo.CreateAssignments(ctx, db, rows)
		if err != nil {
			return infraError[AssignmentPlan]("failed to save assignments: %w", err)
		}
		plan.Written = written
		return success(plan)
	})
	if err != nil {
		return AssignmentPlan{}, err
	}
	s.obs.Logger.InfoContext(ctx, "Judges assigned",
		attr.Int64("phase_id", phaseID),
		attr.Int("judges", plan.Judges),
		attr.Int("submissions", plan.Submissions),
		attr.Int("written", plan.Written),
		attr.Bool("commit", commit),
	)
	return plan, nil
}

// SubmitJudgement saves the judge's notes and ratings for an assigned
// submission, replacing any earlier ratings.
func (s *JudgingService) SubmitJudgement(ctx context.Context, profileID, submissionID int64, notes string, answers []judgingdomain.Answer) (JudgementResult, error) {
	return execute(s, ctx, "SubmitJudgement", submissionID, func(ctx context.Context, db bun.IDB) (results.OperationResult[JudgementResult, error], error) {
		profile, err := s.challenges.GetProfile(ctx, db, profileID)
		if err != nil && !errors.Is(err, challengedb.ErrNotFound) {
			return infraError[JudgementResult]("failed to get profile: %w", err)
		}
		if profile == nil || !challengedomain.IsJudge(profile.Domain()) {
			return failure[JudgementResult](judgingdomain.ErrNotJudge)
		}

		submission, err := s.challenges.GetSubmission(ctx, db, submissionID)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return failure[JudgementResult](judgingdomain.ErrSubmissionMissing)
			}
			return infraError[JudgementResult]("failed to get submission: %w", err)
		}

		if _, err := s.repo.GetAssignment(ctx, db, submissionID, profileID); err != nil {
			if errors.Is(err, judgingdb.ErrNotFound) {
				return failure[JudgementResult](judgingdomain.ErrNotAssigned)
			}
			return infraError[JudgementResult]("failed to get assignment: %w", err)
		}

		criteria, err := s.phaseCriteria(ctx, db, submission.PhaseID)
		if err != nil {
			return infraError[JudgementResult]("failed to load criteria: %w", err)
		}
		if err := judgingdomain.ValidateAnswers(criteria, answers); err != nil {
			return failure[JudgementResult](err)
		}

		judgement := &judgingdb.Judgement{SubmissionID: submissionID, ProfileID: profileID, Notes: notes}
		if err := s.repo.UpsertJudgement(ctx, db, judgement); err != nil {
			return infraError[JudgementResult]("failed to save judgement: %w", err)
		}
		rows := make([]judgingdb.JudgingAnswer, 0, len(answers))
		for _, a := range answers {
			rows = append(rows, judgingdb.JudgingAnswer{CriterionID: a.CriterionID, Rating: a.Rating})
		}
		if err := s.repo.ReplaceAnswers(ctx, db, judgement.ID, rows); err != nil {
			return infraError[JudgementResult]("failed to save answers: %w", err)
		}

		result := JudgementResult{JudgementID: judgement.ID}
		if score, err := judgingdomain.Score(criteria, answers); err == nil {
			result.Complete = true
			result.Score = &score
		}
		return success(result)
	})
}

func (s *JudgingService) phaseCriteria(ctx context.Context, db bun.IDB, phaseID int64) ([]judgingdomain.WeightedCriterion, error) {
	rows, err := s.repo.ListPhaseCriteria(ctx, db, phaseID)
	if err != nil {
		return nil, err
	}
	out := make([]judgingdomain.WeightedCriterion, 0, len(rows))
	for _, pc := range rows {
		out = append(out, pc.Weighted())
	}
	return out, nil
}

// AssignmentsForJudge lists the judge's assignments, flagging those already judged.
func (s *JudgingService) AssignmentsForJudge(ctx context.Context, profileID int64) ([]AssignmentView, error) {
	return execute(s, ctx, "AssignmentsForJudge", profileID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]AssignmentView, error], error) {
		assignments, err := s.repo.ListAssignmentsForJudge(ctx, db, profileID)
		if err != nil {
			return infraError[[]AssignmentView]("failed to list assignments: %w", err)
		}
		judged, err := s.repo.ListJudgedSubmissions(ctx, db, profileID)
		if err != nil {
			return infraError[[]AssignmentView]("failed to list judgements: %w", err)
		}

		views := make([]AssignmentView, 0, len(assignments))
		for _, a := range assignments {
			sub, err := s.challenges.GetSubmission(ctx, db, a.SubmissionID)
			if err != nil {
				if errors.Is(err, challengedb.ErrNotFound) {
					continue
				}
				return infraError[[]AssignmentView]("failed to get submission: %w", err)
			}
			views = append(views, AssignmentView{
				SubmissionID: a.SubmissionID,
				Title:        sub.Title,
				PhaseID:      sub.PhaseID,
				AssignedAt:   a.CreatedAt,
				Judged:       judged[a.SubmissionID],
			})
		}
		return success(views)
	})
}
