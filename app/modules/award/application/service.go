package awardservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	awarddb "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories"
	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// AwardService implements the Service interface.
type AwardService struct {
	repo       awarddb.Repository
	challenges ChallengeReader
	eventBus   eventbus.EventBus
	obs        observability.Instrumentation
	db         *bun.DB
}

var _ Service = (*AwardService)(nil)

// NewAwardService creates a new AwardService.
func NewAwardService(
	repo awarddb.Repository,
	challenges ChallengeReader,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *AwardService {
	return &AwardService{
		repo:       repo,
		challenges: challenges,
		eventBus:   eventBus,
		obs:        observability.NewInstrumentation("AwardService", logger, metrics, tracer),
		db:         db,
	}
}

// execute runs fn in a transaction under telemetry and flattens the result.
func execute[S any](
	s *AwardService,
	ctx context.Context,
	op, id string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := observability.WithTelemetry(s.obs, ctx, op, id, func(ctx context.Context) (results.OperationResult[S, error], error) {
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

func allowanceLockKey(allowanceID int64) string {
	return "allowance:" + strconv.FormatInt(allowanceID, 10)
}

func awardLockKey(awardID int64) string {
	return "award:" + strconv.FormatInt(awardID, 10)
}

func id64(v int64) string { return strconv.FormatInt(v, 10) }

// CreateAward creates a pending award. A (phase, round) pair gets one award.
func (s *AwardService) CreateAward(ctx context.Context, phaseID int64, roundID *int64, amount int64, note string) (*awarddb.Award, error) {
	return execute(s, ctx, "CreateAward", id64(phaseID), func(ctx context.Context, db bun.IDB) (results.OperationResult[*awarddb.Award, error], error) {
		if amount < 0 {
			return failure[*awarddb.Award](awarddomain.ErrInvalidAmount)
		}
		if _, err := s.repo.GetAwardFor(ctx, db, phaseID, roundID); err == nil {
			return failure[*awarddb.Award](awarddomain.ErrAwardExists)
		} else if !errors.Is(err, awarddb.ErrNotFound) {
			return infraError[*awarddb.Award]("failed to check existing award: %w", err)
		}

		award := &awarddb.Award{
			PhaseID:      phaseID,
			PhaseRoundID: roundID,
			Amount:       amount,
			Status:       awarddomain.StatusPending,
			Note:         note,
		}
		if err := s.repo.CreateAward(ctx, db, award); err != nil {
			return infraError[*awarddb.Award]("failed to create award: %w", err)
		}
		return success(award)
	})
}

// ReleaseAward makes the award's allowances spendable.
func (s *AwardService) ReleaseAward(ctx context.Context, awardID int64) error {
	return s.transition(ctx, "ReleaseAward", awardID, awarddomain.StatusReleased)
}

// FreezeAward stops further allocations against the award.
func (s *AwardService) FreezeAward(ctx context.Context, awardID int64) error {
	return s.transition(ctx, "FreezeAward", awardID, awarddomain.StatusFrozen)
}

func (s *AwardService) transition(ctx context.Context, op string, awardID int64, to awarddomain.Status) error {
	_, err := execute(s, ctx, op, id64(awardID), func(ctx context.Context, db bun.IDB) (results.OperationResult[awarddomain.Status, error], error) {
		award, err := s.repo.GetAward(ctx, db, awardID)
		if err != nil {
			if errors.Is(err, awarddb.ErrNotFound) {
				return failure[awarddomain.Status](awarddomain.ErrAwardNotFound)
			}
			return infraError[awarddomain.Status]("failed to get award: %w", err)
		}
		if !awarddomain.CanTransition(award.Status, to) {
			return failure[awarddomain.Status](fmt.Errorf("%w: %s to %s", awarddomain.ErrInvalidTransition, award.Status, to))
		}
		if err := s.repo.UpdateAwardStatus(ctx, db, awardID, to); err != nil {
			return infraError[awarddomain.Status]("failed to update award status: %w", err)
		}
		return success(to)
	})
	return err
}

// Distribute splits the award among all judges. A second call is refused
// before anything is written.
func (s *AwardService) Distribute(ctx context.Context, awardID int64) (Distribution, error) {
	dist, err := execute(s, ctx, "Distribute", id64(awardID), func(ctx context.Context, db bun.IDB) (results.OperationResult[Distribution, error], error) {
		if err := dbtx.AdvisoryLock(ctx, db, awardLockKey(awardID)); err != nil {
			return infraError[Distribution]("failed to lock award: %w", err)
		}

		award, err := s.repo.GetAward(ctx, db, awardID)
		if err != nil {
			if errors.Is(err, awarddb.ErrNotFound) {
				return failure[Distribution](awarddomain.ErrAwardNotFound)
			}
			return infraError[Distribution]("failed to get award: %w", err)
		}

		existing, err := s.repo.CountAllowances(ctx, db, awardID)
		if err != nil {
			return infraError[Distribution]("failed to count allowances: %w", err)
		}
		if existing > 0 {
			return failure[Distribution](awarddomain.ErrAlreadyDistributed)
		}

		judges, err := s.challenges.ListJudges(ctx, db)
		if err != nil {
			return infraError[Distribution]("failed to list judges: %w", err)
		}
		if len(judges) == 0 {
			return failure[Distribution](awarddomain.ErrNoJudges)
		}

		share, remainder := awarddomain.EvenSplit(award.Amount, len(judges))
		allowances := make([]awarddb.JudgeAllowance, 0, len(judges))
		for _, judge := range judges {
			allowances = append(allowances, awarddb.JudgeAllowance{
				AwardID:   awardID,
				ProfileID: judge.ID,
				Amount:    share,
			})
		}
		if err := s.repo.CreateAllowances(ctx, db, allowances); err != nil {
			return infraError[Distribution]("failed to create allowances: %w", err)
		}

		return success(Distribution{
			AwardID:       awardID,
			Share:         share,
			Undistributed: remainder,
			Allowances:    allowances,
		})
	})
	if err != nil {
		return Distribution{}, err
	}

	s.obs.Logger.InfoContext(ctx, "Award distributed",
		attr.Int64("award_id", awardID),
		attr.Int("judges", len(dist.Allowances)),
		attr.Int64("share", dist.Share),
		attr.Int64("undistributed", dist.Undistributed),
	)
	s.publish(ctx, awarddomain.AwardDistributedTopic, awarddomain.AwardDistributedPayload{
		AwardID:       awardID,
		Judges:        len(dist.Allowances),
		Share:         dist.Share,
		Undistributed: dist.Undistributed,
	})
	return dist, nil
}

func (s *AwardService) publish(ctx context.Context, topic string, payload any) {
	if err := eventbus.PublishEvent(ctx, s.eventBus, topic, payload); err != nil {
		s.obs.Logger.WarnContext(ctx, "Failed to publish award event",
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}

// AllowanceForJudge finds the judge's allowance on the released award of the
// phase, narrowed to the round when one is given.
func (s *AwardService) AllowanceForJudge(ctx context.Context, profileID, phaseID int64, roundID *int64) (*awarddb.JudgeAllowance, error) {
	return execute(s, ctx, "AllowanceForJudge", id64(profileID), func(ctx context.Context, db bun.IDB) (results.OperationResult[*awarddb.JudgeAllowance, error], error) {
		return s.allowanceForJudge(ctx, db, profileID, phaseID, roundID)
	})
}

func (s *AwardService) allowanceForJudge(ctx context.Context, db bun.IDB, profileID, phaseID int64, roundID *int64) (results.OperationResult[*awarddb.JudgeAllowance, error], error) {
	allowance, err := s.repo.FindReleasedAllowance(ctx, db, profileID, phaseID, roundID)
	if err != nil {
		if errors.Is(err, awarddb.ErrNotFound) {
			return failure[*awarddb.JudgeAllowance](awarddomain.ErrAllowanceNotFound)
		}
		return infraError[*awarddb.JudgeAllowance]("failed to find allowance: %w", err)
	}
	return success(allowance)
}

// AwardSubmission validates the amount, checks the judge and the submission,
// then allocates from the judge's allowance for the submission's phase and round.
func (s *AwardService) AwardSubmission(ctx context.Context, profileID, submissionID, amount int64) (AwardOutcome, error) {
	outcome, err := execute(s, ctx, "AwardSubmission", id64(submissionID), func(ctx context.Context, db bun.IDB) (results.OperationResult[AwardOutcome, error], error) {
		if amount <= 0 {
			return failure[AwardOutcome](awarddomain.ErrInvalidAmount)
		}

		profile, err := s.challenges.GetProfile(ctx, db, profileID)
		if err != nil && !errors.Is(err, challengedb.ErrNotFound) {
			return infraError[AwardOutcome]("failed to get profile: %w", err)
		}
		if profile == nil || !challengedomain.IsJudge(profile.Domain()) {
			return failure[AwardOutcome](awarddomain.ErrNotJudge)
		}

		submission, err := s.challenges.GetSubmission(ctx, db, submissionID)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return failure[AwardOutcome](awarddomain.ErrNotGreenLit)
			}
			return infraError[AwardOutcome]("failed to get submission: %w", err)
		}
		if !challengedomain.IsGreenLit(submission.Domain()) {
			return failure[AwardOutcome](awarddomain.ErrNotGreenLit)
		}

		found, err := s.allowanceForJudge(ctx, db, profileID, submission.PhaseID, submission.PhaseRoundID)
		if err != nil || found.IsFailure() {
			return results.OperationResult[AwardOutcome, error]{Failure: found.Failure}, err
		}
		allowance := *found.Success

		alloc, err := s.allocate(ctx, db, allowance.ID, submissionID, amount)
		if err != nil || alloc.IsFailure() {
			return results.OperationResult[AwardOutcome, error]{Failure: alloc.Failure}, err
		}
		if !alloc.Success.Allocated {
			return failure[AwardOutcome](awarddomain.ErrInsufficientFunds)
		}

		return success(AwardOutcome{
			Message:     awarddomain.MsgAwarded,
			AllowanceID: allowance.ID,
			Amount:      amount,
			Remaining:   alloc.Success.Remaining,
			Created:     alloc.Success.Created,
		})
	})
	if err != nil {
		return AwardOutcome{}, err
	}

	s.publish(ctx, awarddomain.SubmissionAwardedTopic, awarddomain.SubmissionAwardedPayload{
		AllowanceID:  outcome.AllowanceID,
		SubmissionID: submissionID,
		ProfileID:    profileID,
		Amount:       amount,
		Created:      outcome.Created,
	})
	return outcome, nil
}
