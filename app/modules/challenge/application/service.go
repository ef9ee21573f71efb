package challengeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// CacheRecorder counts phase cache hits and misses.
type CacheRecorder interface {
	RecordCache(name string, hit bool)
}

// ChallengeService implements the Service interface.
type ChallengeService struct {
	repo  challengedb.Repository
	obs   observability.Instrumentation
	clock clock.Clock
	cache PhaseStatusCache
	stats CacheRecorder
}

var _ Service = (*ChallengeService)(nil)

// NewChallengeService creates a new ChallengeService. The service only reads,
// so it runs without a transaction. A nil cache resolves the phase on every call.
func NewChallengeService(
	repo challengedb.Repository,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	clk clock.Clock,
	cache PhaseStatusCache,
) *ChallengeService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	s := &ChallengeService{
		repo:  repo,
		obs:   observability.NewInstrumentation("ChallengeService", logger, metrics, tracer),
		clock: clk,
		cache: cache,
	}
	if rec, ok := metrics.(CacheRecorder); ok {
		s.stats = rec
	}
	return s
}

// CurrentPhase resolves the open phase and round for the challenge.
func (s *ChallengeService) CurrentPhase(ctx context.Context, slug string) (challengedomain.PhaseStatus, error) {
	result, err := observability.WithTelemetry(s.obs, ctx, "CurrentPhase", slug, func(ctx context.Context) (results.OperationResult[challengedomain.PhaseStatus, error], error) {
		return s.currentPhaseLogic(ctx, nil, slug)
	})
	if err != nil {
		return challengedomain.PhaseStatus{}, err
	}
	if result.IsFailure() {
		return challengedomain.PhaseStatus{}, *result.Failure
	}
	return *result.Success, nil
}

func (s *ChallengeService) currentPhaseLogic(ctx context.Context, db bun.IDB, slug string) (results.OperationResult[challengedomain.PhaseStatus, error], error) {
	challenge, err := s.repo.GetChallengeBySlug(ctx, db, slug)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return results.FailureResult[challengedomain.PhaseStatus, error](ErrChallengeNotFound), nil
		}
		return results.OperationResult[challengedomain.PhaseStatus, error]{}, fmt.Errorf("failed to get challenge: %w", err)
	}

	now := s.clock.Now()
	var key PhaseCacheKey
	if s.cache != nil {
		key = s.cache.Key(challenge.ID, now)
		if status, ok := s.cache.Get(key); ok {
			s.recordCache(true)
			return results.SuccessResult[challengedomain.PhaseStatus, error](status), nil
		}
		s.recordCache(false)
	}

	status, err := s.resolve(ctx, db, challenge.ID)
	if err != nil {
		return results.OperationResult[challengedomain.PhaseStatus, error]{}, err
	}
	if s.cache != nil {
		s.cache.Add(key, status)
	}
	return results.SuccessResult[challengedomain.PhaseStatus, error](status), nil
}

func (s *ChallengeService) resolve(ctx context.Context, db bun.IDB, challengeID int64) (challengedomain.PhaseStatus, error) {
	phases, err := s.repo.ListPhases(ctx, db, challengeID)
	if err != nil {
		return challengedomain.PhaseStatus{}, fmt.Errorf("failed to list phases: %w", err)
	}
	return challengedomain.ResolvePhase(windows(phases), s.clock.Now()), nil
}

func (s *ChallengeService) recordCache(hit bool) {
	if s.stats != nil {
		s.stats.RecordCache("phase_status", hit)
	}
}

// JudgingPhase returns the most recently ended phase of the challenge.
func (s *ChallengeService) JudgingPhase(ctx context.Context, slug string) (*challengedb.Phase, error) {
	result, err := observability.WithTelemetry(s.obs, ctx, "JudgingPhase", slug, func(ctx context.Context) (results.OperationResult[*challengedb.Phase, error], error) {
		challenge, err := s.repo.GetChallengeBySlug(ctx, nil, slug)
		if err != nil {
			return s.phaseLookupFailure(err)
		}
		phases, err := s.repo.ListPhases(ctx, nil, challenge.ID)
		if err != nil {
			return results.OperationResult[*challengedb.Phase, error]{}, fmt.Errorf("failed to list phases: %w", err)
		}
		picked, ok := challengedomain.JudgingPhase(windows(phases), s.clock.Now())
		if !ok {
			return results.FailureResult[*challengedb.Phase, error](ErrPhaseNotFound), nil
		}
		for i := range phases {
			if phases[i].ID == picked.ID {
				return results.SuccessResult[*challengedb.Phase, error](&phases[i]), nil
			}
		}
		return results.FailureResult[*challengedb.Phase, error](ErrPhaseNotFound), nil
	})
	return unwrapPhase(result, err)
}

// PhaseByName looks up a phase by its name within the challenge.
func (s *ChallengeService) PhaseByName(ctx context.Context, slug, name string) (*challengedb.Phase, error) {
	result, err := observability.WithTelemetry(s.obs, ctx, "PhaseByName", slug+"/"+name, func(ctx context.Context) (results.OperationResult[*challengedb.Phase, error], error) {
		challenge, err := s.repo.GetChallengeBySlug(ctx, nil, slug)
		if err != nil {
			return s.phaseLookupFailure(err)
		}
		phase, err := s.repo.GetPhaseByName(ctx, nil, challenge.ID, name)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return results.FailureResult[*challengedb.Phase, error](ErrPhaseNotFound), nil
			}
			return results.OperationResult[*challengedb.Phase, error]{}, fmt.Errorf("failed to get phase: %w", err)
		}
		return results.SuccessResult[*challengedb.Phase, error](phase), nil
	})
	return unwrapPhase(result, err)
}

// IsJudge loads the profile and applies the judge capability check. Unknown
// profiles are not judges.
func (s *ChallengeService) IsJudge(ctx context.Context, profileID int64) (bool, error) {
	result, err := observability.WithTelemetry(s.obs, ctx, "IsJudge", strconv.FormatInt(profileID, 10), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		profile, err := s.repo.GetProfile(ctx, nil, profileID)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return results.SuccessResult[bool, error](false), nil
			}
			return results.OperationResult[bool, error]{}, fmt.Errorf("failed to get profile: %w", err)
		}
		return results.SuccessResult[bool, error](challengedomain.IsJudge(profile.Domain())), nil
	})
	if err != nil {
		return false, err
	}
	return *result.Success, nil
}

func (s *ChallengeService) phaseLookupFailure(err error) (results.OperationResult[*challengedb.Phase, error], error) {
	if errors.Is(err, challengedb.ErrNotFound) {
		return results.FailureResult[*challengedb.Phase, error](ErrChallengeNotFound), nil
	}
	return results.OperationResult[*challengedb.Phase, error]{}, fmt.Errorf("failed to get challenge: %w", err)
}

func unwrapPhase(result results.OperationResult[*challengedb.Phase, error], err error) (*challengedb.Phase, error) {
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

func windows(phases []challengedb.Phase) []challengedomain.PhaseWindow {
	out := make([]challengedomain.PhaseWindow, 0, len(phases))
	for _, p := range phases {
		out = append(out, p.Window())
	}
	return out
}
