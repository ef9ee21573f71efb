package challengeservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

var now = time.Date(2012, 6, 1, 12, 0, 0, 0, time.UTC)

func seededRepo() *challengedb.FakeRepository {
	repo := challengedb.NewFakeRepository()
	repo.Challenges[1] = &challengedb.Challenge{ID: 1, Slug: "ignite-challenge", Title: "Ignite"}
	repo.Phases[10] = &challengedb.Phase{
		ID: 10, ChallengeID: 1, Name: IdeationPhaseName, Order: 1,
		StartDate: now.Add(-30 * 24 * time.Hour), EndDate: now.Add(-24 * time.Hour),
	}
	repo.Phases[20] = &challengedb.Phase{
		ID: 20, ChallengeID: 1, Name: DevelopmentPhaseName, Order: 2,
		StartDate: now.Add(-12 * time.Hour), EndDate: now.Add(90 * 24 * time.Hour),
	}
	repo.Rounds[21] = &challengedb.PhaseRound{
		ID: 21, PhaseID: 20, Name: "Round 1",
		StartDate: now.Add(-12 * time.Hour), EndDate: now.Add(10*24*time.Hour + time.Hour),
	}
	repo.Profiles[5] = &challengedb.Profile{ID: 5, Name: "Judge", Email: "j@example.org", IsJudge: true}
	repo.Profiles[6] = &challengedb.Profile{ID: 6, Name: "User", Email: "u@example.org"}
	return repo
}

func newService(repo challengedb.Repository, metrics observability.OperationMetrics, cache PhaseStatusCache, at time.Time) *ChallengeService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	clk := &clock.FakeClock{NowFn: func() time.Time { return at }}
	return NewChallengeService(repo, logger, metrics, tracer, clk, cache)
}

func TestChallengeService_CurrentPhase(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the open round", func(t *testing.T) {
		svc := newService(seededRepo(), nil, nil, now)
		status, err := svc.CurrentPhase(ctx, "ignite-challenge")
		require.NoError(t, err)
		assert.True(t, status.IsOpen)
		assert.Equal(t, int64(20), status.PhaseID)
		require.NotNil(t, status.RoundID)
		assert.Equal(t, int64(21), *status.RoundID)
		assert.Equal(t, 10, status.DaysRemaining)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		svc := newService(seededRepo(), nil, nil, now)
		_, err := svc.CurrentPhase(ctx, "nope")
		assert.ErrorIs(t, err, ErrChallengeNotFound)
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		repo := seededRepo()
		repo.ListPhasesFn = func(ctx context.Context, db bun.IDB, challengeID int64) ([]challengedb.Phase, error) {
			return nil, errors.New("db down")
		}
		svc := newService(repo, nil, nil, now)
		_, err := svc.CurrentPhase(ctx, "ignite-challenge")
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("cache serves repeated lookups in one bucket", func(t *testing.T) {
		repo := seededRepo()
		calls := 0
		repo.ListPhasesFn = func(ctx context.Context, db bun.IDB, challengeID int64) ([]challengedb.Phase, error) {
			calls++
			return []challengedb.Phase{*repo.Phases[10]}, nil
		}
		metrics := observability.NewMetrics("test")
		svc := newService(repo, metrics, NewLRUPhaseCache(16, 5*time.Minute), now)

		for i := 0; i < 3; i++ {
			_, err := svc.CurrentPhase(ctx, "ignite-challenge")
			require.NoError(t, err)
		}
		assert.Equal(t, 1, calls)
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheHits.WithLabelValues("phase_status")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues("phase_status")))
	})
}

func TestLRUPhaseCache_Key(t *testing.T) {
	c := NewLRUPhaseCache(4, 5*time.Minute)
	a := c.Key(1, time.Date(2012, 6, 1, 12, 1, 0, 0, time.UTC))
	b := c.Key(1, time.Date(2012, 6, 1, 12, 4, 59, 0, time.UTC))
	d := c.Key(1, time.Date(2012, 6, 1, 12, 5, 0, 0, time.UTC))
	e := c.Key(2, time.Date(2012, 6, 1, 12, 1, 0, 0, time.UTC))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, a, e)

	_, ok := c.Get(a)
	assert.False(t, ok)
}

func TestChallengeService_JudgingPhase(t *testing.T) {
	svc := newService(seededRepo(), nil, nil, now)
	phase, err := svc.JudgingPhase(context.Background(), "ignite-challenge")
	require.NoError(t, err)
	assert.Equal(t, IdeationPhaseName, phase.Name)

	early := newService(seededRepo(), nil, nil, now.Add(-40*24*time.Hour))
	_, err = early.JudgingPhase(context.Background(), "ignite-challenge")
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

func TestChallengeService_PhaseByName(t *testing.T) {
	svc := newService(seededRepo(), nil, nil, now)

	phase, err := svc.PhaseByName(context.Background(), "ignite-challenge", DevelopmentPhaseName)
	require.NoError(t, err)
	assert.Equal(t, int64(20), phase.ID)
	assert.Len(t, phase.Rounds, 1)

	_, err = svc.PhaseByName(context.Background(), "ignite-challenge", "Nope")
	assert.ErrorIs(t, err, ErrPhaseNotFound)

	_, err = svc.PhaseByName(context.Background(), "other", IdeationPhaseName)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallengeService_IsJudge(t *testing.T) {
	svc := newService(seededRepo(), nil, nil, now)
	ctx := context.Background()

	tests := []struct {
		name      string
		profileID int64
		want      bool
	}{
		{name: "judge", profileID: 5, want: true},
		{name: "regular user", profileID: 6, want: false},
		{name: "unknown profile", profileID: 99, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsJudge(ctx, tt.profileID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
