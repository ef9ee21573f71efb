package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// DataGenerator inserts challenge rows with fake but repeatable content.
type DataGenerator struct {
	faker *gofakeit.Faker
	repo  challengedb.Repository
	db    bun.IDB
	seq   int
}

func NewDataGenerator(db bun.IDB, seed uint64) *DataGenerator {
	return &DataGenerator{
		faker: gofakeit.New(seed),
		repo:  challengedb.NewRepository(db),
		db:    db,
	}
}

func (g *DataGenerator) next() int {
	g.seq++
	return g.seq
}

// Challenge creates a challenge with one phase that ended a day before now.
func (g *DataGenerator) Challenge(t testing.TB, ctx context.Context, now time.Time) (*challengedb.Challenge, *challengedb.Phase) {
	t.Helper()
	c := &challengedb.Challenge{
		Slug:    fmt.Sprintf("challenge-%d", g.next()),
		Title:   g.faker.Sentence(3),
		Summary: g.faker.Paragraph(1, 2, 8, " "),
	}
	require.NoError(t, g.repo.CreateChallenge(ctx, g.db, c))

	p := &challengedb.Phase{
		ChallengeID: c.ID,
		Name:        "Ideation",
		Order:       1,
		StartDate:   now.AddDate(0, -1, 0),
		EndDate:     now.AddDate(0, 0, -1),
	}
	require.NoError(t, g.repo.CreatePhase(ctx, g.db, p))
	return c, p
}

func (g *DataGenerator) Profile(t testing.TB, ctx context.Context, judge bool) *challengedb.Profile {
	t.Helper()
	p := &challengedb.Profile{
		Name:    g.faker.Name(),
		Email:   fmt.Sprintf("%d.%s", g.next(), g.faker.Email()),
		IsJudge: judge,
	}
	require.NoError(t, g.repo.CreateProfile(ctx, g.db, p))
	return p
}

// Submission creates a live submission of the phase owned by ownerID.
func (g *DataGenerator) Submission(t testing.TB, ctx context.Context, phaseID, ownerID int64, winner bool) *challengedb.Submission {
	t.Helper()
	s := &challengedb.Submission{
		PhaseID:   phaseID,
		CreatedBy: ownerID,
		Title:     fmt.Sprintf("%s %d", g.faker.BuzzWord(), g.next()),
		Brief:     g.faker.Sentence(10),
		IsWinner:  winner,
		IsLive:    true,
	}
	require.NoError(t, g.repo.CreateSubmission(ctx, g.db, s))
	return s
}
