package challengedb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for challenge, phase, submission and
// profile persistence.
type Repository interface {
	GetChallengeBySlug(ctx context.Context, db bun.IDB, slug string) (*Challenge, error)
	CreateChallenge(ctx context.Context, db bun.IDB, c *Challenge) error

	// ListPhases returns the challenge's phases ordered by sort order, rounds included.
	ListPhases(ctx context.Context, db bun.IDB, challengeID int64) ([]Phase, error)
	GetPhase(ctx context.Context, db bun.IDB, phaseID int64) (*Phase, error)
	GetPhaseByName(ctx context.Context, db bun.IDB, challengeID int64, name string) (*Phase, error)
	CreatePhase(ctx context.Context, db bun.IDB, p *Phase) error
	GetRound(ctx context.Context, db bun.IDB, roundID int64) (*PhaseRound, error)
	CreateRound(ctx context.Context, db bun.IDB, r *PhaseRound) error

	GetSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*Submission, error)
	CreateSubmission(ctx context.Context, db bun.IDB, s *Submission) error
	SetWinner(ctx context.Context, db bun.IDB, submissionID int64, isWinner bool) error
	// ListEligibleSubmissions returns non-draft, non-excluded submissions of a
	// phase, narrowed to a round when roundID is set.
	ListEligibleSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]Submission, error)
	// ListGreenLitSubmissions is ListEligibleSubmissions limited to winners.
	ListGreenLitSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]Submission, error)

	GetProfile(ctx context.Context, db bun.IDB, profileID int64) (*Profile, error)
	GetProfiles(ctx context.Context, db bun.IDB, profileIDs []int64) ([]Profile, error)
	CreateProfile(ctx context.Context, db bun.IDB, p *Profile) error
	ListJudges(ctx context.Context, db bun.IDB) ([]Profile, error)
}
