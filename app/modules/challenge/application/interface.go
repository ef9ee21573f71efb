package challengeservice

import (
	"context"
	"errors"

	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrPhaseNotFound     = errors.New("phase not found")
)

// Ideation and Development are the named phases of the ignite challenge.
const (
	IdeationPhaseName    = "Ideation"
	DevelopmentPhaseName = "Development"
)

// Service is the challenge module's application surface.
type Service interface {
	// CurrentPhase resolves which phase and round are open for the challenge now.
	CurrentPhase(ctx context.Context, slug string) (challengedomain.PhaseStatus, error)
	// JudgingPhase returns the most recently ended phase.
	JudgingPhase(ctx context.Context, slug string) (*challengedb.Phase, error)
	// PhaseByName looks up a named phase such as Ideation or Development.
	PhaseByName(ctx context.Context, slug, name string) (*challengedb.Phase, error)
	// IsJudge is the explicit judge capability check.
	IsJudge(ctx context.Context, profileID int64) (bool, error)
}
