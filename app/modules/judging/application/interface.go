package judgingservice

import (
	"context"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	judgingdomain "github.com/mozilla/mozilla-ignite/app/modules/judging/domain"
	"github.com/uptrace/bun"
)

// ChallengeReader is the slice of the challenge repository judging reads from.
type ChallengeReader interface {
	GetSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*challengedb.Submission, error)
	GetProfile(ctx context.Context, db bun.IDB, profileID int64) (*challengedb.Profile, error)
	GetProfiles(ctx context.Context, db bun.IDB, profileIDs []int64) ([]challengedb.Profile, error)
	ListJudges(ctx context.Context, db bun.IDB) ([]challengedb.Profile, error)
}

// Service is the judging module's application surface.
type Service interface {
	// AssignJudges plans k judges for every unassigned, unjudged eligible
	// submission of the phase. Nothing is written unless commit is set.
	AssignJudges(ctx context.Context, phaseID int64, roundID *int64, k int, commit bool) (AssignmentPlan, error)
	SubmitJudgement(ctx context.Context, profileID, submissionID int64, notes string, answers []judgingdomain.Answer) (JudgementResult, error)
	AssignmentsForJudge(ctx context.Context, profileID int64) ([]AssignmentView, error)
	ExportJudgements(ctx context.Context, phaseID int64) ([]byte, error)
}

// AssignmentPlan is the outcome of AssignJudges.
type AssignmentPlan struct {
	Pairs       []judgingdomain.Pair
	Judges      int
	Submissions int
	Written     int
	Committed   bool
}

// JudgementResult is returned after a judgement is saved.
type JudgementResult struct {
	JudgementID int64    `json:"judgement_id"`
	Complete    bool     `json:"complete"`
	Score       *float64 `json:"score,omitempty"`
}

// AssignmentView is one entry on a judge's worklist.
type AssignmentView struct {
	SubmissionID int64     `json:"submission_id"`
	Title        string    `json:"title"`
	PhaseID      int64     `json:"phase_id"`
	AssignedAt   time.Time `json:"assigned_at"`
	Judged       bool      `json:"judged"`
}
