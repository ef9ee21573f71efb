package judgingdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for judging persistence.
type Repository interface {
	CreateCriterion(ctx context.Context, db bun.IDB, c *JudgingCriterion) error
	AttachCriterion(ctx context.Context, db bun.IDB, pc *PhaseCriterion) error
	// ListPhaseCriteria returns the phase's criteria, criterion loaded.
	ListPhaseCriteria(ctx context.Context, db bun.IDB, phaseID int64) ([]PhaseCriterion, error)

	// ListAssignableSubmissions returns ids of eligible submissions of the
	// phase (and round, when set) that have neither a judgement nor an
	// assignment.
	ListAssignableSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]int64, error)
	// CreateAssignments inserts the pairs, skipping existing ones, and returns
	// how many rows were written.
	CreateAssignments(ctx context.Context, db bun.IDB, assignments []JudgeAssignment) (int, error)
	GetAssignment(ctx context.Context, db bun.IDB, submissionID, profileID int64) (*JudgeAssignment, error)
	ListAssignmentsForJudge(ctx context.Context, db bun.IDB, profileID int64) ([]JudgeAssignment, error)
	ListAssignmentsForPhase(ctx context.Context, db bun.IDB, phaseID int64) ([]JudgeAssignment, error)

	// UpsertJudgement creates or updates the (submission, judge) judgement
	// and fills in its id.
	UpsertJudgement(ctx context.Context, db bun.IDB, j *Judgement) error
	// ReplaceAnswers makes answers the judgement's full set of ratings.
	ReplaceAnswers(ctx context.Context, db bun.IDB, judgementID int64, answers []JudgingAnswer) error
	GetJudgement(ctx context.Context, db bun.IDB, submissionID, profileID int64) (*Judgement, error)
	ListJudgementsForPhase(ctx context.Context, db bun.IDB, phaseID int64) ([]Judgement, error)
	ListJudgedSubmissions(ctx context.Context, db bun.IDB, profileID int64) (map[int64]bool, error)
}
