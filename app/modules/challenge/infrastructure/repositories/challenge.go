package challengedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a challenge, phase, round, submission or
// profile does not exist.
var ErrNotFound = errors.New("challenge record not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new challenge repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (r *Impl) GetChallengeBySlug(ctx context.Context, db bun.IDB, slug string) (*Challenge, error) {
	c := new(Challenge)
	if err := r.resolveDB(db).NewSelect().Model(c).Where("slug = ?", slug).Scan(ctx); err != nil {
		return nil, notFound(err, "challenge by slug")
	}
	return c, nil
}

func (r *Impl) CreateChallenge(ctx context.Context, db bun.IDB, c *Challenge) error {
	if _, err := r.resolveDB(db).NewInsert().Model(c).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *Impl) ListPhases(ctx context.Context, db bun.IDB, challengeID int64) ([]Phase, error) {
	var phases []Phase
	err := r.resolveDB(db).NewSelect().
		Model(&phases).
		Relation("Rounds", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("pr.start_date ASC")
		}).
		Where("p.challenge_id = ?", challengeID).
		Order("p.sort_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	return phases, nil
}

func (r *Impl) GetPhase(ctx context.Context, db bun.IDB, phaseID int64) (*Phase, error) {
	p := new(Phase)
	err := r.resolveDB(db).NewSelect().
		Model(p).
		Relation("Rounds").
		Where("p.id = ?", phaseID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "phase")
	}
	return p, nil
}

func (r *Impl) GetPhaseByName(ctx context.Context, db bun.IDB, challengeID int64, name string) (*Phase, error) {
	p := new(Phase)
	err := r.resolveDB(db).NewSelect().
		Model(p).
		Relation("Rounds").
		Where("p.challenge_id = ?", challengeID).
		Where("p.name = ?", name).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "phase by name")
	}
	return p, nil
}

func (r *Impl) CreatePhase(ctx context.Context, db bun.IDB, p *Phase) error {
	if _, err := r.resolveDB(db).NewInsert().Model(p).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create phase: %w", err)
	}
	return nil
}

func (r *Impl) GetRound(ctx context.Context, db bun.IDB, roundID int64) (*PhaseRound, error) {
	pr := new(PhaseRound)
	if err := r.resolveDB(db).NewSelect().Model(pr).Where("pr.id = ?", roundID).Scan(ctx); err != nil {
		return nil, notFound(err, "phase round")
	}
	return pr, nil
}

func (r *Impl) CreateRound(ctx context.Context, db bun.IDB, pr *PhaseRound) error {
	if _, err := r.resolveDB(db).NewInsert().Model(pr).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create phase round: %w", err)
	}
	return nil
}

func (r *Impl) GetSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*Submission, error) {
	s := new(Submission)
	if err := r.resolveDB(db).NewSelect().Model(s).Where("s.id = ?", submissionID).Scan(ctx); err != nil {
		return nil, notFound(err, "submission")
	}
	return s, nil
}

func (r *Impl) CreateSubmission(ctx context.Context, db bun.IDB, s *Submission) error {
	if _, err := r.resolveDB(db).NewInsert().Model(s).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *Impl) SetWinner(ctx context.Context, db bun.IDB, submissionID int64, isWinner bool) error {
	res, err := r.resolveDB(db).NewUpdate().
		Model((*Submission)(nil)).
		Set("is_winner = ?", isWinner).
		Where("id = ?", submissionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update submission winner flag: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) eligibleQuery(db bun.IDB, dst *[]Submission, phaseID int64, roundID *int64) *bun.SelectQuery {
	q := db.NewSelect().
		Model(dst).
		Where("s.phase_id = ?", phaseID).
		Where("s.is_draft = FALSE").
		Where("s.excluded = FALSE").
		Order("s.id ASC")
	if roundID != nil {
		q = q.Where("s.phase_round_id = ?", *roundID)
	}
	return q
}

func (r *Impl) ListEligibleSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]Submission, error) {
	var subs []Submission
	if err := r.eligibleQuery(r.resolveDB(db), &subs, phaseID, roundID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list eligible submissions: %w", err)
	}
	return subs, nil
}

func (r *Impl) ListGreenLitSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]Submission, error) {
	var subs []Submission
	err := r.eligibleQuery(r.resolveDB(db), &subs, phaseID, roundID).
		Where("s.is_winner = TRUE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list green-lit submissions: %w", err)
	}
	return subs, nil
}

func (r *Impl) GetProfile(ctx context.Context, db bun.IDB, profileID int64) (*Profile, error) {
	p := new(Profile)
	if err := r.resolveDB(db).NewSelect().Model(p).Where("pf.id = ?", profileID).Scan(ctx); err != nil {
		return nil, notFound(err, "profile")
	}
	return p, nil
}

func (r *Impl) GetProfiles(ctx context.Context, db bun.IDB, profileIDs []int64) ([]Profile, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var profiles []Profile
	err := r.resolveDB(db).NewSelect().
		Model(&profiles).
		Where("pf.id IN (?)", bun.In(profileIDs)).
		Order("pf.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

func (r *Impl) CreateProfile(ctx context.Context, db bun.IDB, p *Profile) error {
	if _, err := r.resolveDB(db).NewInsert().Model(p).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *Impl) ListJudges(ctx context.Context, db bun.IDB) ([]Profile, error) {
	var judges []Profile
	err := r.resolveDB(db).NewSelect().
		Model(&judges).
		Where("pf.is_judge = TRUE").
		Order("pf.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list judges: %w", err)
	}
	return judges, nil
}
