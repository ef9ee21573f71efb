package judgingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a judgement or assignment does not exist.
var ErrNotFound = errors.New("judging record not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new judging repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateCriterion(ctx context.Context, db bun.IDB, c *JudgingCriterion) error {
	if _, err := r.resolveDB(db).NewInsert().Model(c).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create criterion: %w", err)
	}
	return nil
}

func (r *Impl) AttachCriterion(ctx context.Context, db bun.IDB, pc *PhaseCriterion) error {
	_, err := r.resolveDB(db).NewInsert().
		Model(pc).
		On("CONFLICT (phase_id, criterion_id) DO UPDATE").
		Set("weight = EXCLUDED.weight").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to attach criterion: %w", err)
	}
	return nil
}

func (r *Impl) ListPhaseCriteria(ctx context.Context, db bun.IDB, phaseID int64) ([]PhaseCriterion, error) {
	var rows []PhaseCriterion
	err := r.resolveDB(db).NewSelect().
		Model(&rows).
		Relation("Criterion").
		Where("pc.phase_id = ?", phaseID).
		Order("pc.criterion_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase criteria: %w", err)
	}
	return rows, nil
}

func (r *Impl) ListAssignableSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]int64, error) {
	var ids []int64
	q := r.resolveDB(db).NewSelect().
		TableExpr("submissions AS s").
		Column("s.id").
		Where("s.phase_id = ?", phaseID).
		Where("NOT s.is_draft").
		Where("NOT s.excluded").
		Where("NOT EXISTS (SELECT 1 FROM judgements AS j WHERE j.submission_id = s.id)").
		Where("NOT EXISTS (SELECT 1 FROM judge_assignments AS jas WHERE jas.submission_id = s.id)")
	if roundID != nil {
		q = q.Where("s.phase_round_id = ?", *roundID)
	}
	if err := q.OrderExpr("s.id ASC").Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to list assignable submissions: %w", err)
	}
	return ids, nil
}

func (r *Impl) CreateAssignments(ctx context.Context, db bun.IDB, assignments []JudgeAssignment) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}
	res, err := r.resolveDB(db).NewInsert().
		Model(&assignments).
		On("CONFLICT (submission_id, profile_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to create assignments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return int(n), nil
}

func (r *Impl) GetAssignment(ctx context.Context, db bun.IDB, submissionID, profileID int64) (*JudgeAssignment, error) {
	a := new(JudgeAssignment)
	err := r.resolveDB(db).NewSelect().
		Model(a).
		Where("jas.submission_id = ?", submissionID).
		Where("jas.profile_id = ?", profileID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (r *Impl) ListAssignmentsForJudge(ctx context.Context, db bun.IDB, profileID int64) ([]JudgeAssignment, error) {
	var rows []JudgeAssignment
	err := r.resolveDB(db).NewSelect().
		Model(&rows).
		Where("jas.profile_id = ?", profileID).
		Order("jas.created_at ASC", "jas.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return rows, nil
}

func (r *Impl) ListAssignmentsForPhase(ctx context.Context, db bun.IDB, phaseID int64) ([]JudgeAssignment, error) {
	var rows []JudgeAssignment
	err := r.resolveDB(db).NewSelect().
		Model(&rows).
		Join("JOIN submissions AS s ON s.id = jas.submission_id").
		Where("s.phase_id = ?", phaseID).
		Order("jas.submission_id ASC", "jas.profile_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase assignments: %w", err)
	}
	return rows, nil
}

func (r *Impl) UpsertJudgement(ctx context.Context, db bun.IDB, j *Judgement) error {
	j.UpdatedAt = time.Now().UTC()
	_, err := r.resolveDB(db).NewInsert().
		Model(j).
		On("CONFLICT (submission_id, profile_id) DO UPDATE").
		Set("notes = EXCLUDED.notes").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert judgement: %w", err)
	}
	return nil
}

func (r *Impl) ReplaceAnswers(ctx context.Context, db bun.IDB, judgementID int64, answers []JudgingAnswer) error {
	idb := r.resolveDB(db)
	if _, err := idb.NewDelete().Model((*JudgingAnswer)(nil)).Where("judgement_id = ?", judgementID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear answers: %w", err)
	}
	if len(answers) == 0 {
		return nil
	}
	for i := range answers {
		answers[i].JudgementID = judgementID
	}
	if _, err := idb.NewInsert().Model(&answers).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert answers: %w", err)
	}
	return nil
}

func (r *Impl) GetJudgement(ctx context.Context, db bun.IDB, submissionID, profileID int64) (*Judgement, error) {
	j := new(Judgement)
	err := r.resolveDB(db).NewSelect().
		Model(j).
		Relation("Answers").
		Where("j.submission_id = ?", submissionID).
		Where("j.profile_id = ?", profileID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get judgement: %w", err)
	}
	return j, nil
}

func (r *Impl) ListJudgementsForPhase(ctx context.Context, db bun.IDB, phaseID int64) ([]Judgement, error) {
	var rows []Judgement
	err := r.resolveDB(db).NewSelect().
		Model(&rows).
		Relation("Answers").
		Join("JOIN submissions AS s ON s.id = j.submission_id").
		Where("s.phase_id = ?", phaseID).
		Order("j.submission_id ASC", "j.profile_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list judgements: %w", err)
	}
	return rows, nil
}

func (r *Impl) ListJudgedSubmissions(ctx context.Context, db bun.IDB, profileID int64) (map[int64]bool, error) {
	var ids []int64
	err := r.resolveDB(db).NewSelect().
		Model((*Judgement)(nil)).
		Column("j.submission_id").
		Where("j.profile_id = ?", profileID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list judged submissions: %w", err)
	}
	judged := make(map[int64]bool, len(ids))
	for _, id := range ids {
		judged[id] = true
	}
	return judged, nil
}
