package judgingdb

import (
	"context"
	"sort"
	"sync"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository. Submission eligibility and
// phase membership are read from Challenge.
type FakeRepository struct {
	mu sync.Mutex

	Challenge     *challengedb.FakeRepository
	Criteria      map[int64]*JudgingCriterion
	PhaseCriteria []PhaseCriterion
	Judgements    map[int64]*Judgement
	Assignments   map[int64]*JudgeAssignment
	nextID        int64

	CreateAssignmentsFn func(ctx context.Context, db bun.IDB, assignments []JudgeAssignment) (int, error)
}

var _ Repository = (*FakeRepository)(nil)

func NewFakeRepository(challenge *challengedb.FakeRepository) *FakeRepository {
	return &FakeRepository{
		Challenge:   challenge,
		Criteria:    map[int64]*JudgingCriterion{},
		Judgements:  map[int64]*Judgement{},
		Assignments: map[int64]*JudgeAssignment{},
		nextID:      1000,
	}
}

func (f *FakeRepository) id(current int64) int64 {
	if current != 0 {
		return current
	}
	f.nextID++
	return f.nextID
}

func (f *FakeRepository) CreateCriterion(ctx context.Context, db bun.IDB, c *JudgingCriterion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id(c.ID)
	cp := *c
	f.Criteria[c.ID] = &cp
	return nil
}

func (f *FakeRepository) AttachCriterion(ctx context.Context, db bun.IDB, pc *PhaseCriterion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.PhaseCriteria {
		if f.PhaseCriteria[i].PhaseID == pc.PhaseID && f.PhaseCriteria[i].CriterionID == pc.CriterionID {
			f.PhaseCriteria[i].Weight = pc.Weight
			return nil
		}
	}
	f.PhaseCriteria = append(f.PhaseCriteria, PhaseCriterion{PhaseID: pc.PhaseID, CriterionID: pc.CriterionID, Weight: pc.Weight})
	return nil
}

func (f *FakeRepository) ListPhaseCriteria(ctx context.Context, db bun.IDB, phaseID int64) ([]PhaseCriterion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []PhaseCriterion
	for _, pc := range f.PhaseCriteria {
		if pc.PhaseID != phaseID {
			continue
		}
		if c, ok := f.Criteria[pc.CriterionID]; ok {
			cp := *c
			pc.Criterion = &cp
		}
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CriterionID < out[j].CriterionID })
	return out, nil
}

func (f *FakeRepository) ListAssignableSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]int64, error) {
	eligible, err := f.Challenge.ListEligibleSubmissions(ctx, db, phaseID, roundID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	taken := map[int64]bool{}
	for _, j := range f.Judgements {
		taken[j.SubmissionID] = true
	}
	for _, a := range f.Assignments {
		taken[a.SubmissionID] = true
	}
	var ids []int64
	for _, s := range eligible {
		if !taken[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (f *FakeRepository) CreateAssignments(ctx context.Context, db bun.IDB, assignments []JudgeAssignment) (int, error) {
	if f.CreateAssignmentsFn != nil {
		return f.CreateAssignmentsFn(ctx, db, assignments)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	written := 0
outer:
	for _, a := range assignments {
		for _, existing := range f.Assignments {
			if existing.SubmissionID == a.SubmissionID && existing.ProfileID == a.ProfileID {
				continue outer
			}
		}
		a.ID = f.id(0)
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		cp := a
		f.Assignments[a.ID] = &cp
		written++
	}
	return written, nil
}

func (f *FakeRepository) GetAssignment(ctx context.Context, db bun.IDB, submissionID, profileID int64) (*JudgeAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.Assignments {
		if a.SubmissionID == submissionID && a.ProfileID == profileID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) ListAssignmentsForJudge(ctx context.Context, db bun.IDB, profileID int64) ([]JudgeAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []JudgeAssignment
	for _, a := range f.Assignments {
		if a.ProfileID == profileID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRepository) inPhase(ctx context.Context, submissionID, phaseID int64) bool {
	s, err := f.Challenge.GetSubmission(ctx, nil, submissionID)
	return err == nil && s.PhaseID == phaseID
}

func (f *FakeRepository) ListAssignmentsForPhase(ctx context.Context, db bun.IDB, phaseID int64) ([]JudgeAssignment, error) {
	f.mu.Lock()
	all := make([]JudgeAssignment, 0, len(f.Assignments))
	for _, a := range f.Assignments {
		all = append(all, *a)
	}
	f.mu.Unlock()

	var out []JudgeAssignment
	for _, a := range all {
		if f.inPhase(ctx, a.SubmissionID, phaseID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmissionID != out[j].SubmissionID {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	return out, nil
}

func (f *FakeRepository) UpsertJudgement(ctx context.Context, db bun.IDB, j *Judgement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range f.Judgements {
		if existing.SubmissionID == j.SubmissionID && existing.ProfileID == j.ProfileID {
			existing.Notes = j.Notes
			existing.UpdatedAt = now
			j.ID = existing.ID
			j.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	j.ID = f.id(0)
	j.CreatedAt = now
	j.UpdatedAt = now
	cp := *j
	cp.Answers = nil
	f.Judgements[j.ID] = &cp
	return nil
}

func (f *FakeRepository) ReplaceAnswers(ctx context.Context, db bun.IDB, judgementID int64, answers []JudgingAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.Judgements[judgementID]
	if !ok {
		return ErrNotFound
	}
	j.Answers = nil
	for _, a := range answers {
		a.JudgementID = judgementID
		j.Answers = append(j.Answers, a)
	}
	return nil
}

func (f *FakeRepository) GetJudgement(ctx context.Context, db bun.IDB, submissionID, profileID int64) (*Judgement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.Judgements {
		if j.SubmissionID == submissionID && j.ProfileID == profileID {
			cp := *j
			cp.Answers = append([]JudgingAnswer(nil), j.Answers...)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) ListJudgementsForPhase(ctx context.Context, db bun.IDB, phaseID int64) ([]Judgement, error) {
	f.mu.Lock()
	all := make([]Judgement, 0, len(f.Judgements))
	for _, j := range f.Judgements {
		cp := *j
		cp.Answers = append([]JudgingAnswer(nil), j.Answers...)
		all = append(all, cp)
	}
	f.mu.Unlock()

	var out []Judgement
	for _, j := range all {
		if f.inPhase(ctx, j.SubmissionID, phaseID) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmissionID != out[j].SubmissionID {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	return out, nil
}

func (f *FakeRepository) ListJudgedSubmissions(ctx context.Context, db bun.IDB, profileID int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	judged := map[int64]bool{}
	for _, j := range f.Judgements {
		if j.ProfileID == profileID {
			judged[j.SubmissionID] = true
		}
	}
	return judged, nil
}
