package challengedb

import (
	"context"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for tests. Seed the maps
// directly; set an Fn field to override a single method.
type FakeRepository struct {
	mu sync.Mutex

	Challenges  map[int64]*Challenge
	Phases      map[int64]*Phase
	Rounds      map[int64]*PhaseRound
	Submissions map[int64]*Submission
	Profiles    map[int64]*Profile
	nextID      int64

	GetChallengeBySlugFn func(ctx context.Context, db bun.IDB, slug string) (*Challenge, error)
	ListPhasesFn         func(ctx context.Context, db bun.IDB, challengeID int64) ([]Phase, error)
	GetSubmissionFn      func(ctx context.Context, db bun.IDB, submissionID int64) (*Submission, error)
	GetProfileFn         func(ctx context.Context, db bun.IDB, profileID int64) (*Profile, error)
	ListJudgesFn         func(ctx context.Context, db bun.IDB) ([]Profile, error)
}

var _ Repository = (*FakeRepository)(nil)

// NewFakeRepository returns an empty in-memory repository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		Challenges:  map[int64]*Challenge{},
		Phases:      map[int64]*Phase{},
		Rounds:      map[int64]*PhaseRound{},
		Submissions: map[int64]*Submission{},
		Profiles:    map[int64]*Profile{},
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

func (f *FakeRepository) GetChallengeBySlug(ctx context.Context, db bun.IDB, slug string) (*Challenge, error) {
	if f.GetChallengeBySlugFn != nil {
		return f.GetChallengeBySlugFn(ctx, db, slug)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Challenges {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) CreateChallenge(ctx context.Context, db bun.IDB, c *Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id(c.ID)
	f.Challenges[c.ID] = c
	return nil
}

func (f *FakeRepository) ListPhases(ctx context.Context, db bun.IDB, challengeID int64) ([]Phase, error) {
	if f.ListPhasesFn != nil {
		return f.ListPhasesFn(ctx, db, challengeID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Phase
	for _, p := range f.Phases {
		if p.ChallengeID == challengeID {
			out = append(out, f.withRounds(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *FakeRepository) withRounds(p Phase) Phase {
	p.Rounds = nil
	for _, r := range f.Rounds {
		if r.PhaseID == p.ID {
			p.Rounds = append(p.Rounds, *r)
		}
	}
	sort.Slice(p.Rounds, func(i, j int) bool { return p.Rounds[i].StartDate.Before(p.Rounds[j].StartDate) })
	return p
}

func (f *FakeRepository) GetPhase(ctx context.Context, db bun.IDB, phaseID int64) (*Phase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Phases[phaseID]
	if !ok {
		return nil, ErrNotFound
	}
	out := f.withRounds(*p)
	return &out, nil
}

func (f *FakeRepository) GetPhaseByName(ctx context.Context, db bun.IDB, challengeID int64, name string) (*Phase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Phases {
		if p.ChallengeID == challengeID && p.Name == name {
			out := f.withRounds(*p)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) CreatePhase(ctx context.Context, db bun.IDB, p *Phase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id(p.ID)
	f.Phases[p.ID] = p
	return nil
}

func (f *FakeRepository) GetRound(ctx context.Context, db bun.IDB, roundID int64) (*PhaseRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Rounds[roundID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *FakeRepository) CreateRound(ctx context.Context, db bun.IDB, r *PhaseRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.id(r.ID)
	f.Rounds[r.ID] = r
	return nil
}

func (f *FakeRepository) GetSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*Submission, error) {
	if f.GetSubmissionFn != nil {
		return f.GetSubmissionFn(ctx, db, submissionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Submissions[submissionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *FakeRepository) CreateSubmission(ctx context.Context, db bun.IDB, s *Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.id(s.ID)
	f.Submissions[s.ID] = s
	return nil
}

func (f *FakeRepository) SetWinner(ctx context.Context, db bun.IDB, submissionID int64, isWinner bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Submissions[submissionID]
	if !ok {
		return ErrNotFound
	}
	s.IsWinner = isWinner
	return nil
}

func (f *FakeRepository) list(phaseID int64, roundID *int64, winnersOnly bool) []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Submission
	for _, s := range f.Submissions {
		if s.PhaseID != phaseID || s.IsDraft || s.Excluded {
			continue
		}
		if roundID != nil && (s.PhaseRoundID == nil || *s.PhaseRoundID != *roundID) {
			continue
		}
		if winnersOnly && !s.IsWinner {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *FakeRepository) ListEligibleSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]Submission, error) {
	return f.list(phaseID, roundID, false), nil
}

func (f *FakeRepository) ListGreenLitSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]Submission, error) {
	return f.list(phaseID, roundID, true), nil
}

func (f *FakeRepository) GetProfile(ctx context.Context, db bun.IDB, profileID int64) (*Profile, error) {
	if f.GetProfileFn != nil {
		return f.GetProfileFn(ctx, db, profileID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Profiles[profileID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeRepository) GetProfiles(ctx context.Context, db bun.IDB, profileIDs []int64) ([]Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Profile
	for _, id := range profileIDs {
		if p, ok := f.Profiles[id]; ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRepository) CreateProfile(ctx context.Context, db bun.IDB, p *Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id(p.ID)
	f.Profiles[p.ID] = p
	return nil
}

func (f *FakeRepository) ListJudges(ctx context.Context, db bun.IDB) ([]Profile, error) {
	if f.ListJudgesFn != nil {
		return f.ListJudgesFn(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Profile
	for _, p := range f.Profiles {
		if p.IsJudge {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
