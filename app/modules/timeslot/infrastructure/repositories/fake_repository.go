package timeslotdb

import (
	"context"
	"sort"
	"sync"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository. Submission owners are read
// from Challenge.
type FakeRepository struct {
	mu sync.Mutex

	Challenge      *challengedb.FakeRepository
	Releases       map[int64]*Release
	Slots          map[int64]*TimeSlot
	Availabilities map[int64]*BookingAvailability
	nextID         int64

	BookSlotFn             func(ctx context.Context, db bun.IDB, slotID, submissionID int64, at time.Time) (bool, error)
	CreateAvailabilitiesFn func(ctx context.Context, db bun.IDB, rows []BookingAvailability) error
}

var _ Repository = (*FakeRepository)(nil)

func NewFakeRepository(challenge *challengedb.FakeRepository) *FakeRepository {
	return &FakeRepository{
		Challenge:      challenge,
		Releases:       map[int64]*Release{},
		Slots:          map[int64]*TimeSlot{},
		Availabilities: map[int64]*BookingAvailability{},
		nextID:         1000,
	}
}

func (f *FakeRepository) id(current int64) int64 {
	if current != 0 {
		return current
	}
	f.nextID++
	return f.nextID
}

func (f *FakeRepository) CreateRelease(ctx context.Context, db bun.IDB, r *Release) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.id(r.ID)
	cp := *r
	f.Releases[r.ID] = &cp
	return nil
}

func (f *FakeRepository) GetRelease(ctx context.Context, db bun.IDB, releaseID int64) (*Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Releases[releaseID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *FakeRepository) GetCurrentRelease(ctx context.Context, db bun.IDB) (*Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var current *Release
	for _, r := range f.Releases {
		if r.IsCurrent && (current == nil || r.ID > current.ID) {
			current = r
		}
	}
	if current == nil {
		return nil, ErrNotFound
	}
	cp := *current
	return &cp, nil
}

func (f *FakeRepository) SetCurrentRelease(ctx context.Context, db bun.IDB, releaseID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Releases[releaseID]; !ok {
		return ErrNotFound
	}
	for id, r := range f.Releases {
		r.IsCurrent = id == releaseID
	}
	return nil
}

func (f *FakeRepository) CreateSlot(ctx context.Context, db bun.IDB, s *TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.id(s.ID)
	cp := *s
	f.Slots[s.ID] = &cp
	return nil
}

func (f *FakeRepository) GetSlot(ctx context.Context, db bun.IDB, slotID int64) (*TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Slots[slotID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func sortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].StartDate.Equal(slots[j].StartDate) {
			return slots[i].StartDate.Before(slots[j].StartDate)
		}
		return slots[i].ID < slots[j].ID
	})
}

func (f *FakeRepository) ListAvailableSlots(ctx context.Context, db bun.IDB, releaseID int64, from time.Time) ([]TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []TimeSlot
	for _, s := range f.Slots {
		if s.ReleaseID == releaseID && !s.IsBooked && !s.StartDate.Before(from) {
			out = append(out, *s)
		}
	}
	sortSlots(out)
	return out, nil
}

func (f *FakeRepository) BookSlot(ctx context.Context, db bun.IDB, slotID, submissionID int64, at time.Time) (bool, error) {
	if f.BookSlotFn != nil {
		return f.BookSlotFn(ctx, db, slotID, submissionID, at)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Slots[slotID]
	if !ok || s.IsBooked {
		return false, nil
	}
	for _, other := range f.Slots {
		if other.IsBooked && other.SubmissionID != nil && *other.SubmissionID == submissionID {
			return false, ErrSubmissionBooked
		}
	}
	s.IsBooked = true
	s.SubmissionID = &submissionID
	s.BookingDate = &at
	return true, nil
}

func (f *FakeRepository) GetBookedSlotForSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.Slots {
		if s.IsBooked && s.SubmissionID != nil && *s.SubmissionID == submissionID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) ListBooked(ctx context.Context, db bun.IDB, filter BookedFilter) ([]TimeSlot, error) {
	f.mu.Lock()
	booked := make([]TimeSlot, 0, len(f.Slots))
	for _, s := range f.Slots {
		if s.IsBooked && s.SubmissionID != nil {
			booked = append(booked, *s)
		}
	}
	f.mu.Unlock()

	var wanted map[int64]bool
	if filter.SubmissionIDs != nil {
		wanted = make(map[int64]bool, len(filter.SubmissionIDs))
		for _, id := range filter.SubmissionIDs {
			wanted[id] = true
		}
	}

	var out []TimeSlot
	for _, s := range booked {
		if wanted != nil && !wanted[*s.SubmissionID] {
			continue
		}
		if filter.EndsAfter != nil && s.EndDate.Before(*filter.EndsAfter) {
			continue
		}
		if filter.OwnerID != nil {
			sub, err := f.Challenge.GetSubmission(ctx, nil, *s.SubmissionID)
			if err != nil || sub.CreatedBy != *filter.OwnerID {
				continue
			}
		}
		out = append(out, s)
	}
	sortSlots(out)
	return out, nil
}

func (f *FakeRepository) ListBookedSubmissionIDs(ctx context.Context, db bun.IDB, releaseID int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]bool{}
	for _, s := range f.Slots {
		if s.ReleaseID == releaseID && s.IsBooked && s.SubmissionID != nil {
			out[*s.SubmissionID] = true
		}
	}
	return out, nil
}

func (f *FakeRepository) GetAvailability(ctx context.Context, db bun.IDB, submissionID int64) (*BookingAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.Availabilities {
		if a.SubmissionID == submissionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) ListAvailabilitySubmissionIDs(ctx context.Context, db bun.IDB) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]bool, len(f.Availabilities))
	for _, a := range f.Availabilities {
		out[a.SubmissionID] = true
	}
	return out, nil
}

func (f *FakeRepository) CreateAvailabilities(ctx context.Context, db bun.IDB, rows []BookingAvailability) error {
	if f.CreateAvailabilitiesFn != nil {
		return f.CreateAvailabilitiesFn(ctx, db, rows)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range rows {
		rows[i].ID = f.id(rows[i].ID)
		cp := rows[i]
		f.Availabilities[cp.ID] = &cp
	}
	return nil
}
