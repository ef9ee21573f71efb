package blogdb

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

// FakeRepository keeps entries in memory, keyed by id.
type FakeRepository struct {
	mu      sync.Mutex
	Entries map[int64]*BlogEntry
	nextID  int64

	CreateEntryFn func(ctx context.Context, db bun.IDB, entry *BlogEntry) error
}

var _ Repository = (*FakeRepository)(nil)

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{Entries: map[int64]*BlogEntry{}, nextID: 1000}
}

func (f *FakeRepository) GetByChecksum(_ context.Context, _ bun.IDB, checksum string) (*BlogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.Entries {
		if e.Checksum == checksum {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) CreateEntry(ctx context.Context, db bun.IDB, entry *BlogEntry) error {
	if f.CreateEntryFn != nil {
		return f.CreateEntryFn(ctx, db, entry)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	entry.ID = f.nextID
	cp := *entry
	f.Entries[entry.ID] = &cp
	return nil
}

func (f *FakeRepository) DeleteStale(_ context.Context, _ bun.IDB, page string, keep []int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, e := range f.Entries {
		if e.Page == page && !slices.Contains(keep, id) {
			delete(f.Entries, id)
			n++
		}
	}
	return n, nil
}

func (f *FakeRepository) ListLatest(_ context.Context, _ bun.IDB, page string, limit int) ([]BlogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []BlogEntry
	for _, e := range f.Entries {
		if e.Page == page {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
