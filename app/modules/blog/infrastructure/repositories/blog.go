package blogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("blog entry not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetByChecksum(ctx context.Context, db bun.IDB, checksum string) (*BlogEntry, error) {
	entry := new(BlogEntry)
	if err := r.resolveDB(db).NewSelect().Model(entry).Where("be.checksum = ?", checksum).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blog entry: %w", err)
	}
	return entry, nil
}

func (r *Impl) CreateEntry(ctx context.Context, db bun.IDB, entry *BlogEntry) error {
	if _, err := r.resolveDB(db).NewInsert().Model(entry).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create blog entry: %w", err)
	}
	return nil
}

func (r *Impl) DeleteStale(ctx context.Context, db bun.IDB, page string, keep []int64) (int, error) {
	q := r.resolveDB(db).NewDelete().Model((*BlogEntry)(nil)).Where("page = ?", page)
	if len(keep) > 0 {
		q = q.Where("id NOT IN (?)", bun.In(keep))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale blog entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted blog entries: %w", err)
	}
	return int(n), nil
}

func (r *Impl) ListLatest(ctx context.Context, db bun.IDB, page string, limit int) ([]BlogEntry, error) {
	var entries []BlogEntry
	err := r.resolveDB(db).NewSelect().Model(&entries).
		Where("be.page = ?", page).
		Order("be.updated_at DESC", "be.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog entries: %w", err)
	}
	return entries, nil
}
