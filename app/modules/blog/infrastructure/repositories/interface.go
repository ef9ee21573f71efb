package blogdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository persists imported blog entries.
type Repository interface {
	GetByChecksum(ctx context.Context, db bun.IDB, checksum string) (*BlogEntry, error)
	CreateEntry(ctx context.Context, db bun.IDB, entry *BlogEntry) error
	// DeleteStale removes entries of page whose id is not in keep and
	// returns how many went.
	DeleteStale(ctx context.Context, db bun.IDB, page string, keep []int64) (int, error)
	ListLatest(ctx context.Context, db bun.IDB, page string, limit int) ([]BlogEntry, error)
}
