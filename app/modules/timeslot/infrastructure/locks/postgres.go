// Package timeslotlocks holds the booking lock backends.
package timeslotlocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/uptrace/bun"
)

// PostgresLocker keeps slot locks in the slot_locks table. An expired lock
// is taken over by the next submission; the holder re-acquires without
// extending its expiry.
type PostgresLocker struct {
	db    bun.IDB
	clock clock.Clock
}

func NewPostgresLocker(db bun.IDB, clk clock.Clock) *PostgresLocker {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &PostgresLocker{db: db, clock: clk}
}

func (l *PostgresLocker) Acquire(ctx context.Context, slotID, submissionID int64, ttl time.Duration) (bool, error) {
	now := l.clock.Now()
	var holder int64
	err := l.db.NewRaw(`
		INSERT INTO slot_locks (slot_id, submission_id, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (slot_id) DO UPDATE SET
			submission_id = EXCLUDED.submission_id,
			expires_at = CASE
				WHEN slot_locks.submission_id = EXCLUDED.submission_id THEN slot_locks.expires_at
				ELSE EXCLUDED.expires_at
			END
		WHERE slot_locks.expires_at <= ? OR slot_locks.submission_id = EXCLUDED.submission_id
		RETURNING submission_id`,
		slotID, submissionID, now.Add(ttl), now,
	).Scan(ctx, &holder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock timeslot: %w", err)
	}
	return holder == submissionID, nil
}
