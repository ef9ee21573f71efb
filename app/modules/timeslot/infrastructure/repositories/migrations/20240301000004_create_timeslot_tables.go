package timeslotmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating timeslot tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS releases (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					phase_id BIGINT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
					phase_round_id BIGINT REFERENCES phase_rounds(id) ON DELETE CASCADE,
					is_current BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS time_slots (
					id BIGSERIAL PRIMARY KEY,
					start_date TIMESTAMPTZ NOT NULL,
					end_date TIMESTAMPTZ NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					release_id BIGINT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
					submission_id BIGINT REFERENCES submissions(id) ON DELETE SET NULL,
					is_booked BOOLEAN NOT NULL DEFAULT FALSE,
					booking_date TIMESTAMPTZ,
					webcast_url VARCHAR(500) NOT NULL DEFAULT '',
					CHECK (end_date > start_date)
				);
				CREATE INDEX IF NOT EXISTS idx_time_slots_release_start ON time_slots (release_id, start_date);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_time_slots_booked_submission
					ON time_slots (submission_id) WHERE is_booked;

				CREATE TABLE IF NOT EXISTS booking_availabilities (
					id BIGSERIAL PRIMARY KEY,
					submission_id BIGINT NOT NULL UNIQUE REFERENCES submissions(id) ON DELETE CASCADE,
					release_id BIGINT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
					available_on TIMESTAMPTZ NOT NULL
				);

				CREATE TABLE IF NOT EXISTS slot_locks (
					slot_id BIGINT PRIMARY KEY REFERENCES time_slots(id) ON DELETE CASCADE,
					submission_id BIGINT NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL
				);
			`); err != nil {
				return fmt.Errorf("failed to create timeslot tables: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping timeslot tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS slot_locks;
				DROP TABLE IF EXISTS booking_availabilities;
				DROP TABLE IF EXISTS time_slots;
				DROP TABLE IF EXISTS releases;
			`); err != nil {
				return fmt.Errorf("failed to drop timeslot tables: %w", err)
			}
			return nil
		})
	})
}
