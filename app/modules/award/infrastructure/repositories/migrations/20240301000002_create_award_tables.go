package awardmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating award tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS awards (
					id BIGSERIAL PRIMARY KEY,
					phase_id BIGINT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
					phase_round_id BIGINT REFERENCES phase_rounds(id) ON DELETE CASCADE,
					amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
					status VARCHAR(16) NOT NULL DEFAULT 'PENDING'
						CHECK (status IN ('PENDING', 'RELEASED', 'FROZEN')),
					note TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				-- NULL rounds would not collide under a plain UNIQUE constraint.
				CREATE UNIQUE INDEX IF NOT EXISTS idx_awards_phase_round
					ON awards (phase_id, COALESCE(phase_round_id, 0));

				CREATE TABLE IF NOT EXISTS judge_allowances (
					id BIGSERIAL PRIMARY KEY,
					award_id BIGINT NOT NULL REFERENCES awards(id) ON DELETE CASCADE,
					profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_judge_allowances_profile ON judge_allowances (profile_id);
				CREATE INDEX IF NOT EXISTS idx_judge_allowances_award ON judge_allowances (award_id);

				CREATE TABLE IF NOT EXISTS submission_awards (
					id BIGSERIAL PRIMARY KEY,
					judge_allowance_id BIGINT NOT NULL REFERENCES judge_allowances(id) ON DELETE CASCADE,
					submission_id BIGINT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
					amount BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (judge_allowance_id, submission_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create award tables: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping award tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS submission_awards;
				DROP TABLE IF EXISTS judge_allowances;
				DROP TABLE IF EXISTS awards;
			`); err != nil {
				return fmt.Errorf("failed to drop award tables: %w", err)
			}
			return nil
		})
	})
}
