package judgingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating judging tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS judging_criteria (
					id BIGSERIAL PRIMARY KEY,
					question VARCHAR(250) NOT NULL UNIQUE,
					min_value INTEGER NOT NULL DEFAULT 0,
					max_value INTEGER NOT NULL DEFAULT 10,
					CHECK (min_value <= max_value)
				);

				CREATE TABLE IF NOT EXISTS phase_criteria (
					phase_id BIGINT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
					criterion_id BIGINT NOT NULL REFERENCES judging_criteria(id) ON DELETE CASCADE,
					weight NUMERIC(4, 2) NOT NULL DEFAULT 10,
					PRIMARY KEY (phase_id, criterion_id)
				);

				CREATE TABLE IF NOT EXISTS judgements (
					id BIGSERIAL PRIMARY KEY,
					submission_id BIGINT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
					profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					notes TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (submission_id, profile_id)
				);

				CREATE TABLE IF NOT EXISTS judging_answers (
					judgement_id BIGINT NOT NULL REFERENCES judgements(id) ON DELETE CASCADE,
					criterion_id BIGINT NOT NULL REFERENCES judging_criteria(id) ON DELETE CASCADE,
					rating INTEGER NOT NULL,
					PRIMARY KEY (judgement_id, criterion_id)
				);

				CREATE TABLE IF NOT EXISTS judge_assignments (
					id BIGSERIAL PRIMARY KEY,
					submission_id BIGINT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
					profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (submission_id, profile_id)
				);
				CREATE INDEX IF NOT EXISTS idx_judge_assignments_profile ON judge_assignments (profile_id);
			`); err != nil {
				return fmt.Errorf("failed to create judging tables: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping judging tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS judge_assignments;
				DROP TABLE IF EXISTS judging_answers;
				DROP TABLE IF EXISTS judgements;
				DROP TABLE IF EXISTS phase_criteria;
				DROP TABLE IF EXISTS judging_criteria;
			`); err != nil {
				return fmt.Errorf("failed to drop judging tables: %w", err)
			}
			return nil
		})
	})
}
