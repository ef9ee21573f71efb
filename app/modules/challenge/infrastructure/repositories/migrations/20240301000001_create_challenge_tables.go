package challengemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating challenge tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS challenges (
					id BIGSERIAL PRIMARY KEY,
					slug VARCHAR(50) NOT NULL UNIQUE,
					title VARCHAR(60) NOT NULL,
					summary TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS phases (
					id BIGSERIAL PRIMARY KEY,
					challenge_id BIGINT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
					name VARCHAR(100) NOT NULL,
					sort_order INTEGER NOT NULL,
					start_date TIMESTAMPTZ NOT NULL,
					end_date TIMESTAMPTZ NOT NULL,
					judging_start_date TIMESTAMPTZ,
					judging_end_date TIMESTAMPTZ,
					UNIQUE (challenge_id, name),
					CHECK (end_date > start_date)
				);

				CREATE TABLE IF NOT EXISTS phase_rounds (
					id BIGSERIAL PRIMARY KEY,
					phase_id BIGINT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					start_date TIMESTAMPTZ NOT NULL,
					end_date TIMESTAMPTZ NOT NULL,
					judging_start_date TIMESTAMPTZ,
					judging_end_date TIMESTAMPTZ,
					CHECK (end_date > start_date)
				);
				CREATE INDEX IF NOT EXISTS idx_phase_rounds_phase_id ON phase_rounds(phase_id);
			`); err != nil {
				return fmt.Errorf("failed to create phase tables: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS profiles (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL UNIQUE,
					is_judge BOOLEAN NOT NULL DEFAULT FALSE,
					is_staff BOOLEAN NOT NULL DEFAULT FALSE
				);

				CREATE TABLE IF NOT EXISTS submissions (
					id BIGSERIAL PRIMARY KEY,
					phase_id BIGINT NOT NULL REFERENCES phases(id),
					phase_round_id BIGINT REFERENCES phase_rounds(id),
					created_by BIGINT NOT NULL REFERENCES profiles(id),
					title VARCHAR(60) NOT NULL UNIQUE,
					brief_description VARCHAR(200) NOT NULL DEFAULT '',
					is_winner BOOLEAN NOT NULL DEFAULT FALSE,
					is_draft BOOLEAN NOT NULL DEFAULT FALSE,
					is_live BOOLEAN NOT NULL DEFAULT TRUE,
					excluded BOOLEAN NOT NULL DEFAULT FALSE,
					created_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_submissions_phase ON submissions(phase_id, phase_round_id);
				CREATE INDEX IF NOT EXISTS idx_submissions_created_by ON submissions(created_by);
			`); err != nil {
				return fmt.Errorf("failed to create submission tables: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping challenge tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS submissions;
			DROP TABLE IF EXISTS profiles;
			DROP TABLE IF EXISTS phase_rounds;
			DROP TABLE IF EXISTS phases;
			DROP TABLE IF EXISTS challenges;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop challenge tables: %w", err)
		}
		return nil
	})
}
