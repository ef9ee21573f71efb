package blogmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating blog_entries table...")

		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS blog_entries (
				id BIGSERIAL PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				link VARCHAR(500) NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				page VARCHAR(50) NOT NULL,
				checksum CHAR(32) NOT NULL UNIQUE,
				updated_at TIMESTAMPTZ NOT NULL,
				author VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_blog_entries_page_updated ON blog_entries (page, updated_at DESC);
		`); err != nil {
			return fmt.Errorf("failed to create blog_entries table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping blog_entries table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS blog_entries`); err != nil {
			return fmt.Errorf("failed to drop blog_entries table: %w", err)
		}
		return nil
	})
}
