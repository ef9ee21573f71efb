// Package migrations lists every module's migrations in dependency order.
package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	awardmigrations "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories/migrations"
	blogmigrations "github.com/mozilla/mozilla-ignite/app/modules/blog/infrastructure/repositories/migrations"
	challengemigrations "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories/migrations"
	judgingmigrations "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/repositories/migrations"
	timeslotmigrations "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories/migrations"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Module pairs a module name with its migrator.
type Module struct {
	Name     string
	Migrator *migrate.Migrator
}

// Modules returns the migrators in the order their tables depend on each
// other. Roll back in reverse.
func Modules(db *bun.DB) []Module {
	return []Module{
		{Name: "challenge", Migrator: migrate.NewMigrator(db, challengemigrations.Migrations)},
		{Name: "award", Migrator: migrate.NewMigrator(db, awardmigrations.Migrations)},
		{Name: "judging", Migrator: migrate.NewMigrator(db, judgingmigrations.Migrations)},
		{Name: "timeslot", Migrator: migrate.NewMigrator(db, timeslotmigrations.Migrations)},
		{Name: "blog", Migrator: migrate.NewMigrator(db, blogmigrations.Migrations)},
	}
}

// Find returns the migrator of the named module.
func Find(modules []Module, name string) (*migrate.Migrator, bool) {
	for _, m := range modules {
		if m.Name == name {
			return m.Migrator, true
		}
	}
	return nil, false
}

// Up initializes the migration tables and applies every module's pending
// migrations followed by River's schema.
func Up(ctx context.Context, db *bun.DB, pool *pgxpool.Pool) error {
	for _, m := range Modules(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", m.Name, err)
		}
		if _, err := m.Migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", m.Name, err)
		}
	}
	if _, err := River(ctx, pool); err != nil {
		return err
	}
	return nil
}

// River applies River's own job tables and reports the versions it ran.
func River(ctx context.Context, pool *pgxpool.Pool) ([]int, error) {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate river: %w", err)
	}
	versions := make([]int, 0, len(res.Versions))
	for _, v := range res.Versions {
		versions = append(versions, v.Version)
	}
	return versions, nil
}
