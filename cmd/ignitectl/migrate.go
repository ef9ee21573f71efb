package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mozilla/mozilla-ignite/app/migrations"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withModules(func(c *cli.Context, modules []migrations.Module) error {
					for _, m := range modules {
						fmt.Fprintf(c.App.Writer, "Initializing migrations for module: %s\n", m.Name)
						if err := m.Migrator.Init(c.Context); err != nil {
							return fmt.Errorf("failed to initialize module %s: %w", m.Name, err)
						}
					}
					return nil
				}),
			},
			{
				Name:  "migrate",
				Usage: "migrate database, River's tables included",
				Action: withModules(func(c *cli.Context, modules []migrations.Module) error {
					for _, m := range modules {
						group, err := m.Migrator.Migrate(c.Context)
						if err != nil {
							return fmt.Errorf("failed to migrate module %s: %w", m.Name, err)
						}
						if group.IsZero() {
							fmt.Fprintf(c.App.Writer, "No new migrations to run for module: %s\n", m.Name)
						} else {
							fmt.Fprintf(c.App.Writer, "Migrated module: %s to %s\n", m.Name, group)
						}
					}

					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					pool, err := pgxpool.New(c.Context, cfg.Postgres.DSN)
					if err != nil {
						return fmt.Errorf("failed to open pgx pool: %w", err)
					}
					defer pool.Close()

					versions, err := migrations.River(c.Context, pool)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "River migrations applied: %v\n", versions)
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group of every module, newest module first",
				Action: withModules(func(c *cli.Context, modules []migrations.Module) error {
					for _, m := range slices.Backward(modules) {
						group, err := m.Migrator.Rollback(c.Context)
						if err != nil {
							return fmt.Errorf("failed to roll back module %s: %w", m.Name, err)
						}
						if group.IsZero() {
							fmt.Fprintf(c.App.Writer, "No groups to roll back for module: %s\n", m.Name)
						} else {
							fmt.Fprintf(c.App.Writer, "Rolled back module: %s to %s\n", m.Name, group)
						}
					}
					return nil
				}),
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: withModules(func(c *cli.Context, modules []migrations.Module) error {
					moduleName := c.Args().First()
					migrator, ok := migrations.Find(modules, moduleName)
					if !ok {
						return fmt.Errorf("invalid module name: %s", moduleName)
					}
					mf, err := migrator.CreateGoMigration(c.Context, strings.Join(c.Args().Tail(), "_"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					return nil
				}),
			},
			{
				Name:      "create_sql",
				Usage:     "create up and down SQL migrations",
				ArgsUsage: "<module> <name...>",
				Action: withModules(func(c *cli.Context, modules []migrations.Module) error {
					moduleName := c.Args().First()
					migrator, ok := migrations.Find(modules, moduleName)
					if !ok {
						return fmt.Errorf("invalid module name: %s", moduleName)
					}
					files, err := migrator.CreateSQLMigrations(c.Context, strings.Join(c.Args().Tail(), "_"))
					if err != nil {
						return err
					}
					for _, mf := range files {
						fmt.Fprintf(c.App.Writer, "Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					}
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: withModules(func(c *cli.Context, modules []migrations.Module) error {
					for _, m := range modules {
						ms, err := m.Migrator.MigrationsWithStatus(c.Context)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "Migrations for module: %s\n", m.Name)
						fmt.Fprintf(c.App.Writer, "  %s\n", ms)
						fmt.Fprintf(c.App.Writer, "  Applied: %s\n", ms.Applied())
						fmt.Fprintf(c.App.Writer, "  Unapplied: %s\n", ms.Unapplied())
					}
					return nil
				}),
			},
		},
	}
}

// withModules opens only the database; migrations need nothing else.
func withModules(fn func(c *cli.Context, modules []migrations.Module) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		db, err := dbtx.Open(c.Context, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(c, migrations.Modules(db))
	}
}
