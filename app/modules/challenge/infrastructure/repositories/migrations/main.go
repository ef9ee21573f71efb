package challengemigrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()

func init() {
	// Each registered migration takes its ID from its file name.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
