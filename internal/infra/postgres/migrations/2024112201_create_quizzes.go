// Package migrations holds the schema for the local quiz catalog and the
// attempt journal. Each version embeds its SQL and drops its table on
// rollback.
package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_quizzes.sql
var createQuizzesSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(createTable(createQuizzesSQL, "quizzes"))
}

// createTable builds the up/down pair for a migration that creates table.
func createTable(ddl, table string) (migrate.MigrationFunc, migrate.MigrationFunc) {
	up := func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, ddl)
		return err
	}
	down := func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Table(table).IfExists().Exec(ctx)
		return err
	}
	return up, down
}
