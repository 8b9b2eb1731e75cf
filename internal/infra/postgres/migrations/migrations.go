// Package migrations registers the relational schema consumed by the
// attempt store and the quiz/room loaders.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
