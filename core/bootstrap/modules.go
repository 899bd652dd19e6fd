package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Seeder loads reference data once the schema is migrated. Seeders must be
// idempotent since they run on every start.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) error
}

type namedSeeder struct {
	name string
	fn   func(ctx context.Context, db *sqlx.DB) error
}

func (s namedSeeder) Name() string                                { return s.name }
func (s namedSeeder) Seed(ctx context.Context, db *sqlx.DB) error { return s.fn(ctx, db) }

// SeederFunc names a bare function as a Seeder.
func SeederFunc(name string, fn func(ctx context.Context, db *sqlx.DB) error) Seeder {
	return namedSeeder{name: name, fn: fn}
}

// Modules groups optional hooks that run after migrations.
type Modules struct {
	Seeders []Seeder
}
