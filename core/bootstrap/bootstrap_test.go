package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
)

func fakeOptions(t *testing.T, seeders ...Seeder) (Options, *[]string) {
	t.Helper()
	var calls []string
	return Options{
		Config: &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error {
			calls = append(calls, "logger")
			return nil
		},
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			calls = append(calls, "connect")
			return sqlx.Open("postgres", "postgres://u:p@127.0.0.1:1/x?sslmode=disable")
		},
		Migrate: func(*sqlx.DB, coredatabase.Config) error {
			calls = append(calls, "migrate")
			return nil
		},
		Modules: Modules{Seeders: seeders},
	}, &calls
}

func TestRunOrdersStepsAndSeeds(t *testing.T) {
	var seeded []string
	seed := func(name string) Seeder {
		return SeederFunc(name, func(context.Context, *sqlx.DB) error {
			seeded = append(seeded, name)
			return nil
		})
	}
	opts, calls := fakeOptions(t, seed("a"), nil, seed("b"))

	res, err := Run(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.DB.Close() })

	assert.Equal(t, []string{"logger", "connect", "migrate"}, *calls)
	assert.Equal(t, []string{"a", "b"}, seeded)
}

func TestRunStopsOnSeederError(t *testing.T) {
	boom := errors.New("boom")
	opts, _ := fakeOptions(t, SeederFunc("broken", func(context.Context, *sqlx.DB) error { return boom }))

	_, err := Run(opts)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestRunStopsOnMigrationError(t *testing.T) {
	opts, _ := fakeOptions(t)
	opts.Migrate = func(*sqlx.DB, coredatabase.Config) error { return errors.New("dirty") }

	_, err := Run(opts)
	assert.ErrorContains(t, err, "migrations failed")
	_, err = Run(Options{})
	assert.Error(t, err)
}
