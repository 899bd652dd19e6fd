package catalog

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to SHOPBOT_TEST_DATABASE_URL and isolates the test in a
// throwaway schema. The test is skipped when the variable is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("SHOPBOT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHOPBOT_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf("catalog_test_%d", time.Now().UnixNano())
	ddl, err := os.ReadFile("../../migrations/000001_catalog.up.sql")
	require.NoError(t, err)
	db.MustExec(`CREATE SCHEMA ` + schema)
	db.MustExec(`SET search_path TO ` + schema)
	db.MustExec(string(ddl))
	t.Cleanup(func() {
		db.MustExec(`DROP SCHEMA ` + schema + ` CASCADE`)
		_ = db.Close()
	})
	return db
}

func TestSQLStoreAgainstDemoCatalog(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, seedDemo(ctx, db))
	require.NoError(t, seedDemo(ctx, db), "seeding twice is a no-op")

	s := NewSQLStore(db)
	names, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, DemoCategories, names)

	ps, err := s.ListProductsByCategory(ctx, "Skincare")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Hydrating Cream", ps[0].Name)
	assert.Equal(t, "89.9", ps[1].Price.String())

	ps, err = s.ListProductsByCategory(ctx, "Perfume")
	require.NoError(t, err)
	assert.Empty(t, ps)

	p, err := s.GetProductByID(ctx, ps0ID(t, s))
	require.NoError(t, err)
	assert.Equal(t, "Skincare", p.Category)
	assert.Empty(t, p.Image)

	_, err = s.GetProductByID(ctx, 1_000_000)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := s.MinProductIDPerCategory(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func ps0ID(t *testing.T, s *SQLStore) int64 {
	t.Helper()
	ps, err := s.ListProductsByCategory(context.Background(), "Skincare")
	require.NoError(t, err)
	require.NotEmpty(t, ps)
	return ps[0].ID
}
