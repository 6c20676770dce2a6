package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB connects to LABS_TEST_POSTGRES_DSN with an empty schema, or
// skips the test when no database is configured.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("LABS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LABS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := New(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.RunMigrations(ctx), "failed to run migrations")
	_, err = db.Pool.Exec(ctx, `TRUNCATE activity_events, progress_updates, experiment_collaborators, experiments, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "failed to reset tables")

	return db
}

func TestMigrations(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	tables := []string{
		"users",
		"experiments",
		"experiment_collaborators",
		"progress_updates",
		"activity_events",
	}
	for _, table := range tables {
		var exists bool
		err := db.Pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists)
		require.NoError(t, err, "failed to query table %s", table)
		require.True(t, exists, "table %s not found", table)
	}

	require.NoError(t, db.RunMigrations(ctx))
}

func TestRunInTx_RollsBack(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	boom := errors.New("boom")
	err := db.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, users.Insert(ctx, testUser("user-1")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	err := db.RunInTx(ctx, func(ctx context.Context) error {
		return db.RunInTx(ctx, func(ctx context.Context) error {
			return users.Insert(ctx, testUser("user-1"))
		})
	})
	require.NoError(t, err)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestErrorClassification(t *testing.T) {
	require.False(t, isUniqueViolation(nil))
	require.False(t, isForeignKeyViolation(errors.New("23505")))
}
