package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/memory"
	"github.com/nilelabs/labs/internal/repository"
	"github.com/nilelabs/labs/internal/seed"
	"github.com/nilelabs/labs/internal/sqlite"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestBuild_ReferencesResolve(t *testing.T) {
	data := seed.Build(now)
	require.Len(t, data.Users, 6)
	require.Len(t, data.Experiments, 8)
	require.Len(t, data.Events, 8)

	users := map[string]bool{}
	for _, u := range data.Users {
		users[u.ID] = true
	}
	exps := map[string]bool{}
	for _, e := range data.Experiments {
		exps[e.ID] = true
		require.True(t, users[e.OwnerID], "owner of %s", e.ID)
		for _, c := range e.CollaboratorIDs {
			require.True(t, users[c], "collaborator %s of %s", c, e.ID)
		}
	}
	for _, ev := range data.Events {
		require.True(t, exps[ev.ExperimentID], "event %s", ev.ID)
		require.Equal(t, ev.Payload.EventType(), ev.Type)
	}
}

func TestLoad_Memory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	target := seed.Target{Users: store.Users(), Experiments: store.Experiments(), Activity: store.Activity(), Tx: store}
	require.NoError(t, seed.Load(ctx, target, now))

	events, err := store.Activity().List(ctx)
	require.NoError(t, err)
	require.Equal(t, "event-1", events[0].ID)
	require.Equal(t, "event-8", events[7].ID)

	exp, err := store.Experiments().Get(ctx, "exp-3")
	require.NoError(t, err)
	require.Len(t, exp.ProgressUpdates, 2)
	require.Equal(t, "progress-4", exp.ProgressUpdates[0].ID)

	// A second load collides and leaves the store as it was.
	require.ErrorIs(t, seed.Load(ctx, target, now), repository.ErrDuplicate)
	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 6)
}

func TestLoad_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	exps := sqlite.NewExperimentRepository(db)
	acts := sqlite.NewActivityRepository(db)
	require.NoError(t, seed.Load(ctx, seed.Target{
		Users:       sqlite.NewUserRepository(db),
		Experiments: exps,
		Activity:    acts,
		Tx:          db,
	}, now))

	list, err := exps.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 8)
	require.Equal(t, "exp-1", list[0].ID)
	require.Len(t, list[0].Links, 2)
	require.Equal(t, "exp-3", *list[4].ForkedFromID)

	events, err := acts.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 8)
	require.Equal(t, "event-1", events[0].ID)
}
