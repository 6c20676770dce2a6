package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testExperiment(id string) *experiment.Experiment {
	return &experiment.Experiment{
		ID:              id,
		Title:           "Experiment " + id,
		Description:     "desc",
		Status:          experiment.StatusIdea,
		OwnerID:         "user-1",
		CollaboratorIDs: []string{},
		Tags:            []string{"a"},
		Links:           []experiment.Link{},
		ProgressUpdates: []experiment.ProgressUpdate{},
		CreatedAt:       testTime,
		UpdatedAt:       testTime,
	}
}

func TestExperimentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := New().Experiments()

	require.NoError(t, repo.Insert(ctx, testExperiment("exp-1")))
	require.NoError(t, repo.Insert(ctx, testExperiment("exp-2")))
	require.ErrorIs(t, repo.Insert(ctx, testExperiment("exp-1")), repository.ErrDuplicate)

	got, err := repo.Get(ctx, "exp-1")
	require.NoError(t, err)
	require.Equal(t, "Experiment exp-1", got.Title)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "exp-1", list[0].ID)
	require.Equal(t, "exp-2", list[1].ID)

	require.ErrorIs(t, repo.Update(ctx, testExperiment("missing")), repository.ErrNotFound)
}

func TestExperimentRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New().Experiments()
	require.NoError(t, repo.Insert(ctx, testExperiment("exp-1")))

	got, err := repo.Get(ctx, "exp-1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.Title = "mutated"

	again, err := repo.Get(ctx, "exp-1")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, again.Tags)
	require.Equal(t, "Experiment exp-1", again.Title)
}

func TestExperimentRepository_UpdateKeepsProgress(t *testing.T) {
	ctx := context.Background()
	repo := New().Experiments()
	require.NoError(t, repo.Insert(ctx, testExperiment("exp-1")))

	require.NoError(t, repo.AppendProgress(ctx, &experiment.ProgressUpdate{
		ID: "p-1", ExperimentID: "exp-1", Content: "note", CreatedByID: "user-1", CreatedAt: testTime,
	}))
	require.ErrorIs(t, repo.AppendProgress(ctx, &experiment.ProgressUpdate{ExperimentID: "missing"}), repository.ErrNotFound)

	stale := testExperiment("exp-1")
	stale.Title = "Renamed"
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.Get(ctx, "exp-1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Len(t, got.ProgressUpdates, 1)
	require.Equal(t, "p-1", got.ProgressUpdates[0].ID)
}

func TestActivityRepository_PrependsEvents(t *testing.T) {
	ctx := context.Background()
	repo := New().Activity()

	for _, id := range []string{"ev-1", "ev-2", "ev-3"} {
		require.NoError(t, repo.Append(ctx, &activity.Event{
			ID: id, Type: activity.TypeExperimentCreated, ExperimentID: "exp-1", CreatedAt: testTime, Payload: activity.Created{},
		}))
	}

	events, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "ev-3", events[0].ID)
	require.Equal(t, "ev-1", events[2].ID)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := New().Users()

	require.NoError(t, repo.Insert(ctx, &user.User{ID: "user-1", Name: "Tiernan"}))
	require.ErrorIs(t, repo.Insert(ctx, &user.User{ID: "user-1"}), repository.ErrDuplicate)

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "Tiernan", got.Name)

	_, err = repo.Get(ctx, "user-2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_RunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Experiments().Insert(ctx, testExperiment("exp-1")))

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		updated := testExperiment("exp-1")
		updated.Title = "Inside tx"
		require.NoError(t, store.Experiments().Update(ctx, updated))
		require.NoError(t, store.Experiments().Insert(ctx, testExperiment("exp-2")))
		require.NoError(t, store.Activity().Append(ctx, &activity.Event{ID: "ev-1", Payload: activity.Created{}}))

		// Nested transactions join the outer one.
		return store.RunInTx(ctx, func(ctx context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Experiments().Get(ctx, "exp-1")
	require.NoError(t, err)
	require.Equal(t, "Experiment exp-1", got.Title)

	_, err = store.Experiments().Get(ctx, "exp-2")
	require.ErrorIs(t, err, repository.ErrNotFound)

	events, err := store.Activity().List(ctx)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestStore_RunInTxCommits(t *testing.T) {
	ctx := context.Background()
	store := New()

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		return store.Experiments().Insert(ctx, testExperiment("exp-1"))
	})
	require.NoError(t, err)

	_, err = store.Experiments().Get(ctx, "exp-1")
	require.NoError(t, err)
}

func TestStore_ConcurrentTransactionsSerialize(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Experiments().Insert(ctx, testExperiment("exp-1")))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.RunInTx(ctx, func(ctx context.Context) error {
				exp, err := store.Experiments().Get(ctx, "exp-1")
				if err != nil {
					return err
				}
				exp.Tags = append(exp.Tags, "t")
				return store.Experiments().Update(ctx, exp)
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Experiments().Get(ctx, "exp-1")
	require.NoError(t, err)
	require.Len(t, got.Tags, workers+1)
}
