package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_AppendList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)
	now := time.Now()

	events := []activity.Event{
		{ID: "ev-1", Type: activity.TypeExperimentCreated, ActorID: "user-1", ExperimentID: "exp-1", CreatedAt: now, Payload: activity.Created{}},
		{ID: "ev-2", Type: activity.TypeStatusChanged, ActorID: "user-1", ExperimentID: "exp-1", CreatedAt: now, Payload: activity.StatusChanged{Old: experiment.StatusIdea, New: experiment.StatusActive}},
		{ID: "ev-3", Type: activity.TypeProgressAdded, ActorID: "user-2", ExperimentID: "exp-1", CreatedAt: now, Payload: activity.ProgressAdded{Update: experiment.ProgressUpdate{ID: "p1", ExperimentID: "exp-1", Content: "note", CreatedByID: "user-2", CreatedAt: now.UTC()}}},
		{ID: "ev-4", Type: activity.TypeExperimentForked, ActorID: "user-2", ExperimentID: "exp-1", CreatedAt: now, Payload: activity.Forked{ForkID: "exp-2"}},
		{ID: "ev-5", Type: activity.TypeCollaboratorAdded, ActorID: "user-1", ExperimentID: "exp-1", CreatedAt: now, Payload: activity.CollaboratorAdded{CollaboratorID: "user-3"}},
	}
	for i := range events {
		require.NoError(t, repo.Append(ctx, &events[i]))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	require.Equal(t, "ev-5", list[0].ID)
	require.Equal(t, "ev-1", list[4].ID)

	require.Equal(t, activity.CollaboratorAdded{CollaboratorID: "user-3"}, list[0].Payload)
	require.Equal(t, activity.Forked{ForkID: "exp-2"}, list[1].Payload)
	progress, ok := list[2].Payload.(activity.ProgressAdded)
	require.True(t, ok)
	require.Equal(t, "note", progress.Update.Content)
	require.Equal(t, activity.StatusChanged{Old: experiment.StatusIdea, New: experiment.StatusActive}, list[3].Payload)
	require.Equal(t, activity.Created{}, list[4].Payload)
}

func TestActivityRepository_UnknownTypeFailsDecode(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO activity_events (id, type, actor_id, experiment_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		"ev-x", "experiment_archived", "user-1", "exp-1", "{}")
	require.NoError(t, err)

	_, err = NewActivityRepository(db).List(ctx)
	require.ErrorIs(t, err, activity.ErrUnknownEventType)
}
