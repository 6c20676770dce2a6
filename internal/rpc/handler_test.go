package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/memory"
	"github.com/nilelabs/labs/internal/rpc"
	"github.com/nilelabs/labs/internal/seed"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newHandler(t *testing.T) *rpc.Handler {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, seed.Load(ctx, seed.Target{
		Users:       store.Users(),
		Experiments: store.Experiments(),
		Activity:    store.Activity(),
		Tx:          store,
	}, testNow))

	now := func() time.Time { return testNow }
	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	users := user.NewService(store.Users(), nil)
	activitySvc := activity.NewService(store.Activity(), users, nil,
		activity.WithClock(now), activity.WithIDGenerator(newID))
	experiments := experiment.NewService(store.Experiments(), users, activitySvc, store, nil,
		experiment.WithClock(now), experiment.WithIDGenerator(newID))
	return rpc.NewHandler(experiments, activitySvc, users, nil)
}

func call(t *testing.T, h *rpc.Handler, method, params string) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if params != "" {
		raw = json.RawMessage(params)
	}
	return h.Handle(context.Background(), "user-1", method, raw)
}

func requireRPCError(t *testing.T, err error, code int, kind string) {
	t.Helper()
	var rpcErr *rpc.Error
	require.True(t, errors.As(err, &rpcErr), "expected *rpc.Error, got %v", err)
	require.Equal(t, code, rpcErr.RPCCode())
	require.Equal(t, kind, rpcErr.ErrorKind())
}

func TestHandler_UnknownMethod(t *testing.T) {
	h := newHandler(t)
	_, err := call(t, h, "drop_tables", "")
	requireRPCError(t, err, rpc.CodeMethodNotFound, rpc.KindMethodNotFound)
}

func TestHandler_GetExperiment(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodGetExperiment, `{"id":"exp-5"}`)
	require.NoError(t, err)
	details, ok := result.(*experiment.Details)
	require.True(t, ok)
	require.Equal(t, "Storyboard Generator with Gemini", details.Title)
	require.NotNil(t, details.Owner)
	require.Equal(t, "Tiernan", details.Owner.Name)
	require.NotNil(t, details.ForkedFrom)
	require.Equal(t, "exp-3", details.ForkedFrom.ID)
}

func TestHandler_GetExperimentMissingReturnsNull(t *testing.T) {
	h := newHandler(t)
	result, err := call(t, h, rpc.MethodGetExperiment, `{"id":"exp-404"}`)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestHandler_ListExperiments(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodListExperiments,
		`{"status":["In Production","Findings"],"sort_by":"created_at","sort_order":"asc"}`)
	require.NoError(t, err)
	list := result.([]experiment.Summary)
	require.Len(t, list, 2)
	require.Equal(t, "exp-6", list[0].ID)
	require.Equal(t, "exp-4", list[1].ID)

	_, err = call(t, h, rpc.MethodListExperiments, `{"sort_by":"popularity"}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)

	_, err = call(t, h, rpc.MethodListExperiments, `{"sort_order":"asc"}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)

	_, err = call(t, h, rpc.MethodListExperiments, `{"colour":"blue"}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)
}

func TestHandler_CreateAndUpdate(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodCreateExperiment,
		`{"title":"  Voice notes  ","description":"Record standups","tags":["audio"],"links":[{"title":"Doc","url":"https://example.com"}]}`)
	require.NoError(t, err)
	created := result.(*experiment.Experiment)
	require.Equal(t, "Voice notes", created.Title)
	require.Equal(t, experiment.StatusIdea, created.Status)
	require.Equal(t, "user-1", created.OwnerID)
	require.Len(t, created.Links, 1)

	params := fmt.Sprintf(`{"id":%q,"status":"Active"}`, created.ID)
	result, err = call(t, h, rpc.MethodUpdateExperiment, params)
	require.NoError(t, err)
	require.Equal(t, experiment.StatusActive, result.(*experiment.Experiment).Status)

	result, err = call(t, h, rpc.MethodListActivity,
		fmt.Sprintf(`{"experiment_id":%q}`, created.ID))
	require.NoError(t, err)
	entries := result.([]activity.Entry)
	require.Len(t, entries, 2)
	types := []activity.EventType{entries[0].Event.Type, entries[1].Event.Type}
	require.ElementsMatch(t, []activity.EventType{activity.TypeExperimentCreated, activity.TypeStatusChanged}, types)
}

func TestHandler_CreateValidation(t *testing.T) {
	h := newHandler(t)
	_, err := call(t, h, rpc.MethodCreateExperiment, `{"title":"   ","description":"x"}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)

	_, err = call(t, h, rpc.MethodCreateExperiment, `{"title":42}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)
}

func TestHandler_MutationNotFound(t *testing.T) {
	h := newHandler(t)

	cases := []struct {
		method string
		params string
	}{
		{rpc.MethodDeleteExperiment, `{"id":"nope"}`},
		{rpc.MethodRestoreExperiment, `{"id":"nope"}`},
		{rpc.MethodUpdateExperiment, `{"id":"nope","title":"x"}`},
		{rpc.MethodForkExperiment, `{"parent_id":"nope"}`},
		{rpc.MethodAddProgressUpdate, `{"experiment_id":"nope","content":"x"}`},
		{rpc.MethodAddCollaborator, `{"experiment_id":"exp-1","collaborator_id":"user-99"}`},
		{rpc.MethodRemoveCollaborator, `{"experiment_id":"nope","collaborator_id":"user-2"}`},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			_, err := call(t, h, tc.method, tc.params)
			requireRPCError(t, err, rpc.CodeNotFound, rpc.KindNotFound)
		})
	}
}

func TestHandler_ForkAndCount(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodForkExperiment, `{"parent_id":"exp-1"}`)
	require.NoError(t, err)
	fork := result.(*experiment.Experiment)
	require.Equal(t, "AI Brief Generator (Fork)", fork.Title)
	require.NotNil(t, fork.ForkedFromID)
	require.Equal(t, "exp-1", *fork.ForkedFromID)

	result, err = call(t, h, rpc.MethodGetForkCount, `{"experiment_id":"exp-1"}`)
	require.NoError(t, err)
	require.Equal(t, rpc.ForkCountResponse{ExperimentID: "exp-1", Count: 1}, result)
}

func TestHandler_DeleteAndRestore(t *testing.T) {
	h := newHandler(t)

	_, err := call(t, h, rpc.MethodDeleteExperiment, `{"id":"exp-2"}`)
	require.NoError(t, err)

	result, err := call(t, h, rpc.MethodListExperiments, "")
	require.NoError(t, err)
	require.Len(t, result.([]experiment.Summary), 7)

	_, err = call(t, h, rpc.MethodRestoreExperiment, `{"id":"exp-2"}`)
	require.NoError(t, err)

	result, err = call(t, h, rpc.MethodListExperiments, "null")
	require.NoError(t, err)
	require.Len(t, result.([]experiment.Summary), 8)
}

func TestHandler_Collaborators(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodAddCollaborator, `{"experiment_id":"exp-3","collaborator_id":"user-6"}`)
	require.NoError(t, err)
	require.Equal(t, []string{"user-6"}, result.(*experiment.Experiment).CollaboratorIDs)

	result, err = call(t, h, rpc.MethodGetUserExperiments, `{"user_id":"user-6"}`)
	require.NoError(t, err)
	list := result.([]experiment.Summary)
	got := make([]string, 0, len(list))
	for _, s := range list {
		got = append(got, s.ID)
	}
	require.Equal(t, []string{"exp-3", "exp-6", "exp-7"}, got)

	_, err = call(t, h, rpc.MethodRemoveCollaborator, `{"experiment_id":"exp-3","collaborator_id":"user-6"}`)
	require.NoError(t, err)

	_, err = call(t, h, rpc.MethodGetUserExperiments, `{}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)
}

func TestHandler_Progress(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodAddProgressUpdate, `{"experiment_id":"exp-2","content":"Ran a pilot"}`)
	require.NoError(t, err)
	update := result.(*experiment.ProgressUpdate)
	require.Equal(t, "exp-2", update.ExperimentID)
	require.Equal(t, "user-1", update.CreatedByID)

	_, err = call(t, h, rpc.MethodAddProgressUpdate, `{"experiment_id":"exp-2","content":"  "}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)
}

func TestHandler_Activity(t *testing.T) {
	h := newHandler(t)

	result, err := call(t, h, rpc.MethodListActivity, `{"types":["status_changed"],"limit":1}`)
	require.NoError(t, err)
	entries := result.([]activity.Entry)
	require.Len(t, entries, 1)
	require.Equal(t, "event-4", entries[0].Event.ID)
	require.NotNil(t, entries[0].Actor)
	require.Equal(t, "user-2", entries[0].Actor.ID)

	_, err = call(t, h, rpc.MethodListActivity, `{"types":["experiment_deleted"]}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)

	_, err = call(t, h, rpc.MethodListActivity, `{"since":"yesterday"}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)

	since := testNow.Add(-24 * time.Hour).Format(time.RFC3339)
	result, err = call(t, h, rpc.MethodCountActivity, fmt.Sprintf(`{"since":%q}`, since))
	require.NoError(t, err)
	require.Equal(t, rpc.CountResponse{Count: 6}, result)

	_, err = call(t, h, rpc.MethodCountActivity, `{}`)
	requireRPCError(t, err, rpc.CodeInvalidParams, rpc.KindInvalidInput)

	result, err = call(t, h, rpc.MethodGetActivityPulse, "")
	require.NoError(t, err)
	pulse := result.(activity.Pulse)
	require.Equal(t, 6, pulse.Count)
	require.Len(t, pulse.Recent, activity.PulseSize)

	result, err = call(t, h, rpc.MethodGetGroupedActivity, "{}")
	require.NoError(t, err)
	groups := result.(activity.Groups)
	total := len(groups.Recent) + len(groups.Today) + len(groups.ThisWeek) + len(groups.Older)
	require.Equal(t, 8, total)
	require.Len(t, groups.ThisWeek, 2)
}

func TestHandler_ListUsers(t *testing.T) {
	h := newHandler(t)
	result, err := call(t, h, rpc.MethodListUsers, "")
	require.NoError(t, err)
	require.Len(t, result.([]user.User), 6)
}

func TestMapError(t *testing.T) {
	require.Nil(t, rpc.MapError(nil))
	require.Nil(t, rpc.MapError(errors.New("disk full")))

	wrapped := fmt.Errorf("loading: %w", experiment.ErrExperimentNotFound)
	mapped := rpc.MapError(wrapped)
	require.Equal(t, rpc.CodeNotFound, mapped.Code)

	mapped = rpc.MapError(fmt.Errorf("x: %w", activity.ErrUnknownEventType))
	require.Equal(t, rpc.KindInvalidInput, mapped.Kind)
}
