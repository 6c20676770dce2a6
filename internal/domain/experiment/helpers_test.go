package experiment_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/memory"
	"github.com/nilelabs/labs/internal/seed"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	svc      *experiment.Service
	activity *activity.Service
	clock    *time.Time
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newFixture(t *testing.T, seeded bool) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	if seeded {
		require.NoError(t, seed.Load(ctx, seed.Target{
			Users:       store.Users(),
			Experiments: store.Experiments(),
			Activity:    store.Activity(),
			Tx:          store,
		}, testNow))
	}

	clock := testNow
	now := func() time.Time { return clock }
	users := user.NewService(store.Users(), nil)
	activitySvc := activity.NewService(store.Activity(), users, nil,
		activity.WithClock(now), activity.WithIDGenerator(sequence("ev")))
	svc := experiment.NewService(store.Experiments(), users, activitySvc, store, nil,
		experiment.WithClock(now), experiment.WithIDGenerator(sequence("new")))

	return &fixture{store: store, svc: svc, activity: activitySvc, clock: &clock}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) events(t *testing.T, experimentID string) []activity.Event {
	t.Helper()
	entries, err := f.activity.List(context.Background(), activity.ListOptions{ExperimentID: experimentID})
	require.NoError(t, err)
	out := make([]activity.Event, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Event)
	}
	return out
}

func ids(list []experiment.Summary) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}
