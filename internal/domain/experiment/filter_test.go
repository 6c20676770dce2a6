package experiment_test

import (
	"context"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/stretchr/testify/require"
)

func TestList_SeededActiveInInsertionOrder(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SoftDelete(ctx, "user-3", "exp-8")
	require.NoError(t, err)

	list, err := f.svc.List(ctx, experiment.Filters{Statuses: []experiment.Status{experiment.StatusActive}}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exp-1", "exp-2", "exp-3", "exp-7"}, ids(list))
	for _, s := range list {
		require.NotNil(t, s.Owner)
	}
}

func TestList_SearchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	for _, q := range []string{"gemini", "GEMINI", "GeMiNi"} {
		list, err := f.svc.List(ctx, experiment.Filters{Search: q}, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"exp-5"}, ids(list), "query %q", q)
	}

	// Tag-only match.
	list, err := f.svc.List(ctx, experiment.Filters{Search: "tokens"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exp-4"}, ids(list))
}

func TestList_FiltersCombine(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	list, err := f.svc.List(ctx, experiment.Filters{
		Statuses:   []experiment.Status{experiment.StatusActive, experiment.StatusIdea},
		Categories: []experiment.Category{experiment.CategoryAIAutomation},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exp-1", "exp-5"}, ids(list))

	list, err = f.svc.List(ctx, experiment.Filters{OwnerID: "user-3", CollaboratorID: "user-5"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exp-2", "exp-8"}, ids(list))

	list, err = f.svc.List(ctx, experiment.Filters{Search: "workshops", Statuses: []experiment.Status{experiment.StatusFindings}}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exp-6"}, ids(list))
}

func TestFilters_CategoryExcludesUncategorized(t *testing.T) {
	exp := experiment.Experiment{ID: "x", Status: experiment.StatusIdea}
	f := experiment.Filters{Categories: []experiment.Category{experiment.CategoryOther}}
	require.False(t, f.Matches(&exp))

	other := experiment.CategoryOther
	exp.Category = &other
	require.True(t, f.Matches(&exp))
}

func TestList_Sorting(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	list, err := f.svc.List(ctx, experiment.Filters{}, &experiment.Sort{By: experiment.SortCreatedAt, Order: experiment.OrderAsc})
	require.NoError(t, err)
	require.Equal(t, []string{"exp-6", "exp-4", "exp-2", "exp-7", "exp-1", "exp-8", "exp-3", "exp-5"}, ids(list))

	// Empty order means descending.
	list, err = f.svc.List(ctx, experiment.Filters{}, &experiment.Sort{By: experiment.SortUpdatedAt})
	require.NoError(t, err)
	require.Equal(t, []string{"exp-5", "exp-3", "exp-7", "exp-8", "exp-1", "exp-2", "exp-4", "exp-6"}, ids(list))

	list, err = f.svc.List(ctx, experiment.Filters{}, &experiment.Sort{By: experiment.SortStatus, Order: experiment.OrderAsc})
	require.NoError(t, err)
	require.Equal(t, []string{"exp-5", "exp-1", "exp-2", "exp-3", "exp-7", "exp-8", "exp-6", "exp-4"}, ids(list))

	list, err = f.svc.List(ctx, experiment.Filters{}, &experiment.Sort{By: experiment.SortMostForked})
	require.NoError(t, err)
	require.Equal(t, "exp-3", list[0].ID)
	require.Equal(t, []string{"exp-1", "exp-2", "exp-4", "exp-5", "exp-6", "exp-7", "exp-8"}, ids(list[1:]))

	_, err = f.svc.List(ctx, experiment.Filters{}, &experiment.Sort{By: "popularity"})
	require.ErrorIs(t, err, experiment.ErrInvalidInput)
	_, err = f.svc.List(ctx, experiment.Filters{}, &experiment.Sort{By: experiment.SortTitle, Order: "sideways"})
	require.ErrorIs(t, err, experiment.ErrInvalidInput)
}

func TestSortExperiments_TitleCaseInsensitiveStable(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	exps := []experiment.Experiment{
		{ID: "1", Title: "beta", CreatedAt: at},
		{ID: "2", Title: "Alpha", CreatedAt: at},
		{ID: "3", Title: "alpha", CreatedAt: at},
		{ID: "4", Title: "Gamma", CreatedAt: at},
	}
	experiment.SortExperiments(exps, &experiment.Sort{By: experiment.SortTitle, Order: experiment.OrderAsc}, nil)
	got := []string{exps[0].ID, exps[1].ID, exps[2].ID, exps[3].ID}
	require.Equal(t, []string{"2", "3", "1", "4"}, got)

	experiment.SortExperiments(exps, &experiment.Sort{By: experiment.SortCreatedAt}, nil)
	got = []string{exps[0].ID, exps[1].ID, exps[2].ID, exps[3].ID}
	require.Equal(t, []string{"2", "3", "1", "4"}, got, "equal keys keep their order")
}

func TestForkCounts_DirectChildrenOnly(t *testing.T) {
	parent := "a"
	child := "b"
	counts := experiment.ForkCounts([]experiment.Experiment{
		{ID: "a"},
		{ID: "b", ForkedFromID: &parent},
		{ID: "c", ForkedFromID: &child},
		{ID: "d", ForkedFromID: &parent},
	})
	require.Equal(t, 2, counts["a"])
	require.Equal(t, 1, counts["b"])
	require.Zero(t, counts["c"])
}
