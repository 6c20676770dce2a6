package activity_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/memory"
	"github.com/stretchr/testify/require"
)

func TestBucketFor_Boundaries(t *testing.T) {
	now := testNow
	cases := []struct {
		at   time.Time
		want activity.Bucket
	}{
		{now.Add(time.Minute), activity.BucketRecent},
		{now, activity.BucketRecent},
		{now.Add(-59 * time.Minute), activity.BucketRecent},
		{now.Add(-time.Hour), activity.BucketToday},
		{now.Add(-24 * time.Hour), activity.BucketThisWeek},
		{now.Add(-24*time.Hour + time.Nanosecond), activity.BucketToday},
		{now.Add(-7 * 24 * time.Hour), activity.BucketOlder},
		{now.Add(-7*24*time.Hour + time.Nanosecond), activity.BucketThisWeek},
		{now.Add(-400 * 24 * time.Hour), activity.BucketOlder},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, activity.BucketFor(tc.at, now), "at %s", now.Sub(tc.at))
	}
}

func TestGrouped_PartitionsEveryEvent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		now := testNow.Add(time.Duration(rng.Int63n(int64(30 * 24 * time.Hour))))
		store := memory.New()
		svc := activity.NewService(store.Activity(), nil, nil,
			activity.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		total := 1 + rng.Intn(40)
		for i := 0; i < total; i++ {
			offset := time.Duration(rng.Int63n(int64(20*24*time.Hour))) - 2*time.Hour
			require.NoError(t, svc.Append(ctx, &activity.Event{
				ID:           fmt.Sprintf("ev-%d", i),
				ExperimentID: "exp-1",
				CreatedAt:    now.Add(-offset),
				Payload:      activity.Created{},
			}))
		}

		groups, err := svc.Grouped(ctx)
		require.NoError(t, err)

		seen := make(map[string]int)
		for _, bucket := range [][]activity.Entry{groups.Recent, groups.Today, groups.ThisWeek, groups.Older} {
			for i, e := range bucket {
				seen[e.Event.ID]++
				if i > 0 {
					require.False(t, e.Event.CreatedAt.After(bucket[i-1].Event.CreatedAt), "bucket not newest first")
				}
			}
		}
		require.Len(t, seen, total)
		for id, n := range seen {
			require.Equal(t, 1, n, "event %s in %d buckets", id, n)
		}
	}
}
