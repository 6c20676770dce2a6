package activity

import (
	"sort"
	"time"
)

const (
	recentWindow = time.Hour
	todayWindow  = 24 * time.Hour
	weekWindow   = 7 * 24 * time.Hour
)

// Bucket names one of the grouped view partitions.
type Bucket int

const (
	BucketRecent Bucket = iota
	BucketToday
	BucketThisWeek
	BucketOlder
)

// BucketFor places an event timestamp relative to now. Boundaries are
// exclusive on the older side: an event exactly one hour old is in Today.
// Timestamps after now count as Recent.
func BucketFor(at, now time.Time) Bucket {
	switch {
	case at.After(now.Add(-recentWindow)):
		return BucketRecent
	case at.After(now.Add(-todayWindow)):
		return BucketToday
	case at.After(now.Add(-weekWindow)):
		return BucketThisWeek
	default:
		return BucketOlder
	}
}

// sortNewestFirst orders events by timestamp descending, keeping log order
// for equal timestamps.
func sortNewestFirst(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
}
