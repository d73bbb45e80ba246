package tasks

import (
	"sort"
	"time"
)

// BucketGroup is one time-bucketed slice of tasks for display.
type BucketGroup struct {
	Bucket TimeBucket
	Tasks  []*Task
}

// GroupByTimeBucket partitions tasks into display buckets relative to now.
// Buckets appear in chronological order, newest first, and empty buckets
// are omitted.
func GroupByTimeBucket(list []*Task, now time.Time) []BucketGroup {
	byBucket := make(map[TimeBucket][]*Task)
	for _, task := range list {
		bucket := BucketFor(task.CreatedAt, now)
		byBucket[bucket] = append(byBucket[bucket], task)
	}

	var out []BucketGroup
	for _, bucket := range []TimeBucket{BucketToday, BucketYesterday, BucketThisWeek, BucketEarlier} {
		grouped, ok := byBucket[bucket]
		if !ok {
			continue
		}
		sort.SliceStable(grouped, func(i, j int) bool {
			return grouped[i].CreatedAt.After(grouped[j].CreatedAt)
		})
		out = append(out, BucketGroup{Bucket: bucket, Tasks: grouped})
	}
	return out
}

// Lineage is a remix chain rooted at an original task, ordered root first.
type Lineage struct {
	Root  *Task
	Chain []*Task
}

// LineageChains groups tasks into remix lineages. Each original task roots
// one lineage; remixes attach to the lineage of their ultimate ancestor.
// A remix whose parent is missing from the list roots its own lineage.
func LineageChains(list []*Task) []Lineage {
	byID := make(map[int64]*Task, len(list))
	for _, task := range list {
		byID[task.ID] = task
	}

	rootOf := func(task *Task) *Task {
		current := task
		seen := make(map[int64]bool)
		for current.IsRemix() && !seen[current.ID] {
			seen[current.ID] = true
			parent, ok := byID[current.RemixOfID]
			if !ok {
				break
			}
			current = parent
		}
		return current
	}

	chains := make(map[int64][]*Task)
	roots := make(map[int64]*Task)
	var rootOrder []int64
	for _, task := range list {
		root := rootOf(task)
		if _, ok := roots[root.ID]; !ok {
			roots[root.ID] = root
			rootOrder = append(rootOrder, root.ID)
		}
		chains[root.ID] = append(chains[root.ID], task)
	}

	out := make([]Lineage, 0, len(rootOrder))
	for _, rootID := range rootOrder {
		chain := chains[rootID]
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].CreatedAt.Before(chain[j].CreatedAt)
		})
		out = append(out, Lineage{Root: roots[rootID], Chain: chain})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Root.CreatedAt.After(out[j].Root.CreatedAt)
	})
	return out
}
