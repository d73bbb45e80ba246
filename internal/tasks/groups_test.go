package tasks_test

import (
	"testing"
	"time"

	"adforge/internal/tasks"
)

func taskAt(id int64, created time.Time, remixOf int64) *tasks.Task {
	return &tasks.Task{ID: id, JobID: "job", CreatedAt: created, RemixOfID: remixOf}
}

func TestGroupByTimeBucket(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.Local)
	list := []*tasks.Task{
		taskAt(1, now.Add(-time.Hour), 0),
		taskAt(2, now.Add(-26*time.Hour), 0),
		taskAt(3, now.Add(-4*24*time.Hour), 0),
		taskAt(4, now.Add(-30*24*time.Hour), 0),
		taskAt(5, now.Add(-2*time.Hour), 0),
	}

	groups := tasks.GroupByTimeBucket(list, now)
	if len(groups) != 4 {
		t.Fatalf("groups = %d, want 4", len(groups))
	}
	if groups[0].Bucket != tasks.BucketToday || len(groups[0].Tasks) != 2 {
		t.Fatalf("today group = %+v", groups[0])
	}
	// Newest first inside a bucket.
	if groups[0].Tasks[0].ID != 1 || groups[0].Tasks[1].ID != 5 {
		t.Fatalf("today order = %d, %d", groups[0].Tasks[0].ID, groups[0].Tasks[1].ID)
	}
	if groups[1].Bucket != tasks.BucketYesterday || groups[1].Tasks[0].ID != 2 {
		t.Fatalf("yesterday group = %+v", groups[1])
	}
	if groups[2].Bucket != tasks.BucketThisWeek || groups[2].Tasks[0].ID != 3 {
		t.Fatalf("this week group = %+v", groups[2])
	}
	if groups[3].Bucket != tasks.BucketEarlier || groups[3].Tasks[0].ID != 4 {
		t.Fatalf("earlier group = %+v", groups[3])
	}
}

func TestGroupByTimeBucketOmitsEmpty(t *testing.T) {
	now := time.Now()
	groups := tasks.GroupByTimeBucket([]*tasks.Task{taskAt(1, now, 0)}, now)
	if len(groups) != 1 || groups[0].Bucket != tasks.BucketToday {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestLineageChains(t *testing.T) {
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	original := taskAt(1, base, 0)
	remix := taskAt(2, base.Add(time.Hour), 1)
	remixOfRemix := taskAt(3, base.Add(2*time.Hour), 2)
	standalone := taskAt(4, base.Add(3*time.Hour), 0)

	chains := tasks.LineageChains([]*tasks.Task{remixOfRemix, standalone, original, remix})
	if len(chains) != 2 {
		t.Fatalf("chains = %d, want 2", len(chains))
	}

	// Newest root first.
	if chains[0].Root.ID != 4 || len(chains[0].Chain) != 1 {
		t.Fatalf("first chain = %+v", chains[0])
	}
	if chains[1].Root.ID != 1 || len(chains[1].Chain) != 3 {
		t.Fatalf("second chain = %+v", chains[1])
	}
	// Oldest first inside a chain.
	for i, want := range []int64{1, 2, 3} {
		if chains[1].Chain[i].ID != want {
			t.Fatalf("chain order[%d] = %d, want %d", i, chains[1].Chain[i].ID, want)
		}
	}
}

func TestLineageChainsOrphanRemixRootsItself(t *testing.T) {
	base := time.Now()
	orphan := taskAt(7, base, 99)
	chains := tasks.LineageChains([]*tasks.Task{orphan})
	if len(chains) != 1 || chains[0].Root.ID != 7 {
		t.Fatalf("chains = %+v", chains)
	}
}
