package tasks

import (
	"time"

	"adforge/internal/jobs"
)

// Task is one locally tracked generation job.
type Task struct {
	ID              int64
	JobID           string
	Prompt          string
	EnhancedPrompt  string
	AspectRatio     string
	Platform        string
	DurationSeconds int
	Provider        string
	Status          jobs.Status
	ProgressPercent float64
	CurrentStep     string
	ResultURL       string
	ErrorMessage    string
	// RemixOfID links a remix to the task it was derived from; zero for
	// originals.
	RemixOfID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the mirrored job may still change.
func (t *Task) IsOpen() bool {
	return !t.Status.IsTerminal()
}

// IsRemix reports whether the task derives from another task.
func (t *Task) IsRemix() bool {
	return t.RemixOfID != 0
}

// TimeBucket partitions tasks by age for display.
type TimeBucket int

const (
	BucketToday TimeBucket = iota
	BucketYesterday
	BucketThisWeek
	BucketEarlier
)

// Label returns the display name of the bucket.
func (b TimeBucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketThisWeek:
		return "This Week"
	default:
		return "Earlier"
	}
}

// BucketFor assigns a creation time to a bucket relative to now.
func BucketFor(createdAt, now time.Time) TimeBucket {
	local := createdAt.Local()
	nowLocal := now.Local()

	startOfToday := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, nowLocal.Location())
	switch {
	case !local.Before(startOfToday):
		return BucketToday
	case !local.Before(startOfToday.AddDate(0, 0, -1)):
		return BucketYesterday
	case !local.Before(startOfToday.AddDate(0, 0, -6)):
		return BucketThisWeek
	default:
		return BucketEarlier
	}
}

// HealthSummary aggregates task counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Completed  int
	Failed     int
	Cancelled  int
}
