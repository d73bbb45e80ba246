package jobs

import "strings"

// Status represents the lifecycle of a backend generation job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further transition can occur.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Result holds the artifact reference of a completed job.
type Result struct {
	URL             string
	DurationSeconds int
	AspectRatio     string
	Provider        string
}

// Snapshot is one observed state of a backend job. The client never writes
// job state; it only reads snapshots via polling.
type Snapshot struct {
	JobID           string
	Status          Status
	ProgressPercent float64
	CurrentStep     string
	Result          *Result
	ErrorMessage    string
}

// HasArtifact reports whether the snapshot carries a usable result reference.
func (s *Snapshot) HasArtifact() bool {
	return s != nil && s.Result != nil && strings.TrimSpace(s.Result.URL) != ""
}

// FailureMessage returns the server-supplied error message or a generic
// fallback when the payload omitted one.
func (s *Snapshot) FailureMessage() string {
	if s == nil {
		return "generation failed"
	}
	if msg := strings.TrimSpace(s.ErrorMessage); msg != "" {
		return msg
	}
	if s.Status == StatusCancelled {
		return "generation was cancelled"
	}
	return "generation failed"
}
