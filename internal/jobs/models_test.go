package jobs_test

import (
	"testing"

	"adforge/internal/jobs"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  jobs.Status
		ok    bool
	}{
		{"queued", jobs.StatusQueued, true},
		{" Processing ", jobs.StatusProcessing, true},
		{"COMPLETED", jobs.StatusCompleted, true},
		{"cancelled", jobs.StatusCancelled, true},
		{"", "", false},
		{"exploded", "", false},
	}
	for _, tc := range cases {
		got, ok := jobs.ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[jobs.Status]bool{
		jobs.StatusQueued:     false,
		jobs.StatusProcessing: false,
		jobs.StatusCompleted:  true,
		jobs.StatusFailed:     true,
		jobs.StatusCancelled:  true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestHasArtifact(t *testing.T) {
	snap := &jobs.Snapshot{Status: jobs.StatusCompleted}
	if snap.HasArtifact() {
		t.Fatal("snapshot without result should not have artifact")
	}
	snap.Result = &jobs.Result{URL: "  "}
	if snap.HasArtifact() {
		t.Fatal("blank URL should not count as artifact")
	}
	snap.Result.URL = "https://cdn.example.com/ad.mp4"
	if !snap.HasArtifact() {
		t.Fatal("expected artifact")
	}
}

func TestFailureMessageFallbacks(t *testing.T) {
	snap := &jobs.Snapshot{Status: jobs.StatusFailed}
	if msg := snap.FailureMessage(); msg != "generation failed" {
		t.Fatalf("fallback = %q", msg)
	}
	snap.Status = jobs.StatusCancelled
	if msg := snap.FailureMessage(); msg != "generation was cancelled" {
		t.Fatalf("cancelled fallback = %q", msg)
	}
	snap.ErrorMessage = "provider timeout"
	if msg := snap.FailureMessage(); msg != "provider timeout" {
		t.Fatalf("explicit message = %q", msg)
	}
}
