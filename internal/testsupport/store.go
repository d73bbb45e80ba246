package testsupport

import (
	"context"
	"testing"

	"adforge/internal/config"
	"adforge/internal/tasks"
)

// MustOpenStore opens a tasks.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *tasks.Store {
	t.Helper()

	store, err := tasks.Open(cfg)
	if err != nil {
		t.Fatalf("tasks.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTask creates a queued task for tests using the provided store.
func NewTask(t testing.TB, store *tasks.Store, jobID, prompt string) *tasks.Task {
	t.Helper()

	task, err := store.Create(context.Background(), tasks.NewTaskParams{
		JobID:           jobID,
		Prompt:          prompt,
		AspectRatio:     "9:16",
		Platform:        "tiktok",
		DurationSeconds: 15,
		Provider:        "runway",
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return task
}
