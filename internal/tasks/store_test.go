package tasks_test

import (
	"context"
	"testing"
	"time"

	"adforge/internal/jobs"
	"adforge/internal/tasks"
	"adforge/internal/testsupport"
)

func TestCreateAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created, err := store.Create(ctx, tasks.NewTaskParams{
		JobID:           "job-1",
		Prompt:          "a cinematic splash of citrus soda",
		EnhancedPrompt:  "a cinematic splash of citrus soda, studio lighting",
		AspectRatio:     "9:16",
		Platform:        "tiktok",
		DurationSeconds: 15,
		Provider:        "runway",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.Status != jobs.StatusQueued {
		t.Fatalf("Status = %q, want queued", created.Status)
	}
	if !created.IsOpen() {
		t.Fatal("freshly created task should be open")
	}

	byJob, err := store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if byJob == nil || byJob.ID != created.ID {
		t.Fatalf("GetByJobID = %+v, want id %d", byJob, created.ID)
	}
	if byJob.EnhancedPrompt != created.EnhancedPrompt {
		t.Fatalf("EnhancedPrompt = %q", byJob.EnhancedPrompt)
	}
}

func TestCreateRequiresJobID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Create(context.Background(), tasks.NewTaskParams{Prompt: "p"}); err == nil {
		t.Fatal("expected error for missing job id")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task, err := store.GetByJobID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if task != nil {
		t.Fatalf("expected nil, got %+v", task)
	}

	task, err = store.GetByID(ctx, 99)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if task != nil {
		t.Fatalf("expected nil, got %+v", task)
	}
}

func TestApplySnapshotUpdatesOpenTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTask(t, store, "job-1", "prompt")

	err := store.ApplySnapshot(ctx, &jobs.Snapshot{
		JobID:           "job-1",
		Status:          jobs.StatusProcessing,
		ProgressPercent: 40,
		CurrentStep:     "rendering",
	})
	if err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}

	task, err := store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if task.Status != jobs.StatusProcessing || task.ProgressPercent != 40 || task.CurrentStep != "rendering" {
		t.Fatalf("task = %+v", task)
	}

	err = store.ApplySnapshot(ctx, &jobs.Snapshot{
		JobID:  "job-1",
		Status: jobs.StatusCompleted,
		Result: &jobs.Result{URL: "https://cdn.example/v.mp4"},
	})
	if err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}

	task, err = store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if task.Status != jobs.StatusCompleted || task.ResultURL != "https://cdn.example/v.mp4" {
		t.Fatalf("task = %+v", task)
	}
}

func TestApplySnapshotDoesNotOverwriteTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTask(t, store, "job-1", "prompt")
	if err := store.ApplySnapshot(ctx, &jobs.Snapshot{
		JobID:  "job-1",
		Status: jobs.StatusCompleted,
		Result: &jobs.Result{URL: "https://cdn.example/v.mp4"},
	}); err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}

	// A stale non-terminal snapshot must not regress the row.
	if err := store.ApplySnapshot(ctx, &jobs.Snapshot{
		JobID:           "job-1",
		Status:          jobs.StatusProcessing,
		ProgressPercent: 90,
	}); err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}

	task, err := store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if task.Status != jobs.StatusCompleted {
		t.Fatalf("Status = %q, want completed", task.Status)
	}
}

func TestMarkFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTask(t, store, "job-1", "prompt")
	if err := store.MarkFailed(ctx, "job-1", "job not found, may have expired"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	task, err := store.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if task.Status != jobs.StatusFailed {
		t.Fatalf("Status = %q, want failed", task.Status)
	}
	if task.ErrorMessage != "job not found, may have expired" {
		t.Fatalf("ErrorMessage = %q", task.ErrorMessage)
	}
}

func TestListOpenAndSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTask(t, store, "job-1", "one")
	testsupport.NewTask(t, store, "job-2", "two")
	testsupport.NewTask(t, store, "job-3", "three")

	if err := store.ApplySnapshot(ctx, &jobs.Snapshot{
		JobID:  "job-2",
		Status: jobs.StatusCompleted,
		Result: &jobs.Result{URL: "https://cdn.example/v.mp4"},
	}); err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "job-3", "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	open, err := store.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen failed: %v", err)
	}
	if len(open) != 1 || open[0].JobID != "job-1" {
		t.Fatalf("open = %+v", open)
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 3 || summary.Queued != 1 || summary.Completed != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTask(t, store, "job-1", "one")
	testsupport.NewTask(t, store, "job-2", "two")
	if err := store.MarkFailed(ctx, "job-2", "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	removed, err := store.Clear(ctx, false)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	removed, err = store.Clear(ctx, true)
	if err != nil {
		t.Fatalf("Clear all failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewTask(t, store, "job-1", "one")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := tasks.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	task, err := reopened.GetByJobID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if task == nil {
		t.Fatal("expected task to survive reopen")
	}
	if task.CreatedAt.IsZero() || task.CreatedAt.After(time.Now().Add(time.Minute)) {
		t.Fatalf("CreatedAt = %v", task.CreatedAt)
	}
}
