package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"adforge/internal/api"
	"adforge/internal/generate"
	"adforge/internal/jobs"
	"adforge/internal/poller"
	"adforge/internal/reconcile"
	"adforge/internal/services"
)

type fakeSubmitter struct {
	submission *api.Submission
	err        error
	calls      atomic.Int32
}

func (f *fakeSubmitter) SubmitGeneration(ctx context.Context, req generate.Request) (*api.Submission, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.submission, nil
}

// fakeWatcher records the sink so tests can feed events synchronously.
type fakeWatcher struct {
	mu     sync.Mutex
	poller *poller.Poller
	sink   func(poller.Event)
}

// idleClient blocks until the session is torn down, so tests drive all
// events through deliver instead of the real poll loop.
type idleClient struct{}

func (idleClient) JobStatus(ctx context.Context, jobID string) (*jobs.Snapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{poller: poller.New(idleClient{}, time.Hour, nil)}
}

func (f *fakeWatcher) Watch(ctx context.Context, jobID string, sink func(poller.Event)) *poller.Session {
	f.mu.Lock()
	f.sink = sink
	f.mu.Unlock()
	return f.poller.Watch(ctx, jobID, sink)
}

func (f *fakeWatcher) deliver(ev poller.Event) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink != nil {
		sink(ev)
	}
}

func validRequest() generate.Request {
	return generate.Request{
		Prompt:          "A cheerful unboxing of a ceramic pour-over coffee set",
		AspectRatio:     generate.AspectSquare,
		Platform:        generate.PlatformMeta,
		DurationSeconds: 15,
		Provider:        generate.ProviderVeo,
	}
}

func newMachine(submitter *fakeSubmitter, watcher *fakeWatcher, hooks reconcile.Hooks) *reconcile.Machine {
	return reconcile.New(submitter, watcher, hooks, nil)
}

func TestInvalidSubmitStaysIdleWithoutNetwork(t *testing.T) {
	submitter := &fakeSubmitter{}
	m := newMachine(submitter, newFakeWatcher(), reconcile.Hooks{})

	req := validRequest()
	req.Prompt = "nope"
	err := m.Submit(context.Background(), req)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if submitter.calls.Load() != 0 {
		t.Fatal("invalid submit must not call the backend")
	}
	view := m.View()
	if view.State != reconcile.StateIdle || view.ErrorMessage == "" {
		t.Fatalf("view = %+v", view)
	}
}

func TestQuotaFailureReturnsToIdle(t *testing.T) {
	submitter := &fakeSubmitter{err: services.Wrap(services.ErrQuota, "api", "submit", "not enough credits", nil)}
	watcher := newFakeWatcher()
	m := newMachine(submitter, watcher, reconcile.Hooks{})

	err := m.Submit(context.Background(), validRequest())
	if !errors.Is(err, services.ErrQuota) {
		t.Fatalf("expected quota error, got %v", err)
	}
	view := m.View()
	if view.State != reconcile.StateIdle {
		t.Fatalf("state = %s, want idle", view.State)
	}
	if watcher.poller.Active("job-1") {
		t.Fatal("no poll session may start on quota failure")
	}
}

func TestTransportFailureLandsInFailed(t *testing.T) {
	submitter := &fakeSubmitter{err: services.Wrap(services.ErrTransient, "api", "submit", "boom", nil)}
	m := newMachine(submitter, newFakeWatcher(), reconcile.Hooks{})

	if err := m.Submit(context.Background(), validRequest()); err == nil {
		t.Fatal("expected submit error")
	}
	if view := m.View(); view.State != reconcile.StateFailed {
		t.Fatalf("state = %s, want failed", view.State)
	}
}

func TestSuccessfulFlowToCompleted(t *testing.T) {
	submitter := &fakeSubmitter{submission: &api.Submission{JobID: "job-7", EnhancedPrompt: "richer prompt", CreditsRemaining: 40}}
	watcher := newFakeWatcher()
	var completed atomic.Int32
	m := newMachine(submitter, watcher, reconcile.Hooks{
		OnCompleted: func(view reconcile.View) { completed.Add(1) },
	})

	if err := m.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	view := m.View()
	if view.State != reconcile.StatePolling || view.JobID != "job-7" || view.EnhancedPrompt != "richer prompt" {
		t.Fatalf("post-submit view = %+v", view)
	}

	watcher.deliver(poller.Event{JobID: "job-7", Kind: poller.EventProgress, Snapshot: &jobs.Snapshot{JobID: "job-7", Status: jobs.StatusProcessing, ProgressPercent: 45, CurrentStep: "rendering"}})
	view = m.View()
	if view.ProgressPercent != 45 || view.CurrentStep != "rendering" {
		t.Fatalf("progress view = %+v", view)
	}

	watcher.deliver(poller.Event{JobID: "job-7", Kind: poller.EventCompleted, Snapshot: &jobs.Snapshot{
		JobID:  "job-7",
		Status: jobs.StatusCompleted,
		Result: &jobs.Result{URL: "https://cdn.example.com/final.mp4"},
	}})
	view = m.View()
	if view.State != reconcile.StateCompleted || view.Result == nil || view.Result.URL != "https://cdn.example.com/final.mp4" {
		t.Fatalf("completed view = %+v", view)
	}
	if completed.Load() != 1 {
		t.Fatalf("OnCompleted fired %d times", completed.Load())
	}
}

func TestFailureRefreshesBalance(t *testing.T) {
	submitter := &fakeSubmitter{submission: &api.Submission{JobID: "job-8"}}
	watcher := newFakeWatcher()
	var refreshed, failed atomic.Int32
	m := newMachine(submitter, watcher, reconcile.Hooks{
		RefreshBalance: func(ctx context.Context) { refreshed.Add(1) },
		OnFailed:       func(view reconcile.View) { failed.Add(1) },
	})

	if err := m.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	watcher.deliver(poller.Event{JobID: "job-8", Kind: poller.EventFailed, Message: "provider timeout"})

	view := m.View()
	if view.State != reconcile.StateFailed || view.ErrorMessage != "provider timeout" {
		t.Fatalf("failed view = %+v", view)
	}
	if refreshed.Load() != 1 || failed.Load() != 1 {
		t.Fatalf("refresh=%d failed=%d", refreshed.Load(), failed.Load())
	}
}

func TestStaleEventsIgnoredAfterTerminal(t *testing.T) {
	submitter := &fakeSubmitter{submission: &api.Submission{JobID: "job-9"}}
	watcher := newFakeWatcher()
	m := newMachine(submitter, watcher, reconcile.Hooks{})

	if err := m.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	watcher.deliver(poller.Event{JobID: "job-9", Kind: poller.EventCompleted, Snapshot: &jobs.Snapshot{
		JobID: "job-9", Status: jobs.StatusCompleted, Result: &jobs.Result{URL: "https://cdn.example.com/x.mp4"},
	}})
	// A stale processing snapshot must not resurrect the polling state.
	watcher.deliver(poller.Event{JobID: "job-9", Kind: poller.EventProgress, Snapshot: &jobs.Snapshot{JobID: "job-9", Status: jobs.StatusProcessing, ProgressPercent: 70}})

	if view := m.View(); view.State != reconcile.StateCompleted {
		t.Fatalf("state = %s, want completed", view.State)
	}
}

func TestResetClearsEverything(t *testing.T) {
	submitter := &fakeSubmitter{submission: &api.Submission{JobID: "job-10", EnhancedPrompt: "e", CreditsRemaining: 5}}
	watcher := newFakeWatcher()
	m := newMachine(submitter, watcher, reconcile.Hooks{})

	if err := m.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	watcher.deliver(poller.Event{JobID: "job-10", Kind: poller.EventFailed, Message: "nope"})

	m.Reset()
	view := m.View()
	if view != (reconcile.View{State: reconcile.StateIdle}) {
		t.Fatalf("reset view = %+v", view)
	}

	// After reset the machine accepts a fresh submission.
	if err := m.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
}

func TestSubmitRejectedWhileBusy(t *testing.T) {
	submitter := &fakeSubmitter{submission: &api.Submission{JobID: "job-11"}}
	m := newMachine(submitter, newFakeWatcher(), reconcile.Hooks{})

	if err := m.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := m.Submit(context.Background(), validRequest()); err == nil {
		t.Fatal("expected rejection while polling")
	}
}
