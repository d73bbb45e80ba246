package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"adforge/internal/config"
	"adforge/internal/jobs"
	"adforge/internal/logging"
	"adforge/internal/notifications"
	"adforge/internal/services"
	"adforge/internal/tasks"
)

// notFoundLimit mirrors the per-job poller tolerance: a task is failed
// after this many consecutive not-found responses.
const notFoundLimit = 3

// StatusClient fetches job snapshots; the API client satisfies it.
type StatusClient interface {
	JobStatus(ctx context.Context, jobID string) (*jobs.Snapshot, error)
}

// Watcher periodically reconciles open tasks and enforces single-instance
// execution per data directory.
type Watcher struct {
	cfg      *config.Config
	store    *tasks.Store
	client   StatusClient
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration

	lockPath string
	lock     *flock.Flock

	notFound map[string]int

	running atomic.Bool
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New constructs a watcher with initialized dependencies.
func New(cfg *config.Config, store *tasks.Store, client StatusClient, notifier notifications.Service, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || store == nil || client == nil {
		return nil, errors.New("watcher requires config, store, and client")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	interval := time.Duration(cfg.Poll.TaskRefreshInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "watch.lock")
	return &Watcher{
		cfg:      cfg,
		store:    store,
		client:   client,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		interval: interval,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		notFound: make(map[string]int),
	}, nil
}

// Start acquires the watch lock and launches the refresh loop.
func (w *Watcher) Start(ctx context.Context) error {
	if w.running.Load() {
		return errors.New("watcher already running")
	}

	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another adforge watcher is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopped = make(chan struct{})
	w.running.Store(true)

	go w.run(runCtx)

	w.logger.InfoContext(ctx, "watcher started",
		slog.String("lock", w.lockPath),
		slog.Duration("interval", w.interval),
	)
	return nil
}

// Stop halts the refresh loop and releases the watch lock.
func (w *Watcher) Stop() {
	if !w.running.Load() {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	<-w.stopped
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release watch lock", logging.Error(err))
	}
	w.running.Store(false)
	w.logger.Info("watcher stopped")
}

// Running reports whether the refresh loop is active.
func (w *Watcher) Running() bool {
	return w.running.Load()
}

// LockPath returns the path of the single-instance lock file.
func (w *Watcher) LockPath() string {
	return w.lockPath
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.stopped)

	w.Refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}

// Refresh reconciles every open task against the backend once.
func (w *Watcher) Refresh(ctx context.Context) {
	open, err := w.store.ListOpen(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "list open tasks", logging.Error(err))
		return
	}
	for _, task := range open {
		if ctx.Err() != nil {
			return
		}
		w.refreshTask(ctx, task)
	}
}

func (w *Watcher) refreshTask(ctx context.Context, task *tasks.Task) {
	snapshot, err := w.client.JobStatus(ctx, task.JobID)
	if err != nil {
		w.handleStatusError(ctx, task, err)
		return
	}
	delete(w.notFound, task.JobID)

	if snapshot.Status == jobs.StatusCompleted && !snapshot.HasArtifact() {
		w.failTask(ctx, task, "generation completed without a result artifact")
		return
	}

	if err := w.store.ApplySnapshot(ctx, snapshot); err != nil {
		w.logger.ErrorContext(ctx, "apply snapshot",
			slog.String(logging.FieldJobID, task.JobID),
			logging.Error(err),
		)
		return
	}

	if !snapshot.Status.IsTerminal() {
		return
	}
	switch snapshot.Status {
	case jobs.StatusCompleted:
		w.logger.InfoContext(ctx, "task completed",
			slog.String(logging.FieldJobID, task.JobID),
		)
		if err := w.notifier.NotifyGenerationCompleted(ctx, task.Prompt, snapshot.Result.URL); err != nil {
			w.logger.Warn("generation notification failed", logging.Error(err))
		}
	default:
		w.logger.InfoContext(ctx, "task failed",
			slog.String(logging.FieldJobID, task.JobID),
			slog.String("reason", snapshot.FailureMessage()),
		)
		if err := w.notifier.NotifyGenerationFailed(ctx, task.Prompt, snapshot.FailureMessage()); err != nil {
			w.logger.Warn("generation notification failed", logging.Error(err))
		}
	}
}

func (w *Watcher) handleStatusError(ctx context.Context, task *tasks.Task, err error) {
	if errors.Is(err, services.ErrNotFound) {
		w.notFound[task.JobID]++
		if w.notFound[task.JobID] < notFoundLimit {
			w.logger.WarnContext(ctx, "job not found, will retry",
				slog.String(logging.FieldJobID, task.JobID),
				slog.Int("consecutive", w.notFound[task.JobID]),
			)
			return
		}
		delete(w.notFound, task.JobID)
		w.failTask(ctx, task, "job not found, may have expired")
		return
	}

	// Transient failures never fail the task; the next cycle retries.
	w.logger.WarnContext(ctx, "status refresh failed",
		slog.String(logging.FieldJobID, task.JobID),
		logging.Error(err),
	)
}

func (w *Watcher) failTask(ctx context.Context, task *tasks.Task, reason string) {
	if err := w.store.MarkFailed(ctx, task.JobID, reason); err != nil {
		w.logger.ErrorContext(ctx, "mark task failed",
			slog.String(logging.FieldJobID, task.JobID),
			logging.Error(err),
		)
		return
	}
	w.logger.InfoContext(ctx, "task failed",
		slog.String(logging.FieldJobID, task.JobID),
		slog.String("reason", reason),
	)
	if err := w.notifier.NotifyGenerationFailed(ctx, task.Prompt, reason); err != nil {
		w.logger.Warn("generation notification failed", logging.Error(err))
	}
}
