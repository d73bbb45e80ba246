package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"adforge/internal/api"
	"adforge/internal/generate"
	"adforge/internal/jobs"
	"adforge/internal/logging"
	"adforge/internal/poller"
	"adforge/internal/services"
)

// State enumerates the local view states.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Submitter submits a generation request.
type Submitter interface {
	SubmitGeneration(ctx context.Context, req generate.Request) (*api.Submission, error)
}

// Watcher starts a poll session for a job.
type Watcher interface {
	Watch(ctx context.Context, jobID string, sink func(poller.Event)) *poller.Session
}

// Hooks carries the side effects owned by the machine's caller. All hooks
// are optional and run outside the machine's lock.
type Hooks struct {
	// RefreshBalance re-fetches the credit balance wholesale. Invoked after
	// terminal failures, since failed jobs are refunded server-side.
	RefreshBalance func(ctx context.Context)
	// OnCompleted observes a terminal success.
	OnCompleted func(view View)
	// OnFailed observes a terminal failure.
	OnFailed func(view View)
	// OnProgress observes a non-terminal progress update.
	OnProgress func(view View)
}

// View is a copyable snapshot of the machine's job-local state.
type View struct {
	State            State
	JobID            string
	EnhancedPrompt   string
	CreditsRemaining int
	ProgressPercent  float64
	CurrentStep      string
	Result           *jobs.Result
	ErrorMessage     string
}

// Machine drives one generation flow at a time.
type Machine struct {
	submitter Submitter
	watcher   Watcher
	hooks     Hooks
	logger    *slog.Logger

	mu      sync.Mutex
	view    View
	session *poller.Session
}

// New constructs an idle machine.
func New(submitter Submitter, watcher Watcher, hooks Hooks, logger *slog.Logger) *Machine {
	return &Machine{
		submitter: submitter,
		watcher:   watcher,
		hooks:     hooks,
		logger:    logging.NewComponentLogger(logger, "reconcile"),
		view:      View{State: StateIdle},
	}
}

// View returns a copy of the current state.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Submit validates and submits a generation request. Invalid parameters keep
// the machine idle and never reach the network; an insufficient balance
// returns it to idle without starting a poller; any other submission failure
// lands in failed so the user gets the usual retry affordance.
func (m *Machine) Submit(ctx context.Context, req generate.Request) error {
	m.mu.Lock()
	if m.view.State != StateIdle {
		state := m.view.State
		m.mu.Unlock()
		return fmt.Errorf("cannot submit while %s (reset first)", state)
	}

	if err := req.Validate(); err != nil {
		m.view.ErrorMessage = err.Error()
		m.mu.Unlock()
		return err
	}

	m.view = View{State: StateSubmitting}
	m.mu.Unlock()

	submission, err := m.submitter.SubmitGeneration(ctx, req)
	if err != nil {
		m.mu.Lock()
		switch {
		case errors.Is(err, services.ErrQuota):
			m.view = View{State: StateIdle, ErrorMessage: err.Error()}
		default:
			m.view = View{State: StateFailed, ErrorMessage: err.Error()}
		}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.view = View{
		State:            StatePolling,
		JobID:            submission.JobID,
		EnhancedPrompt:   submission.EnhancedPrompt,
		CreditsRemaining: submission.CreditsRemaining,
	}
	m.session = m.watcher.Watch(ctx, submission.JobID, m.handleEvent)
	m.mu.Unlock()
	return nil
}

// Reset returns the machine to idle from a terminal state, clearing every
// job-local field. Resetting while a session is live stops it first.
func (m *Machine) Reset() {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.view = View{State: StateIdle}
	m.mu.Unlock()
	if session != nil {
		session.Stop()
	}
}

// Teardown stops any live session without clearing the view, for owner
// shutdown paths.
func (m *Machine) Teardown() {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.mu.Unlock()
	if session != nil {
		session.Stop()
	}
}

func (m *Machine) handleEvent(ev poller.Event) {
	m.mu.Lock()
	if m.view.State != StatePolling || ev.JobID != m.view.JobID {
		m.mu.Unlock()
		return
	}

	var (
		fire func(View)
		view View
	)
	switch ev.Kind {
	case poller.EventProgress:
		m.view.ProgressPercent = ev.Snapshot.ProgressPercent
		m.view.CurrentStep = ev.Snapshot.CurrentStep
		fire = m.hooks.OnProgress
	case poller.EventCompleted:
		m.view.State = StateCompleted
		m.view.ProgressPercent = 100
		m.view.Result = ev.Snapshot.Result
		m.session = nil
		fire = m.hooks.OnCompleted
	case poller.EventFailed:
		m.view.State = StateFailed
		m.view.ErrorMessage = ev.Message
		m.session = nil
		fire = m.hooks.OnFailed
	}
	view = m.view
	m.mu.Unlock()

	if ev.Kind == poller.EventFailed && m.hooks.RefreshBalance != nil {
		m.hooks.RefreshBalance(context.Background())
	}
	if fire != nil {
		fire(view)
	}
}
