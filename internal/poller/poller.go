package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"adforge/internal/jobs"
	"adforge/internal/logging"
	"adforge/internal/services"
)

// NotFoundLimit is the number of consecutive unknown-job responses after
// which a session gives up.
const NotFoundLimit = 3

// notFoundMessage is surfaced when a session exhausts its tolerance.
const notFoundMessage = "job not found, may have expired"

// missingArtifactMessage is surfaced when a completed payload lacks a result.
const missingArtifactMessage = "generation completed without a result artifact"

// StatusClient fetches one job snapshot.
type StatusClient interface {
	JobStatus(ctx context.Context, jobID string) (*jobs.Snapshot, error)
}

// EventKind classifies what a session observed.
type EventKind int

const (
	// EventProgress reports a non-terminal snapshot.
	EventProgress EventKind = iota
	// EventCompleted reports terminal success with an artifact present.
	EventCompleted
	// EventFailed reports terminal failure, including not-found give-up and
	// completed-without-artifact.
	EventFailed
)

// Event is delivered to the session's sink for every state change.
type Event struct {
	JobID    string
	Kind     EventKind
	Snapshot *jobs.Snapshot
	Message  string
}

// Terminal reports whether the event ends the session.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventFailed
}

// Poller creates and tracks poll sessions, enforcing one live session per
// job identifier.
type Poller struct {
	client   StatusClient
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// New constructs a poller. Interval must be positive.
func New(client StatusClient, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		client:   client,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "poller"),
		sessions: make(map[string]*Session),
	}
}

// Watch starts polling jobID, delivering events to sink from the session
// goroutine. Any prior session for the same job is stopped first.
func (p *Poller) Watch(ctx context.Context, jobID string, sink func(Event)) *Session {
	session := &Session{
		jobID:   jobID,
		poller:  p,
		sink:    sink,
		stopped: make(chan struct{}),
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	session.cancel = cancel

	p.mu.Lock()
	if prior, ok := p.sessions[jobID]; ok {
		prior.Stop()
	}
	p.sessions[jobID] = session
	p.mu.Unlock()

	go session.run(sessionCtx)
	return session
}

// Active reports whether a live session exists for jobID.
func (p *Poller) Active(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sessions[jobID]
	return ok
}

// StopAll tears down every live session.
func (p *Poller) StopAll() {
	p.mu.Lock()
	sessions := make([]*Session, 0, len(p.sessions))
	for _, session := range p.sessions {
		sessions = append(sessions, session)
	}
	p.mu.Unlock()
	for _, session := range sessions {
		session.Stop()
	}
}

func (p *Poller) release(session *Session) {
	p.mu.Lock()
	if current, ok := p.sessions[session.jobID]; ok && current == session {
		delete(p.sessions, session.jobID)
	}
	p.mu.Unlock()
}

// Session is one active poll loop for one job.
type Session struct {
	jobID  string
	poller *Poller
	sink   func(Event)
	cancel context.CancelFunc

	stopOnce sync.Once
	stopped  chan struct{}

	// loop-local state, touched only by run
	notFoundCount int
	terminal      bool
}

// JobID returns the watched job identifier.
func (s *Session) JobID() string {
	return s.jobID
}

// Stop cancels the session. Safe to call repeatedly and from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
	})
}

// Done is closed once the poll loop has fully exited.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

func (s *Session) run(ctx context.Context) {
	defer close(s.stopped)
	defer s.poller.release(s)
	defer s.Stop()

	logger := logging.WithContext(services.WithJobID(ctx, s.jobID), s.poller.logger)

	// First poll fires immediately; the ticker paces the rest.
	if s.poll(ctx, logger) {
		return
	}

	ticker := time.NewTicker(s.poller.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.poll(ctx, logger) {
				return
			}
		}
	}
}

// poll performs one status fetch and returns true when the session is done.
func (s *Session) poll(ctx context.Context, logger *slog.Logger) bool {
	snapshot, err := s.poller.client.JobStatus(ctx, s.jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if errors.Is(err, services.ErrNotFound) {
			s.notFoundCount++
			if s.notFoundCount >= NotFoundLimit {
				logger.Warn("job unknown to backend, giving up",
					logging.Int("consecutive_not_found", s.notFoundCount))
				s.emit(Event{JobID: s.jobID, Kind: EventFailed, Message: notFoundMessage})
				return true
			}
			logger.Debug("job not found, tolerating",
				logging.Int("consecutive_not_found", s.notFoundCount))
			return false
		}
		// Isolated network blips are logged and ridden out; they neither
		// stop the session nor count toward the not-found limit.
		logger.Warn("status poll failed, will retry", logging.Error(err))
		return false
	}

	s.notFoundCount = 0
	return s.observe(snapshot)
}

// observe classifies a snapshot. Classification, not arrival order, decides
// terminality, so a stale in-flight response cannot resurrect a finished job.
func (s *Session) observe(snapshot *jobs.Snapshot) bool {
	if s.terminal {
		return true
	}

	switch {
	case snapshot.Status == jobs.StatusCompleted && !snapshot.HasArtifact():
		s.terminal = true
		s.emit(Event{JobID: s.jobID, Kind: EventFailed, Snapshot: snapshot, Message: missingArtifactMessage})
	case snapshot.Status == jobs.StatusCompleted:
		s.terminal = true
		s.emit(Event{JobID: s.jobID, Kind: EventCompleted, Snapshot: snapshot})
	case snapshot.Status.IsTerminal():
		s.terminal = true
		s.emit(Event{JobID: s.jobID, Kind: EventFailed, Snapshot: snapshot, Message: snapshot.FailureMessage()})
	default:
		s.emit(Event{JobID: s.jobID, Kind: EventProgress, Snapshot: snapshot})
	}
	return s.terminal
}

func (s *Session) emit(event Event) {
	if s.sink != nil {
		s.sink(event)
	}
}
