package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"adforge/internal/logging"
)

// Listener serves the local OAuth callback endpoint during a connect flow.
// It hands every reconciled outcome to the Outcomes channel so the owning
// command can wait for the browser round-trip to finish.
type Listener struct {
	reconciler *Reconciler
	logger     *slog.Logger
	server     *http.Server
	listener   net.Listener
	outcomes   chan Outcome
}

// NewListener builds a listener bound to addr.
func NewListener(addr string, reconciler *Reconciler, logger *slog.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind oauth listener %s: %w", addr, err)
	}

	l := &Listener{
		reconciler: reconciler,
		logger:     logging.NewComponentLogger(logger, "oauth-listener"),
		listener:   ln,
		outcomes:   make(chan Outcome, 1),
	}

	router := chi.NewRouter()
	router.Get("/callback/{platform}", l.handleCallback)
	router.Get("/callback", l.handleCallback)

	l.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return l, nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (l *Listener) Addr() string {
	return l.listener.Addr().String()
}

// RedirectURI returns the callback URL to register with the backend.
func (l *Listener) RedirectURI(platform string) string {
	return fmt.Sprintf("http://%s/callback/%s", l.Addr(), platform)
}

// Outcomes delivers each reconciled callback.
func (l *Listener) Outcomes() <-chan Outcome {
	return l.outcomes
}

// Serve blocks until the listener is shut down.
func (l *Listener) Serve() error {
	err := l.server.Serve(l.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server.
func (l *Listener) Shutdown(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	outcome := l.reconciler.Reconcile(r.Context(), platform, r.URL.Query())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if outcome.OK() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusBadRequest)
	}
	writeResultPage(w, outcome)

	select {
	case l.outcomes <- outcome:
	default:
		l.logger.Warn("dropping outcome, no waiter", logging.String("kind", string(outcome.Kind)))
	}
}

func writeResultPage(w http.ResponseWriter, outcome Outcome) {
	var headline, detail string
	if outcome.OK() {
		headline = "Account connected"
		if outcome.Account != nil && outcome.Account.AccountName != "" {
			detail = fmt.Sprintf("%s is now linked. You can return to the terminal.", outcome.Account.AccountName)
		} else {
			detail = "You can return to the terminal."
		}
	} else {
		headline = "Connection failed"
		detail = outcome.Message
	}
	delaySeconds := int(outcome.RedirectDelay / time.Second)
	fmt.Fprintf(w, `<!doctype html>
<html><head><meta charset="utf-8"><title>adforge</title>
<meta http-equiv="refresh" content="%d;url=about:blank"></head>
<body><h1>%s</h1><p>%s</p>
<p>This window closes in %d seconds.</p></body></html>`,
		delaySeconds, html.EscapeString(headline), html.EscapeString(detail), delaySeconds)
}
