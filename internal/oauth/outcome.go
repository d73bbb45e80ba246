package oauth

import (
	"time"

	"adforge/internal/api"
)

// OutcomeKind classifies a callback.
type OutcomeKind string

const (
	// OutcomeSuccess confirms the account link.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeProviderError is an error delivered by the provider in the
	// redirect itself; the backend is never contacted.
	OutcomeProviderError OutcomeKind = "provider-error"
	// OutcomeBackendError covers failed or rejected exchanges, including a
	// success=false body in an otherwise healthy response.
	OutcomeBackendError OutcomeKind = "backend-error"
	// OutcomeMissingParams marks a callback without code or state.
	OutcomeMissingParams OutcomeKind = "missing-parameters"
)

// Outcome is the reconciled result of one callback.
type Outcome struct {
	Kind     OutcomeKind
	Platform string
	Account  *api.ConnectedAccount
	Message  string
	// RedirectDelay is how long the result page lingers before navigating
	// away: shorter on success, longer on any failure.
	RedirectDelay time.Duration
}

// OK reports whether the connection was confirmed.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
