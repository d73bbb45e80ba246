package oauth

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"adforge/internal/api"
	"adforge/internal/config"
	"adforge/internal/logging"
)

// Exchanger swaps an authorization code for a confirmed account link.
type Exchanger interface {
	ExchangeOAuth(ctx context.Context, platform, code, state string) (*api.ConnectedAccount, error)
}

// Reconciler turns raw callback parameters into Outcomes.
type Reconciler struct {
	exchanger    Exchanger
	states       *StateStore
	successDelay time.Duration
	errorDelay   time.Duration
	logger       *slog.Logger
}

// NewReconciler builds a reconciler using the configured redirect delays.
func NewReconciler(cfg *config.Config, exchanger Exchanger, states *StateStore, logger *slog.Logger) *Reconciler {
	successDelay := 2 * time.Second
	errorDelay := 3 * time.Second
	if cfg != nil {
		if cfg.OAuth.SuccessRedirectSec > 0 {
			successDelay = time.Duration(cfg.OAuth.SuccessRedirectSec) * time.Second
		}
		if cfg.OAuth.ErrorRedirectSec > 0 {
			errorDelay = time.Duration(cfg.OAuth.ErrorRedirectSec) * time.Second
		}
	}
	return &Reconciler{
		exchanger:    exchanger,
		states:       states,
		successDelay: successDelay,
		errorDelay:   errorDelay,
		logger:       logging.NewComponentLogger(logger, "oauth"),
	}
}

// Reconcile classifies one callback. A provider error in the query
// short-circuits before any backend call; code and state must both be
// present; the exchange decides the rest.
func (r *Reconciler) Reconcile(ctx context.Context, platform string, query url.Values) Outcome {
	platform = strings.ToLower(strings.TrimSpace(platform))
	logger := r.logger.With(logging.String(logging.FieldPlatform, platform))

	if providerErr := strings.TrimSpace(query.Get("error")); providerErr != "" {
		message := strings.TrimSpace(query.Get("error_description"))
		if message == "" {
			message = providerErr
		}
		logger.Warn("provider rejected authorization", logging.String("provider_error", providerErr))
		return Outcome{Kind: OutcomeProviderError, Platform: platform, Message: message, RedirectDelay: r.errorDelay}
	}

	code := strings.TrimSpace(query.Get("code"))
	state := strings.TrimSpace(query.Get("state"))
	if code == "" || state == "" {
		logger.Warn("callback missing code or state")
		return Outcome{
			Kind:          OutcomeMissingParams,
			Platform:      platform,
			Message:       "callback did not include code and state",
			RedirectDelay: r.errorDelay,
		}
	}

	if r.states != nil {
		issuedFor, ok := r.states.Redeem(state)
		if !ok {
			logger.Warn("state token not recognized")
			return Outcome{
				Kind:          OutcomeBackendError,
				Platform:      platform,
				Message:       "state token not recognized or expired",
				RedirectDelay: r.errorDelay,
			}
		}
		if issuedFor != "" && platform == "" {
			platform = issuedFor
		}
	}

	account, err := r.exchanger.ExchangeOAuth(ctx, platform, code, state)
	if err != nil {
		logger.Warn("code exchange failed", logging.Error(err))
		return Outcome{Kind: OutcomeBackendError, Platform: platform, Message: err.Error(), RedirectDelay: r.errorDelay}
	}

	logger.Info("account connected",
		logging.String("account_id", account.AccountID),
		logging.String("account_name", account.AccountName))
	return Outcome{
		Kind:          OutcomeSuccess,
		Platform:      platform,
		Account:       account,
		RedirectDelay: r.successDelay,
	}
}
