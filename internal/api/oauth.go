package api

import (
	"context"
	"net/http"
	"strings"

	"adforge/internal/services"
)

// ConnectedAccount describes the ad account linked by a completed OAuth
// exchange.
type ConnectedAccount struct {
	Platform    string `json:"platform"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

type oauthExchangePayload struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// ExchangeOAuth swaps a provider authorization code for a confirmed account
// link. A success=false body in a 200 response fails exactly like a
// transport error would.
func (c *Client) ExchangeOAuth(ctx context.Context, platform, code, state string) (*ConnectedAccount, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return nil, services.Wrap(services.ErrValidation, "oauth", "exchange", "platform required", nil)
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return nil, services.Wrap(services.ErrValidation, "oauth", "exchange", "code and state required", nil)
	}

	var account ConnectedAccount
	ctx = services.WithFlow(ctx, "oauth")
	err := c.do(ctx, http.MethodPost, "/api/v1/oauth/"+platform+"/callback", oauthExchangePayload{Code: code, State: state}, &account)
	if err != nil {
		return nil, err
	}
	if account.Platform == "" {
		account.Platform = platform
	}
	return &account, nil
}

// StartOAuth asks the backend for the provider authorization URL bound to a
// fresh state token.
func (c *Client) StartOAuth(ctx context.Context, platform, state, redirectURI string) (string, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return "", services.Wrap(services.ErrValidation, "oauth", "start", "platform required", nil)
	}

	payload := struct {
		State       string `json:"state"`
		RedirectURI string `json:"redirect_uri"`
	}{State: state, RedirectURI: redirectURI}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	ctx = services.WithFlow(ctx, "oauth")
	if err := c.do(ctx, http.MethodPost, "/api/v1/oauth/"+platform+"/start", payload, &data); err != nil {
		return "", err
	}
	if strings.TrimSpace(data.AuthorizationURL) == "" {
		return "", services.Wrap(services.ErrTransient, "oauth", "start", "backend returned no authorization URL", nil)
	}
	return data.AuthorizationURL, nil
}
