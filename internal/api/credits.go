package api

import (
	"context"
	"encoding/json"
	"net/http"

	"adforge/internal/credits"
	"adforge/internal/services"
)

// Credits fetches the current balance. The payload is probed across the
// known balance field names; drift is logged, not hidden.
func (c *Client) Credits(ctx context.Context) (*credits.Balance, error) {
	var data map[string]json.RawMessage
	ctx = services.WithFlow(ctx, "credits")
	if err := c.do(ctx, http.MethodGet, "/api/v1/credits", nil, &data); err != nil {
		return nil, err
	}
	balance, err := credits.Probe(data, c.logger)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "credits", "probe", "", err)
	}
	return balance, nil
}
