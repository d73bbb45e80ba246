package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"adforge/internal/config"
	"adforge/internal/logging"
	"adforge/internal/services"
)

const userAgent = "adforge/0.1.0"

// HTTPDoer describes the HTTP client used by the backend client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the adforge backend REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// Option customizes the backend client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "api-client")
		}
	}
}

// NewClient constructs a backend client from configuration.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	timeout := defaultTimeout(cfg)
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	if cfg != nil {
		client.baseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
		client.apiKey = strings.TrimSpace(cfg.API.Key)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func defaultTimeout(cfg *config.Config) time.Duration {
	if cfg != nil && cfg.API.TimeoutSeconds > 0 {
		return time.Duration(cfg.API.TimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

// envelope is the backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one request and decodes the enveloped payload into out.
// Classification of failures follows the package doc.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "api", method, "base URL not configured", nil)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logger := logging.WithContext(services.WithRequestID(ctx, requestID), c.logger)
	logger.Debug("backend request", logging.String("method", method), logging.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "api", method+" "+path, "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "api", method+" "+path, "read response", err)
	}

	if err := classifyStatus(resp.StatusCode, method+" "+path, payload); err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return services.Wrap(services.ErrTransient, "api", method+" "+path, "decode response", err)
	}
	if !env.Success {
		message := strings.TrimSpace(env.Message)
		if message == "" {
			message = "backend reported failure"
		}
		return services.Wrap(services.ErrProvider, "api", method+" "+path, message, nil)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return services.Wrap(services.ErrTransient, "api", method+" "+path, "decode payload", err)
		}
	}
	return nil
}

func classifyStatus(status int, operation string, payload []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}
	message := serverMessage(payload)
	switch {
	case status == http.StatusPaymentRequired:
		if message == "" {
			message = "insufficient balance for this request"
		}
		return services.Wrap(services.ErrQuota, "api", operation, message, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "api", operation, message, nil)
	case status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "api", operation, fmt.Sprintf("server returned %d", status), nil)
	default:
		if message == "" {
			message = fmt.Sprintf("request rejected with %d", status)
		}
		return services.Wrap(services.ErrProvider, "api", operation, message, nil)
	}
}

func serverMessage(payload []byte) string {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	return strings.TrimSpace(env.Message)
}
