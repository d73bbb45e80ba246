package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adforge/internal/config"
)

const userAgent = "adforge/0.1.0"

// Service defines the notification surface exposed to client components.
type Service interface {
	NotifyGenerationCompleted(ctx context.Context, prompt, resultURL string) error
	NotifyGenerationFailed(ctx context.Context, prompt, reason string) error
	NotifyConnectCompleted(ctx context.Context, platform, accountName string) error
	NotifyLowBalance(ctx context.Context, credits, threshold int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:   topic,
		client:     client,
		generation: cfg.Notifications.Generation,
		connect:    cfg.Notifications.Connect,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	generation bool
	connect    bool
	errors     bool
}

func (n *ntfyService) NotifyGenerationCompleted(ctx context.Context, prompt, resultURL string) error {
	if !n.generation {
		return nil
	}
	prompt = truncatePrompt(prompt)
	message := fmt.Sprintf("Ad ready: %s", prompt)
	if resultURL = strings.TrimSpace(resultURL); resultURL != "" {
		message = fmt.Sprintf("%s\n%s", message, resultURL)
	}
	data := payload{
		title:    "Adforge - Generation Complete",
		message:  message,
		tags:     []string{"adforge", "generation", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, prompt, reason string) error {
	if !n.generation {
		return nil
	}
	prompt = truncatePrompt(prompt)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "generation failed"
	}
	data := payload{
		title:    "Adforge - Generation Failed",
		message:  fmt.Sprintf("Generation failed: %s\n%s", prompt, reason),
		tags:     []string{"adforge", "generation", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyConnectCompleted(ctx context.Context, platform, accountName string) error {
	if !n.connect {
		return nil
	}
	platform = strings.TrimSpace(platform)
	accountName = strings.TrimSpace(accountName)
	message := fmt.Sprintf("Connected %s account", platform)
	if accountName != "" {
		message = fmt.Sprintf("%s: %s", message, accountName)
	}
	data := payload{
		title:   "Adforge - Account Connected",
		message: message,
		tags:    []string{"adforge", "connect", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLowBalance(ctx context.Context, credits, threshold int) error {
	data := payload{
		title:    "Adforge - Low Balance",
		message:  fmt.Sprintf("Credit balance is low: %d remaining (threshold %d)", credits, threshold),
		tags:     []string{"adforge", "credits", "low"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Adforge - Error",
		message:  builder.String(),
		tags:     []string{"adforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Adforge - Test",
		message:  "Notification system test",
		tags:     []string{"adforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func truncatePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	const limit = 80
	if len(prompt) <= limit {
		return prompt
	}
	return prompt[:limit-3] + "..."
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyGenerationCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyGenerationFailed(context.Context, string, string) error    { return nil }
func (noopService) NotifyConnectCompleted(context.Context, string, string) error    { return nil }
func (noopService) NotifyLowBalance(context.Context, int, int) error                { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
