package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"adforge/internal/config"
	"adforge/internal/logging"
	"adforge/internal/services"
	"adforge/internal/tasks"
)

const (
	maxAttempts = 100
	defaultExt  = ".mp4"
	slugMaxLen  = 48
)

// Doer abstracts the HTTP client used for artifact fetches.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader fetches result artifacts into the configured downloads directory.
type Downloader struct {
	dir        string
	httpClient Doer
	logger     *slog.Logger
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(client Doer) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// New constructs a Downloader targeting the config's downloads directory.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		dir:        cfg.Paths.DownloadsDir,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logging.NewComponentLogger(logger, "download"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Save fetches the task's result artifact and writes it under the downloads
// directory. It returns the absolute path of the written file.
func (d *Downloader) Save(ctx context.Context, task *tasks.Task) (string, error) {
	if task == nil {
		return "", services.Wrap(services.ErrValidation, "download", "save", "task required", nil)
	}
	if strings.TrimSpace(task.ResultURL) == "" {
		return "", services.Wrap(services.ErrValidation, "download", "save", "task has no result artifact", nil)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "save", "create downloads directory", err)
	}

	target, err := d.nextArtifactPath(task)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "save", "resolve target path", err)
	}

	if err := d.fetch(ctx, task.ResultURL, target); err != nil {
		return "", err
	}

	d.logger.InfoContext(ctx, "artifact saved",
		slog.String(logging.FieldJobID, task.JobID),
		slog.String("path", target),
	)
	return target, nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "download", "fetch", "build request", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "fetch", "request artifact", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrProvider
		if resp.StatusCode >= http.StatusInternalServerError {
			marker = services.ErrTransient
		}
		return services.Wrap(marker, "download", "fetch",
			fmt.Sprintf("artifact fetch returned status %d", resp.StatusCode), nil)
	}

	partial := target + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "fetch", "create artifact file", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(partial)
		return services.Wrap(services.ErrTransient, "download", "fetch", "write artifact", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return services.Wrap(services.ErrConfiguration, "download", "fetch", "close artifact file", err)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return services.Wrap(services.ErrConfiguration, "download", "fetch", "finalize artifact file", err)
	}
	return nil
}

// nextArtifactPath picks the first free slot for the task's artifact name.
func (d *Downloader) nextArtifactPath(task *tasks.Task) (string, error) {
	prefix := artifactPrefix(task)
	ext := artifactExt(task.ResultURL)

	first := filepath.Join(d.dir, prefix+ext)
	if _, err := os.Stat(first); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return first, nil
		}
		return "", err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		name := fmt.Sprintf("%s-%d%s", prefix, attempt, ext)
		candidate := filepath.Join(d.dir, name)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted artifact filename slots in %s", d.dir)
}

func artifactPrefix(task *tasks.Task) string {
	slug := sanitizeSlug(task.Prompt, slugMaxLen)
	if slug == "" {
		slug = "ad"
	}
	if task.JobID != "" {
		if idSlug := sanitizeSlug(task.JobID, 8); idSlug != "" {
			slug = slug + "-" + idSlug
		}
	}
	return slug
}

func artifactExt(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return defaultExt
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	switch ext {
	case ".mp4", ".mov", ".webm", ".gif":
		return ext
	default:
		return defaultExt
	}
}

// sanitizeSlug converts input to a lowercase alphanumeric slug with hyphens.
// Spaces, underscores, periods, and hyphens become hyphens. Other characters
// are dropped. maxLen of 0 means unlimited length.
func sanitizeSlug(input string, maxLen int) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var slug strings.Builder
	lastHyphen := false
	for _, r := range input {
		if maxLen > 0 && slug.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastHyphen {
				slug.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(slug.String(), "-")
}
