package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizePoll()
	c.normalizeOAuth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.DownloadsDir, err = expandPath(c.Paths.DownloadsDir); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if env := strings.TrimSpace(os.Getenv("ADFORGE_API_KEY")); env != "" && strings.TrimSpace(c.API.Key) == "" {
		c.API.Key = env
	}
	c.API.Key = strings.TrimSpace(c.API.Key)
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
}

func (c *Config) normalizePoll() {
	if c.Poll.JobInterval <= 0 {
		c.Poll.JobInterval = defaultJobPollInterval
	}
	if c.Poll.TaskRefreshInterval <= 0 {
		c.Poll.TaskRefreshInterval = defaultTaskRefreshInterval
	}
}

func (c *Config) normalizeOAuth() {
	c.OAuth.Listen = strings.TrimSpace(c.OAuth.Listen)
	if c.OAuth.Listen == "" {
		c.OAuth.Listen = defaultOAuthListen
	}
	if c.OAuth.SuccessRedirectSec <= 0 {
		c.OAuth.SuccessRedirectSec = defaultSuccessRedirectSec
	}
	if c.OAuth.ErrorRedirectSec <= 0 {
		c.OAuth.ErrorRedirectSec = defaultErrorRedirectSec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
