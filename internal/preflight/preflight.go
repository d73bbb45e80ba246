package preflight

import (
	"context"

	"adforge/internal/config"
	"adforge/internal/credits"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// BalanceProber fetches the current credit balance; the API client
// satisfies it.
type BalanceProber interface {
	Credits(ctx context.Context) (*credits.Balance, error)
}

// RunAll executes all applicable preflight checks for the given config.
// A nil prober skips the backend reachability check.
func RunAll(ctx context.Context, cfg *config.Config, prober BalanceProber) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckAPIKey(cfg))
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	if cfg.Paths.DownloadsDir != "" {
		results = append(results, CheckDirectoryAccess("Downloads directory", cfg.Paths.DownloadsDir))
		results = append(results, CheckFreeSpace("Downloads free space", cfg.Paths.DownloadsDir))
	}

	if prober != nil {
		results = append(results, CheckBackend(ctx, cfg, prober))
	}

	return results
}

// Passed reports whether every result in the slice passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
