package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"adforge/internal/config"
	"adforge/internal/credits"
	"adforge/internal/services"
)

type fakeProber struct {
	balance *credits.Balance
	err     error
}

func (f *fakeProber) Credits(context.Context) (*credits.Balance, error) {
	return f.balance, f.err
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	result := CheckFreeSpace("test", t.TempDir())
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = ""
	if result := CheckAPIKey(&cfg); result.Passed {
		t.Fatal("expected failure for missing key")
	}
	cfg.API.Key = "k"
	if result := CheckAPIKey(&cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckBackend_OK(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = "k"
	prober := &fakeProber{balance: &credits.Balance{Credits: 42}}

	result := CheckBackend(context.Background(), &cfg, prober)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckBackend_AuthFailure(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = "k"
	prober := &fakeProber{err: services.Wrap(services.ErrProvider, "api", "credits", "status 401", nil)}

	result := CheckBackend(context.Background(), &cfg, prober)
	if result.Passed {
		t.Fatal("expected failure for auth error")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("detail = %q", result.Detail)
	}
}

func TestCheckBackend_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = ""
	result := CheckBackend(context.Background(), &cfg, &fakeProber{})
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = "k"
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.DownloadsDir = t.TempDir()

	results := RunAll(context.Background(), &cfg, nil)
	// API key + data dir + downloads dir + free space.
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !Passed(results) {
		for _, r := range results {
			if !r.Passed {
				t.Errorf("check %q failed: %s", r.Name, r.Detail)
			}
		}
	}
}

func TestRunAll_IncludesBackendWithProber(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = "k"
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.DownloadsDir = ""

	results := RunAll(context.Background(), &cfg, &fakeProber{balance: &credits.Balance{Credits: 5}})
	found := false
	for _, r := range results {
		if r.Name == "Backend" {
			found = true
			if !r.Passed {
				t.Errorf("backend check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected backend check in results")
	}
}
