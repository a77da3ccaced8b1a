package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aquanexa/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if resolved != missing {
		t.Fatalf("expected resolved path %q, got %q", missing, resolved)
	}
	if cfg.Workflow.Workers != 2 {
		t.Fatalf("expected default workers 2, got %d", cfg.Workflow.Workers)
	}
	if cfg.Unify.TimeToleranceMinutes != 5 {
		t.Fatalf("expected default tolerance 5, got %d", cfg.Unify.TimeToleranceMinutes)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"
upload_dir = "` + dir + `/uploads"
log_dir = "` + dir + `/logs"

[workflow]
workers = 4

[unify]
time_tolerance_minutes = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("expected workers 4, got %d", cfg.Workflow.Workers)
	}
	if cfg.Unify.TimeToleranceMinutes != 3 {
		t.Fatalf("expected tolerance 3, got %d", cfg.Unify.TimeToleranceMinutes)
	}
	if cfg.Workflow.PollInterval != 5 {
		t.Fatalf("expected default poll interval preserved, got %d", cfg.Workflow.PollInterval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.Workers = 0
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "workflow.workers") {
		t.Fatalf("expected workers complaint, got %v", err)
	}
	if !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected format complaint, got %v", err)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	cfg := config.Default()
	if strings.HasPrefix(cfg.Paths.DataDir, "~") {
		// Default() keeps the raw value; Load is what expands it.
		missing := filepath.Join(t.TempDir(), "none.toml")
		loaded, _, _, err := config.Load(missing)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if strings.HasPrefix(loaded.Paths.DataDir, "~") {
			t.Fatalf("expected expanded data dir, got %q", loaded.Paths.DataDir)
		}
	}
}
