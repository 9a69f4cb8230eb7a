package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/logiq/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseDir != model.DefaultBaseDir {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, model.DefaultBaseDir)
	}
	if cfg.APIAddr != "127.0.0.1:8501" {
		t.Errorf("APIAddr = %q", cfg.APIAddr)
	}
	if cfg.QuickLimit != model.DefaultQuickLimit {
		t.Errorf("QuickLimit = %d", cfg.QuickLimit)
	}
	if cfg.QueryTimeout != 0 {
		t.Errorf("QueryTimeout = %s, want 0", cfg.QueryTimeout)
	}
	if !cfg.StartDate.Equal(model.DefaultStartDate) || !cfg.EndDate.Equal(model.DefaultEndDate) {
		t.Errorf("dates = %s..%s", cfg.StartDate, cfg.EndDate)
	}
	if !cfg.MetricsEnabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty without a file", cfg.ConfigPath)
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, strings.Join([]string{
		"base-dir: ~/logs/parquet",
		"api-port: 9000",
		"query-timeout: 45s",
		"quick-limit: 250",
		"default-start: \"2024-06-01\"",
		"default-end: \"2024-06-30\"",
		"log-level: debug",
		"metrics-enabled: false",
	}, "\n"))

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseDir != filepath.Join(home, "logs", "parquet") {
		t.Errorf("BaseDir = %q, want ~ expanded", cfg.BaseDir)
	}
	if cfg.APIAddr != "127.0.0.1:9000" {
		t.Errorf("APIAddr = %q", cfg.APIAddr)
	}
	if cfg.QueryTimeout != 45*time.Second {
		t.Errorf("QueryTimeout = %s", cfg.QueryTimeout)
	}
	if cfg.QuickLimit != 250 {
		t.Errorf("QuickLimit = %d", cfg.QuickLimit)
	}
	if cfg.StartDate.Format(model.DateLayout) != "2024-06-01" || cfg.EndDate.Format(model.DateLayout) != "2024-06-30" {
		t.Errorf("dates = %s..%s", cfg.StartDate, cfg.EndDate)
	}
	if cfg.MetricsEnabled {
		t.Error("metrics should be disabled")
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOGIQ_BASE_DIR", "/srv/parquet")
	t.Setenv("LOGIQ_API_ADDR", "0.0.0.0:7000")
	t.Setenv("LOGIQ_QUICK_LIMIT", "20")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseDir != "/srv/parquet" {
		t.Errorf("BaseDir = %q", cfg.BaseDir)
	}
	if cfg.APIAddr != "0.0.0.0:7000" {
		t.Errorf("APIAddr = %q", cfg.APIAddr)
	}
	if cfg.QuickLimit != 20 {
		t.Errorf("QuickLimit = %d", cfg.QuickLimit)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"port too high", "api-port: 70000", "invalid api-port"},
		{"zero quick limit", "quick-limit: 0", "invalid quick-limit"},
		{"bad start", "default-start: \"01/02/2025\"", "invalid default-start"},
		{"bad end", "default-end: tomorrow", "invalid default-end"},
		{"bad level", "log-level: loud", "unknown log level"},
		{"negative timeout", "query-timeout: -1s", "invalid query-timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			_, err := loadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerOptionsCarryDefaultDates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, strings.Join([]string{
		"default-start: \"2024-06-01\"",
		"default-end: \"2024-06-30\"",
		"quick-limit: 40",
	}, "\n"))

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	opts := serverOptions(cfg, nil)
	if opts.Start.Format(model.DateLayout) != "2024-06-01" || opts.End.Format(model.DateLayout) != "2024-06-30" {
		t.Errorf("options dates = %s..%s", opts.Start, opts.End)
	}
	if opts.QuickLimit != 40 {
		t.Errorf("QuickLimit = %d, want 40", opts.QuickLimit)
	}
}
