package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"qrprint/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("QRPRINT_DATA_DIR", "")
	t.Setenv("QRPRINT_LOG_LEVEL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "qrprint")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.PrinterConfig != filepath.Join(tempHome, ".config", "qrprint", "printer_config.json") {
		t.Fatalf("unexpected printer config path: %q", cfg.Paths.PrinterConfig)
	}
	if cfg.HistoryDBPath() != filepath.Join(wantData, "printer_history.db") {
		t.Fatalf("unexpected history db path: %q", cfg.HistoryDBPath())
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Fatalf("expected 5s request timeout, got %s", cfg.RequestTimeout())
	}
	if cfg.ShutdownTimeout() != 2*time.Second {
		t.Fatalf("expected 2s shutdown timeout, got %s", cfg.ShutdownTimeout())
	}
	if cfg.Dispatch.HistoryLimit != 100 {
		t.Fatalf("expected history limit 100, got %d", cfg.Dispatch.HistoryLimit)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("QRPRINT_NTFY_TOPIC", "")
	t.Setenv("QRPRINT_DATA_DIR", "")
	t.Setenv("QRPRINT_LOG_LEVEL", "")

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
data_dir = "~/station"

[store]
request_timeout = 9
poll_interval_ms = 250

[dispatch]
max_concurrent_jobs = 2

[notifications]
ntfy_topic = "https://ntfy.example/prints"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to exist at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "station") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.RequestTimeout() != 9*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.ShutdownTimeout() != 2*time.Second {
		t.Fatalf("expected default shutdown timeout, got %s", cfg.ShutdownTimeout())
	}
	if cfg.Dispatch.MaxConcurrentJobs != 2 {
		t.Fatalf("unexpected max concurrent jobs: %d", cfg.Dispatch.MaxConcurrentJobs)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
}

func TestEnvFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("QRPRINT_DATA_DIR", filepath.Join(tempHome, "from-env"))
	t.Setenv("QRPRINT_NTFY_TOPIC", "https://ntfy.example/env")

	cfg, _, _, err := config.Load(filepath.Join(tempHome, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "from-env") {
		t.Fatalf("expected env data dir, got %q", cfg.Paths.DataDir)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/env" {
		t.Fatalf("expected env topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/qrprint"
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected logging level error, got %v", err)
	}

	cfg = config.Default()
	cfg.Notifications.NtfyTopic = "not a url"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "ntfy_topic") {
		t.Fatalf("expected ntfy topic error, got %v", err)
	}

	cfg = config.Default()
	cfg.Store.RequestTimeout = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "store.request_timeout") {
		t.Fatalf("expected request timeout error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	target := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Store.QueueSize != config.Default().Store.QueueSize {
		t.Fatalf("sample config drifted from defaults: queue_size=%d", cfg.Store.QueueSize)
	}
}
