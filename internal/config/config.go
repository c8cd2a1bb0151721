package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and document locations.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	PrinterConfig string `toml:"printer_config"`
	TempDir       string `toml:"temp_dir"`
}

// Store contains timing and sizing knobs for the persistence worker.
type Store struct {
	RequestTimeout  int `toml:"request_timeout"`  // seconds
	ShutdownTimeout int `toml:"shutdown_timeout"` // seconds
	PollIntervalMS  int `toml:"poll_interval_ms"`
	QueueSize       int `toml:"queue_size"`
	BusyTimeoutMS   int `toml:"busy_timeout_ms"`
}

// Dispatch contains limits for background print jobs.
type Dispatch struct {
	MaxConcurrentJobs int `toml:"max_concurrent_jobs"`
	HistoryLimit      int `toml:"history_limit"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Failed         bool   `toml:"failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all application configuration values.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and temp directories plus the printer-class document
//   - Store: persistence worker timeouts, poll interval, and queue depth
//   - Dispatch: background job concurrency and history view size
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPathTemplate)
}

// Load reads the configuration file chosen by path (or the default search
// order when empty), applies environment fallbacks and validates the result.
// It also reports the resolved file path and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath honors an explicit path even when the file is missing.
// Otherwise the user config wins over ./qrprint.toml, and the user location
// is reported when neither exists.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	userPath, err := expandPath(defaultConfigPathTemplate)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(defaultProjectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.PrinterConfig); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the print history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, historyDatabaseName)
}

// LockPath returns the station lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, stationLockName)
}

// RequestTimeout returns the default wait for a single store operation.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Store.RequestTimeout) * time.Second
}

// ShutdownTimeout returns the bound on waiting for the persistence worker to exit.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Store.ShutdownTimeout) * time.Second
}

// PollInterval returns how long the persistence worker idles between wakeups.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Store.PollIntervalMS) * time.Millisecond
}

// BusyTimeout returns the SQLite busy_timeout applied to the connection.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Store.BusyTimeoutMS) * time.Millisecond
}

// expandPath resolves a leading ~ and returns an absolute, cleaned path.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(value, "~"); ok && (rest == "" || rest[0] == '/' || rest[0] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + rest
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the same ~ and absolute-path rules used for config paths.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
