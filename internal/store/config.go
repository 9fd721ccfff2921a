package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultFilterDebounceMs = 150
	DefaultWebListen        = "127.0.0.1:3333"
	DefaultBackupSchedule   = "@daily"
	DefaultBackupKeep       = 7
)

type Config struct {
	// Backend is one of sqlite|file|memory.
	Backend string `json:"backend,omitempty"`
	// DataDir holds the backend file, backups and the TUI log.
	DataDir string `json:"dataDir,omitempty"`

	FilterDebounceMs int `json:"filterDebounceMs,omitempty"`

	Web    WebConfig    `json:"web"`
	Backup BackupConfig `json:"backup"`
}

type WebConfig struct {
	Listen    string     `json:"listen,omitempty"`
	BasicAuth *BasicAuth `json:"basicAuth,omitempty"`
}

type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type BackupConfig struct {
	// Schedule is a robfig/cron spec ("@daily", "0 3 * * *"). Empty disables
	// scheduled backups.
	Schedule string `json:"schedule,omitempty"`
	Keep     int    `json:"keep,omitempty"`
}

// Normalize fills defaults in place.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = string(BackendSQLite)
	}
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.DataDir == "" {
		if dir, err := ConfigDir(); err == nil {
			c.DataDir = filepath.Join(dir, "data")
		}
	}
	if c.FilterDebounceMs <= 0 {
		c.FilterDebounceMs = DefaultFilterDebounceMs
	}
	c.Web.Listen = strings.TrimSpace(c.Web.Listen)
	if c.Web.Listen == "" {
		c.Web.Listen = DefaultWebListen
	}
	if a := c.Web.BasicAuth; a != nil && strings.TrimSpace(a.Username) == "" {
		c.Web.BasicAuth = nil
	}
	c.Backup.Schedule = strings.TrimSpace(c.Backup.Schedule)
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = DefaultBackupKeep
	}
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.pulse).
	if v := strings.TrimSpace(os.Getenv("PULSE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pulse"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig reads config.json. A missing file yields the defaults with the
// backup schedule enabled.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{Backup: BackupConfig{Schedule: DefaultBackupSchedule}}
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep the previous copy next to it; failures here never block the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
