package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PULSE_CONFIG_DIR", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "sqlite" || cfg.FilterDebounceMs != DefaultFilterDebounceMs {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("dataDir: got %q", cfg.DataDir)
	}
	if cfg.Web.Listen != DefaultWebListen || cfg.Backup.Schedule != DefaultBackupSchedule || cfg.Backup.Keep != DefaultBackupKeep {
		t.Fatalf("unexpected web/backup defaults: %+v", cfg)
	}
}

func TestSaveConfig_RoundTripKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PULSE_CONFIG_DIR", dir)

	cfg := &Config{Backend: "file", Web: WebConfig{BasicAuth: &BasicAuth{Username: "me", Password: "pw"}}}
	cfg.Normalize()
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	cfg.FilterDebounceMs = 300
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig (2): %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Backend != "file" || got.FilterDebounceMs != 300 {
		t.Fatalf("unexpected loaded config: %+v", got)
	}
	if got.Web.BasicAuth == nil || got.Web.BasicAuth.Username != "me" {
		t.Fatalf("expected basic auth, got %+v", got.Web.BasicAuth)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json.bak")); err != nil {
		t.Fatalf("expected config.json.bak: %v", err)
	}
}

func TestConfigNormalize_DropsEmptyBasicAuth(t *testing.T) {
	t.Setenv("PULSE_CONFIG_DIR", t.TempDir())

	cfg := Config{Web: WebConfig{BasicAuth: &BasicAuth{Username: " "}}}
	cfg.Normalize()
	if cfg.Web.BasicAuth != nil {
		t.Fatalf("expected nil basic auth")
	}
}
