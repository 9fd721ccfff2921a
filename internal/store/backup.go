package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/model"
)

const (
	backupDirName     = "backups"
	backupPrefix      = "pulse-"
	backupSuffix      = ".json"
	backupStampLayout = "20060102T150405.000Z"
	snapshotVersion   = 1
)

// Snapshot is the on-disk backup format.
type Snapshot struct {
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	Events    []model.Event `json:"events"`
	// Theme is the raw stored preference; nil when unset.
	Theme *string `json:"theme,omitempty"`
}

type BackupInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Backups manages snapshot files under <dataDir>/backups.
type Backups struct {
	Dir string
}

func NewBackups(dataDir string) Backups {
	return Backups{Dir: filepath.Join(dataDir, backupDirName)}
}

// Write snapshots the current events and theme preference and returns the
// new file's path.
func (b Backups) Write(ctx context.Context, kv KV, events *EventStore, now time.Time) (string, error) {
	if strings.TrimSpace(b.Dir) == "" {
		return "", errors.New("backup: missing dir")
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", err
	}
	snap := Snapshot{
		Version:   snapshotVersion,
		CreatedAt: now.UTC(),
		Events:    events.Events(ctx),
	}
	if v, ok := kv.Get(ctx, ThemeKey); ok {
		snap.Theme = &v
	}
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	name := backupPrefix + now.UTC().Format(backupStampLayout) + backupSuffix
	path := filepath.Join(b.Dir, name)
	if err := atomicWriteFile(b.Dir, name+".*.tmp", path, append(out, '\n'), 0o600); err != nil {
		return "", err
	}
	appLog.Info("backup written", "path", path, "events", len(snap.Events))
	return path, nil
}

// List returns backups newest first. A missing directory is an empty list.
func (b Backups) List() ([]BackupInfo, error) {
	ents, err := os.ReadDir(b.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []BackupInfo{}, nil
		}
		return nil, err
	}
	out := []BackupInfo{}
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
		created, err := time.Parse(backupStampLayout, stamp)
		if err != nil {
			continue
		}
		info := BackupInfo{Name: name, Path: filepath.Join(b.Dir, name), CreatedAt: created}
		if fi, err := e.Info(); err == nil {
			info.Size = fi.Size()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Prune keeps the newest keep backups and deletes the rest.
func (b Backups) Prune(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	all, err := b.List()
	if err != nil {
		return nil, err
	}
	var removed []string
	for i := keep; i < len(all); i++ {
		if err := os.Remove(all[i].Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed = append(removed, all[i].Name)
	}
	return removed, nil
}

// Resolve maps a bare backup name to its path inside Dir; other paths are
// returned as given.
func (b Backups) Resolve(nameOrPath string) string {
	nameOrPath = strings.TrimSpace(nameOrPath)
	if nameOrPath == "" || strings.ContainsRune(nameOrPath, os.PathSeparator) {
		return nameOrPath
	}
	candidate := filepath.Join(b.Dir, nameOrPath)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return nameOrPath
}

func ReadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", filepath.Base(path), err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("backup %s: unsupported version %d", filepath.Base(path), snap.Version)
	}
	for i, e := range snap.Events {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("backup %s: event %d has empty id", filepath.Base(path), i)
		}
	}
	return &snap, nil
}

// Restore replaces the stored events and theme with the snapshot at path.
func (b Backups) Restore(ctx context.Context, kv KV, events *EventStore, path string) (*Snapshot, error) {
	snap, err := ReadSnapshot(b.Resolve(path))
	if err != nil {
		return nil, err
	}
	if !events.Replace(ctx, snap.Events) {
		return nil, ErrUnavailable
	}
	if snap.Theme != nil {
		kv.Set(ctx, ThemeKey, *snap.Theme)
	} else {
		kv.Remove(ctx, ThemeKey)
	}
	appLog.Info("backup restored", "path", path, "events", len(snap.Events))
	return snap, nil
}
