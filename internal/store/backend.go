package store

import (
	"context"
	"fmt"
	"strings"
)

type BackendKind string

const (
	BackendSQLite BackendKind = "sqlite"
	BackendFile   BackendKind = "file"
	BackendMemory BackendKind = "memory"
)

// ParseBackendKind accepts the names used by --backend and config.json.
// Empty means the default (sqlite).
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BackendSQLite):
		return BackendSQLite, nil
	case string(BackendFile), "json":
		return BackendFile, nil
	case string(BackendMemory), "mem":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected sqlite|file|memory)", s)
	}
}

// OpenBackend opens the backend of the given kind rooted at dir.
func OpenBackend(ctx context.Context, kind BackendKind, dir string) (Backend, error) {
	switch kind {
	case BackendSQLite, "":
		return OpenSQLiteBackend(ctx, dir)
	case BackendFile:
		return NewFileBackend(dir)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}
