package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	appLog "pulse-cli/internal/log"
)

// probeKey is written and removed once to detect whether a backend accepts
// writes at all.
const probeKey = "__pulse_test__"

// ErrUnavailable is returned by backends that cannot be reached (missing
// directory, closed handle, read-only media).
var ErrUnavailable = errors.New("storage unavailable")

// Backend is a string key/value store. Implementations may fail or panic; the
// Adapter turns both into absent/false results.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// KV is the never-failing surface used by the rest of the app.
type KV interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) bool
	Remove(ctx context.Context, key string) bool
	Available(ctx context.Context) bool
}

// Adapter wraps a Backend so that no storage failure ever reaches the caller.
// A nil backend behaves like storage that is disabled.
type Adapter struct {
	b Backend

	probeOnce sync.Once
	probeOK   bool
}

func NewAdapter(b Backend) *Adapter {
	return &Adapter{b: b}
}

// Get returns the stored value, or ("", false) when the key is absent or the
// backend fails.
func (a *Adapter) Get(ctx context.Context, key string) (v string, ok bool) {
	if !a.Available(ctx) {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			appLog.Debug("storage get panicked", "key", key, "panic", fmt.Sprint(r))
			v, ok = "", false
		}
	}()
	v, ok, err := a.b.Get(ctx, key)
	if err != nil {
		appLog.Debug("storage get failed", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

// Set reports whether the value was written.
func (a *Adapter) Set(ctx context.Context, key, value string) bool {
	if !a.Available(ctx) {
		return false
	}
	return a.set(ctx, key, value)
}

// Remove reports whether the key is gone afterwards.
func (a *Adapter) Remove(ctx context.Context, key string) bool {
	if !a.Available(ctx) {
		return false
	}
	return a.remove(ctx, key)
}

func (a *Adapter) set(ctx context.Context, key, value string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Debug("storage set panicked", "key", key, "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	if err := a.b.Set(ctx, key, value); err != nil {
		appLog.Debug("storage set failed", "key", key, "err", err)
		return false
	}
	return true
}

func (a *Adapter) remove(ctx context.Context, key string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Debug("storage remove panicked", "key", key, "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	if err := a.b.Remove(ctx, key); err != nil {
		appLog.Debug("storage remove failed", "key", key, "err", err)
		return false
	}
	return true
}

// Available probes the backend once with a throwaway write. When the probe
// fails every later call short-circuits.
func (a *Adapter) Available(ctx context.Context) bool {
	if a == nil || a.b == nil {
		return false
	}
	a.probeOnce.Do(func() {
		a.probeOK = a.set(ctx, probeKey, probeKey) && a.remove(ctx, probeKey)
		if !a.probeOK {
			appLog.Info("storage unavailable; changes will not persist")
		}
	})
	return a.probeOK
}

// Close releases the backend. Safe on a nil adapter.
func (a *Adapter) Close() error {
	if a == nil || a.b == nil {
		return nil
	}
	return a.b.Close()
}
