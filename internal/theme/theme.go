// Package theme resolves the light/dark display state from an explicit stored
// choice, falling back to the system preference while no choice exists.
package theme

import (
	"context"
	"fmt"
	"strings"
	"sync"

	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/store"
)

type Preference int

const (
	Unset Preference = iota
	Light
	Dark
)

func (p Preference) String() string {
	switch p {
	case Light:
		return "light"
	case Dark:
		return "dark"
	default:
		return "system"
	}
}

// ParsePreference accepts dark|light|system (auto and unset are aliases of
// system).
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return Dark, nil
	case "light":
		return Light, nil
	case "system", "auto", "unset", "":
		return Unset, nil
	default:
		return Unset, fmt.Errorf("unknown theme %q (expected dark|light|system)", s)
	}
}

// decode maps the stored value. Anything other than "true"/"false" is unset.
func decode(raw string, ok bool) Preference {
	if !ok {
		return Unset
	}
	switch strings.TrimSpace(raw) {
	case "true":
		return Dark
	case "false":
		return Light
	default:
		return Unset
	}
}

func encode(dark bool) string {
	if dark {
		return "true"
	}
	return "false"
}

// Probe reports whether the system prefers a dark scheme.
type Probe func() bool

type Resolver struct {
	kv    store.KV
	probe Probe

	mu   sync.Mutex
	pref Preference
	dark bool
	// sysDark is the last value passed to SystemChanged; it wins over the
	// probe once known.
	sysDark  bool
	sysKnown bool
}

// NewResolver does not touch storage; call Resolve once at startup.
func NewResolver(kv store.KV, probe Probe) *Resolver {
	return &Resolver{kv: kv, probe: probe}
}

// system must be called with r.mu held.
func (r *Resolver) system() bool {
	if r.sysKnown {
		return r.sysDark
	}
	if r.probe == nil {
		return false
	}
	return r.probe()
}

// Resolve re-reads the stored preference. With none stored, the system
// preference becomes the displayed state without being persisted.
func (r *Resolver) Resolve(ctx context.Context) bool {
	raw, ok := r.kv.Get(ctx, store.ThemeKey)
	pref := decode(raw, ok)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pref = pref
	switch pref {
	case Dark:
		r.dark = true
	case Light:
		r.dark = false
	default:
		r.dark = r.system()
	}
	return r.dark
}

// Reload picks up a choice another process stored. While no choice is stored
// the displayed state is left alone, so a followed system value survives.
func (r *Resolver) Reload(ctx context.Context) bool {
	raw, ok := r.kv.Get(ctx, store.ThemeKey)
	pref := decode(raw, ok)

	r.mu.Lock()
	defer r.mu.Unlock()
	switch pref {
	case Dark:
		r.dark = true
	case Light:
		r.dark = false
	default:
		if r.pref != Unset {
			r.dark = r.system()
		}
	}
	r.pref = pref
	return r.dark
}

// Dark is the displayed state.
func (r *Resolver) Dark() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dark
}

func (r *Resolver) Preference() Preference {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pref
}

// Toggle flips the displayed state and records it as an explicit choice.
// From then on SystemChanged is ignored. A failed write still leaves the
// choice in effect for this process.
func (r *Resolver) Toggle(ctx context.Context) bool {
	r.mu.Lock()
	r.dark = !r.dark
	dark := r.dark
	if dark {
		r.pref = Dark
	} else {
		r.pref = Light
	}
	r.mu.Unlock()

	if !r.kv.Set(ctx, store.ThemeKey, encode(dark)) {
		appLog.Debug("theme preference not persisted", "dark", dark)
	}
	return dark
}

// Set records an explicit light/dark choice, or with Unset forgets the choice
// and follows the system again.
func (r *Resolver) Set(ctx context.Context, p Preference) bool {
	r.mu.Lock()
	r.pref = p
	switch p {
	case Dark:
		r.dark = true
	case Light:
		r.dark = false
	default:
		r.dark = r.system()
	}
	dark := r.dark
	r.mu.Unlock()

	if p == Unset {
		r.kv.Remove(ctx, store.ThemeKey)
	} else {
		r.kv.Set(ctx, store.ThemeKey, encode(dark))
	}
	return dark
}

// SystemChanged applies a live system preference change. It reports whether
// the change was applied, which only happens while no explicit choice exists.
func (r *Resolver) SystemChanged(dark bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sysDark, r.sysKnown = dark, true
	if r.pref != Unset {
		return false
	}
	r.dark = dark
	return true
}
