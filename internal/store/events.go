package store

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/model"
)

// Storage keys. Both values are plain strings in the backend.
const (
	EventsKey = "pulse_events"
	ThemeKey  = "pulse_theme"
)

// EventStore reads and writes the whole event collection under EventsKey.
//
// Every mutation is load, change in memory, save. There is no locking across
// processes: when two writers overlap, the last save wins.
type EventStore struct {
	kv    KV
	newID func() string

	mu      sync.Mutex
	working []model.Event
}

func NewEventStore(kv KV) *EventStore {
	return &EventStore{kv: kv, newID: NewID, working: []model.Event{}}
}

// Load returns the persisted events. A missing key yields an empty slice; a
// value that is not a JSON array of events is logged and also yields an empty
// slice.
func (s *EventStore) Load(ctx context.Context) []model.Event {
	raw, ok := s.kv.Get(ctx, EventsKey)
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Event{}
	}
	var evs []model.Event
	if err := json.Unmarshal([]byte(raw), &evs); err != nil {
		appLog.Error("failed to parse stored events", err, "key", EventsKey)
		return []model.Event{}
	}
	if evs == nil {
		evs = []model.Event{}
	}
	return evs
}

// Save overwrites the persisted collection. It reports whether the write
// reached storage; a false result is not an error for callers.
func (s *EventStore) Save(ctx context.Context, events []model.Event) bool {
	if events == nil {
		events = []model.Event{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		appLog.Error("failed to encode events", err)
		return false
	}
	return s.kv.Set(ctx, EventsKey, string(b))
}

// NewID returns a fresh event id.
func (s *EventStore) NewID() string {
	return s.newID()
}

// Events returns the current snapshot. When storage is unavailable this is
// the in-memory working set built from earlier mutations.
func (s *EventStore) Events(ctx context.Context) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.currentLocked(ctx))
}

func (s *EventStore) currentLocked(ctx context.Context) []model.Event {
	if s.kv.Available(ctx) {
		s.working = s.Load(ctx)
	}
	return s.working
}

// Add validates raw form input and appends a new event. Invalid input returns
// a *model.ValidationError and leaves the store untouched.
func (s *EventStore) Add(ctx context.Context, in model.EventInput) (model.Event, error) {
	norm, err := in.Normalize()
	if err != nil {
		return model.Event{}, err
	}
	ev := model.NewEvent(s.newID(), norm)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(slices.Clone(s.currentLocked(ctx)), ev)
	s.working = next
	if !s.Save(ctx, next) {
		appLog.Debug("event kept in memory only", "id", ev.ID)
	}
	return ev, nil
}

// Delete removes the event with id. It reports false for an unknown id.
func (s *EventStore) Delete(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.currentLocked(ctx)
	next := slices.DeleteFunc(slices.Clone(cur), func(e model.Event) bool { return e.ID == id })
	if len(next) == len(cur) {
		return false
	}
	s.working = next
	s.Save(ctx, next)
	return true
}

// Find returns the event with id from the current snapshot.
func (s *EventStore) Find(ctx context.Context, id string) (model.Event, bool) {
	for _, e := range s.Events(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

// Replace swaps the whole collection (backup restore).
func (s *EventStore) Replace(ctx context.Context, events []model.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = slices.Clone(events)
	if s.working == nil {
		s.working = []model.Event{}
	}
	return s.Save(ctx, s.working)
}

// Revision is the raw stored value. Readers compare it to notice writes made
// by other processes.
func (s *EventStore) Revision(ctx context.Context) string {
	raw, _ := s.kv.Get(ctx, EventsKey)
	return raw
}
