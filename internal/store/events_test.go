package store

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"pulse-cli/internal/model"
)

func newMemoryEventStore(t *testing.T) (*EventStore, *Adapter) {
	t.Helper()
	kv := NewAdapter(NewMemoryBackend())
	return NewEventStore(kv), kv
}

func sortedByID(evs []model.Event) []model.Event {
	out := slices.Clone(evs)
	slices.SortFunc(out, func(a, b model.Event) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func TestEventStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newMemoryEventStore(t)

	in := []model.Event{
		{ID: "b", Title: "Lunch", Date: "2024-03-05", Time: "12:30"},
		{ID: "a", Title: "Holiday", Date: "2024-12-25"},
	}
	if !s.Save(ctx, in) {
		t.Fatalf("save failed")
	}
	got := s.Load(ctx)
	if !reflect.DeepEqual(sortedByID(got), sortedByID(in)) {
		t.Fatalf("round trip: got %+v want %+v", got, in)
	}
}

func TestEventStore_LoadMissingOrMalformed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, kv := newMemoryEventStore(t)

	if got := s.Load(ctx); got == nil || len(got) != 0 {
		t.Fatalf("missing key: expected empty slice, got %#v", got)
	}
	for _, raw := range []string{"{not json", `{"id":"x"}`, "null", "   "} {
		kv.Set(ctx, EventsKey, raw)
		if got := s.Load(ctx); got == nil || len(got) != 0 {
			t.Fatalf("Load(%q): expected empty slice, got %#v", raw, got)
		}
	}
}

func TestEventStore_SaveNilWritesEmptyArray(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, kv := newMemoryEventStore(t)

	s.Save(ctx, nil)
	if raw, _ := kv.Get(ctx, EventsKey); raw != "[]" {
		t.Fatalf("expected [] got %q", raw)
	}
}

func TestEventStore_AddThenDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newMemoryEventStore(t)

	ev, err := s.Add(ctx, model.EventInput{Title: "Standup", Date: "2024-03-05", Time: "09:00"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if strings.TrimSpace(ev.ID) == "" {
		t.Fatalf("expected generated id")
	}
	got := s.Load(ctx)
	want := []model.Event{{ID: ev.ID, Title: "Standup", Date: "2024-03-05", Time: "09:00"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("after add: got %+v want %+v", got, want)
	}

	if s.Delete(ctx, "nope") {
		t.Fatalf("unknown id should report false")
	}
	if !s.Delete(ctx, ev.ID) {
		t.Fatalf("delete should report true")
	}
	if got := s.Load(ctx); len(got) != 0 {
		t.Fatalf("after delete: expected empty, got %+v", got)
	}
}

func TestEventStore_AddRejectsInvalidInputWithoutWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, kv := newMemoryEventStore(t)

	_, err := s.Add(ctx, model.EventInput{Title: "  ", Date: "2024-03-05"})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, ok := kv.Get(ctx, EventsKey); ok {
		t.Fatalf("invalid input must not write")
	}
}

func TestEventStore_WorkingSetSurvivesUnavailableStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewEventStore(NewAdapter(failingBackend{err: ErrUnavailable}))

	ev, err := s.Add(ctx, model.EventInput{Title: "Offline", Date: "2024-03-05"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := s.Events(ctx); len(got) != 1 || got[0].ID != ev.ID {
		t.Fatalf("expected working set to keep the event, got %+v", got)
	}
	if !s.Delete(ctx, ev.ID) {
		t.Fatalf("delete from working set should succeed")
	}
	if got := s.Events(ctx); len(got) != 0 {
		t.Fatalf("expected empty working set, got %+v", got)
	}
}

func TestEventStore_SharedBackendLastWriteWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := NewAdapter(NewMemoryBackend())
	a := NewEventStore(kv)
	b := NewEventStore(kv)

	if _, err := a.Add(ctx, model.EventInput{Title: "One", Date: "2024-03-05"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(ctx, model.EventInput{Title: "Two", Date: "2024-03-06"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Each mutation reloads first, so sequential writers see each other.
	if got := a.Events(ctx); len(got) != 2 {
		t.Fatalf("expected both events, got %+v", got)
	}
}

func TestNewID_UniqueAndShaped(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		id := NewID()
		if len(id) < idRandLen+8 {
			t.Fatalf("id too short: %q", id)
		}
		for _, r := range id {
			if !strings.ContainsRune(base36Digits, r) {
				t.Fatalf("non-base36 char in %q", id)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
