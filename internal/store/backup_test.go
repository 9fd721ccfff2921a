package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pulse-cli/internal/model"
)

func TestBackups_WriteListRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := NewAdapter(NewMemoryBackend())
	events := NewEventStore(kv)
	b := NewBackups(t.TempDir())

	if _, err := events.Add(ctx, model.EventInput{Title: "Standup", Date: "2024-03-05", Time: "09:00"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	kv.Set(ctx, ThemeKey, "true")

	t0 := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	path, err := b.Write(ctx, kv, events, t0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Change everything, then restore by bare name.
	events.Replace(ctx, nil)
	kv.Remove(ctx, ThemeKey)

	list, err := b.List()
	if err != nil || len(list) != 1 {
		t.Fatalf("List: got %+v err=%v", list, err)
	}
	if !list[0].CreatedAt.Equal(t0) {
		t.Fatalf("createdAt: got %v want %v", list[0].CreatedAt, t0)
	}

	snap, err := b.Restore(ctx, kv, events, filepath.Base(path))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(snap.Events) != 1 || snap.Events[0].Title != "Standup" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if got := events.Load(ctx); len(got) != 1 || got[0].Title != "Standup" {
		t.Fatalf("expected restored events, got %+v", got)
	}
	if v, ok := kv.Get(ctx, ThemeKey); !ok || v != "true" {
		t.Fatalf("expected restored theme, got %q ok=%v", v, ok)
	}
}

func TestBackups_PruneKeepsNewest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := NewAdapter(NewMemoryBackend())
	events := NewEventStore(kv)
	b := NewBackups(t.TempDir())

	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := b.Write(ctx, kv, events, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	removed, err := b.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed, got %v", removed)
	}
	list, _ := b.List()
	if len(list) != 2 || !list[0].CreatedAt.Equal(base.Add(4*time.Hour)) {
		t.Fatalf("expected the two newest, got %+v", list)
	}
}

func TestReadSnapshot_RejectsBadFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cases := map[string]string{
		"garbage.json": "{nope",
		"version.json": `{"version":9,"events":[]}`,
		"noid.json":    `{"version":1,"events":[{"id":"","title":"x","date":"2024-03-05","time":""}]}`,
	}
	for name, body := range cases {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := ReadSnapshot(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
