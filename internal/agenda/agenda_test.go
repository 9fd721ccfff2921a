package agenda

import (
	"reflect"
	"testing"
	"time"

	"pulse-cli/internal/model"
)

func titles(evs []model.Event) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Title)
	}
	return out
}

func TestUpcoming_TodayInclusiveAndPastExcluded(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 18, 0, 0, 0, time.UTC)
	evs := []model.Event{
		{ID: "1", Title: "Yesterday late", Date: "2024-03-04", Time: "23:59"},
		{ID: "2", Title: "This morning", Date: "2024-03-05", Time: "08:00"},
		{ID: "3", Title: "Today all-day", Date: "2024-03-05"},
		{ID: "4", Title: "Tomorrow", Date: "2024-03-06", Time: "07:00"},
	}
	got := titles(List(evs, now, ""))
	want := []string{"Today all-day", "This morning", "Tomorrow"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestUpcoming_SortedByCompositeKey(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	evs := []model.Event{
		{ID: "a", Title: "C", Date: "2024-02-01", Time: "10:00"},
		{ID: "b", Title: "A", Date: "2024-01-15"},
		{ID: "c", Title: "B", Date: "2024-02-01", Time: "09:00"},
		{ID: "d", Title: "D", Date: "2025-01-01"},
	}
	got := List(evs, now, "")
	if want := []string{"A", "B", "C", "D"}; !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("got %v want %v", titles(got), want)
	}
}

func TestUpcoming_FilterIsCaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	evs := []model.Event{
		{ID: "1", Title: "Standup", Date: "2024-03-05", Time: "09:00"},
		{ID: "2", Title: "Lunch", Date: "2024-03-05", Time: "12:00"},
	}
	for _, f := range []string{"sta", "  STA ", "ndu"} {
		if got := titles(List(evs, now, f)); !reflect.DeepEqual(got, []string{"Standup"}) {
			t.Fatalf("filter %q: got %v", f, got)
		}
	}
	if got := List(evs, now, "dinner"); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", titles(got))
	}
}

func TestUpcoming_IsRestartableAndSnapshotsInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	evs := []model.Event{{ID: "1", Title: "Standup", Date: "2024-03-05"}}
	seq := Upcoming(evs, now, "")
	evs[0].Title = "Mutated"

	for pass := 0; pass < 2; pass++ {
		n := 0
		for e := range seq {
			if e.Title != "Standup" {
				t.Fatalf("pass %d: expected snapshot title, got %q", pass, e.Title)
			}
			n++
		}
		if n != 1 {
			t.Fatalf("pass %d: expected 1 event, got %d", pass, n)
		}
	}
}

func TestUpcoming_SkipsUnreadableAndStopsEarly(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	evs := []model.Event{
		{ID: "bad", Title: "Broken", Date: "March 5"},
		{ID: "1", Title: "One", Date: "2024-03-05"},
		{ID: "2", Title: "Two", Date: "2024-03-06"},
	}
	var got []string
	for e := range Upcoming(evs, now, "") {
		got = append(got, e.Title)
		break
	}
	if !reflect.DeepEqual(got, []string{"One"}) {
		t.Fatalf("got %v", got)
	}
}

func TestWhen(t *testing.T) {
	t.Parallel()

	if got := When(model.Event{Date: "2024-03-05", Time: "09:00"}); got != "Mar 5, 2024 • 09:00" {
		t.Fatalf("When: got %q", got)
	}
	if got := When(model.Event{Date: "2024-03-05"}); got != "Mar 5, 2024" {
		t.Fatalf("When all-day: got %q", got)
	}
}

func TestUpcoming_OrderSurvivesDSTGap(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	// 2024-03-10 02:00-03:00 does not exist in New York.
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, loc)
	evs := []model.Event{
		{ID: "a", Title: "three", Date: "2024-03-10", Time: "03:00"},
		{ID: "b", Title: "half past two", Date: "2024-03-10", Time: "02:30"},
		{ID: "c", Title: "all day", Date: "2024-03-10"},
	}
	if got, want := titles(List(evs, now, "")), []string{"all day", "half past two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
