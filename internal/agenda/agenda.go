// Package agenda projects the event collection into the upcoming list shown
// on the home view.
package agenda

import (
	"iter"
	"slices"
	"strings"
	"time"

	"pulse-cli/internal/dates"
	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/model"
)

// keyed carries the parsed wall-clock key. Comparing components rather than
// instants keeps times a DST gap would shift in their written order.
type keyed struct {
	ev   model.Event
	day  dates.Date
	slot dates.Clock
}

func (a keyed) compare(b keyed) int {
	if c := a.day.Compare(b.day); c != 0 {
		return c
	}
	return a.slot.Compare(b.slot)
}

// Upcoming returns the events from the start of now's day onward, ordered by
// date+time (all-day counts as 00:00) and narrowed to titles containing
// filter, case-insensitively.
//
// The input is copied up front. The sequence is lazy and may be ranged over
// any number of times; each pass recomputes the projection.
func Upcoming(events []model.Event, now time.Time, filter string) iter.Seq[model.Event] {
	snapshot := slices.Clone(events)
	needle := strings.ToLower(strings.TrimSpace(filter))
	today := dates.FromTime(now)

	return func(yield func(model.Event) bool) {
		rows := make([]keyed, 0, len(snapshot))
		for _, e := range snapshot {
			day, err := dates.ParseDate(e.Date)
			if err != nil {
				appLog.Debug("skipping unreadable event", "id", e.ID, "err", err)
				continue
			}
			slot, _, err := dates.ParseClock(e.Time)
			if err != nil {
				appLog.Debug("skipping unreadable event", "id", e.ID, "err", err)
				continue
			}
			// Today stays visible all day, even after its time has passed.
			if day.Compare(today) < 0 {
				continue
			}
			rows = append(rows, keyed{ev: e, day: day, slot: slot})
		}
		slices.SortStableFunc(rows, keyed.compare)

		for _, r := range rows {
			if needle != "" && !strings.Contains(strings.ToLower(r.ev.Title), needle) {
				continue
			}
			if !yield(r.ev) {
				return
			}
		}
	}
}

// List collects Upcoming into a slice (never nil).
func List(events []model.Event, now time.Time, filter string) []model.Event {
	out := slices.Collect(Upcoming(events, now, filter))
	if out == nil {
		out = []model.Event{}
	}
	return out
}

// When renders the secondary line of a list row: "Mar 5, 2024 • 09:00", or
// just the date for all-day events.
func When(e model.Event) string {
	s := dates.FormatHuman(e.Date)
	if t := strings.TrimSpace(e.Time); t != "" {
		s += " • " + t
	}
	return s
}
