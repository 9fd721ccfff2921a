// Package app holds the application state as a plain value with pure
// transitions, plus one Shell that owns the live instance.
package app

import (
	"time"

	"pulse-cli/internal/agenda"
	"pulse-cli/internal/calendar"
	"pulse-cli/internal/model"
)

type View string

const (
	ViewHome     View = "home"
	ViewCalendar View = "calendar"
)

// State is everything a view needs besides the events themselves.
type State struct {
	View   View            `json:"view"`
	Cursor calendar.Cursor `json:"cursor"`
	Filter string          `json:"filter"`
	Dark   bool            `json:"dark"`

	// FormOpen is true while the add-event form is shown; Prefill is the ISO
	// date it opened with (empty for the plain "add" button).
	FormOpen bool   `json:"formOpen"`
	Prefill  string `json:"prefill,omitempty"`

	// Notice is a one-line message for the user (validation failures).
	Notice string `json:"notice,omitempty"`
}

// Initial is the state on launch: home view, cursor on now's month.
func Initial(now time.Time, dark bool) State {
	return State{View: ViewHome, Cursor: calendar.Today(now), Dark: dark}
}

func (s State) WithView(v View) State {
	s.View = v
	return s
}

func (s State) PrevMonth() State {
	s.Cursor = s.Cursor.Prev()
	return s
}

func (s State) NextMonth() State {
	s.Cursor = s.Cursor.Next()
	return s
}

func (s State) ThisMonth(now time.Time) State {
	s.Cursor = calendar.Today(now)
	return s
}

func (s State) WithFilter(f string) State {
	s.Filter = f
	return s
}

func (s State) WithDark(dark bool) State {
	s.Dark = dark
	return s
}

// OpenForm shows the add form, pre-filled with date when non-empty.
func (s State) OpenForm(date string) State {
	s.FormOpen = true
	s.Prefill = date
	s.Notice = ""
	return s
}

func (s State) CloseForm() State {
	s.FormOpen = false
	s.Prefill = ""
	return s
}

func (s State) WithNotice(msg string) State {
	s.Notice = msg
	return s
}

// HomeView is the data behind the upcoming list.
type HomeView struct {
	Events []model.Event `json:"events"`
	Filter string        `json:"filter"`
	// Empty is true when nothing matches; adapters show their empty template.
	Empty bool `json:"empty"`
}

// Home projects events for the home view.
func Home(s State, events []model.Event, now time.Time) HomeView {
	list := agenda.List(events, now, s.Filter)
	return HomeView{Events: list, Filter: s.Filter, Empty: len(list) == 0}
}

// Calendar builds the grid for the state's cursor.
func Calendar(s State, events []model.Event, now time.Time) calendar.Month {
	return calendar.BuildMonth(s.Cursor.Year, s.Cursor.Month, events, now)
}
