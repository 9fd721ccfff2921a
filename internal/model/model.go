package model

import (
	"errors"
	"fmt"
	"strings"

	"pulse-cli/internal/dates"
)

// Event is the only persisted record. Events are created and deleted, never
// edited in place; ID is the sole key for deletion.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Date is YYYY-MM-DD with no zone.
	Date string `json:"date"`
	// Time is HH:MM, or "" for an all-day event.
	Time string `json:"time"`
}

// AllDay reports whether the event has no time of day.
func (e Event) AllDay() bool {
	return strings.TrimSpace(e.Time) == ""
}

// EventInput carries raw form values (untrimmed, unvalidated).
type EventInput struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("invalid event input")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Normalize trims every field and validates the result. The returned input is
// safe to turn into an Event.
func (in EventInput) Normalize() (EventInput, error) {
	out := EventInput{
		Title: strings.TrimSpace(in.Title),
		Date:  strings.TrimSpace(in.Date),
		Time:  strings.TrimSpace(in.Time),
	}
	if out.Title == "" {
		return out, &ValidationError{Field: "title", Reason: "title is required"}
	}
	if out.Date == "" {
		return out, &ValidationError{Field: "date", Reason: "date is required"}
	}
	if _, err := dates.ParseDate(out.Date); err != nil {
		return out, &ValidationError{Field: "date", Reason: err.Error()}
	}
	if _, _, err := dates.ParseClock(out.Time); err != nil {
		return out, &ValidationError{Field: "time", Reason: err.Error()}
	}
	return out, nil
}

// NewEvent builds an Event from already-normalized input.
func NewEvent(id string, in EventInput) Event {
	return Event{ID: id, Title: in.Title, Date: in.Date, Time: in.Time}
}
