package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEventInputNormalize_TrimsAndAccepts(t *testing.T) {
	t.Parallel()

	in := EventInput{Title: "  Standup ", Date: " 2024-03-05", Time: "09:00 "}
	got, err := in.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := EventInput{Title: "Standup", Date: "2024-03-05", Time: "09:00"}
	if got != want {
		t.Fatalf("Normalize: got %+v want %+v", got, want)
	}

	allDay, err := EventInput{Title: "Holiday", Date: "2024-12-25"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize all-day: %v", err)
	}
	if !NewEvent("x", allDay).AllDay() {
		t.Fatalf("expected all-day event")
	}
}

func TestEventInputNormalize_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    EventInput
		field string
	}{
		{"blank title", EventInput{Title: "   ", Date: "2024-03-05"}, "title"},
		{"missing date", EventInput{Title: "Standup"}, "date"},
		{"bad date", EventInput{Title: "Standup", Date: "2024-02-30"}, "date"},
		{"bad time", EventInput{Title: "Standup", Date: "2024-03-05", Time: "9am"}, "time"},
	}
	for _, tc := range cases {
		_, err := tc.in.Normalize()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %v", tc.name, tc.field, err)
		}
	}
}

func TestEventJSONShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Event{ID: "lt1abc", Title: "Lunch", Date: "2024-03-05"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"id":"lt1abc","title":"Lunch","date":"2024-03-05","time":""}`; got != want {
		t.Fatalf("json: got %s want %s", got, want)
	}
}
