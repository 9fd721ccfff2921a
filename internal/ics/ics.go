// Package ics converts events to and from iCalendar files.
package ics

import (
	"errors"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"pulse-cli/internal/dates"
	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/model"
)

const (
	productID  = "-//pulse//pulse-cli//EN"
	uidSuffix  = "@pulse"
	layoutUTC  = "20060102T150405Z"
	layoutDT   = "20060102T150405"
	layoutDate = "20060102"
)

// Export writes every event as a VEVENT. Timed events use floating local
// time (no TZID) so the wall clock survives a round-trip; all-day events use
// VALUE=DATE.
func Export(w io.Writer, events []model.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		d, err := dates.ParseDate(e.Date)
		if err != nil {
			appLog.Debug("ics export: skipping event", "id", e.ID, "err", err)
			continue
		}
		c, timed, err := dates.ParseClock(e.Time)
		if err != nil {
			appLog.Debug("ics export: skipping event", "id", e.ID, "err", err)
			continue
		}

		ve := cal.AddEvent(e.ID + uidSuffix)
		ve.SetDtStampTime(now)
		ve.SetSummary(e.Title)
		start := d.At(c, time.Local)
		if timed {
			ve.SetProperty(ical.ComponentPropertyDtStart, start.Format(layoutDT))
		} else {
			ve.SetAllDayStartAt(start)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// ImportResult holds raw inputs ready for the event store plus how many
// VEVENTs could not be used.
type ImportResult struct {
	Inputs  []model.EventInput
	Skipped int
	// Recurring counts events whose RRULE was ignored (only the first
	// occurrence is imported).
	Recurring int
}

// Import reads SUMMARY and DTSTART of every VEVENT. Times are converted to
// the local zone; DATE values become all-day events.
func Import(r io.Reader) (ImportResult, error) {
	var res ImportResult
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return res, err
	}
	for _, ve := range cal.Events() {
		in, err := inputFromVEvent(ve)
		if err != nil {
			appLog.Debug("ics import: skipping vevent", "err", err)
			res.Skipped++
			continue
		}
		if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
			res.Recurring++
		}
		res.Inputs = append(res.Inputs, in)
	}
	if res.Inputs == nil {
		res.Inputs = []model.EventInput{}
	}
	return res, nil
}

func inputFromVEvent(ve *ical.VEvent) (model.EventInput, error) {
	var in model.EventInput
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		in.Title = unescapeText(p.Value)
	}
	if strings.TrimSpace(in.Title) == "" {
		return in, errors.New("missing SUMMARY")
	}

	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return in, errors.New("missing DTSTART")
	}
	val := strings.TrimSpace(p.Value)

	allDay := !strings.Contains(val, "T")
	loc := time.Local
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			allDay = true
		}
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if l, err := time.LoadLocation(tzs[0]); err == nil {
				loc = l
			} else {
				appLog.Debug("ics import: unknown TZID, using local", "tzid", tzs[0])
			}
		}
	}

	if allDay {
		t, err := time.ParseInLocation(layoutDate, val[:min(len(val), len(layoutDate))], time.Local)
		if err != nil {
			return in, err
		}
		in.Date = dates.ISO(t)
		return in, nil
	}

	if strings.HasSuffix(val, "Z") {
		t, err := time.Parse(layoutUTC, val)
		if err != nil {
			return in, err
		}
		return withInstant(in, t.In(time.Local)), nil
	}
	t, err := time.ParseInLocation(layoutDT, val, loc)
	if err != nil {
		return in, err
	}
	return withInstant(in, t.In(time.Local)), nil
}

func withInstant(in model.EventInput, t time.Time) model.EventInput {
	in.Date = dates.ISO(t)
	in.Time = t.Format("15:04")
	return in
}

var textUnescaper = strings.NewReplacer(`\n`, " ", `\N`, " ", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(s string) string {
	return strings.TrimSpace(textUnescaper.Replace(s))
}
