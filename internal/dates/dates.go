// Package dates holds the calendar arithmetic shared by the list and grid
// views. Dates are parsed into explicit integer components rather than handed
// to a layout parser, so the result never depends on the process locale or on
// a UTC round-trip.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock is a wall-clock time of day. The zero value is midnight.
type Clock struct {
	Hour   int
	Minute int
}

// ParseDate parses a strict YYYY-MM-DD string and rejects impossible days
// such as 2023-02-29.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	y, err1 := atoiDigits(s[0:4])
	m, err2 := atoiDigits(s[5:7])
	d, err3 := atoiDigits(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	if m < 1 || m > 12 {
		return Date{}, fmt.Errorf("invalid date %q: month out of range", s)
	}
	if d < 1 || d > DaysInMonth(y, time.Month(m)) {
		return Date{}, fmt.Errorf("invalid date %q: day out of range", s)
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, nil
}

// ParseClock parses HH:MM (24h). An empty string is the all-day marker and
// yields midnight with ok=false.
func ParseClock(s string) (c Clock, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, false, nil
	}
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, false, fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	h, err1 := atoiDigits(s[0:2])
	mi, err2 := atoiDigits(s[3:5])
	if err1 != nil || err2 != nil || h > 23 || mi > 59 {
		return Clock{}, false, fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	return Clock{Hour: h, Minute: mi}, true, nil
}

func atoiDigits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("not a number: %q", s)
		}
	}
	return strconv.Atoi(s)
}

// FromTime takes the local calendar components of t.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String renders the ISO YYYY-MM-DD key.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At returns the instant of this date at clock c in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// Compare orders two dates chronologically (-1, 0, +1).
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Compare orders two wall-clock times (-1, 0, +1).
func (c Clock) Compare(o Clock) int {
	if c.Hour != o.Hour {
		return cmpInt(c.Hour, o.Hour)
	}
	return cmpInt(c.Minute, o.Minute)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}


// ISO returns the YYYY-MM-DD key of t from its local calendar components.
func ISO(t time.Time) string {
	return FromTime(t).String()
}

// DaysInMonth relies on day 0 of the next month being the last day of this one.
func DaysInMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday is the weekday (0=Sunday) of the first day of the month.
func FirstWeekday(y int, m time.Month) int {
	return int(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// AddMonths shifts a (year, zero-based month) pair, rolling the year over in
// either direction.
func AddMonths(year, month0, delta int) (int, int) {
	total := year*12 + month0 + delta
	y := total / 12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, m
}

// FormatHuman renders an ISO date as "Mar 5, 2024". Unparseable input is
// returned unchanged.
func FormatHuman(iso string) string {
	d, err := ParseDate(iso)
	if err != nil {
		return strings.TrimSpace(iso)
	}
	return fmt.Sprintf("%s %d, %d", d.Month.String()[:3], d.Day, d.Year)
}

// MonthLabel renders "March 2024" for a zero-based month.
func MonthLabel(year, month0 int) string {
	return fmt.Sprintf("%s %d", time.Month(month0+1).String(), year)
}
