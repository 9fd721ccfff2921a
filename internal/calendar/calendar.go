// Package calendar lays out one month as a Sunday-first grid and annotates
// each day with its events.
package calendar

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"pulse-cli/internal/dates"
	"pulse-cli/internal/model"
)

// MaxVisiblePerDay is how many events a day cell lists before "+N more".
const MaxVisiblePerDay = 3

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Weekdays is the fixed column header, Sunday first.
func Weekdays() []string {
	return slices.Clone(weekdays)
}

// Cell is one grid position. Blank cells pad the first row; they carry no
// day and cannot be activated.
type Cell struct {
	Blank bool `json:"blank"`
	Day   int  `json:"day,omitempty"`
	// Date is the ISO key of the day.
	Date  string `json:"date,omitempty"`
	Today bool   `json:"today,omitempty"`
	// Events holds at most MaxVisiblePerDay entries.
	Events []model.Event `json:"events,omitempty"`
	// More counts events beyond the visible ones.
	More  int `json:"more,omitempty"`
	Total int `json:"total,omitempty"`
}

// Activate yields the cell's date so a form can be pre-filled with it.
func (c Cell) Activate() (string, bool) {
	if c.Blank || c.Date == "" {
		return "", false
	}
	return c.Date, true
}

// MoreLabel is "+N more", or "" when every event is visible.
func (c Cell) MoreLabel() string {
	if c.More <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", c.More)
}

type Month struct {
	Year int `json:"year"`
	// Month is zero-based (0 = January).
	Month       int      `json:"month"`
	Label       string   `json:"label"`
	Weekdays    []string `json:"weekdays"`
	Leading     int      `json:"leading"`
	DaysInMonth int      `json:"daysInMonth"`
	// Cells is Leading blanks followed by one cell per day. The last row is
	// not padded.
	Cells []Cell `json:"cells"`
}

// Weeks splits Cells into rows of seven; the final row may be short.
func (m Month) Weeks() [][]Cell {
	var out [][]Cell
	for i := 0; i < len(m.Cells); i += 7 {
		out = append(out, m.Cells[i:min(i+7, len(m.Cells))])
	}
	return out
}

// BuildMonth lays out year/month0 (zero-based). today marks the matching cell
// by calendar day in today's location.
func BuildMonth(year, month0 int, events []model.Event, today time.Time) Month {
	year, month0 = dates.AddMonths(year, month0, 0)
	m := time.Month(month0 + 1)
	leading := dates.FirstWeekday(year, m)
	days := dates.DaysInMonth(year, m)

	prefix := fmt.Sprintf("%04d-%02d-", year, int(m))
	byDate := map[string][]model.Event{}
	for _, e := range events {
		d := strings.TrimSpace(e.Date)
		if !strings.HasPrefix(d, prefix) {
			continue
		}
		byDate[d] = append(byDate[d], e)
	}

	todayKey := dates.ISO(today)

	cells := make([]Cell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		key := dates.Date{Year: year, Month: m, Day: day}.String()
		evs := byDate[key]
		sortWithinDay(evs)
		c := Cell{
			Day:   day,
			Date:  key,
			Today: key == todayKey,
			Total: len(evs),
		}
		if len(evs) > MaxVisiblePerDay {
			c.Events = slices.Clone(evs[:MaxVisiblePerDay])
			c.More = len(evs) - MaxVisiblePerDay
		} else if len(evs) > 0 {
			c.Events = slices.Clone(evs)
		}
		cells = append(cells, c)
	}

	return Month{
		Year:        year,
		Month:       month0,
		Label:       dates.MonthLabel(year, month0),
		Weekdays:    Weekdays(),
		Leading:     leading,
		DaysInMonth: days,
		Cells:       cells,
	}
}

// sortWithinDay puts all-day events first, then by HH:MM. Equal keys keep
// their stored order.
func sortWithinDay(evs []model.Event) {
	slices.SortStableFunc(evs, func(a, b model.Event) int {
		return strings.Compare(strings.TrimSpace(a.Time), strings.TrimSpace(b.Time))
	})
}

// Cursor is the month being viewed.
type Cursor struct {
	Year int `json:"year"`
	// Month is zero-based.
	Month int `json:"month"`
}

// Today is the cursor for now's month.
func Today(now time.Time) Cursor {
	return Cursor{Year: now.Year(), Month: int(now.Month()) - 1}
}

func (c Cursor) Prev() Cursor { return c.Shift(-1) }
func (c Cursor) Next() Cursor { return c.Shift(1) }

// Shift moves by delta months, rolling the year over.
func (c Cursor) Shift(delta int) Cursor {
	y, m := dates.AddMonths(c.Year, c.Month, delta)
	return Cursor{Year: y, Month: m}
}

func (c Cursor) Label() string {
	return dates.MonthLabel(c.Year, c.Month)
}

// String is the YYYY-MM form used by --month and URLs.
func (c Cursor) String() string {
	return fmt.Sprintf("%04d-%02d", c.Year, c.Month+1)
}

// ParseCursor accepts YYYY-MM.
func ParseCursor(s string) (Cursor, error) {
	d, err := dates.ParseDate(strings.TrimSpace(s) + "-01")
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	return Cursor{Year: d.Year, Month: int(d.Month) - 1}, nil
}
