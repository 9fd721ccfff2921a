package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"pulse-cli/internal/calendar"
)

type GridOptions struct {
	// Width is the total width available; each column gets Width/7.
	Width int
	// Selected is the highlighted day number (0 = none).
	Selected int
	// Compact renders day numbers only, one line per week.
	Compact bool
}

const (
	minCellWidth        = 4
	minCellWidthDetails = 10
)

func (o GridOptions) cellWidth() int {
	w := o.Width / 7
	floor := minCellWidthDetails
	if o.Compact {
		floor = minCellWidth
	}
	if w < floor {
		w = floor
	}
	return w
}

// RenderMonth draws the month as a Sunday-first grid. The last week is not
// padded with trailing cells.
func RenderMonth(m calendar.Month, opts GridOptions) string {
	cellW := opts.cellWidth()
	pad := lipgloss.NewStyle().Width(cellW).MaxWidth(cellW)

	var b strings.Builder
	b.WriteString(styleTitle().Render(m.Label))
	b.WriteString("\n")

	var header strings.Builder
	for _, wd := range m.Weekdays {
		header.WriteString(styleMuted().Width(cellW).Render(" " + wd))
	}
	b.WriteString(header.String())

	linesPerCell := 1
	if !opts.Compact {
		linesPerCell = 2 + calendar.MaxVisiblePerDay
	}

	for _, week := range m.Weeks() {
		rows := make([]strings.Builder, linesPerCell)
		for _, c := range week {
			lines := cellLines(c, cellW, linesPerCell, opts.Selected)
			for i := range rows {
				rows[i].WriteString(pad.Render(lines[i]))
			}
		}
		for i := range rows {
			b.WriteString("\n")
			b.WriteString(rows[i].String())
		}
	}
	return b.String()
}

func cellLines(c calendar.Cell, cellW, n int, selected int) []string {
	lines := make([]string, n)
	if c.Blank {
		return lines
	}

	num := fmt.Sprintf("%2d", c.Day)
	if c.Total > 0 && n == 1 {
		// Compact mode has no room for titles; mark busy days instead.
		num += "•"
	}
	st := lipgloss.NewStyle()
	switch {
	case c.Day == selected:
		st = st.Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	case c.Today:
		st = st.Bold(true).Foreground(colorAccentFg).Background(colorAccent)
	}
	lines[0] = " " + st.Render(num)
	if n == 1 {
		return lines
	}

	for i, e := range c.Events {
		label := e.Title
		if t := strings.TrimSpace(e.Time); t != "" {
			label = t + " " + label
		}
		lines[1+i] = " " + xansi.Truncate(label, cellW-2, "…")
	}
	if more := c.MoreLabel(); more != "" {
		lines[n-1] = " " + styleMuted().Render(xansi.Truncate(more, cellW-2, "…"))
	}
	return lines
}
