package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"pulse-cli/internal/agenda"
	"pulse-cli/internal/model"
)

func whenLabel(e model.Event) string { return agenda.When(e) }

// eventDelegate renders an upcoming event as title over date/time.
type eventDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	when     lipgloss.Style
}

func newEventDelegate() eventDelegate {
	return eventDelegate{
		normal: lipgloss.NewStyle().Foreground(colorSurfaceFg),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
		when: lipgloss.NewStyle().Foreground(colorMuted),
	}
}

func (d eventDelegate) Height() int  { return 2 }
func (d eventDelegate) Spacing() int { return 1 }
func (d eventDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d eventDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		fmt.Fprint(w, "\n")
		return
	}
	it, ok := item.(eventItem)
	if !ok {
		fmt.Fprint(w, "\n")
		return
	}

	marker := "  "
	style := d.normal
	if index == m.Index() {
		marker = "│ "
		style = d.selected
	}
	title := fitLine(marker+it.Title(), contentW)
	when := fitLine(marker+it.Description(), contentW)
	fmt.Fprint(w, style.Render(title)+"\n"+d.when.Render(when))
}

// fitLine pads or cuts s to exactly w cells.
func fitLine(s string, w int) string {
	sw := xansi.StringWidth(s)
	switch {
	case sw < w:
		return s + strings.Repeat(" ", w-sw)
	case sw > w:
		return xansi.Truncate(s, w, "…")
	}
	return s
}
