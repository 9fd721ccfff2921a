package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"pulse-cli/internal/model"
)

const (
	fieldTitle = iota
	fieldDate
	fieldTime
	fieldCount
)

// eventForm is the add-event modal: title, date, optional time.
type eventForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newEventForm() eventForm {
	var f eventForm
	f.inputs[fieldTitle] = textinput.New()
	f.inputs[fieldTitle].Placeholder = "Title"
	f.inputs[fieldTitle].CharLimit = 200
	f.inputs[fieldTitle].Width = 40

	f.inputs[fieldDate] = textinput.New()
	f.inputs[fieldDate].Placeholder = "YYYY-MM-DD"
	f.inputs[fieldDate].CharLimit = 10
	f.inputs[fieldDate].Width = 12

	f.inputs[fieldTime] = textinput.New()
	f.inputs[fieldTime].Placeholder = "HH:MM (optional)"
	f.inputs[fieldTime].CharLimit = 5
	f.inputs[fieldTime].Width = 18
	return f
}

// reset clears every field, pre-fills the date and focuses the title.
func (f *eventForm) reset(prefillDate string) tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.inputs[fieldDate].SetValue(prefillDate)
	f.focus = fieldTitle
	return f.inputs[fieldTitle].Focus()
}

func (f *eventForm) cycle(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *eventForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// input returns the raw values; validation happens in the event store.
func (f eventForm) input() model.EventInput {
	return model.EventInput{
		Title: f.inputs[fieldTitle].Value(),
		Date:  f.inputs[fieldDate].Value(),
		Time:  f.inputs[fieldTime].Value(),
	}
}

func (f eventForm) view(width int, notice string) string {
	bodyW := modalBodyWidth(width)
	labels := [fieldCount]string{"Title", "Date", "Time"}

	var lines []string
	for i := range f.inputs {
		label := styleMuted().Render(labels[i])
		if i == f.focus {
			label = styleTitle().Render(labels[i])
		}
		lines = append(lines, label, renderInputLine(bodyW, f.inputs[i].View()), "")
	}
	if strings.TrimSpace(notice) != "" {
		lines = append(lines, styleNotice().Width(bodyW).Render(notice), "")
	}
	lines = append(lines, styleMuted().Width(bodyW).Render("tab: next field   enter: save   esc: cancel"))
	return renderModalBox(width, "New event", strings.Join(lines, "\n"))
}

func modalBodyWidth(width int) int {
	w := width - 8
	if w > 56 {
		w = 56
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderInputLine(bodyW int, inputView string) string {
	// Text inputs must stay on one visual line inside the modal.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Terminate ANSI styling so the background cannot bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Width(bodyW).
		Padding(0, 1).
		Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCellBorder).
		Padding(0, 1).
		Width(bodyW + 2)
	return box.Render(header + "\n\n" + content)
}
