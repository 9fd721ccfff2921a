package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pulse-cli/internal/app"
	"pulse-cli/internal/calendar"
	"pulse-cli/internal/debounce"
	"pulse-cli/internal/docs"
	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/model"
)

// reloadInterval is how often the TUI looks for writes made by the CLI or the
// web server.
const reloadInterval = 2 * time.Second

const (
	headerLines = 2
	footerLines = 2
	// detailedGridLines is label + weekday header + six weeks of full cells.
	detailedGridLines = 2 + 6*(2+calendar.MaxVisiblePerDay)
)

type filterAppliedMsg struct{ filter string }

type reloadTickMsg time.Time

type eventItem struct{ ev model.Event }

func (i eventItem) FilterValue() string { return i.ev.Title }
func (i eventItem) Title() string       { return i.ev.Title }
func (i eventItem) Description() string { return whenLabel(i.ev) }

type appModel struct {
	ctx   context.Context
	shell *app.Shell

	width  int
	height int

	list      list.Model
	home      app.HomeView
	filter    textinput.Model
	filtering bool
	debouncer *debounce.Debouncer
	filterCh  chan string

	form eventForm

	selDay int

	showHelp bool
	help     viewport.Model

	revision string
	status   string
}

func newAppModel(ctx context.Context, shell *app.Shell, filterDelay time.Duration) appModel {
	l := list.New(nil, newEventDelegate(), 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "filter"
	fi.CharLimit = 100
	fi.Width = 40

	m := appModel{
		ctx:       ctx,
		shell:     shell,
		list:      l,
		filter:    fi,
		debouncer: debounce.New(filterDelay),
		filterCh:  make(chan string, 1),
		form:      newEventForm(),
		help:      viewport.New(0, 0),
	}
	m.refresh()
	m.selDay = m.defaultDay()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(listenFilter(m.ctx, m.filterCh), reloadTick())
}

// listenFilter delivers the next debounced filter value. It is re-armed after
// every message.
func listenFilter(ctx context.Context, ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-ch:
			return filterAppliedMsg{filter: f}
		case <-ctx.Done():
			return nil
		}
	}
}

func reloadTick() tea.Cmd {
	return tea.Tick(reloadInterval, func(t time.Time) tea.Msg { return reloadTickMsg(t) })
}

// sendFilter replaces any value the listener has not picked up yet.
func (m appModel) sendFilter(v string) {
	select {
	case <-m.filterCh:
	default:
	}
	select {
	case m.filterCh <- v:
	default:
	}
}

func (m *appModel) refresh() {
	m.home = m.shell.Home(m.ctx)
	items := make([]list.Item, 0, len(m.home.Events))
	for _, e := range m.home.Events {
		items = append(items, eventItem{ev: e})
	}
	m.list.SetItems(items)
	m.revision = m.shell.Revision(m.ctx)
	if m.selDay > m.month().DaysInMonth {
		m.selDay = m.month().DaysInMonth
	}
}

func (m appModel) month() calendar.Month {
	return m.shell.Calendar(m.ctx)
}

// defaultDay is today when the cursor is on the current month, else the 1st.
func (m appModel) defaultDay() int {
	now := m.shell.Now()
	st := m.shell.State()
	if st.Cursor == calendar.Today(now) {
		return now.Day()
	}
	return 1
}

func (m *appModel) resize() {
	h := m.height - headerLines - footerLines - 2
	if h < 2 {
		h = 2
	}
	m.list.SetSize(m.width, h)
	m.help.Width = m.width
	m.help.Height = m.height - headerLines - footerLines
	if m.filter.Width = m.width - 6; m.filter.Width < 10 {
		m.filter.Width = 10
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		if m.showHelp {
			m.help.SetContent(m.helpContent())
		}
		return m, nil

	case filterAppliedMsg:
		m.shell.SetFilter(msg.filter)
		m.refresh()
		return m, listenFilter(m.ctx, m.filterCh)

	case reloadTickMsg:
		if rev := m.shell.Revision(m.ctx); rev != m.revision {
			appLog.Debug("events changed on disk; reloading")
			m.refresh()
		}
		applyDark(m.shell.ReloadTheme(m.ctx))
		return m, reloadTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.showHelp:
			return m.updateHelp(msg)
		case m.shell.State().FormOpen:
			return m.updateForm(msg)
		case m.filtering:
			return m.updateFilter(msg)
		case m.shell.State().View == app.ViewCalendar:
			return m.updateCalendar(msg)
		default:
			return m.updateHome(msg)
		}
	}
	return m, nil
}

// updateGlobal handles keys shared by both views. handled is false when the
// key belongs to the view.
func (m appModel) updateGlobal(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m, tea.Quit, true
	case "n":
		m.shell.OpenForm()
		cmd := m.form.reset("")
		return m, cmd, true
	case "t":
		dark := m.shell.ToggleTheme(m.ctx)
		applyDark(dark)
		m.status = "theme: " + themeLabel(dark)
		return m, nil, true
	case "?":
		m.showHelp = true
		m.help.SetContent(m.helpContent())
		m.help.GotoTop()
		return m, nil, true
	case "tab":
		if m.shell.State().View == app.ViewHome {
			m.shell.SetView(app.ViewCalendar)
			m.selDay = m.defaultDay()
		} else {
			m.shell.SetView(app.ViewHome)
		}
		m.status = ""
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if next, cmd, ok := m.updateGlobal(msg); ok {
		return next, cmd
	}
	switch msg.String() {
	case "/":
		m.filtering = true
		cmd := m.filter.Focus()
		return m, cmd
	case "d", "delete":
		it, ok := m.list.SelectedItem().(eventItem)
		if !ok {
			return m, nil
		}
		if m.shell.Delete(m.ctx, it.ev.ID) {
			m.status = fmt.Sprintf("deleted %q", it.ev.Title)
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m appModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.filtering = false
		m.filter.Blur()
		m.debouncer.Flush()
		return m, nil
	}
	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if v := m.filter.Value(); v != before {
		m.debouncer.Trigger(func() { m.sendFilter(v) })
	}
	return m, cmd
}

func (m appModel) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if next, cmd, ok := m.updateGlobal(msg); ok {
		return next, cmd
	}
	last := m.month().DaysInMonth
	switch msg.String() {
	case "left", "h":
		m.selDay--
	case "right", "l":
		m.selDay++
	case "up", "k":
		m.selDay -= 7
	case "down", "j":
		m.selDay += 7
	case "[", "pgup":
		m.shell.PrevMonth()
		last = m.month().DaysInMonth
	case "]", "pgdown":
		m.shell.NextMonth()
		last = m.month().DaysInMonth
	case ".":
		m.shell.ThisMonth()
		m.selDay = m.defaultDay()
	case "enter":
		cell, ok := m.selectedCell()
		if !ok {
			return m, nil
		}
		if st, ok := m.shell.ActivateDay(cell); ok {
			cmd := m.form.reset(st.Prefill)
			return m, cmd
		}
		return m, nil
	default:
		return m, nil
	}
	m.selDay = max(1, min(m.selDay, last))
	return m, nil
}

func (m appModel) selectedCell() (calendar.Cell, bool) {
	for _, c := range m.month().Cells {
		if !c.Blank && c.Day == m.selDay {
			return c, true
		}
	}
	return calendar.Cell{}, false
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.shell.CloseForm()
		return m, nil
	case "tab", "down":
		cmd := m.form.cycle(1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.form.cycle(-1)
		return m, cmd
	case "enter":
		ev, err := m.shell.Submit(m.ctx, m.form.input())
		if err != nil {
			return m, nil
		}
		m.status = fmt.Sprintf("added %q on %s", ev.Title, whenLabel(ev))
		m.refresh()
		return m, nil
	}
	cmd := m.form.update(msg)
	return m, cmd
}

func (m appModel) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		m.showHelp = false
		return m, nil
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

func (m appModel) helpContent() string {
	md, _ := docs.Get("keys")
	return RenderMarkdown(md, m.width, m.shell.State().Dark)
}

func (m appModel) View() string {
	st := m.shell.State()
	var b strings.Builder
	b.WriteString(m.viewHeader(st))
	b.WriteString("\n\n")

	bodyH := max(m.height-headerLines-footerLines, 1)
	var body string
	switch {
	case m.showHelp:
		body = m.help.View()
	case st.View == app.ViewCalendar:
		body = m.viewCalendar(bodyH)
	default:
		body = m.viewHome(st)
	}
	if st.FormOpen {
		modal := m.form.view(m.width, st.Notice)
		if m.width > 0 {
			body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, modal)
		} else {
			body = modal
		}
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.viewFooter(st))
	return b.String()
}

func (m appModel) viewHeader(st app.State) string {
	tabs := lipgloss.JoinHorizontal(lipgloss.Top,
		styleTab(st.View == app.ViewHome).Render("Upcoming"),
		" ",
		styleTab(st.View == app.ViewCalendar).Render("Calendar"),
	)
	return tabs + "  " + styleMuted().Render(themeLabel(st.Dark))
}

func (m appModel) viewHome(st app.State) string {
	var b strings.Builder
	if m.filtering || st.Filter != "" {
		b.WriteString(m.filter.View())
	} else {
		b.WriteString(styleMuted().Render("/ filter"))
	}
	b.WriteString("\n")
	if m.home.Empty {
		if strings.TrimSpace(st.Filter) != "" {
			b.WriteString(styleMuted().Render(fmt.Sprintf("No events match %q.", st.Filter)))
		} else {
			b.WriteString(styleMuted().Render("No upcoming events. Press n to add one."))
		}
		return b.String()
	}
	b.WriteString(m.list.View())
	return b.String()
}

func (m appModel) viewCalendar(bodyH int) string {
	compact := bodyH < detailedGridLines || m.width < 7*minCellWidthDetails
	return RenderMonth(m.month(), GridOptions{Width: m.width, Selected: m.selDay, Compact: compact})
}

func (m appModel) viewFooter(st app.State) string {
	var hints string
	switch {
	case m.showHelp:
		hints = "esc: close help"
	case st.FormOpen:
		hints = "tab: next field  enter: save  esc: cancel"
	case m.filtering:
		hints = "enter/esc: done"
	case st.View == app.ViewCalendar:
		hints = "←↑↓→: day  [ ]: month  .: today  enter: add on day  tab: upcoming  ?: help"
	default:
		hints = "/: filter  n: add  d: delete  tab: calendar  t: theme  ?: help  q: quit"
	}
	line := styleMuted().Render(hints)
	if m.status != "" && !st.FormOpen {
		line = m.status + "\n" + line
	} else {
		line = "\n" + line
	}
	return line
}

func themeLabel(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
