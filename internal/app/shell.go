package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"pulse-cli/internal/calendar"
	"pulse-cli/internal/model"
	"pulse-cli/internal/store"
	"pulse-cli/internal/theme"
)

// Shell owns the single mutable State and routes user actions to the event
// store and theme resolver. It is safe for concurrent use.
type Shell struct {
	events *store.EventStore
	theme  *theme.Resolver
	now    func() time.Time

	mu    sync.Mutex
	state State
}

type Options struct {
	Events *store.EventStore
	Theme  *theme.Resolver
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewShell resolves the theme and starts on the home view at the current month.
func NewShell(ctx context.Context, opts Options) *Shell {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dark := false
	if opts.Theme != nil {
		dark = opts.Theme.Resolve(ctx)
	}
	return &Shell{
		events: opts.Events,
		theme:  opts.Theme,
		now:    now,
		state:  Initial(now(), dark),
	}
}

func (s *Shell) Now() time.Time { return s.now() }

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shell) update(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

func (s *Shell) Events(ctx context.Context) []model.Event {
	return s.events.Events(ctx)
}

// Revision changes whenever the stored events change, in any process.
func (s *Shell) Revision(ctx context.Context) string {
	return s.events.Revision(ctx)
}

func (s *Shell) Home(ctx context.Context) HomeView {
	return Home(s.State(), s.events.Events(ctx), s.now())
}

func (s *Shell) Calendar(ctx context.Context) calendar.Month {
	return Calendar(s.State(), s.events.Events(ctx), s.now())
}

func (s *Shell) SetView(v View) State {
	return s.update(func(st State) State { return st.WithView(v) })
}

func (s *Shell) SetFilter(f string) State {
	return s.update(func(st State) State { return st.WithFilter(f) })
}

func (s *Shell) PrevMonth() State { return s.update(State.PrevMonth) }
func (s *Shell) NextMonth() State { return s.update(State.NextMonth) }

func (s *Shell) ThisMonth() State {
	now := s.now()
	return s.update(func(st State) State { return st.ThisMonth(now) })
}

// SetMonth jumps the cursor, e.g. from a --month flag or URL.
func (s *Shell) SetMonth(c calendar.Cursor) State {
	c = c.Shift(0)
	return s.update(func(st State) State {
		st.Cursor = c
		return st
	})
}

// OpenForm opens the add form empty.
func (s *Shell) OpenForm() State {
	return s.update(func(st State) State { return st.OpenForm("") })
}

// ActivateDay opens the add form pre-filled with the day's date. Blank cells
// are ignored.
func (s *Shell) ActivateDay(c calendar.Cell) (State, bool) {
	iso, ok := c.Activate()
	if !ok {
		return s.State(), false
	}
	return s.update(func(st State) State { return st.OpenForm(iso) }), true
}

func (s *Shell) CloseForm() State {
	return s.update(State.CloseForm)
}

// Submit validates raw form values and adds the event. On invalid input the
// form stays open with a notice and nothing is written.
func (s *Shell) Submit(ctx context.Context, in model.EventInput) (model.Event, error) {
	ev, err := s.events.Add(ctx, in)
	if err != nil {
		msg := err.Error()
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			msg = ve.Reason
		}
		s.update(func(st State) State { return st.WithNotice(msg) })
		return model.Event{}, err
	}
	s.update(func(st State) State { return st.CloseForm().WithNotice("") })
	return ev, nil
}

func (s *Shell) Delete(ctx context.Context, id string) bool {
	return s.events.Delete(ctx, id)
}

// ToggleTheme flips and persists the theme.
func (s *Shell) ToggleTheme(ctx context.Context) bool {
	if s.theme == nil {
		return s.update(func(st State) State { return st.WithDark(!st.Dark) }).Dark
	}
	dark := s.theme.Toggle(ctx)
	s.update(func(st State) State { return st.WithDark(dark) })
	return dark
}

func (s *Shell) SetTheme(ctx context.Context, p theme.Preference) bool {
	if s.theme == nil {
		return s.State().Dark
	}
	dark := s.theme.Set(ctx, p)
	s.update(func(st State) State { return st.WithDark(dark) })
	return dark
}

// ThemePreference is the stored choice; Unset while following the system.
func (s *Shell) ThemePreference() theme.Preference {
	if s.theme == nil {
		return theme.Unset
	}
	return s.theme.Preference()
}

// SystemThemeChanged forwards a live system preference change. It reports
// whether the displayed theme followed it.
func (s *Shell) SystemThemeChanged(dark bool) bool {
	if s.theme == nil || !s.theme.SystemChanged(dark) {
		return false
	}
	s.update(func(st State) State { return st.WithDark(dark) })
	return true
}

// ReloadTheme picks up a preference another process stored. While none is
// stored the followed system value is kept.
func (s *Shell) ReloadTheme(ctx context.Context) bool {
	if s.theme == nil {
		return s.State().Dark
	}
	dark := s.theme.Reload(ctx)
	s.update(func(st State) State { return st.WithDark(dark) })
	return dark
}
