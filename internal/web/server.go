package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/starfederation/datastar-go/datastar"

	"pulse-cli/internal/agenda"
	"pulse-cli/internal/app"
	"pulse-cli/internal/calendar"
	"pulse-cli/internal/docs"
	appLog "pulse-cli/internal/log"
	"pulse-cli/internal/model"
	"pulse-cli/internal/store"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

type ServerConfig struct {
	Shell     *app.Shell
	BasicAuth *store.BasicAuth
	// Poll is how often open streams check for writes made by other
	// processes. Defaults to one second.
	Poll time.Duration
}

type Server struct {
	cfg   ServerConfig
	tmpl  *template.Template
	hub   *hub
	watch *watcher

	mu   sync.Mutex
	cron *cron.Cron
}

// signals mirrors the browser-side datastar signal store.
type signals struct {
	Filter     string `json:"filter"`
	Month      string `json:"month"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	SystemDark *bool  `json:"systemDark,omitempty"`
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Shell == nil {
		return nil, errors.New("web: missing shell")
	}
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
		"when": agenda.When,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, tmpl: tmpl, hub: newHub()}
	s.watch = newWatcher(cfg.Shell.Revision, s.hub, cfg.Poll)
	s.watch.start()
	return s, nil
}

// Close stops the change watcher and any backup schedule, waiting for a
// running backup to finish.
func (s *Server) Close() {
	s.watch.stop()
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /help", s.handleHelp)
	mux.HandleFunc("GET /help/{topic}", s.handleHelp)

	// Datastar endpoints answer with SSE patches.
	mux.HandleFunc("GET /upcoming", s.handleUpcoming)
	mux.HandleFunc("GET /calendar", s.handleCalendar)
	mux.HandleFunc("GET /refresh", s.handleRefresh)
	mux.HandleFunc("GET /stream", s.handleStream)
	mux.HandleFunc("POST /events", s.handleEventCreate)
	mux.HandleFunc("DELETE /events/{id}", s.handleEventDelete)
	mux.HandleFunc("POST /theme/toggle", s.handleThemeToggle)
	mux.HandleFunc("POST /theme/system", s.handleThemeSystem)

	// Plain JSON for scripts.
	mux.HandleFunc("GET /api/events", s.handleAPIEvents)
	mux.HandleFunc("POST /api/events", s.handleAPIEventCreate)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleAPIEventDelete)
	mux.HandleFunc("GET /api/calendar", s.handleAPICalendar)
	mux.HandleFunc("GET /api/theme", s.handleAPITheme)

	return requireBasicAuth(s.cfg.BasicAuth, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// readSignals tolerates a missing signal payload; every field has a usable
// zero value.
func readSignals(r *http.Request) signals {
	var sig signals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		appLog.Debug("web: no signals", "path", r.URL.Path, "err", err)
	}
	return sig
}

// stateFor builds a per-request view state: filter and month come from the
// browser, the theme from the shared shell.
func (s *Server) stateFor(sig signals) app.State {
	now := s.cfg.Shell.Now()
	st := app.Initial(now, s.cfg.Shell.State().Dark).WithFilter(sig.Filter)
	if c, err := calendar.ParseCursor(strings.TrimSpace(sig.Month)); err == nil {
		st.Cursor = c
	}
	return st
}

type calendarVM struct {
	calendar.Month
	Weeks [][]calendar.Cell
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) renderUpcoming(ctx context.Context, st app.State) (string, error) {
	return s.renderTemplate("upcoming.html", app.Home(st, s.cfg.Shell.Events(ctx), s.cfg.Shell.Now()))
}

func (s *Server) renderCalendar(ctx context.Context, st app.State) (string, error) {
	m := app.Calendar(st, s.cfg.Shell.Events(ctx), s.cfg.Shell.Now())
	return s.renderTemplate("calendar.html", calendarVM{Month: m, Weeks: m.Weeks()})
}

type indexVM struct {
	Dark        bool
	DatastarSrc string
	Signals     string
	Upcoming    template.HTML
	Calendar    template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.stateFor(signals{})
	up, err := s.renderUpcoming(r.Context(), st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	cal, err := s.renderCalendar(r.Context(), st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sig, _ := json.Marshal(map[string]any{
		"view":     string(app.ViewHome),
		"filter":   "",
		"month":    st.Cursor.String(),
		"title":    "",
		"date":     "",
		"time":     "",
		"notice":   "",
		"formOpen": false,
		"dark":     st.Dark,
		"rev":      0,
	})
	s.writeHTMLTemplate(w, "index.html", indexVM{
		Dark:        st.Dark,
		DatastarSrc: datastarSrc,
		Signals:     string(sig),
		Upcoming:    template.HTML(up),
		Calendar:    template.HTML(cal),
	})
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

type helpVM struct {
	Dark   bool
	Topic  string
	Topics []string
	Body   template.HTML
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.PathValue("topic"))
	if topic == "" {
		topic = "keys"
	}
	body, ok := helpPage(topic)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeHTMLTemplate(w, "help.html", helpVM{
		Dark:   s.cfg.Shell.State().Dark,
		Topic:  topic,
		Topics: docs.Topics(),
		Body:   body,
	})
}

// patchViews sends both fragments on one SSE connection.
func (s *Server) patchViews(ctx context.Context, sse *datastar.ServerSentEventGenerator, st app.State) {
	if html, err := s.renderUpcoming(ctx, st); err == nil {
		_ = sse.PatchElements(html, datastar.WithSelector("#upcoming"), datastar.WithMode(datastar.ElementPatchModeOuter))
	} else {
		appLog.Error("web: render upcoming", err)
	}
	if html, err := s.renderCalendar(ctx, st); err == nil {
		_ = sse.PatchElements(html, datastar.WithSelector("#calendar"), datastar.WithMode(datastar.ElementPatchModeOuter))
	} else {
		appLog.Error("web: render calendar", err)
	}
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	st := s.stateFor(readSignals(r))
	html, err := s.renderUpcoming(r.Context(), st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)
	_ = sse.PatchElements(html, datastar.WithSelector("#upcoming"), datastar.WithMode(datastar.ElementPatchModeOuter))
}

// handleCalendar moves the browser's month with ?nav=prev|next|today.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	st := s.stateFor(readSignals(r))
	switch strings.TrimSpace(r.URL.Query().Get("nav")) {
	case "prev":
		st = st.PrevMonth()
	case "next":
		st = st.NextMonth()
	case "today":
		st = st.ThisMonth(s.cfg.Shell.Now())
	}
	html, err := s.renderCalendar(r.Context(), st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)
	_ = sse.MarshalAndPatchSignals(map[string]any{"month": st.Cursor.String()})
	_ = sse.PatchElements(html, datastar.WithSelector("#calendar"), datastar.WithMode(datastar.ElementPatchModeOuter))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	st := s.stateFor(readSignals(r))
	sse := datastar.NewSSE(w, r)
	s.patchViews(r.Context(), sse, st)
}

// handleStream holds one connection per page and bumps the "rev" signal when
// the stored events change; the page then asks /refresh with its current
// filter and month.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ch, cancel := s.hub.subscribe()
	defer cancel()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	rev := 0
	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			rev++
			_ = sse.MarshalAndPatchSignals(map[string]any{
				"rev":  rev,
				"dark": s.cfg.Shell.ReloadTheme(sse.Context()),
			})
		}
	}
}

func (s *Server) handleEventCreate(w http.ResponseWriter, r *http.Request) {
	var sig signals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}
	_, err := s.cfg.Shell.Submit(r.Context(), model.EventInput{Title: sig.Title, Date: sig.Date, Time: sig.Time})
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.MarshalAndPatchSignals(map[string]any{"notice": noticeFor(err)})
		return
	}
	_ = sse.MarshalAndPatchSignals(map[string]any{
		"title":    "",
		"date":     "",
		"time":     "",
		"notice":   "",
		"formOpen": false,
	})
	s.patchViews(r.Context(), sse, s.stateFor(sig))
	s.hub.broadcast()
}

func (s *Server) handleEventDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !s.cfg.Shell.Delete(r.Context(), id) {
		http.NotFound(w, r)
		return
	}
	sig := readSignals(r)
	sse := datastar.NewSSE(w, r)
	s.patchViews(r.Context(), sse, s.stateFor(sig))
	s.hub.broadcast()
}

func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	dark := s.cfg.Shell.ToggleTheme(r.Context())
	sse := datastar.NewSSE(w, r)
	_ = sse.MarshalAndPatchSignals(map[string]any{"dark": dark})
}

// handleThemeSystem receives the browser's prefers-color-scheme. It answers
// datastar requests with a signal patch and everything else with JSON.
func (s *Server) handleThemeSystem(w http.ResponseWriter, r *http.Request) {
	var sig signals
	if err := datastar.ReadSignals(r, &sig); err != nil || sig.SystemDark == nil {
		writeError(w, http.StatusBadRequest, "missing systemDark")
		return
	}
	followed := s.cfg.Shell.SystemThemeChanged(*sig.SystemDark)
	dark := s.cfg.Shell.State().Dark
	if r.Header.Get("Datastar-Request") == "true" {
		sse := datastar.NewSSE(w, r)
		_ = sse.MarshalAndPatchSignals(map[string]any{"dark": dark})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"dark": dark, "followed": followed}})
}

func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("all") == "1" || q.Get("all") == "true" {
		writeJSON(w, http.StatusOK, map[string]any{"data": s.cfg.Shell.Events(r.Context())})
		return
	}
	st := s.stateFor(signals{Filter: q.Get("filter")})
	home := app.Home(st, s.cfg.Shell.Events(r.Context()), s.cfg.Shell.Now())
	writeJSON(w, http.StatusOK, map[string]any{"data": home.Events})
}

func (s *Server) handleAPIEventCreate(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ev, err := s.cfg.Shell.Submit(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.broadcast()
	writeJSON(w, http.StatusCreated, map[string]any{"data": ev})
}

func (s *Server) handleAPIEventDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !s.cfg.Shell.Delete(r.Context(), id) {
		writeError(w, http.StatusNotFound, "event not found: "+id)
		return
	}
	s.hub.broadcast()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPICalendar(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month != "" {
		if _, err := calendar.ParseCursor(month); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	st := s.stateFor(signals{Month: month})
	writeJSON(w, http.StatusOK, map[string]any{"data": app.Calendar(st, s.cfg.Shell.Events(r.Context()), s.cfg.Shell.Now())})
}

func (s *Server) handleAPITheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"dark": s.cfg.Shell.State().Dark}})
}

func noticeFor(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
