package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse-cli/internal/app"
	"pulse-cli/internal/model"
	"pulse-cli/internal/store"
	"pulse-cli/internal/theme"
)

func newTestServer(t *testing.T, auth *store.BasicAuth, seed ...model.EventInput) (*Server, *app.Shell) {
	t.Helper()
	ctx := context.Background()
	kv := store.NewAdapter(store.NewMemoryBackend())
	events := store.NewEventStore(kv)
	for _, in := range seed {
		if _, err := events.Add(ctx, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.Local)
	sh := app.NewShell(ctx, app.Options{
		Events: events,
		Theme:  theme.NewResolver(kv, func() bool { return false }),
		Now:    func() time.Time { return now },
	})
	srv, err := NewServer(ServerConfig{Shell: sh, BasicAuth: auth, Poll: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, sh
}

func datastarGet(path string, sig map[string]any) *http.Request {
	b, _ := json.Marshal(sig)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	req := httptest.NewRequest(http.MethodGet, path+sep+"datastar="+url.QueryEscape(string(b)), nil)
	req.Header.Set("Datastar-Request", "true")
	return req
}

func datastarSend(method, path string, sig map[string]any) *http.Request {
	b, _ := json.Marshal(sig)
	req := httptest.NewRequest(method, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Datastar-Request", "true")
	return req
}

func TestIndexRendersUpcomingAndCalendar(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil,
		model.EventInput{Title: "Dentist", Date: "2024-03-20", Time: "08:30"},
		model.EventInput{Title: "Last year", Date: "2023-03-20"},
	)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`id="upcoming"`, `id="calendar"`, "Dentist", "Mar 20, 2024 • 08:30", "March 2024", datastarSrc} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in index", want)
		}
	}
	if strings.Contains(body, "Last year") {
		t.Fatalf("past event must not be listed")
	}
}

func TestUpcomingFilterPatch(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil,
		model.EventInput{Title: "Team lunch", Date: "2024-03-20"},
		model.EventInput{Title: "Dentist", Date: "2024-03-21"},
	)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, datastarGet("/upcoming", map[string]any{"filter": "LUNCH"}))
	body := rr.Body.String()
	if !strings.Contains(body, "datastar-patch-elements") {
		t.Fatalf("expected an element patch, got:\n%s", body)
	}
	if !strings.Contains(body, "Team lunch") || strings.Contains(body, "Dentist") {
		t.Fatalf("filter not applied:\n%s", body)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, datastarGet("/upcoming", map[string]any{"filter": "zzz"}))
	if !strings.Contains(rr.Body.String(), "No events match") {
		t.Fatalf("expected empty-filter message:\n%s", rr.Body.String())
	}
}

func TestCalendarNavigation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, datastarGet("/calendar?nav=next", map[string]any{"month": "2024-12"}))
	body := rr.Body.String()
	if !strings.Contains(body, "January 2025") {
		t.Fatalf("expected rollover to January 2025:\n%s", body)
	}
	if !strings.Contains(body, `"month":"2025-01"`) {
		t.Fatalf("expected month signal patch:\n%s", body)
	}
}

func TestCreateEventViaDatastar(t *testing.T) {
	t.Parallel()

	srv, sh := newTestServer(t, nil)
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, datastarSend(http.MethodPost, "/events", map[string]any{"title": "Lunch", "date": "", "time": ""}))
	if !strings.Contains(rr.Body.String(), "date is required") {
		t.Fatalf("expected validation notice:\n%s", rr.Body.String())
	}
	if n := len(sh.Events(context.Background())); n != 0 {
		t.Fatalf("expected nothing stored, got %d", n)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, datastarSend(http.MethodPost, "/events", map[string]any{"title": "Lunch", "date": "2024-03-18", "time": "12:00", "month": "2024-03"}))
	body := rr.Body.String()
	if !strings.Contains(body, `"formOpen":false`) || !strings.Contains(body, "Lunch") {
		t.Fatalf("expected reset signals and patched views:\n%s", body)
	}
	evs := sh.Events(context.Background())
	if len(evs) != 1 || evs[0].Time != "12:00" {
		t.Fatalf("unexpected events: %+v", evs)
	}
}

func TestDeleteEvent(t *testing.T) {
	t.Parallel()

	srv, sh := newTestServer(t, nil, model.EventInput{Title: "Gone soon", Date: "2024-03-20"})
	h := srv.Handler()
	id := sh.Events(context.Background())[0].ID

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, datastarSend(http.MethodDelete, "/events/"+id, map[string]any{}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(sh.Events(context.Background())) != 0 {
		t.Fatalf("expected event deleted")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/events/"+id, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rr.Code)
	}
}

func TestAPIEvents(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"title":"Review","date":"2024-04-02","time":"15:00"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"title":"Bad","date":"2024-02-30"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	var env struct {
		Data []model.Event `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].Title != "Review" {
		t.Fatalf("unexpected data: %+v", env.Data)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/calendar?month=2024-13", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", rr.Code)
	}
}

func TestThemeEndpoints(t *testing.T) {
	t.Parallel()

	srv, sh := newTestServer(t, nil)
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/theme/system", strings.NewReader(`{"systemDark":true}`)))
	if rr.Code != http.StatusOK || !sh.State().Dark {
		t.Fatalf("expected system dark to be followed, code=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, datastarSend(http.MethodPost, "/theme/toggle", map[string]any{}))
	if sh.State().Dark {
		t.Fatalf("expected toggle to light")
	}
	if !strings.Contains(rr.Body.String(), `"dark":false`) {
		t.Fatalf("expected dark signal patch:\n%s", rr.Body.String())
	}

	// An explicit choice stops following the system.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/theme/system", strings.NewReader(`{"systemDark":true}`)))
	if sh.State().Dark {
		t.Fatalf("explicit light must survive a system change")
	}
}

func TestHelpRendersMarkdown(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/help/keys", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<table>") {
		t.Fatalf("expected rendered markdown table, code=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `<h2 id="calendar">`) {
		t.Fatalf("expected heading anchors in help page")
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/help/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &store.BasicAuth{Username: "me", Password: "secret"})
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("me", "secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rr.Code)
	}
}

func TestNoAuthByDefault(t *testing.T) {
	t.Parallel()

	for _, auth := range []*store.BasicAuth{nil, {Username: " ", Password: "x"}} {
		srv, _ := newTestServer(t, auth)
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("auth %+v: expected an open server, got %d", auth, rr.Code)
		}
	}
}

func TestWatcherBroadcastsOnRevisionChange(t *testing.T) {
	t.Parallel()

	srv, sh := newTestServer(t, nil)
	ch, cancel := srv.hub.subscribe()
	defer cancel()

	if _, err := sh.Submit(context.Background(), model.EventInput{Title: "Elsewhere", Date: "2024-03-22"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a change notification")
	}
}

func TestStartBackups(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	if err := srv.StartBackups("not a cron spec", func() error { return nil }); err == nil {
		t.Fatalf("expected invalid spec error")
	}
	if err := srv.StartBackups("", nil); err != nil {
		t.Fatalf("empty spec should be a no-op: %v", err)
	}
	if err := srv.StartBackups("@every 1h", func() error { return nil }); err != nil {
		t.Fatalf("StartBackups: %v", err)
	}
}

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func TestStreamKeepsBrowserSystemTheme(t *testing.T) {
	t.Parallel()

	srv, sh := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/theme/system", strings.NewReader(`{"systemDark":true}`)))
	if !sh.State().Dark {
		t.Fatalf("expected the browser's dark scheme to be followed")
	}

	resp, err := http.Get(ts.URL + "/stream")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := sh.Submit(context.Background(), model.EventInput{Title: "Added", Date: "2024-03-18"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed early")
			}
			if !strings.Contains(line, `"rev"`) {
				continue
			}
			if !strings.Contains(line, `"dark":true`) {
				t.Fatalf("change tick flipped the theme: %s", line)
			}
			return
		case <-timeout:
			t.Fatalf("expected a rev patch after the write")
		}
	}
}

func TestWatcherSeesWriteRightAfterStart(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	rev := "a"
	revision := func(context.Context) string {
		mu.Lock()
		defer mu.Unlock()
		return rev
	}
	h := newHub()
	ch, cancel := h.subscribe()
	defer cancel()

	w := newWatcher(revision, h, 5*time.Millisecond)
	w.start()
	defer w.stop()

	mu.Lock()
	rev = "b"
	mu.Unlock()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the first write after start to be broadcast")
	}
}
