package tui

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/auth"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/todolist"
	"github.com/idilsaglam/todo/internal/ui"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

// fakeServer is a minimal todo API. When token is set, other bearer
// tokens get 403. A non-zero status short-circuits every request.
type fakeServer struct {
	mu       sync.Mutex
	token    string
	status   int
	todos    []model.Item
	nextID   int64
	requests []recorded
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})

	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var in struct{ Title string }
		json.Unmarshal(body, &in)
		f.nextID++
		f.todos = append(f.todos, model.Item{ID: f.nextID, Title: in.Title})
	case http.MethodPut:
		var in struct {
			ID   int64
			Done bool
		}
		json.Unmarshal(body, &in)
		for i := range f.todos {
			if f.todos[i].ID == in.ID {
				f.todos[i].Done = in.Done
			}
		}
	case http.MethodDelete:
		id, _ := strconv.ParseInt(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], 10, 64)
		kept := f.todos[:0]
		for _, it := range f.todos {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		f.todos = kept
	}
	json.NewEncoder(w).Encode(model.ListResponse{Todos: f.todos})
}

func (f *fakeServer) setStatus(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeServer) recorded() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

type memSession struct {
	mu    sync.Mutex
	token string
}

func (s *memSession) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memSession) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// session is what the login view writes and the API client reads.
type session interface {
	api.TokenSource
	TokenSaver
}

type harness struct {
	t       *testing.T
	app     App
	ctl     *todolist.Controller
	server  *fakeServer
	session session
	seen    []tea.Msg
}

func newHarness(t *testing.T, server *fakeServer, token string) *harness {
	t.Helper()
	return newSessionHarness(t, server, &memSession{token: token})
}

func newSessionHarness(t *testing.T, server *fakeServer, session session) *harness {
	t.Helper()
	ui.SetTheme("classic")
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)

	ctl := todolist.New(api.New(srv.URL+"/api/todos", session))
	return &harness{
		t:       t,
		app:     New(ctl, session),
		ctl:     ctl,
		server:  server,
		session: session,
	}
}

// runCmd executes cmd and flattens batches. Commands that block (cursor
// blink timers) are abandoned after a short wait.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// drain feeds cmd's messages back into the app until nothing is left.
func (h *harness) drain(cmd tea.Cmd) {
	h.t.Helper()
	queue := runCmd(cmd)
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			h.t.Fatal("message loop did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		h.seen = append(h.seen, msg)
		switch msg.(type) {
		case spinner.TickMsg, tea.QuitMsg:
			continue
		}
		next, c := h.app.Update(msg)
		h.app = next.(App)
		queue = append(queue, runCmd(c)...)
	}
}

func (h *harness) init() { h.drain(h.app.Init()) }

func (h *harness) send(msg tea.Msg) {
	next, cmd := h.app.Update(msg)
	h.app = next.(App)
	h.drain(cmd)
}

func (h *harness) view() string { return ui.Strip(h.app.View()) }

func (h *harness) count(match func(tea.Msg) bool) int {
	n := 0
	for _, msg := range h.seen {
		if match(msg) {
			n++
		}
	}
	return n
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func rows(view string) int {
	return strings.Count(view, "☐") + strings.Count(view, "☑")
}

func TestMountRendersRowsAndCount(t *testing.T) {
	h := newHarness(t, &fakeServer{todos: []model.Item{
		{ID: 1, Title: "write report"},
		{ID: 2, Title: "water plants", Done: true},
		{ID: 3, Title: "call mom"},
	}}, "tok")

	if !strings.Contains(h.view(), "loading...") {
		t.Fatalf("initial view is not the loading page:\n%s", h.view())
	}
	h.init()

	out := h.view()
	if got := rows(out); got != 3 {
		t.Errorf("rendered %d rows, want 3:\n%s", got, out)
	}
	if !strings.Contains(out, "2 left") {
		t.Errorf("header missing remaining count:\n%s", out)
	}
	for _, title := range []string{"write report", "water plants", "call mom"} {
		if !strings.Contains(out, title) {
			t.Errorf("view missing %q", title)
		}
	}
}

func TestRenderingIssuesNoRequests(t *testing.T) {
	server := &fakeServer{todos: []model.Item{{ID: 1, Title: "a"}}}
	h := newHarness(t, server, "tok")
	h.init()

	before := len(server.recorded())
	for range 3 {
		h.app.View()
	}
	if after := len(server.recorded()); after != before {
		t.Fatalf("rendering sent %d requests", after-before)
	}
}

func TestForbiddenRedirectsToLoginOnce(t *testing.T) {
	server := &fakeServer{token: "good", todos: []model.Item{{ID: 1, Title: "secret"}}}
	h := newHarness(t, server, "stale")
	h.init()

	redirects := h.count(func(msg tea.Msg) bool {
		r, ok := msg.(todolist.RedirectMsg)
		return ok && r.To == RouteLogin
	})
	if redirects != 1 {
		t.Fatalf("redirected %d times, want 1", redirects)
	}
	if h.app.Route() != RouteLogin {
		t.Fatalf("route = %q, want login", h.app.Route())
	}
	if len(h.ctl.Todos()) != 0 {
		t.Errorf("list populated after 403: %v", h.ctl.Todos())
	}
	out := h.view()
	if !strings.Contains(out, todolist.AlertLoginRequired) || strings.Contains(out, "secret") {
		t.Errorf("login view:\n%s", out)
	}

	h.send(keyRunes("good"))
	h.send(keyEnter)

	if h.app.Route() != RouteTodos {
		t.Fatalf("route after login = %q", h.app.Route())
	}
	if tok, _ := h.session.Token(); tok != "good" {
		t.Errorf("saved token = %q", tok)
	}
	if out := h.view(); rows(out) != 1 || !strings.Contains(out, "secret") {
		t.Errorf("list not reloaded after login:\n%s", out)
	}
}

func TestNoStoredTokenRedirectsToLogin(t *testing.T) {
	t.Setenv(auth.EnvToken, "")
	store := auth.NewStore(t.TempDir())
	server := &fakeServer{token: "good", todos: []model.Item{{ID: 1, Title: "secret"}}}
	h := newSessionHarness(t, server, store)
	h.init()

	if got := len(server.recorded()); got != 0 {
		t.Fatalf("requests without a token = %d, want 0", got)
	}
	if h.ctl.Phase() != todolist.AuthRequired {
		t.Fatalf("phase = %v, want auth-required", h.ctl.Phase())
	}
	if h.app.Route() != RouteLogin {
		t.Fatalf("route = %q, want login", h.app.Route())
	}
	if out := h.view(); !strings.Contains(out, todolist.AlertLoginRequired) {
		t.Errorf("login view:\n%s", out)
	}
	if out := ui.Strip(h.app.todos.View("")); strings.Contains(out, "loading...") ||
		!strings.Contains(out, todolist.AlertLoginRequired) {
		t.Errorf("todos view while auth is required:\n%s", out)
	}

	h.send(keyRunes("good"))
	h.send(keyEnter)

	if tok, err := store.Token(); err != nil || tok != "good" {
		t.Fatalf("stored token = %q, %v", tok, err)
	}
	if h.app.Route() != RouteTodos || h.ctl.Phase() != todolist.Ready {
		t.Fatalf("route = %q phase = %v after login", h.app.Route(), h.ctl.Phase())
	}
	if out := h.view(); rows(out) != 1 || !strings.Contains(out, "secret") {
		t.Errorf("list not loaded after login:\n%s", out)
	}
}

func TestServerErrorShowsAlertAndRetries(t *testing.T) {
	server := &fakeServer{status: http.StatusInternalServerError}
	h := newHarness(t, server, "tok")
	h.init()

	out := h.view()
	if !strings.Contains(out, todolist.AlertContactAdmin) {
		t.Fatalf("failure alert missing:\n%s", out)
	}
	if strings.Contains(out, "loading...") {
		t.Fatalf("still on the loading page after a failure:\n%s", out)
	}

	server.setStatus(0)
	h.send(keyRunes("r"))
	if h.ctl.Phase() != todolist.Ready {
		t.Fatalf("phase after retry = %v", h.ctl.Phase())
	}
	if got := len(server.recorded()); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestAddFromInput(t *testing.T) {
	server := &fakeServer{}
	h := newHarness(t, server, "tok")
	h.init()

	h.send(keyRunes("a"))
	h.send(keyRunes("buy milk"))
	h.send(keyEnter)

	reqs := server.recorded()
	last := reqs[len(reqs)-1]
	if len(reqs) != 2 || last.Method != http.MethodPost || last.Body != `{"title":"buy milk"}` {
		t.Fatalf("requests = %+v", reqs)
	}
	if got := h.ctl.Todos(); len(got) != 1 || got[0].Title != "buy milk" {
		t.Fatalf("todos = %v", got)
	}
	if v := h.app.todos.input.ti.Value(); v != "" {
		t.Errorf("input not cleared: %q", v)
	}
	if out := h.view(); rows(out) != 1 || !strings.Contains(out, "1 left") {
		t.Errorf("view after add:\n%s", out)
	}
}

func TestEmptyTitleNotSent(t *testing.T) {
	server := &fakeServer{}
	h := newHarness(t, server, "tok")
	h.init()

	h.send(keyRunes("a"))
	h.send(keyRunes("   "))
	h.send(keyEnter)

	if got := len(server.recorded()); got != 1 {
		t.Fatalf("requests = %d, want only the mount", got)
	}
	if !strings.Contains(h.view(), "Title cannot be empty") {
		t.Errorf("validation hint missing:\n%s", h.view())
	}
}

func TestCheckAndRemoveKeys(t *testing.T) {
	server := &fakeServer{nextID: 5, todos: []model.Item{{ID: 5, Title: "five"}}}
	h := newHarness(t, server, "tok")
	h.init()

	h.send(keySpace)
	reqs := server.recorded()
	put := reqs[len(reqs)-1]
	if put.Method != http.MethodPut || put.Body != `{"id":5,"done":true}` {
		t.Fatalf("check request = %+v", put)
	}
	if !h.ctl.Todos()[0].Done {
		t.Fatal("item not done after check")
	}
	if !strings.Contains(h.view(), "0 left") {
		t.Errorf("header not updated:\n%s", h.view())
	}

	h.send(keyRunes("d"))
	reqs = server.recorded()
	del := reqs[len(reqs)-1]
	if del.Method != http.MethodDelete || del.Path != "/api/todos/5" {
		t.Fatalf("remove request = %+v", del)
	}
	if len(h.ctl.Todos()) != 0 {
		t.Errorf("todos after remove = %v", h.ctl.Todos())
	}
}
