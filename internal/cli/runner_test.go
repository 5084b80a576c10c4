package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/idilsaglam/todo/internal/auth"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/server"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/ui"
)

type env struct {
	t      *testing.T
	cfg    *config.Config
	repo   *store.Memory
	stdin  string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// newEnv starts an API server that accepts "secret" and points a config
// at it. The session starts logged in with token.
func newEnv(t *testing.T, token string) *env {
	t.Helper()
	t.Setenv(auth.EnvToken, "")
	ui.SetTheme("mono")
	t.Cleanup(func() { ui.SetTheme("classic") })

	repo := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(server.New(repo, server.Config{Path: "/api/todos", Token: "secret"}, logger).Handler())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Auth.Dir = t.TempDir()
	if token != "" {
		if err := auth.NewStore(cfg.Auth.Dir).Set(token); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	return &env{t: t, cfg: cfg, repo: repo}
}

func (e *env) run(args ...string) int {
	e.stdout.Reset()
	e.stderr.Reset()
	return Run(context.Background(), args, Options{
		Config: e.cfg,
		Stdin:  strings.NewReader(e.stdin),
		Stdout: &e.stdout,
		Stderr: &e.stderr,
	})
}

func (e *env) seed(titles ...string) {
	for _, title := range titles {
		if _, err := e.repo.Create(context.Background(), title); err != nil {
			e.t.Fatalf("seed: %v", err)
		}
	}
}

func TestAddAndList(t *testing.T) {
	e := newEnv(t, "secret")
	if code := e.run("add", "buy", "milk"); code != 0 {
		t.Fatalf("add exit %d: %s", code, e.stderr.String())
	}
	if !strings.Contains(e.stdout.String(), "added") {
		t.Errorf("stdout = %q", e.stdout.String())
	}

	if code := e.run("ls", "--plain"); code != 0 {
		t.Fatalf("ls exit %d: %s", code, e.stderr.String())
	}
	out := e.stdout.String()
	for _, want := range []string{"buy milk", "1 left", "[ ]", "#1"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}
}

func TestListGrouped(t *testing.T) {
	e := newEnv(t, "secret")
	e.seed("pending one", "finished one")
	if err := e.repo.SetDone(context.Background(), 2, true); err != nil {
		t.Fatal(err)
	}

	if code := e.run("ls", "--plain", "--group"); code != 0 {
		t.Fatalf("exit %d: %s", code, e.stderr.String())
	}
	out := e.stdout.String()
	pending := strings.Index(out, "Pending")
	done := strings.Index(out, "Done")
	if pending < 0 || done < 0 || pending > done {
		t.Fatalf("sections missing or out of order:\n%s", out)
	}
	if i := strings.Index(out, "finished one"); i < done {
		t.Errorf("done item listed before the Done section:\n%s", out)
	}
}

func TestToggleUsesCurrentState(t *testing.T) {
	e := newEnv(t, "secret")
	e.seed("a")

	if code := e.run("done", "1"); code != 0 {
		t.Fatalf("exit %d: %s", code, e.stderr.String())
	}
	items, _ := e.repo.List(context.Background())
	if !items[0].Done {
		t.Fatal("item not done after first toggle")
	}
	if code := e.run("done", "1"); code != 0 {
		t.Fatalf("exit %d: %s", code, e.stderr.String())
	}
	items, _ = e.repo.List(context.Background())
	if items[0].Done {
		t.Fatal("item still done after second toggle")
	}
}

func TestRemove(t *testing.T) {
	e := newEnv(t, "secret")
	e.seed("a", "b")
	if code := e.run("rm", "1"); code != 0 {
		t.Fatalf("exit %d: %s", code, e.stderr.String())
	}
	items, _ := e.repo.List(context.Background())
	if len(items) != 1 || items[0].Title != "b" {
		t.Fatalf("items = %v", items)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		args   []string
		code   int
		stderr string
	}{
		{"no args", "secret", nil, 2, ""},
		{"unknown", "secret", []string{"frobnicate"}, 2, "unknown subcommand"},
		{"add without title", "secret", []string{"add"}, 2, "usage"},
		{"done not a number", "secret", []string{"done", "x"}, 2, "not a number"},
		{"done unknown id", "secret", []string{"done", "42"}, 2, "no item with id 42"},
		{"rm unknown id", "secret", []string{"rm", "42"}, 1, "rm"},
		{"wrong token", "nope", []string{"ls", "--plain"}, 2, "requires login"},
		{"not logged in", "", []string{"add", "x"}, 2, "no token found"},
		{"bad auth subcommand", "secret", []string{"auth", "sudo"}, 2, "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.token)
			if code := e.run(tt.args...); code != tt.code {
				t.Fatalf("exit = %d, want %d (stderr %q)", code, tt.code, e.stderr.String())
			}
			if !strings.Contains(e.stderr.String(), tt.stderr) {
				t.Errorf("stderr = %q, want it to contain %q", e.stderr.String(), tt.stderr)
			}
		})
	}
}

func TestServerErrorExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := newEnv(t, "secret")
	e.cfg.API.BaseURL = srv.URL
	if code := e.run("ls", "--plain"); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(e.stderr.String(), "administrator") {
		t.Errorf("stderr = %q", e.stderr.String())
	}
}

func TestAuthLoginStatusLogout(t *testing.T) {
	e := newEnv(t, "")

	if code := e.run("auth", "status"); code != 0 || !strings.Contains(e.stdout.String(), "not logged in") {
		t.Fatalf("status before login: %d %q", code, e.stdout.String())
	}

	e.stdin = "secret\n"
	if code := e.run("auth", "login"); code != 0 {
		t.Fatalf("login exit %d: %s", code, e.stderr.String())
	}
	if code := e.run("add", "after login"); code != 0 {
		t.Fatalf("add after login exit %d: %s", code, e.stderr.String())
	}

	if code := e.run("auth", "status"); code != 0 || !strings.Contains(e.stdout.String(), "source: file") {
		t.Fatalf("status after login: %d %q", code, e.stdout.String())
	}
	if code := e.run("auth", "whoami"); code != 0 || !strings.Contains(e.stdout.String(), "Opaque token") {
		t.Fatalf("whoami: %d %q", code, e.stdout.String())
	}

	if code := e.run("auth", "logout"); code != 0 {
		t.Fatalf("logout exit %d", code)
	}
	if code := e.run("add", "x"); code != 2 {
		t.Fatalf("add after logout exit = %d, want 2", code)
	}
}
