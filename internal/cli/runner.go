package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/auth"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/todolist"
	"github.com/idilsaglam/todo/internal/tui"
	"github.com/idilsaglam/todo/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group  bool // list grouped by pending/done
	Config *config.Config
	Logger *slog.Logger

	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

type runner struct {
	opt     Options
	session *auth.Store
	client  *api.Client
}

func newRunner(opt Options) *runner {
	if opt.Config == nil {
		opt.Config = config.Default()
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	session := auth.NewStore(opt.Config.Auth.Dir)
	client := api.New(opt.Config.Endpoint(), session,
		api.WithTimeout(time.Duration(opt.Config.API.Timeout)),
		api.WithLogger(opt.Logger),
	)
	return &runner{opt: opt, session: session, client: client}
}

func (r *runner) ok(msg string)   { ui.OK(r.opt.Stdout, msg) }
func (r *runner) fail(msg string) { ui.Fail(r.opt.Stderr, msg) }
func (r *runner) hint(msg string) { ui.Hint(r.opt.Stderr, msg) }

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	r := newRunner(opt)
	if len(args) == 0 {
		PrintHelp(r.opt.Stdout)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(r.opt.Stdout)
		return 0

	case "ls":
		return r.doList(ctx, a)

	case "add":
		if len(a) == 0 {
			r.fail("usage: todo add <title...>")
			return 2
		}
		return r.doAdd(ctx, strings.Join(a, " "))

	case "done":
		id, code := r.idArg("done", a)
		if code != 0 {
			return code
		}
		return r.doToggle(ctx, id)

	case "rm":
		id, code := r.idArg("rm", a)
		if code != 0 {
			return code
		}
		return r.doRemove(ctx, id)

	case "auth":
		if len(a) == 0 {
			r.fail("usage: todo auth <login|logout|status|whoami>")
			return 2
		}
		switch a[0] {
		case "login":
			return r.doAuthLogin()
		case "logout":
			return r.doAuthLogout()
		case "status":
			return r.doAuthStatus()
		case "whoami":
			return r.doAuthWhoAmI()
		default:
			r.fail("usage: todo auth <login|logout|status|whoami>")
			return 2
		}
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.opt.Stderr)
	PrintHelp(r.opt.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `todo - a remote todo list client

Usage:
  todo [--config file] [--group] <subcommand> [args]

Subcommands:
  ls [--plain]       Show the list (interactive TUI, or printed with --plain)
  add <title...>     Add a new item (title can be multiple words)
  done <id>          Toggle done for the item with this id
  rm <id>            Remove the item with this id
  auth <login|logout|status|whoami>   Token authentication

Examples:
  todo add "Buy milk"
  todo ls
  todo ls --plain --group
  todo done 2
  todo rm 3
`)
}

func (r *runner) idArg(cmd string, a []string) (int64, int) {
	if len(a) != 1 {
		r.fail(fmt.Sprintf("usage: todo %s <id>", cmd))
		return 0, 2
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		r.fail(cmd + ": not a number: " + a[0])
		return 0, 2
	}
	return id, 0
}

// apiFail reports err and picks the exit code.
func (r *runner) apiFail(op string, err error) int {
	r.opt.Logger.Error("request failed", "op", op, "error", err)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		r.fail("no token found. Set " + auth.EnvToken + " or run `todo auth login`")
		return 2
	case errors.Is(err, api.ErrAuthRequired):
		r.fail(todolist.AlertLoginRequired)
		r.hint("Run: todo auth login")
		return 2
	case errors.Is(err, api.ErrServer):
		r.fail(fmt.Sprintf("%s: %s (%v)", op, todolist.AlertContactAdmin, err))
		return 1
	default:
		r.fail(op + ": " + err.Error())
		return 1
	}
}

// ---------------------------------------------------
// List
// ---------------------------------------------------

func (r *runner) doList(ctx context.Context, a []string) int {
	flags := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	flags.SetOutput(r.opt.Stderr)
	plain := flags.Bool("plain", false, "print the list instead of opening the TUI")
	group := flags.Bool("group", r.opt.Group, "group output by pending/done")
	if err := flags.Parse(a); err != nil {
		return 2
	}

	if !*plain {
		ctl := todolist.New(r.client,
			todolist.WithContext(ctx),
			todolist.WithLogger(r.opt.Logger),
		)
		app := tui.New(ctl, r.session, tui.WithLogger(r.opt.Logger))
		if err := tui.Run(ctx, app); err != nil {
			r.fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	items, err := r.client.List(ctx)
	if err != nil {
		return r.apiFail("ls", err)
	}
	printList(r.opt.Stdout, items, *group)
	return 0
}

func printList(w io.Writer, items []model.Item, group bool) {
	t := ui.Current()
	done, pending := model.Stats(items)
	lines := []string{
		fmt.Sprintf("%s   %s", t.Title.Render("Todos"), t.Accent.Render(fmt.Sprintf("%d left", pending))),
	}
	row := func(it model.Item) string {
		box := t.BoxUnchecked
		title := it.Title
		if it.Done {
			box = t.Success.Render(t.BoxChecked)
			title = t.Done.Render(title)
		}
		return fmt.Sprintf("%s %s %s", t.Muted.Render(fmt.Sprintf("#%-4d", it.ID)), box, title)
	}

	if len(items) == 0 {
		lines = append(lines, t.Muted.Render("Nothing to do."))
	} else if group {
		for _, sec := range []struct {
			name string
			done bool
		}{{"Pending", false}, {"Done", true}} {
			lines = append(lines, "", t.Accent.Render(sec.name))
			for _, it := range items {
				if it.Done == sec.done {
					lines = append(lines, row(it))
				}
			}
		}
	} else {
		for _, it := range items {
			lines = append(lines, row(it))
		}
	}
	lines = append(lines, "", ui.ProgressBar(done, len(items), 28))
	ui.Panel(w, lines)
}

// ---------------------------------------------------
// Mutations
// ---------------------------------------------------

func (r *runner) doAdd(ctx context.Context, title string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		r.fail("add: empty title")
		return 2
	}
	if _, err := r.client.Add(ctx, title); err != nil {
		return r.apiFail("add", err)
	}
	r.ok("added")
	return 0
}

// doToggle reads the current done flag first; the server only takes
// the new value.
func (r *runner) doToggle(ctx context.Context, id int64) int {
	items, err := r.client.List(ctx)
	if err != nil {
		return r.apiFail("done", err)
	}
	for _, it := range items {
		if it.ID != id {
			continue
		}
		if _, err := r.client.Check(ctx, id, it.Done); err != nil {
			return r.apiFail("done", err)
		}
		r.ok("toggled")
		return 0
	}
	r.fail(fmt.Sprintf("no item with id %d", id))
	r.hint("Hint: run `todo ls --plain` to see valid ids")
	return 2
}

func (r *runner) doRemove(ctx context.Context, id int64) int {
	if _, err := r.client.Remove(ctx, id); err != nil {
		return r.apiFail("rm", err)
	}
	r.ok("removed")
	return 0
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func (r *runner) doAuthLogin() int {
	fmt.Fprint(r.opt.Stdout, "Paste your token: ")
	var token string
	if _, err := fmt.Fscanln(r.opt.Stdin, &token); err != nil {
		r.fail("read token: " + err.Error())
		return 1
	}
	if err := r.session.Set(token); err != nil {
		r.fail("save token: " + err.Error())
		return 1
	}
	r.ok("logged in")
	return 0
}

func (r *runner) doAuthLogout() int {
	ti, _ := r.session.Get()
	if ti != nil && ti.Source == "env" {
		r.ok("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return 0
	}
	if err := r.session.Delete(); err != nil {
		r.fail("logout: " + err.Error())
		return 1
	}
	r.ok("logged out")
	return 0
}

func (r *runner) doAuthStatus() int {
	w := r.opt.Stdout
	ti, err := r.session.Get()
	if err != nil {
		r.fail("status: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(w, ui.Current().Muted.Render("not logged in"))
		fmt.Fprintln(w, "Run: todo auth login")
		return 0
	}
	fmt.Fprintf(w, "source: %s\n", ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		fmt.Fprintln(w, "expires: (unknown)")
	case ti.Expired(time.Now()):
		fmt.Fprintf(w, "expires: %s (expired)\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "endpoint: %s\n", r.client.Endpoint())
	fmt.Fprintln(w, "env override: "+auth.EnvToken)
	return 0
}

// whoami decodes a JWT locally (unsigned); opaque tokens print basic info.
func (r *runner) doAuthWhoAmI() int {
	w := r.opt.Stdout
	ti, _ := r.session.Get()
	if ti == nil {
		r.fail("not logged in. Run: todo auth login")
		return 2
	}
	claims, err := auth.Claims(ti.Token)
	if err != nil {
		fmt.Fprintln(w, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(w, "source:", ti.Source)
		return 0
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		r.fail("whoami: " + err.Error())
		return 1
	}
	fmt.Fprintln(w, "JWT payload:")
	fmt.Fprintln(w, string(b))
	return 0
}
