package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/todo/internal/cli"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	flags := pflag.NewFlagSet("todo", pflag.ContinueOnError)
	configPath := flags.String("config", "", "config file (default $"+config.EnvConfig+")")
	groupPending := flags.Bool("group", false, "group output by pending/done")
	theme := flags.String("theme", "", "color theme: classic, neon or mono")
	flags.SetInterspersed(false)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			cli.PrintHelp(os.Stdout)
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if *theme != "" {
		cfg.UI.Theme = *theme
	}
	ui.SetTheme(cfg.UI.Theme)

	// The TUI owns the terminal, so logs only go to a file when asked.
	logger, closeLog, err := logging.New(cfg.Log, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer closeLog()

	// Hand the remaining args to the CLI runner.
	args := flags.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stdout)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := cli.Run(ctx, args, cli.Options{
		Group:  *groupPending,
		Config: cfg,
		Logger: logger,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
