// Todo-server is a local stand-in for the todo API. It serves the list,
// create, toggle and delete routes the client uses and checks the bearer
// token, so the client can be run and tested without the real backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/server"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
	"github.com/idilsaglam/todo/internal/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("todo-server", pflag.ExitOnError)
	configPath := flags.String("config", "", "config file (default $"+config.EnvConfig+")")
	addr := flags.String("addr", "", "listen address (overrides server.addr)")
	token := flags.String("token", "", "accepted bearer token (overrides server.token)")
	storeKind := flags.String("store", "", "memory, json or sqlite (overrides server.store)")
	data := flags.String("data", "", "data file for the json and sqlite stores")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *token != "" {
		cfg.Server.Token = *token
	}
	if *storeKind != "" {
		cfg.Server.Store = *storeKind
	}
	if *data != "" {
		cfg.Server.Data = *data
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	repo, err := openStore(cfg.Server, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	if cfg.Server.Token == "" {
		logger.Warn("no server.token set, accepting any bearer token")
	}
	srv := server.New(repo, server.Config{Path: cfg.API.Path, Token: cfg.Server.Token}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	return <-done
}

func openStore(cfg config.ServerConfig, logger *slog.Logger) (store.Repository, error) {
	logger.Info("opening store", "kind", cfg.Store, "data", cfg.Data)
	switch cfg.Store {
	case "json":
		s, err := jsonstore.New(cfg.Data)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.New(cfg.Data)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemory(), nil
	}
}
