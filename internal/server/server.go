// Package server is a stand-in for the todo API the client talks to. It
// serves the same four routes, answers every call with the full list and
// rejects requests without the expected bearer token.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

type Config struct {
	// Path is the resource path, e.g. /api/todos.
	Path string
	// Token is the accepted bearer token. Empty accepts any non-empty token.
	Token string
}

type Server struct {
	echo   *echo.Echo
	repo   store.Repository
	cfg    Config
	logger *slog.Logger
}

type createRequest struct {
	Title string `json:"title"`
}

type checkRequest struct {
	ID   int64 `json:"id"`
	Done bool  `json:"done"`
}

func New(repo store.Repository, cfg Config, logger *slog.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/api/todos"
	}
	s := &Server{echo: echo.New(), repo: repo, cfg: cfg, logger: logger}
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))

	todos := e.Group(cfg.Path, s.requireBearer)
	todos.GET("", s.list)
	todos.POST("", s.create)
	todos.PUT("", s.check)
	todos.DELETE("/:id", s.remove)
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr, "path", s.cfg.Path)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requireBearer answers 403 for a missing or unexpected token.
func (s *Server) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header.Get(echo.HeaderAuthorization)
		token := ""
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			token = strings.TrimSpace(h[7:])
		}
		if token == "" || (s.cfg.Token != "" && token != s.cfg.Token) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "authentication required"})
		}
		return next(c)
	}
}

func (s *Server) respond(c echo.Context) error {
	items, err := s.repo.List(c.Request().Context())
	if err != nil {
		return s.internal(c, err)
	}
	return c.JSON(http.StatusOK, model.ListResponse{Todos: items})
}

func (s *Server) internal(c echo.Context, err error) error {
	s.logger.Error("store failed", "method", c.Request().Method, "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func (s *Server) list(c echo.Context) error {
	return s.respond(c)
}

func (s *Server) create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if _, err := s.repo.Create(c.Request().Context(), req.Title); err != nil {
		return s.internal(c, err)
	}
	return s.respond(c)
}

func (s *Server) check(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := s.repo.SetDone(c.Request().Context(), req.ID, req.Done); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "todo not found"})
		}
		return s.internal(c, err)
	}
	return s.respond(c)
}

func (s *Server) remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := s.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "todo not found"})
		}
		return s.internal(c, err)
	}
	return s.respond(c)
}
