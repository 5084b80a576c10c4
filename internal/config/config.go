// Package config loads the client and server settings.
//
// Configuration comes from a single YAML file named by the --config flag
// or the TODO_CONFIG environment variable. With neither set, defaults
// apply. TODO_BASE_URL overrides api.base_url so a one-off run can point
// at another server without editing the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfig  = "TODO_CONFIG"
	EnvBaseURL = "TODO_BASE_URL"
)

type Config struct {
	API    APIConfig    `yaml:"api"`
	Auth   AuthConfig   `yaml:"auth"`
	UI     UIConfig     `yaml:"ui"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

type APIConfig struct {
	// BaseURL is the scheme and host of the todo API.
	BaseURL string `yaml:"base_url"`

	// Path is the fixed resource path appended to BaseURL.
	Path string `yaml:"path"`

	// Timeout bounds each request. Zero waits forever.
	Timeout Duration `yaml:"timeout"`
}

type AuthConfig struct {
	// Dir holds credentials.json. Empty means ~/.todo.
	Dir string `yaml:"dir"`
}

type UIConfig struct {
	Theme string `yaml:"theme"`
}

type LogConfig struct {
	// File receives log output. Empty discards logs for the client
	// and writes to stderr for the server.
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"token"`
	// Store is one of memory, json, sqlite.
	Store string `yaml:"store"`
	// Data is the file backing the json and sqlite stores.
	Data string `yaml:"data"`
}

// Duration reads Go duration strings ("5s", "1m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Path:    "/api/todos",
		},
		UI:  UIConfig{Theme: "classic"},
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:  ":8080",
			Store: "memory",
		},
	}
}

// Load reads the file at path over the defaults. An empty path falls back
// to TODO_CONFIG; if that is empty too, only defaults and env overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if env := strings.TrimSpace(os.Getenv(EnvBaseURL)); env != "" {
		cfg.API.BaseURL = env
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Path != "" && !strings.HasPrefix(c.API.Path, "/") {
		errs = append(errs, fmt.Errorf("api.path %q must start with /", c.API.Path))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	switch c.Server.Store {
	case "", "memory", "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("server.store %q: want memory, json or sqlite", c.Server.Store))
	}
	if (c.Server.Store == "json" || c.Server.Store == "sqlite") && c.Server.Data == "" {
		errs = append(errs, fmt.Errorf("server.data is required for the %s store", c.Server.Store))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Endpoint is the full URL of the todo resource.
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.API.BaseURL, "/") + c.API.Path
}

// ParseLevel maps a level name onto slog. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}
