// Package auth is the session accessor: it stores and reads the bearer
// token the API client sends with every request.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	credFileName = "credentials.json"

	// EnvToken overrides whatever is stored on disk.
	EnvToken = "TODO_TOKEN"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrEmptyToken  = errors.New("empty token")
	ErrOpaqueToken = errors.New("opaque token")
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token carries an expiry that lies before now.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && ti.ExpiresAt.Before(now)
}

// Store keeps credentials in Dir. An empty Dir means ~/.todo.
type Store struct {
	Dir string
	Now func() time.Time
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) dir() (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".todo"), nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) path() (string, error) {
	dir, err := s.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// Get returns the current token, or nil, nil when nobody is logged in.
func (s *Store) Get() (*TokenInfo, error) {
	// 1) env override
	env := strings.TrimSpace(os.Getenv(EnvToken))
	if env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	p, err := s.path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// Token implements the API client's token source.
func (s *Store) Token() (string, error) {
	ti, err := s.Get()
	if err != nil {
		return "", err
	}
	if ti == nil || ti.Token == "" {
		return "", ErrNotLoggedIn
	}
	return ti.Token, nil
}

// Set saves token to the credentials file with owner-only permissions.
func (s *Store) Set(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	dir, err := s.dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: s.now(),
		ExpiresAt: expiry(token),
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p := filepath.Join(dir, credFileName)
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Delete removes the credentials file. Missing files are not an error.
func (s *Store) Delete() error {
	p, err := s.path()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Claims decodes a JWT payload without verifying its signature.
func Claims(token string) (jwt.MapClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	return claims, nil
}

func expiry(token string) *time.Time {
	claims, err := Claims(token)
	if err != nil {
		return nil
	}
	var sec int64
	switch v := claims["exp"].(type) {
	case float64:
		sec = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		sec = n
	default:
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
