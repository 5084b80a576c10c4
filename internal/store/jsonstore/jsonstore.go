package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// The whole file is rewritten on every change; fine for a dev server.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by path. The file is created on first write.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonstore: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{path: path}, nil
}

// file is the on-disk layout. NextID only grows, so an id freed by a
// delete is never handed out again.
type file struct {
	NextID int64        `json:"next_id"`
	Todos  []model.Item `json:"todos"`
}

func (s *Store) load() (file, error) {
	f := file{NextID: 1, Todos: []model.Item{}}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return file{}, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return file{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if f.Todos == nil {
		f.Todos = []model.Item{}
	}
	for _, it := range f.Todos {
		if it.ID >= f.NextID {
			f.NextID = it.ID + 1
		}
	}
	return f, nil
}

func (s *Store) save(f file) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Todos, nil
}

func (s *Store) Create(ctx context.Context, title string) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return model.Item{}, err
	}
	it := model.Item{ID: f.NextID, Title: title}
	f.NextID++
	f.Todos = append(f.Todos, it)
	if err := s.save(f); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (s *Store) SetDone(ctx context.Context, id int64, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	i := store.Index(f.Todos, id)
	if i < 0 {
		return store.ErrNotFound
	}
	f.Todos[i].Done = done
	return s.save(f)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	i := store.Index(f.Todos, id)
	if i < 0 {
		return store.ErrNotFound
	}
	f.Todos = append(f.Todos[:i], f.Todos[i+1:]...)
	return s.save(f)
}

func (s *Store) Close() error { return nil }
