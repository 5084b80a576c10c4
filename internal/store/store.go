// Package store defines where the API server keeps todos. Backends
// return items in insertion order.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/idilsaglam/todo/internal/model"
)

var ErrNotFound = errors.New("todo not found")

// Repository is the storage contract the server uses.
type Repository interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, title string) (model.Item, error)
	SetDone(ctx context.Context, id int64, done bool) error
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Memory keeps todos in process memory.
type Memory struct {
	mu     sync.Mutex
	items  []model.Item
	nextID int64
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) List(ctx context.Context) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Item{}, m.items...), nil
}

func (m *Memory) Create(ctx context.Context, title string) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	it := model.Item{ID: m.nextID, Title: title}
	m.items = append(m.items, it)
	return it, nil
}

func (m *Memory) SetDone(ctx context.Context, id int64, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := Index(m.items, id)
	if i < 0 {
		return ErrNotFound
	}
	m.items[i].Done = done
	return nil
}

func (m *Memory) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := Index(m.items, id)
	if i < 0 {
		return ErrNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

func (m *Memory) Close() error { return nil }

// Index returns the position of id in items, or -1.
func Index(items []model.Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
