// Package storetest holds the behavior every store.Repository must show.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

// Run exercises a fresh repository returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Repository) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		repo := open(t)
		items, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("List = %#v, want empty non-nil slice", items)
		}
	})

	t.Run("insertion order and ids", func(t *testing.T) {
		repo := open(t)
		titles := []string{"first", "second", "third"}
		seen := map[int64]bool{}
		for _, title := range titles {
			it, err := repo.Create(ctx, title)
			if err != nil {
				t.Fatalf("Create(%q): %v", title, err)
			}
			if it.Title != title || it.Done {
				t.Errorf("Create(%q) = %+v", title, it)
			}
			if seen[it.ID] {
				t.Errorf("duplicate id %d", it.ID)
			}
			seen[it.ID] = true
		}
		items := list(t, repo)
		if len(items) != len(titles) {
			t.Fatalf("List = %v", items)
		}
		for i, title := range titles {
			if items[i].Title != title {
				t.Errorf("items[%d] = %q, want %q", i, items[i].Title, title)
			}
		}
	})

	t.Run("set done", func(t *testing.T) {
		repo := open(t)
		create(t, repo, "a")
		b := create(t, repo, "b")
		if err := repo.SetDone(ctx, b.ID, true); err != nil {
			t.Fatalf("SetDone: %v", err)
		}
		items := list(t, repo)
		if items[0].Done || !items[1].Done {
			t.Fatalf("List = %v", items)
		}
		if err := repo.SetDone(ctx, b.ID, false); err != nil {
			t.Fatalf("SetDone back: %v", err)
		}
		if model.CountRest(list(t, repo)) != 2 {
			t.Fatal("item still done")
		}
	})

	t.Run("delete", func(t *testing.T) {
		repo := open(t)
		a := create(t, repo, "a")
		b := create(t, repo, "b")
		if err := repo.Delete(ctx, a.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		items := list(t, repo)
		if len(items) != 1 || items[0].ID != b.ID {
			t.Fatalf("List = %v", items)
		}
	})

	t.Run("deleted ids are not reused", func(t *testing.T) {
		repo := open(t)
		create(t, repo, "a")
		b := create(t, repo, "b")
		if err := repo.Delete(ctx, b.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		c := create(t, repo, "c")
		if c.ID == b.ID {
			t.Fatalf("id %d handed out again after delete", b.ID)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := open(t)
		if err := repo.SetDone(ctx, 404, true); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("SetDone error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, 404); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Delete error = %v, want ErrNotFound", err)
		}
	})
}

func create(t *testing.T, repo store.Repository, title string) model.Item {
	t.Helper()
	it, err := repo.Create(context.Background(), title)
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return it
}

func list(t *testing.T, repo store.Repository) []model.Item {
	t.Helper()
	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return items
}
