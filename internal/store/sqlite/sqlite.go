// Package sqlite provides a SQLite-backed store.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT    NOT NULL,
	done  INTEGER NOT NULL DEFAULT 0
);`

type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer; keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, done FROM todos ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		var done int
		if err := rows.Scan(&it.ID, &it.Title, &done); err != nil {
			return nil, err
		}
		it.Done = done != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) Create(ctx context.Context, title string) (model.Item, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO todos (title, done) VALUES (?, 0)`, title)
	if err != nil {
		return model.Item{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, err
	}
	return model.Item{ID: id, Title: title}, nil
}

func (s *Store) SetDone(ctx context.Context, id int64, done bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE todos SET done=? WHERE id=?`, boolToInt(done), id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id=?`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
