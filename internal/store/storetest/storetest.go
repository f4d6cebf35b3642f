// Package storetest provides recording fakes of the store interfaces.
package storetest

import (
	"context"
	"io"
	"sync"

	"github.com/oseayemenre/pagesy-reader/internal/store"
)

type Call struct {
	Op      string
	Table   string
	Query   store.Query
	Rows    []store.Row
	Patch   store.Row
	Filters []store.Filter
}

// Store records every call. The per-method funcs decide the outcome; a nil
// func returns no rows and no error (Insert echoes its input).
type Store struct {
	SelectFunc func(ctx context.Context, q store.Query) ([]store.Row, error)
	InsertFunc func(ctx context.Context, table string, rows []store.Row) ([]store.Row, error)
	UpdateFunc func(ctx context.Context, table string, patch store.Row, filters ...store.Filter) ([]store.Row, error)

	mu    sync.Mutex
	calls []Call
}

func (s *Store) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many calls of op hit table. An empty table matches all.
func (s *Store) Count(op, table string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op && (table == "" || c.Table == table) {
			n++
		}
	}
	return n
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	s.record(Call{Op: "select", Table: q.Table, Query: q})

	if s.SelectFunc == nil {
		return []store.Row{}, nil
	}
	return s.SelectFunc(ctx, q)
}

func (s *Store) Insert(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
	s.record(Call{Op: "insert", Table: table, Rows: rows})

	if s.InsertFunc == nil {
		return rows, nil
	}
	return s.InsertFunc(ctx, table, rows)
}

func (s *Store) Update(ctx context.Context, table string, patch store.Row, filters ...store.Filter) ([]store.Row, error) {
	s.record(Call{Op: "update", Table: table, Patch: patch, Filters: filters})

	if s.UpdateFunc == nil {
		return []store.Row{patch}, nil
	}
	return s.UpdateFunc(ctx, table, patch, filters...)
}

type Upload struct {
	Key  string
	Body []byte
	Opts store.UploadOptions
}

type ObjectStore struct {
	Err     error
	BaseURL string

	mu      sync.Mutex
	uploads []Upload
}

func (o *ObjectStore) Upload(ctx context.Context, key string, body io.Reader, opts store.UploadOptions) error {
	b, _ := io.ReadAll(body)

	o.mu.Lock()
	o.uploads = append(o.uploads, Upload{Key: key, Body: b, Opts: opts})
	o.mu.Unlock()

	return o.Err
}

func (o *ObjectStore) PublicURL(key string) string {
	base := o.BaseURL
	if base == "" {
		base = "https://cdn.test"
	}
	return base + "/" + key
}

func (o *ObjectStore) Uploads() []Upload {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Upload(nil), o.uploads...)
}
