package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

var (
	ErrInvalidIdentifier = errors.New("invalid table or column name")
	ErrEmptyPatch        = errors.New("one field at least is required to update")
	ErrMissingFilter     = errors.New("update without a filter is not allowed")
	ErrNoRowsToInsert    = errors.New("at least one row is required to insert")
)

// Row is one record as returned by the backend. JSON columns come back
// decoded, so embedded relations appear as []any / map[string]any.
type Row map[string]any

// Store is the generic data-access client every page talks to.
type Store interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error)
}

type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(conn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", conn)

	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging db: %v", err)
	}

	return &PostgresStore{
		DB: db,
	}, nil
}

func (s *PostgresStore) Select(ctx context.Context, q Query) ([]Row, error) {
	query, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", q.Table, err)
	}

	defer rows.Close()

	return scanRows(rows)
}

func (s *PostgresStore) Insert(ctx context.Context, table string, records []Row) ([]Row, error) {
	query, args, err := buildInsert(table, records)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error inserting into %s: %w", table, err)
	}

	defer rows.Close()

	return scanRows(rows)
}

func (s *PostgresStore) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	query, args, err := buildUpdate(table, patch, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error updating %s: %w", table, err)
	}

	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	result := []Row{}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		row := make(Row, len(columns))

		for i, c := range columns {
			v, err := convert(c.DatabaseTypeName(), values[i])
			if err != nil {
				return nil, fmt.Errorf("error decoding column %s: %w", c.Name(), err)
			}
			row[c.Name()] = v
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

func convert(dbType string, v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}

	switch strings.ToUpper(dbType) {
	case "JSON", "JSONB":
		var decoded any
		if err := json.Unmarshal(b, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	case "BYTEA":
		return b, nil
	default:
		return string(b), nil
	}
}
