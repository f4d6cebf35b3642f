package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lib/pq"
)

type Op string

const (
	OpEq    Op = "eq"
	OpIn    Op = "in"
	OpILike Op = "ilike"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func In(column string, values any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

func ILike(column string, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

type Order struct {
	Column    string
	Ascending bool
}

type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   *Order
	Limit   int
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func quote(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return pq.QuoteIdentifier(name), nil
}

func value(v any) any {
	switch v.(type) {
	case []string, []int64, []float64, []bool, []int:
		return pq.Array(v)
	}
	return v
}

func buildWhere(filters []Filter, position int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := []string{}
	args := []any{}

	for _, f := range filters {
		column, err := quote(f.Column)
		if err != nil {
			return "", nil, err
		}

		switch f.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", column, position))
			args = append(args, value(f.Value))
			position++
		case OpIn:
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", column, position))
			args = append(args, pq.Array(f.Value))
			position++
		case OpILike:
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", column, position))
			args = append(args, f.Value)
			position++
		default:
			return "", nil, fmt.Errorf("unsupported filter %q on %s", f.Op, f.Column)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func buildSelect(q Query) (string, []any, error) {
	table, err := quote(q.Table)
	if err != nil {
		return "", nil, err
	}

	columns := []string{}

	for _, c := range q.Columns {
		if c == "*" {
			columns = append(columns, c)
			continue
		}

		col, err := quote(c)
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, col)
	}

	if len(columns) == 0 {
		columns = []string{"*"}
	}

	where, args, err := buildWhere(q.Filters, 1)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(columns, ", "), table, where)

	if q.Order != nil {
		col, err := quote(q.Order.Column)
		if err != nil {
			return "", nil, err
		}

		direction := "DESC"
		if q.Order.Ascending {
			direction = "ASC"
		}

		query += fmt.Sprintf(" ORDER BY %s %s", col, direction)
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	return query + ";", args, nil
}

func sortedKeys(rows ...Row) []string {
	seen := map[string]bool{}
	keys := []string{}

	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	sort.Strings(keys)

	return keys
}

func buildInsert(table string, rows []Row) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, ErrNoRowsToInsert
	}

	quotedTable, err := quote(table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(rows...)
	columns := make([]string, len(keys))

	for i, k := range keys {
		if columns[i], err = quote(k); err != nil {
			return "", nil, err
		}
	}

	val_strings := []string{}
	val_args := []any{}
	position := 1

	for _, r := range rows {
		placeholders := make([]string, len(keys))

		for i, k := range keys {
			v, ok := r[k]
			if !ok {
				placeholders[i] = "DEFAULT"
				continue
			}

			placeholders[i] = fmt.Sprintf("$%d", position)
			val_args = append(val_args, value(v))
			position++
		}

		val_strings = append(val_strings, "("+strings.Join(placeholders, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *;", quotedTable, strings.Join(columns, ", "), strings.Join(val_strings, ", "))

	return query, val_args, nil
}

func buildUpdate(table string, patch Row, filters []Filter) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, ErrEmptyPatch
	}

	if len(filters) == 0 {
		return "", nil, ErrMissingFilter
	}

	quotedTable, err := quote(table)
	if err != nil {
		return "", nil, err
	}

	sets := []string{}
	args := []any{}
	position := 1

	for _, k := range sortedKeys(patch) {
		col, err := quote(k)
		if err != nil {
			return "", nil, err
		}

		sets = append(sets, fmt.Sprintf("%s = $%d", col, position))
		args = append(args, value(patch[k]))
		position++
	}

	where, whereArgs, err := buildWhere(filters, position)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *;", quotedTable, strings.Join(sets, ", "), where)

	return query, append(args, whereArgs...), nil
}
