// minber/database/adapter.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Row is a single stored record, keyed by column name. Values are
// normalized on read: TEXT -> string, BOOLEAN -> bool, DATETIME ->
// time.Time, NULL -> nil.
type Row map[string]any

// Adapter is the uniform CRUD contract a concrete backend has to
// satisfy. Reads that find nothing return (nil, nil), not an error.
// Failures are classified as ConnectionError or ConstraintError; no
// operation is retried inside the adapter.
type Adapter interface {
	Name() string
	Get(ctx context.Context, entity, id string) (Row, error)
	Query(ctx context.Context, entity string, filter Row, orderBy string, descending bool, limit int) ([]Row, error)
	Insert(ctx context.Context, entity string, row Row) (Row, error)
	Update(ctx context.Context, entity, id string, patch Row) (Row, error)
	Delete(ctx context.Context, entity, id string) (bool, error)
	Ping(ctx context.Context) error
}

// entityTables whitelists the logical entities the adapter will touch.
// Anything else is a programming error, not user input.
var entityTables = map[string]string{
	"users":             "users",
	"posts":             "posts",
	"prayer_requests":   "prayer_requests",
	"comments":          "comments",
	"likes":             "likes",
	"bookmarks":         "bookmarks",
	"communities":       "communities",
	"community_members": "community_members",
	"events":            "events",
	"event_attendees":   "event_attendees",
	"reports":           "reports",
	"user_bans":         "user_bans",
}

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// dialect covers the two things the backends disagree on: placeholder
// syntax and how driver errors map onto the adapter error taxonomy.
type dialect interface {
	placeholder(n int) string
	classify(backend string, err error) error
}

// SQLAdapter implements Adapter over a database/sql handle. Both the
// Postgres primary and the SQLite secondary use this implementation
// with their own dialect.
type SQLAdapter struct {
	db      *sql.DB
	name    string
	dialect dialect
	logger  *slog.Logger
}

func (a *SQLAdapter) Name() string { return a.name }

// DB exposes the underlying handle for migrations and tests.
func (a *SQLAdapter) DB() *sql.DB { return a.db }

func (a *SQLAdapter) table(entity string) (string, error) {
	t, ok := entityTables[entity]
	if !ok {
		return "", fmt.Errorf("unknown entity %q", entity)
	}
	return t, nil
}

func (a *SQLAdapter) Get(ctx context.Context, entity, id string) (Row, error) {
	rows, err := a.Query(ctx, entity, Row{"id": id}, "", false, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (a *SQLAdapter) Query(ctx context.Context, entity string, filter Row, orderBy string, descending bool, limit int) ([]Row, error) {
	table, err := a.table(entity)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", table)

	args := make([]any, 0, len(filter))
	if len(filter) > 0 {
		conds := make([]string, 0, len(filter))
		for _, col := range sortedKeys(filter) {
			if !identRe.MatchString(col) {
				return nil, fmt.Errorf("invalid filter column %q", col)
			}
			if filter[col] == nil {
				conds = append(conds, col+" IS NULL")
				continue
			}
			args = append(args, filter[col])
			conds = append(conds, fmt.Sprintf("%s = %s", col, a.dialect.placeholder(len(args))))
		}
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	if orderBy != "" {
		if !identRe.MatchString(orderBy) {
			return nil, fmt.Errorf("invalid order column %q", orderBy)
		}
		sb.WriteString(" ORDER BY " + orderBy)
		if descending {
			sb.WriteString(" DESC")
		}
	}
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}

	rows, err := a.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, a.dialect.classify(a.name, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			a.logger.Error("Failed to close rows", "entity", entity, "error", cerr)
		}
	}()

	return scanRows(rows)
}

func (a *SQLAdapter) Insert(ctx context.Context, entity string, row Row) (Row, error) {
	table, err := a.table(entity)
	if err != nil {
		return nil, err
	}
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("insert into %s: row has no id", entity)
	}

	cols := sortedKeys(row)
	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		if !identRe.MatchString(col) {
			return nil, fmt.Errorf("invalid column %q", col)
		}
		placeholders = append(placeholders, a.dialect.placeholder(i+1))
		args = append(args, row[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return nil, a.dialect.classify(a.name, err)
	}
	return a.Get(ctx, entity, id)
}

func (a *SQLAdapter) Update(ctx context.Context, entity, id string, patch Row) (Row, error) {
	table, err := a.table(entity)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return a.Get(ctx, entity, id)
	}

	cols := sortedKeys(patch)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		if !identRe.MatchString(col) {
			return nil, fmt.Errorf("invalid column %q", col)
		}
		args = append(args, patch[col])
		sets = append(sets, fmt.Sprintf("%s = %s", col, a.dialect.placeholder(len(args))))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		table, strings.Join(sets, ", "), a.dialect.placeholder(len(args)))
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, a.dialect.classify(a.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", entity, err)
	}
	if affected == 0 {
		return nil, nil
	}
	return a.Get(ctx, entity, id)
}

func (a *SQLAdapter) Delete(ctx context.Context, entity, id string) (bool, error) {
	table, err := a.table(entity)
	if err != nil {
		return false, err
	}
	res, err := a.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = %s", table, a.dialect.placeholder(1)), id)
	if err != nil {
		return false, a.dialect.classify(a.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", entity, err)
	}
	return affected > 0, nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return &ConnectionError{Backend: a.name, Err: err}
	}
	return nil
}

// Close closes the underlying database handle.
func (a *SQLAdapter) Close() error { return a.db.Close() }

// --- Internal Helpers ---

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, col := range cols {
			r[col] = normalize(vals[i])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalize smooths over driver differences so callers see one value
// set regardless of which backend produced the row.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}
