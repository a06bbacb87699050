package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single SQLite database file. Each
// collection is a table of JSON documents; equality filters are pushed down
// with json_extract, range filters are applied in Go.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	created map[string]bool
}

// OpenSQLite opens (or creates) a SQLite store at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repo: open sqlite %s: %w", path, err)
	}
	// SQLite doesn't support concurrent writers.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, created: make(map[string]bool)}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Collection returns the named collection, creating its table on first use.
func (s *SQLiteStore) Collection(name string) Collection {
	return &sqliteCollection{store: s, name: name}
}

func (s *SQLiteStore) ensureTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[name] {
		return nil
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (id TEXT PRIMARY KEY, doc TEXT NOT NULL)`, name))
	if err != nil {
		return fmt.Errorf("repo: create table %s: %w", name, err)
	}
	s.created[name] = true
	return nil
}

type sqliteCollection struct {
	store *SQLiteStore
	name  string
}

// whereClause builds a WHERE clause for the equality entries of filter.
// Range entries are left for the in-Go matcher.
func whereClause(filter Filter) (string, []any) {
	clause := ""
	var args []any
	for key, want := range filter {
		if _, isRange := want.(Range); isRange {
			continue
		}
		if clause == "" {
			clause = " WHERE "
		} else {
			clause += " AND "
		}
		clause += `json_extract(doc, ?) = ?`
		args = append(args, `$."`+key+`"`, jsonScalar(want))
	}
	return clause, args
}

// jsonScalar converts a filter value to the representation json_extract
// yields for it.
func jsonScalar(v any) any {
	if f, ok := asFloat(v); ok {
		return f
	}
	return fmt.Sprint(v)
}

func (c *sqliteCollection) query(ctx context.Context, filter Filter, opts FindOpts) ([]Doc, error) {
	if err := c.store.ensureTable(ctx, c.name); err != nil {
		return nil, err
	}
	where, args := whereClause(filter)
	q := fmt.Sprintf(`SELECT doc FROM %q%s`, c.name, where)
	if opts.Sort != "" {
		q += ` ORDER BY json_extract(doc, ?)`
		args = append(args, `$."`+opts.Sort+`"`)
	}

	rows, err := c.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("repo: find in %s: %w", c.name, err)
	}
	defer rows.Close()

	var out []Doc
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("repo: scan %s: %w", c.name, err)
		}
		var d Doc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("repo: decode doc in %s: %w", c.name, err)
		}
		// Equality was pushed down; verify ranges here.
		if !matches(d, filter) {
			continue
		}
		out = append(out, d)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, rows.Err()
}

func (c *sqliteCollection) Find(ctx context.Context, filter Filter, opts FindOpts) ([]Doc, error) {
	return c.query(ctx, filter, opts)
}

func (c *sqliteCollection) FindOne(ctx context.Context, filter Filter) (Doc, error) {
	docs, err := c.query(ctx, filter, FindOpts{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (c *sqliteCollection) InsertOne(ctx context.Context, doc Doc) (string, error) {
	if err := c.store.ensureTable(ctx, c.name); err != nil {
		return "", err
	}
	id := doc.String("_id")
	if id == "" {
		id = uuid.New().String()
		doc = cloneDoc(doc)
		doc["_id"] = id
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("repo: encode doc for %s: %w", c.name, err)
	}
	_, err = c.store.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (id, doc) VALUES (?, ?)`, c.name), id, string(data))
	if err != nil {
		return "", fmt.Errorf("repo: insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *sqliteCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	if hasRange(filter) {
		docs, err := c.query(ctx, filter, FindOpts{})
		if err != nil {
			return 0, err
		}
		return int64(len(docs)), nil
	}
	if err := c.store.ensureTable(ctx, c.name); err != nil {
		return 0, err
	}
	where, args := whereClause(filter)
	var n int64
	err := c.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %q%s`, c.name, where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo: count in %s: %w", c.name, err)
	}
	return n, nil
}

func (c *sqliteCollection) GroupCount(ctx context.Context, field string) (map[string]int64, error) {
	if err := c.store.ensureTable(ctx, c.name); err != nil {
		return nil, err
	}
	rows, err := c.store.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT json_extract(doc, ?), COUNT(*) FROM %q GROUP BY 1`, c.name),
		`$."`+field+`"`)
	if err != nil {
		return nil, fmt.Errorf("repo: group count in %s: %w", c.name, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key sql.NullString
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("repo: scan group in %s: %w", c.name, err)
		}
		if !key.Valid {
			continue
		}
		out[key.String] = n
	}
	return out, rows.Err()
}

func hasRange(filter Filter) bool {
	for _, v := range filter {
		if _, ok := v.(Range); ok {
			return true
		}
	}
	return false
}
