// Package repo defines the document store boundary used by the migration
// engine: schemaless collections supporting equality/range filtering, single
// document inserts, counting, and a grouping aggregation for duplicate
// detection. Implementations exist for in-memory use (tests) and SQLite.
package repo

import "context"

// Doc is a schemaless document.
type Doc map[string]any

// Range expresses an inclusive range filter over a field. Either bound may be
// nil. Bounds compare numerically for numbers and lexically for strings
// (RFC 3339 timestamps order correctly under lexical comparison).
type Range struct {
	GTE any
	LTE any
}

// Filter matches documents by field equality. A Range value matches by range
// instead of equality.
type Filter map[string]any

// FindOpts controls result shaping for Find.
type FindOpts struct {
	Limit int    // 0 means no limit
	Sort  string // field name, ascending; empty means unspecified order
}

// Collection is a single named document collection.
type Collection interface {
	Find(ctx context.Context, filter Filter, opts FindOpts) ([]Doc, error)
	FindOne(ctx context.Context, filter Filter) (Doc, error)
	InsertOne(ctx context.Context, doc Doc) (string, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// GroupCount counts documents grouped by the string value of field.
	// Documents missing the field are ignored.
	GroupCount(ctx context.Context, field string) (map[string]int64, error)
}

// Store provides named collections.
type Store interface {
	Collection(name string) Collection
	Close() error
}

// String returns the string value of key, or "" if absent or not a string.
func (d Doc) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the numeric value of key as float64, or 0.
func (d Doc) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Map returns the nested map value of key, or nil.
func (d Doc) Map(key string) map[string]any {
	if v, ok := d[key].(map[string]any); ok {
		return v
	}
	return nil
}
