package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("repo: document not found")

// MemoryStore is an in-process Store. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// Collection returns the named collection, creating it if needed.
func (s *MemoryStore) Collection(name string) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{}
		s.collections[name] = c
	}
	return c
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

type memoryCollection struct {
	mu   sync.RWMutex
	docs []Doc
}

func (c *memoryCollection) Find(_ context.Context, filter Filter, opts FindOpts) ([]Doc, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Doc
	for _, d := range c.docs {
		if matches(d, filter) {
			out = append(out, cloneDoc(d))
		}
	}
	if opts.Sort != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return fmt.Sprint(out[i][opts.Sort]) < fmt.Sprint(out[j][opts.Sort])
		})
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (c *memoryCollection) FindOne(ctx context.Context, filter Filter) (Doc, error) {
	docs, err := c.Find(ctx, filter, FindOpts{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (c *memoryCollection) InsertOne(_ context.Context, doc Doc) (string, error) {
	d := cloneDoc(doc)
	id := d.String("_id")
	if id == "" {
		id = uuid.New().String()
		d["_id"] = id
	}
	c.mu.Lock()
	c.docs = append(c.docs, d)
	c.mu.Unlock()
	return id, nil
}

func (c *memoryCollection) Count(_ context.Context, filter Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, d := range c.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (c *memoryCollection) GroupCount(_ context.Context, field string) (map[string]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int64)
	for _, d := range c.docs {
		if v, ok := d[field]; ok {
			out[fmt.Sprint(v)]++
		}
	}
	return out, nil
}

// cloneDoc shallow-copies a document so callers cannot mutate stored state.
func cloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
