package embed

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

// CacheCollection is the durable cache collection name.
const CacheCollection = "embedding_cache"

// DefaultCacheSize bounds the in-memory tier.
const DefaultCacheSize = 10000

// CacheKey derives the content-addressed key for (text, model).
func CacheKey(text string, model provider.Model) string {
	sum := sha256.Sum256([]byte(text + ":" + string(model)))
	return hex.EncodeToString(sum[:])
}

// CachedEmbedding is one cache hit.
type CachedEmbedding struct {
	Vector       []float64
	QualityScore float64
}

type cacheItem struct {
	key   string
	value CachedEmbedding
}

// Cache is the two-tier embedding cache: a bounded in-process LRU in
// front of an append-only durable collection. Reads check memory first,
// then the durable tier, populating memory on hit. Writes go to both
// tiers; durable failures are logged and swallowed, caching is
// best-effort.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used

	durable repo.Collection // nil disables the durable tier
	logger  *slog.Logger
}

// NewCache builds a cache holding at most capacity in-memory entries.
// durable may be nil for a memory-only cache.
func NewCache(capacity int, durable repo.Collection, logger *slog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		durable:  durable,
		logger:   logger,
	}
}

// Get looks up (text, model). The bool reports a hit in either tier.
func (c *Cache) Get(ctx context.Context, text string, model provider.Model) (CachedEmbedding, bool) {
	key := CacheKey(text, model)

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		v := el.Value.(*cacheItem).value
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()

	if c.durable == nil {
		return CachedEmbedding{}, false
	}

	doc, err := c.durable.FindOne(ctx, repo.Filter{"cache_key": key})
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			c.logger.Warn("cache read failed", "error", err)
		}
		return CachedEmbedding{}, false
	}

	vec := docVector(doc, "embedding")
	if len(vec) == 0 {
		return CachedEmbedding{}, false
	}
	hit := CachedEmbedding{Vector: vec, QualityScore: doc.Float("quality_score")}
	c.put(key, hit)
	return hit, true
}

// Put writes an entry through both tiers.
func (c *Cache) Put(ctx context.Context, text string, model provider.Model, vector []float64, quality float64) {
	key := CacheKey(text, model)
	c.put(key, CachedEmbedding{Vector: vector, QualityScore: quality})

	if c.durable == nil {
		return
	}
	_, err := c.durable.InsertOne(ctx, repo.Doc{
		"cache_key":     key,
		"text":          text,
		"model":         string(model),
		"embedding":     vector,
		"quality_score": quality,
		"created_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
}

// Len reports the in-memory entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) put(key string, v CachedEmbedding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheItem).value = v
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheItem{key: key, value: v})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).key)
	}
}

// docVector decodes a stored vector field, which arrives as []any after
// JSON round-tripping through the store.
func docVector(doc repo.Doc, key string) []float64 {
	switch v := doc[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, x := range v {
			f, ok := x.(float64)
			if !ok {
				return nil
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}
