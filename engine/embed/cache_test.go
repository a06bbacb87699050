package embed

import (
	"context"
	"sync"
	"testing"

	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

func TestCacheKeyDeterministic(t *testing.T) {
	k1 := CacheKey("some text", provider.ModelGemini)
	k2 := CacheKey("some text", provider.ModelGemini)
	if k1 != k2 {
		t.Errorf("same inputs, different keys: %s vs %s", k1, k2)
	}
	if CacheKey("some text", provider.ModelOpenAI) == k1 {
		t.Error("different models should not collide")
	}
	if CacheKey("other text", provider.ModelGemini) == k1 {
		t.Error("different texts should not collide")
	}
	if len(k1) != 64 {
		t.Errorf("key length %d, want 64 hex chars", len(k1))
	}
}

func TestCacheMemoryRoundTrip(t *testing.T) {
	c := NewCache(10, nil, nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "t", provider.ModelLocal); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Put(ctx, "t", provider.ModelLocal, []float64{1, 2, 3}, 0.8)
	hit, ok := c.Get(ctx, "t", provider.ModelLocal)
	if !ok {
		t.Fatal("expected hit")
	}
	if len(hit.Vector) != 3 || hit.Vector[0] != 1 || hit.QualityScore != 0.8 {
		t.Errorf("unexpected entry: %+v", hit)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, nil, nil)
	ctx := context.Background()

	c.Put(ctx, "a", provider.ModelLocal, []float64{1}, 1)
	c.Put(ctx, "b", provider.ModelLocal, []float64{2}, 1)
	c.Get(ctx, "a", provider.ModelLocal) // a becomes most recent
	c.Put(ctx, "c", provider.ModelLocal, []float64{3}, 1)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get(ctx, "b", provider.ModelLocal); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get(ctx, "a", provider.ModelLocal); !ok {
		t.Error("a should survive, it was used most recently")
	}
	if _, ok := c.Get(ctx, "c", provider.ModelLocal); !ok {
		t.Error("c should be present")
	}
}

func TestCacheDurableFallback(t *testing.T) {
	store := repo.NewMemoryStore()
	defer store.Close()
	coll := store.Collection(CacheCollection)
	ctx := context.Background()

	writer := NewCache(10, coll, nil)
	writer.Put(ctx, "shared text", provider.ModelGemini, []float64{0.5, 0.6}, 0.9)

	// Fresh in-memory tier, same durable collection.
	reader := NewCache(10, coll, nil)
	hit, ok := reader.Get(ctx, "shared text", provider.ModelGemini)
	if !ok {
		t.Fatal("expected durable-tier hit")
	}
	if len(hit.Vector) != 2 || hit.Vector[1] != 0.6 || hit.QualityScore != 0.9 {
		t.Errorf("unexpected entry: %+v", hit)
	}
	if reader.Len() != 1 {
		t.Errorf("durable hit should populate memory, Len() = %d", reader.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(100, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				text := string(rune('a' + (i+j)%26))
				c.Put(ctx, text, provider.ModelLocal, []float64{float64(j)}, 0.5)
				c.Get(ctx, text, provider.ModelLocal)
			}
		}(i)
	}
	wg.Wait()
}
