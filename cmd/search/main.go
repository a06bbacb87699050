// Command search embeds a query and runs it against the vector index.
// Useful for spot-checking a migration from the terminal:
//
//	search -k 5 -source transactions "large eth transfers"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/CryptiqueAI/cryptique-mvp/engine/embed"
	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
	"github.com/CryptiqueAI/cryptique-mvp/engine/semantic"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	var (
		topK      = flag.Int("k", 10, "number of hits to return")
		source    = flag.String("source", "", "restrict to one source type (analytics, session, transaction)")
		siteID    = flag.String("site", "", "restrict to one site")
		model     = flag.String("model", envOr("EMBED_MODEL", "gemini"), "embedding model (gemini, openai, local)")
		threshold = flag.Float64("min-score", 0, "drop hits below this score")
	)
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: search [flags] <query>")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(query, provider.Model(*model), *topK, *source, *siteID, float32(*threshold), logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(query string, model provider.Model, topK int, source, siteID string, minScore float32, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	// Same durable cache tier the migrator writes, so repeated queries
	// skip the provider.
	var cache *embed.Cache
	if store, err := repo.OpenSQLite(envOr("DB_PATH", "cryptique.db")); err == nil {
		defer store.Close()
		cache = embed.NewCache(embed.DefaultCacheSize, store.Collection(embed.CacheCollection), logger)
	}

	gen := embed.NewGenerator(registry, cache, embed.GeneratorOpts{Logger: logger})

	res := gen.Generate(ctx, query, model, nil, true)
	if !res.Success {
		return fmt.Errorf("embed query: %s", res.Error)
	}

	store, err := semantic.New(envOr("QDRANT_URL", "localhost:6334"), envOr("QDRANT_COLLECTION", "cryptique"))
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	filters := map[string]string{}
	if source != "" {
		filters["sourceType"] = source
	}
	if siteID != "" {
		filters["siteId"] = siteID
	}

	hits, err := store.SearchFiltered(ctx, res.Vector, topK, filters)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	shown := 0
	for _, h := range hits {
		if h.Score < minScore {
			continue
		}
		shown++
		content := h.Content
		if len(content) > 160 {
			content = content[:160] + "..."
		}
		fmt.Printf("%2d. [%.4f] %s (%s)\n    %s\n", shown, h.Score, h.DocumentID, h.SourceType, content)
	}
	if shown == 0 {
		fmt.Println("no results")
	}
	return nil
}

func buildRegistry() (*provider.Registry, error) {
	var backends []provider.Embedder
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		backends = append(backends, provider.NewGemini(key, os.Getenv("GEMINI_BASE_URL"), "", 5))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		backends = append(backends, provider.NewOpenAI(key, 5))
	}
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		backends = append(backends, provider.NewOllama(url, ""))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no embedding backend configured: set GEMINI_API_KEY, OPENAI_API_KEY, or OLLAMA_URL")
	}
	return provider.NewRegistry(backends...), nil
}
