// Command migrate moves analytics, session, and transaction records into
// the vector document store, generating embeddings along the way. Runs are
// resumable: SIGINT pauses at the next batch boundary and writes a
// checkpoint; a later run picks up where it left off.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/CryptiqueAI/cryptique-mvp/engine/domain"
	"github.com/CryptiqueAI/cryptique-mvp/engine/embed"
	"github.com/CryptiqueAI/cryptique-mvp/engine/migrate"
	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
	"github.com/CryptiqueAI/cryptique-mvp/engine/semantic"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/metrics"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/mid"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

// Env holds all environment-based configuration.
type Env struct {
	Port        string
	DBPath      string
	QdrantURL   string
	Collection  string
	NATSURL     string
	GeminiKey   string
	GeminiURL   string
	OpenAIKey   string
	OllamaURL   string
	ProviderRPS float64
}

func loadEnv() Env {
	rps := 5.0
	if v := os.Getenv("PROVIDER_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rps = f
		}
	}
	return Env{
		Port:        envOr("PORT", "8090"),
		DBPath:      envOr("DB_PATH", "cryptique.db"),
		QdrantURL:   os.Getenv("QDRANT_URL"),
		Collection:  envOr("QDRANT_COLLECTION", "cryptique"),
		NATSURL:     os.Getenv("NATS_URL"),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiURL:   os.Getenv("GEMINI_BASE_URL"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OllamaURL:   os.Getenv("OLLAMA_URL"),
		ProviderRPS: rps,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		configPath  = flag.String("config", "", "path to YAML migration config")
		source      = flag.String("source", "", "migrate a single source (analytics, sessions, transactions)")
		validate    = flag.Bool("validate", false, "validate an existing migration instead of running one")
		sampleSize  = flag.Int("sample", 100, "sample size for -validate")
		fresh       = flag.Bool("fresh", false, "ignore any existing checkpoint")
		metricsPort = flag.Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
	)
	flag.Parse()

	if err := run(loadEnv(), *configPath, *source, *validate, *sampleSize, *fresh, *metricsPort, logger); err != nil {
		logger.Error("migrate exited with error", "err", err)
		os.Exit(1)
	}
}

func run(env Env, configPath, source string, validate bool, sampleSize int, fresh bool, metricsPort int, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := migrate.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = migrate.LoadConfig(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if fresh {
		cfg.ResumeFromCheckpoint = false
	}

	store, err := repo.OpenSQLite(env.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	registry, err := buildRegistry(env)
	if err != nil {
		return err
	}

	cache := embed.NewCache(embed.DefaultCacheSize, store.Collection(embed.CacheCollection), logger)
	gen := embed.NewGenerator(registry, cache, embed.GeneratorOpts{
		BatchSize:  cfg.BatchSize,
		MaxWorkers: cfg.MaxWorkers,
		Logger:     logger,
	})

	var opts []migrate.Option
	opts = append(opts, migrate.WithLogger(logger))

	if env.QdrantURL != "" {
		vectorStore, err := semantic.New(env.QdrantURL, env.Collection)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer vectorStore.Close()

		spec, err := provider.SpecFor(cfg.Model)
		if err != nil {
			return err
		}
		if err := vectorStore.EnsureCollection(ctx, spec.Dimensions); err != nil {
			return fmt.Errorf("ensure collection: %w", err)
		}
		opts = append(opts, migrate.WithIndexer(vectorStore))
		logger.Info("index mirroring enabled", "collection", env.Collection)
	}

	if env.NATSURL != "" {
		nc, err := nats.Connect(env.NATSURL, nats.Name("cryptique-migrate"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		opts = append(opts, migrate.WithEvents(migrate.NewEvents(nc, logger)))
		logger.Info("progress events enabled", "url", env.NATSURL)
	}

	migrator, err := migrate.New(cfg, store, gen, opts...)
	if err != nil {
		return err
	}

	if validate {
		report, err := migrator.ValidateMigration(ctx, sampleSize)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	reg := metrics.New()
	if metricsPort > 0 {
		reg.ServeAsync(metricsPort)
	}
	go trackProgress(ctx, migrator, reg)

	srv := statusServer(env.Port, migrator, reg, logger)
	go func() {
		logger.Info("status server starting", "port", env.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed", "err", err)
		}
	}()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	// First signal pauses so the run checkpoints cleanly; the run itself
	// uses a background context so an in-flight batch is never cut off.
	go func() {
		<-ctx.Done()
		migrator.Pause()
	}()

	var result migrate.Result
	if source != "" {
		result = migrator.MigrateSource(context.Background(), domain.SourceType(source))
	} else {
		result = migrator.Run(context.Background())
	}

	switch {
	case result.Paused:
		logger.Info("migration paused, checkpoint written",
			"processed", result.Progress.ProcessedRecords,
			"total", result.Progress.TotalRecords)
	case result.Success:
		logger.Info("migration finished",
			"successful", result.Progress.SuccessfulRecords,
			"failed", result.Progress.FailedRecords,
			"skipped", result.Progress.SkippedRecords,
			"duration", result.ProcessingTime.String())
	default:
		return fmt.Errorf("migration failed: %s", result.Error)
	}
	return nil
}

// buildRegistry wires every embedding backend with credentials present.
func buildRegistry(env Env) (*provider.Registry, error) {
	var backends []provider.Embedder
	if env.GeminiKey != "" {
		backends = append(backends, provider.NewGemini(env.GeminiKey, env.GeminiURL, "", env.ProviderRPS))
	}
	if env.OpenAIKey != "" {
		backends = append(backends, provider.NewOpenAI(env.OpenAIKey, env.ProviderRPS))
	}
	if env.OllamaURL != "" {
		backends = append(backends, provider.NewOllama(env.OllamaURL, ""))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no embedding backend configured: set GEMINI_API_KEY, OPENAI_API_KEY, or OLLAMA_URL")
	}
	return provider.NewRegistry(backends...), nil
}

// trackProgress mirrors run progress into gauges for scraping.
func trackProgress(ctx context.Context, m *migrate.Migrator, reg *metrics.Registry) {
	var (
		processed  = reg.Gauge("migration_processed_records", "Records processed so far")
		successful = reg.Gauge("migration_successful_records", "Records migrated successfully")
		failed     = reg.Gauge("migration_failed_records", "Records that failed migration")
		skipped    = reg.Gauge("migration_skipped_records", "Records skipped as already migrated")
		total      = reg.Gauge("migration_total_records", "Total records in scope")
	)
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s := m.Status().Progress
			processed.Set(s.ProcessedRecords)
			successful.Set(s.SuccessfulRecords)
			failed.Set(s.FailedRecords)
			skipped.Set(s.SkippedRecords)
			total.Set(s.TotalRecords)
		}
	}
}

func statusServer(port string, m *migrate.Migrator, reg *metrics.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/migration/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Status())
	})
	mux.Handle("GET /metrics", reg.Handler())

	handler := otelhttp.NewHandler(
		mid.Chain(mux, mid.Recover(logger), mid.Logger(logger)),
		"migrate",
	)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
