package embed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/fn"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/resilience"
)

const (
	// DefaultBatchSize matches the migration default chunk size.
	DefaultBatchSize = 50
	// DefaultMaxWorkers bounds provider calls in flight within a chunk.
	DefaultMaxWorkers = 4
)

// GeneratorOpts configures a Generator.
type GeneratorOpts struct {
	BatchSize  int
	MaxWorkers int
	Weights    QualityWeights
	Logger     *slog.Logger
}

// Generator orchestrates preprocessing, cache lookup, provider dispatch,
// quality scoring, and write-through caching. All collaborators are
// injected; there is no package-level instance.
type Generator struct {
	registry   *provider.Registry
	cache      *Cache
	validator  *QualityValidator
	breaker    *resilience.Breaker
	logger     *slog.Logger
	batchSize  int
	maxWorkers int
}

// NewGenerator wires a generator. cache may be nil to disable caching
// entirely.
func NewGenerator(registry *provider.Registry, cache *Cache, opts GeneratorOpts) *Generator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		registry:   registry,
		cache:      cache,
		validator:  NewQualityValidator(opts.Weights),
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:     opts.Logger,
		batchSize:  opts.BatchSize,
		maxWorkers: opts.MaxWorkers,
	}
}

// Generate embeds one text. Never returns an error: provider and cache
// failures surface as a Result with Success false and the message in
// Error, with ProcessingTime still recorded.
func (g *Generator) Generate(ctx context.Context, text string, model provider.Model, c *Context, useCache bool) Result {
	start := time.Now()

	if useCache && g.cache != nil {
		if hit, ok := g.cache.Get(ctx, text, model); ok {
			return Result{
				Success:        true,
				Vector:         hit.Vector,
				ModelUsed:      model,
				Dimensions:     len(hit.Vector),
				QualityScore:   hit.QualityScore,
				ProcessingTime: time.Since(start),
				Metadata: Metadata{
					TextLength: len(text),
					Context:    c,
					CacheHit:   true,
				},
			}
		}
	}

	processed := g.preprocess(text, c, model)

	backend, err := g.registry.Get(model)
	if err != nil {
		return g.failed(start, text, c, err)
	}

	vector, err := resilience.CallResult(g.breaker, ctx, func(ctx context.Context) fn.Result[[]float64] {
		return fn.FromPair(backend.Embed(ctx, processed))
	}).Unwrap()
	if err != nil {
		g.logger.Warn("embedding failed", "model", model, "error", err)
		return g.failed(start, text, c, err)
	}

	quality := g.validator.Validate(vector, text, model)

	if useCache && g.cache != nil {
		g.cache.Put(ctx, text, model, vector, quality)
	}

	return Result{
		Success:        true,
		Vector:         vector,
		ModelUsed:      model,
		Dimensions:     len(vector),
		QualityScore:   quality,
		ProcessingTime: time.Since(start),
		Metadata: Metadata{
			TextLength:          len(text),
			ProcessedTextLength: len(processed),
			Context:             c,
		},
	}
}

func (g *Generator) failed(start time.Time, text string, c *Context, err error) Result {
	return Result{
		Success:        false,
		Error:          err.Error(),
		ProcessingTime: time.Since(start),
		Metadata:       Metadata{TextLength: len(text), Context: c},
	}
}

// preprocess trims the text, prepends the context summary, and truncates
// to the model's input budget.
func (g *Generator) preprocess(text string, c *Context, model provider.Model) string {
	processed := strings.TrimSpace(text)

	if c != nil {
		if summary := c.Summary(); summary != "" {
			processed = summary + "\n\n" + processed
		}
	}

	limit := 8000
	if s, err := provider.SpecFor(model); err == nil && s.MaxInputChars > 0 {
		limit = s.MaxInputChars
	}
	if len(processed) > limit {
		processed = processed[:limit]
	}
	return processed
}

// GenerateBatch embeds texts in chunks of batchSize with up to
// maxWorkers provider calls in flight per chunk. Output order matches
// input order; a failed item holds a nil embedding and a 0.0 score.
// Success means at least one item succeeded. contexts may be nil or
// aligned with texts.
func (g *Generator) GenerateBatch(ctx context.Context, texts []string, model provider.Model, contexts []*Context, useCache bool) BatchResult {
	start := time.Now()

	if len(texts) == 0 {
		return BatchResult{Errors: []string{"no texts provided"}, ModelUsed: model}
	}

	br := BatchResult{
		Embeddings:     make([][]float64, 0, len(texts)),
		QualityScores:  make([]float64, 0, len(texts)),
		TotalProcessed: len(texts),
		ModelUsed:      model,
	}

	type indexed struct {
		idx  int
		text string
	}
	items := make([]indexed, len(texts))
	for i, t := range texts {
		items[i] = indexed{i, t}
	}

	var qualitySum float64
	for _, chunk := range fn.Chunk(items, g.batchSize) {
		results := fn.ParMap(chunk, g.maxWorkers, func(_ int, it indexed) Result {
			var c *Context
			if contexts != nil && it.idx < len(contexts) {
				c = contexts[it.idx]
			}
			return g.Generate(ctx, it.text, model, c, useCache)
		})

		for j, r := range results {
			if r.Success {
				br.Embeddings = append(br.Embeddings, r.Vector)
				br.QualityScores = append(br.QualityScores, r.QualityScore)
				br.SuccessfulCount++
				qualitySum += r.QualityScore
			} else {
				br.Embeddings = append(br.Embeddings, nil)
				br.QualityScores = append(br.QualityScores, 0.0)
				br.FailedIndices = append(br.FailedIndices, chunk[j].idx)
				br.Errors = append(br.Errors, r.Error)
				br.FailedCount++
			}
		}
	}

	br.Success = br.SuccessfulCount > 0
	if br.SuccessfulCount > 0 {
		br.AverageQuality = qualitySum / float64(br.SuccessfulCount)
	}
	br.ProcessingTime = time.Since(start)
	return br
}
