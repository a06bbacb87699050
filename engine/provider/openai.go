package provider

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const openaiModelName = "text-embedding-3-large"

// OpenAI embeds text through the OpenAI embeddings API. Rate limited
// client-side and retried with exponential backoff on 429s.
type OpenAI struct {
	client  openai.Client
	limiter *rate.Limiter
}

// NewOpenAI builds the OpenAI backend. rps caps requests per second;
// zero means a conservative default.
func NewOpenAI(apiKey string, rps float64) *OpenAI {
	if rps <= 0 {
		rps = 5
	}
	return &OpenAI{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (o *OpenAI) Model() Model    { return ModelOpenAI }
func (o *OpenAI) Dimensions() int { return specs[ModelOpenAI].Dimensions }

// Embed generates one embedding. Rate limit errors retry with backoff;
// everything else fails immediately.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var embedding []float64
	operation := func() error {
		resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfString: openai.String(text),
			},
			Model: openaiModelName,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return backoff.Permanent(ErrEmptyEmbedding)
		}
		embedding = resp.Data[0].Embedding
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return embedding, nil
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
