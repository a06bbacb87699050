package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/CryptiqueAI/cryptique-mvp/pkg/fn"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-embedding-001"
)

// Gemini embeds text through the Gemini embedContent HTTP API.
type Gemini struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewGemini builds the Gemini backend. Empty baseURL and model fall back
// to the public API defaults.
func NewGemini(apiKey, baseURL, model string, rps float64) *Gemini {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if rps <= 0 {
		rps = 5
	}
	return &Gemini{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (g *Gemini) Model() Model    { return ModelGemini }
func (g *Gemini) Dimensions() int { return specs[ModelGemini].Dimensions }

type geminiEmbedReq struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	OutputDimensionality int `json:"outputDimensionality,omitempty"`
}

type geminiEmbedResp struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed generates one embedding, retrying transient failures.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[[]float64] {
		return fn.FromPair(g.embed(ctx, text))
	}).Unwrap()
}

func (g *Gemini) embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := geminiEmbedReq{
		Model:                "models/" + g.model,
		OutputDimensionality: g.Dimensions(),
	}
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	body, _ := json.Marshal(reqBody)
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("gemini embed: status %d", resp.StatusCode)
	}

	var result geminiEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gemini embed decode: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return result.Embedding.Values, nil
}
