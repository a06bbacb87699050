// Package embed generates, caches, and scores text embeddings across
// multiple provider backends, with batched concurrent generation and
// vector math helpers (similarity, reduction, optimization).
package embed

import (
	"fmt"
	"strings"
	"time"

	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
)

// Context carries per-record hints that get prepended to the text before
// embedding. Zero values are omitted from the rendered summary.
type Context struct {
	DataType   string
	SourceType string
	SiteID     string
	ContractID string
	Timeframe  string
	Importance int
}

// Summary renders the recognized context keys as a single line.
func (c Context) Summary() string {
	var parts []string
	if c.DataType != "" {
		parts = append(parts, fmt.Sprintf("Data Type: %s", c.DataType))
	}
	if c.SourceType != "" {
		parts = append(parts, fmt.Sprintf("Source: %s", c.SourceType))
	}
	if c.Timeframe != "" {
		parts = append(parts, fmt.Sprintf("Timeframe: %s", c.Timeframe))
	}
	if c.Importance > 0 {
		parts = append(parts, fmt.Sprintf("Importance: %d/10", c.Importance))
	}
	return strings.Join(parts, " | ")
}

// Metadata records how a result was produced.
type Metadata struct {
	TextLength          int      `json:"text_length"`
	ProcessedTextLength int      `json:"processed_text_length"`
	Context             *Context `json:"context,omitempty"`
	CacheHit            bool     `json:"cache_hit,omitempty"`
}

// Result is the outcome of one embedding attempt. Success implies Vector
// is present with len(Vector) == Dimensions; failure carries Error and a
// nil Vector. Generate never returns a Go error: failures become a
// Result with Success false.
type Result struct {
	Success        bool
	Vector         []float64
	ModelUsed      provider.Model
	Dimensions     int
	QualityScore   float64
	ProcessingTime time.Duration
	Metadata       Metadata
	Error          string
}

// BatchResult is the outcome of a batched call. Embeddings and
// QualityScores align positionally with the input texts; failed items
// hold a nil vector and a 0.0 score.
type BatchResult struct {
	Success         bool
	Embeddings      [][]float64
	FailedIndices   []int
	TotalProcessed  int
	SuccessfulCount int
	FailedCount     int
	ProcessingTime  time.Duration
	QualityScores   []float64
	AverageQuality  float64
	ModelUsed       provider.Model
	Errors          []string
}

// Quality level thresholds for reporting buckets.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

// QualityLevel buckets a score: excellent >= 0.9, good >= 0.7,
// fair >= 0.5, poor below.
func QualityLevel(score float64) string {
	switch {
	case score >= 0.9:
		return QualityExcellent
	case score >= 0.7:
		return QualityGood
	case score >= 0.5:
		return QualityFair
	default:
		return QualityPoor
	}
}
