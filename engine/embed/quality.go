package embed

import (
	"math"

	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
)

// QualityWeights are the additive contributions of each independent
// check. Historical score data was produced with the defaults, so keep
// them unless you are starting a fresh corpus.
type QualityWeights struct {
	Dimension  float64
	Finite     float64
	Magnitude  float64
	Variance   float64
	TextLength float64
}

// DefaultQualityWeights match the scores stored by earlier migrations.
var DefaultQualityWeights = QualityWeights{
	Dimension:  0.30,
	Finite:     0.20,
	Magnitude:  0.20,
	Variance:   0.15,
	TextLength: 0.15,
}

const (
	minMagnitude  = 0.1
	maxMagnitude  = 10.0
	minVariance   = 0.001
	minTextLength = 10
)

// QualityValidator scores embeddings. Pure: no I/O, no state beyond the
// configured weights.
type QualityValidator struct {
	weights QualityWeights
}

// NewQualityValidator builds a validator. Zero weights fall back to the
// defaults.
func NewQualityValidator(w QualityWeights) *QualityValidator {
	if w == (QualityWeights{}) {
		w = DefaultQualityWeights
	}
	return &QualityValidator{weights: w}
}

// Validate scores vec in [0,1] against the model's expected dimension
// and the source text.
func (v *QualityValidator) Validate(vec []float64, originalText string, model provider.Model) float64 {
	score := 0.0

	expected := expectedDimensions(model)
	if len(vec) == expected {
		score += v.weights.Dimension
	}
	if allFinite(vec) {
		score += v.weights.Finite
	}
	if m := magnitude(vec); m > minMagnitude && m < maxMagnitude {
		score += v.weights.Magnitude
	}
	if variance(vec) > minVariance {
		score += v.weights.Variance
	}
	if len(originalText) > minTextLength {
		score += v.weights.TextLength
	}

	return math.Min(score, 1.0)
}

func expectedDimensions(model provider.Model) int {
	if s, err := provider.SpecFor(model); err == nil {
		return s.Dimensions
	}
	return 768
}

func allFinite(vec []float64) bool {
	for _, x := range vec {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func magnitude(vec []float64) float64 {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func variance(vec []float64) float64 {
	if len(vec) == 0 {
		return 0
	}
	var mean float64
	for _, x := range vec {
		mean += x
	}
	mean /= float64(len(vec))

	var sum float64
	for _, x := range vec {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(vec))
}
