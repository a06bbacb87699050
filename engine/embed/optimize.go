package embed

import (
	"fmt"
	"math"
	"math/rand"
)

// Optimization kinds.
const (
	OptimizeNormalize   = "normalize"
	OptimizeStandardize = "standardize"
	OptimizeCenter      = "center"
)

const standardizeEpsilon = 1e-8

// Optimize applies a batch transform: normalize scales each vector to
// unit length, standardize rescales each component to zero mean and
// unit variance across the batch, center subtracts the batch mean.
// Unknown kinds are an error.
func Optimize(vectors [][]float64, kind string) ([][]float64, error) {
	switch kind {
	case OptimizeNormalize:
		out := make([][]float64, len(vectors))
		for i, v := range vectors {
			out[i] = normalize(v)
		}
		return out, nil
	case OptimizeStandardize:
		return standardize(vectors), nil
	case OptimizeCenter:
		return center(vectors), nil
	}
	return nil, fmt.Errorf("optimize: unsupported kind %q", kind)
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := magnitude(v)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// componentMean computes the per-component mean across the batch.
// Assumes uniform dimensionality.
func componentMean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}

func standardize(vectors [][]float64) [][]float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := componentMean(vectors)

	std := make([]float64, len(mean))
	for _, v := range vectors {
		for i, x := range v {
			d := x - mean[i]
			std[i] += d * d
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(vectors)))
	}

	out := make([][]float64, len(vectors))
	for j, v := range vectors {
		row := make([]float64, len(v))
		for i, x := range v {
			row[i] = (x - mean[i]) / (std[i] + standardizeEpsilon)
		}
		out[j] = row
	}
	return out
}

func center(vectors [][]float64) [][]float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := componentMean(vectors)

	out := make([][]float64, len(vectors))
	for j, v := range vectors {
		row := make([]float64, len(v))
		for i, x := range v {
			row[i] = x - mean[i]
		}
		out[j] = row
	}
	return out
}

// ReduceDimensions projects each vector down to targetDim with a seeded
// Gaussian random projection. The projection matrix is a pure function
// of (seed, inputDim, targetDim), so a fixed seed gives deterministic
// output. Vectors already at or below targetDim pass through unchanged.
func ReduceDimensions(vectors [][]float64, targetDim int, seed int64) ([][]float64, error) {
	if targetDim <= 0 {
		return nil, fmt.Errorf("reduce: target dimension must be positive, got %d", targetDim)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	inputDim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != inputDim {
			return nil, fmt.Errorf("reduce: ragged input, vector %d has %d dims, want %d", i, len(v), inputDim)
		}
	}
	if inputDim <= targetDim {
		out := make([][]float64, len(vectors))
		for i, v := range vectors {
			out[i] = append([]float64(nil), v...)
		}
		return out, nil
	}

	proj := projectionMatrix(seed, inputDim, targetDim)

	out := make([][]float64, len(vectors))
	for j, v := range vectors {
		row := make([]float64, targetDim)
		for t := 0; t < targetDim; t++ {
			var sum float64
			for i, x := range v {
				sum += x * proj[t][i]
			}
			row[t] = sum
		}
		out[j] = row
	}
	return out, nil
}

// projectionMatrix draws targetDim rows of N(0, 1/targetDim) entries.
func projectionMatrix(seed int64, inputDim, targetDim int) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	scale := 1 / math.Sqrt(float64(targetDim))
	m := make([][]float64, targetDim)
	for t := range m {
		row := make([]float64, inputDim)
		for i := range row {
			row[i] = rng.NormFloat64() * scale
		}
		m[t] = row
	}
	return m
}
