package embed

import (
	"fmt"
	"math"
	"sort"
)

// Similarity methods.
const (
	SimilarityCosine    = "cosine"
	SimilarityEuclidean = "euclidean"
	SimilarityDot       = "dot"
)

// Similarity computes the similarity between two vectors. Euclidean is
// the bounded transform 1/(1+d); dot is the raw product. An unknown
// method is an error, not a silent default.
func Similarity(a, b []float64, method string) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("similarity: dimension mismatch %d vs %d", len(a), len(b))
	}
	switch method {
	case SimilarityCosine:
		return cosine(a, b), nil
	case SimilarityEuclidean:
		return 1 / (1 + euclideanDistance(a, b)), nil
	case SimilarityDot:
		return dot(a, b), nil
	}
	return 0, fmt.Errorf("similarity: unsupported method %q", method)
}

// Match is one find-similar result.
type Match struct {
	Index int
	Score float64
}

// FindSimilar ranks candidates by cosine similarity to query, keeping
// scores >= threshold, descending, truncated to topK. Nil candidates
// are skipped. Ties keep ascending index order.
func FindSimilar(query []float64, candidates [][]float64, topK int, threshold float64) []Match {
	var matches []Match
	for i, c := range candidates {
		if c == nil || len(c) != len(query) {
			continue
		}
		if score := cosine(query, c); score >= threshold {
			matches = append(matches, Match{Index: i, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func cosine(a, b []float64) float64 {
	na, nb := magnitude(a), magnitude(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
