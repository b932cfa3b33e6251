package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder turns text into a numeric vector. Implementations must be
// deterministic: the same text always produces the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Name() string
}

// heuristicDimensions is the fixed vector size of the fallback embedder.
const heuristicDimensions = 128

// HeuristicEmbedder is a deterministic local embedder that hashes term
// frequencies into a fixed-size vector. It involves no model and no
// randomness, so it is symmetric: queries and skill descriptions embedded
// with it remain comparable to each other.
type HeuristicEmbedder struct {
	dimensions int
}

// NewHeuristicEmbedder creates the fallback embedder with the default
// dimensionality.
func NewHeuristicEmbedder() *HeuristicEmbedder {
	return &HeuristicEmbedder{dimensions: heuristicDimensions}
}

// Name returns the embedder identifier.
func (e *HeuristicEmbedder) Name() string {
	return "heuristic-tf"
}

// Embed derives a term-frequency hash vector from text. The vector is
// L2-normalized so cosine similarity reduces to a dot product.
func (e *HeuristicEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimensions)

	for _, term := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		vec[int(h.Sum32())%e.dimensions]++
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
