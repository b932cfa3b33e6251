// Package embedding provides vector embedding generation for semantic skill
// ranking. Two embedder variants exist: a model-backed OpenAI embedder and a
// deterministic local heuristic used whenever the model is unavailable. The
// variant is selected at construction time; degrading to the heuristic is a
// deliberate strategy decision made by the caller, not a swallowed error.
package embedding

import "math"

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// or zero-magnitude vectors yield 0, never NaN.
func Cosine(u, v []float64) float64 {
	if len(u) != len(v) {
		return 0
	}

	var dot, nu, nv float64
	for i := range u {
		dot += u[i] * v[i]
		nu += u[i] * u[i]
		nv += v[i] * v[i]
	}

	den := math.Sqrt(nu) * math.Sqrt(nv)
	if den == 0 {
		return 0
	}
	return dot / den
}
