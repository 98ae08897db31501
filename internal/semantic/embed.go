// Package semantic stores free-text memories as fixed-length embeddings and
// retrieves them by cosine similarity.
package semantic

import (
	"hash/fnv"
	"math"
	"strings"
)

// Dim is the default embedder's output dimensionality. An upgrade to a real
// embedding service is permitted as long as it preserves this contract: same
// dimensionality for every row within a deployment.
const Dim = 128

// HashBigramEmbed hashes token bigrams of text into a Dim-dimensional dense
// vector. Deterministic: the same text always produces the same vector.
func HashBigramEmbed(text string) []float32 {
	vec := make([]float32, Dim)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return vec
	}

	addBigram := func(a, b string) {
		h := fnv.New32a()
		h.Write([]byte(a))
		h.Write([]byte{0})
		h.Write([]byte(b))
		idx := h.Sum32() % uint32(Dim)
		vec[idx]++
	}

	if len(tokens) == 1 {
		addBigram(tokens[0], "")
	}
	for i := 0; i+1 < len(tokens); i++ {
		addBigram(tokens[i], tokens[i+1])
	}

	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors, matching manifold's evolving-memory implementation.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
