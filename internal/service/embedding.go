package service

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions matches the vector column in the recipes table.
const EmbeddingDimensions = 768

// HashEmbedder is a deterministic bag-of-words embedder used when no
// embedding provider is configured. Texts sharing words get nearby vectors.
type HashEmbedder struct{}

func (HashEmbedder) GenerateEmbedding(_ context.Context, text string) (pgvector.Vector, error) {
	return pgvector.NewVector(HashEmbedding(text)), nil
}

// HashEmbedding hashes lower-cased word tokens into a unit-length vector.
func HashEmbedding(text string) []float32 {
	vec := make([]float32, EmbeddingDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := xxhash.Sum64String(w)
		idx := h % EmbeddingDimensions
		if h&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
