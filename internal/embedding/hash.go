package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	hashStrategyVersion = "hash-v1"
	wordWeight          = 1.0
	trigramWeight       = 0.5
)

// HashEmbedder derives reproducible vectors from character trigrams and words.
// Vectors carry no semantics beyond lexical overlap.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Strategy() string {
	return fmt.Sprintf("%s:%d", hashStrategyVersion, h.dims)
}

func (h *HashEmbedder) Dimensions() int {
	return h.dims
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = h.Vector(text)
	}
	return vectors, nil
}

// Vector returns the L2-normalized embedding of text.
func (h *HashEmbedder) Vector(text string) []float32 {
	acc := make([]float64, h.dims)
	normalized := strings.ToLower(text)

	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		h.add(acc, "w:"+word, wordWeight)
	}

	runes := []rune(" " + strings.Join(strings.Fields(normalized), " ") + " ")
	for i := 0; i+3 <= len(runes); i++ {
		h.add(acc, "t:"+string(runes[i:i+3]), trigramWeight)
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}

	out := make([]float32, h.dims)
	if norm == 0 {
		// cosine is undefined for the zero vector
		out[0] = 1
		return out
	}

	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

func (h *HashEmbedder) add(acc []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}
