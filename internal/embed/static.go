package embed

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/replify/kbengine/internal/index"
)

// StaticGenerator produces deterministic embeddings from token hashes.
// No external service is needed, which makes it the default provider and
// the test double. Similar texts share tokens and therefore overlap in
// the vector space.
type StaticGenerator struct {
	model string
	dims  int
}

var _ Generator = (*StaticGenerator)(nil)

// NewStaticGenerator creates a deterministic hash-based generator.
func NewStaticGenerator(model string, dims int) *StaticGenerator {
	return &StaticGenerator{model: model, dims: dims}
}

// Embed implements Generator.
func (g *StaticGenerator) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, g.dims)

	for _, token := range index.Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		// Each token contributes to a few dimensions derived from its hash.
		for i := 0; i < 4; i++ {
			dim := int((sum >> (i * 16)) % uint64(g.dims))
			sign := float32(1)
			if (sum>>(i*16+15))&1 == 1 {
				sign = -1
			}
			vec[dim] += sign
		}
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch implements Generator.
func (g *StaticGenerator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := g.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Model implements Generator.
func (g *StaticGenerator) Model() string { return g.model }

// Dimensions implements Generator.
func (g *StaticGenerator) Dimensions() int { return g.dims }

// normalize scales vec to unit length in place. Zero vectors stay zero.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
