// Package vector implements the per-tenant semantic index on top of a pure
// Go HNSW graph.
package vector

import (
	"context"
	"fmt"
	"math"

	"github.com/coder/hnsw"

	"github.com/replify/kbengine/internal/corpus"
	"github.com/replify/kbengine/internal/embed"
	"github.com/replify/kbengine/internal/index"
	"github.com/replify/kbengine/internal/kberrors"
)

// Index is an immutable per-tenant vector index. Like the keyword index it
// is built once per snapshot and searched concurrently without locking.
type Index struct {
	graph *hnsw.Graph[int]
	docs  []*corpus.Document
	dims  int
}

var _ index.SemanticSearcher = (*Index)(nil)

// Build embeds every document and constructs the HNSW graph. Node keys are
// corpus positions, so results map straight back to documents.
func Build(ctx context.Context, docs []*corpus.Document, generator embed.Generator) (*Index, error) {
	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	idx := &Index{graph: graph, docs: docs, dims: generator.Dimensions()}
	if len(docs) == 0 {
		return idx, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text()
	}

	vecs, err := generator.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	for i, vec := range vecs {
		normalizeInPlace(vec)
		graph.Add(hnsw.MakeNode(i, vec))
	}
	return idx, nil
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return idx.graph.Len() }

// Search implements index.SemanticSearcher. Results below minSimilarity are
// dropped; similarity is 1 - cosine distance, clamped to [0, 1].
func (idx *Index) Search(ctx context.Context, query []float32, limit int, minSimilarity float64) ([]index.SemanticHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx.graph.Len() == 0 {
		return nil, nil
	}
	if len(query) != idx.dims {
		return nil, kberrors.ProviderUnavailable(
			fmt.Sprintf("query dimension mismatch: want %d, got %d", idx.dims, len(query)), nil)
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	nodes := idx.graph.Search(normalized, limit)

	hits := make([]index.SemanticHit, 0, len(nodes))
	for _, node := range nodes {
		similarity := 1 - float64(idx.graph.Distance(normalized, node.Value))
		if similarity < minSimilarity {
			continue
		}
		if similarity > 1 {
			similarity = 1
		} else if similarity < 0 {
			similarity = 0
		}
		hits = append(hits, index.SemanticHit{
			Doc:        idx.docs[node.Key],
			Similarity: similarity,
		})
	}
	return hits, nil
}

func normalizeInPlace(vec []float32) {
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
