// Package embed generates embedding vectors for queries and documents.
package embed

import "context"

// Generator produces embedding vectors for text.
type Generator interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embedding vectors for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the model identifier, used in cache keys.
	Model() string

	// Dimensions returns the embedding vector length.
	Dimensions() int
}
