// Package embedding provides text embedding backends, model capability
// dispatch, and the engine that turns text items into embedding records
// and group mean vectors.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
