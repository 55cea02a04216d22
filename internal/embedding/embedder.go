// Package embedding holds the embedding provider boundary. Concrete
// providers live in the hash and openai subpackages; EmbedAll enforces the
// contract every caller in the retrieval core relies on.
package embedding

import (
	"context"
	"fmt"
	"math"

	"docrag/internal/domain"
)

// EmbedAll embeds texts with e and verifies the result: one vector per
// text, each exactly e.Dimension() long, with finite components. Any
// failure is wrapped in domain.ErrEmbedding and no vectors are returned.
func EmbedAll(ctx context.Context, e domain.Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbedding, e.Name(), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts", domain.ErrEmbedding, e.Name(), len(vecs), len(texts))
	}
	dim := e.Dimension()
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %s vector %d has dimension %d, want %d", domain.ErrEmbedding, e.Name(), i, len(v), dim)
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return nil, fmt.Errorf("%w: %s vector %d is not finite", domain.ErrEmbedding, e.Name(), i)
			}
		}
	}
	return vecs, nil
}

// EmbedOne embeds a single text under the same contract as EmbedAll.
func EmbedOne(ctx context.Context, e domain.Embedder, text string) ([]float32, error) {
	vecs, err := EmbedAll(ctx, e, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
