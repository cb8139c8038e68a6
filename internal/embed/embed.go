// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns publications into dense vectors for the kernel's
// content-similarity block.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// ErrInvalidVectors means an embedder returned empty vectors or vectors of
// different lengths.
var ErrInvalidVectors = errors.New("invalid embedding vectors")

// Embedder returns one vector per publication, in input order. A nil result
// with a nil error means the content was insufficient and the embedding
// signal should be skipped.
type Embedder interface {
	Embed(ctx context.Context, pubs []*types.Publication) ([][]float64, error)
}

// Attach runs e over pubs and stores the vectors on the publications. It
// reports whether embeddings were attached. Every publication gets a vector
// of the same length or none does.
func Attach(ctx context.Context, e Embedder, pubs []*types.Publication) (bool, error) {
	if e == nil || len(pubs) == 0 {
		return false, nil
	}
	vectors, err := e.Embed(ctx, pubs)
	if err != nil {
		return false, fmt.Errorf("embedding %d publications: %w", len(pubs), err)
	}
	if vectors == nil {
		return false, nil
	}
	if len(vectors) != len(pubs) {
		return false, fmt.Errorf("embedder returned %d vectors for %d publications", len(vectors), len(pubs))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return false, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrInvalidVectors, i, len(v), dim)
		}
	}
	for i, p := range pubs {
		p.Embedding = vectors[i]
	}
	return true, nil
}
