// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source resolves publication ids into publications. Backends cover
// in-memory datasets, the Semantic Scholar Graph API, and OpenAlex; Cached
// layers a local store in front of a remote backend.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// ErrPublicationNotFound is matched by every NotFoundError.
var ErrPublicationNotFound = errors.New("publication not found")

// NotFoundError reports an id no backend could resolve.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("publication %s not found", e.ID)
}

// Is makes errors.Is(err, ErrPublicationNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrPublicationNotFound
}

// Source resolves publications by id.
type Source interface {
	// Get returns one publication or a *NotFoundError.
	Get(ctx context.Context, id string) (*types.Publication, error)

	// GetBulk returns the publications it can resolve, in request order.
	// Unknown ids are skipped; an error means the backend itself failed.
	GetBulk(ctx context.Context, ids []string) ([]*types.Publication, error)
}

// Writer persists publications fetched from a remote backend.
type Writer interface {
	Put(ctx context.Context, pubs ...*types.Publication) error
}

// dedupe returns ids without empties and repeats, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ordered returns the publications of byID in the order of ids.
func ordered(ids []string, byID map[string]*types.Publication) []*types.Publication {
	out := make([]*types.Publication, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
