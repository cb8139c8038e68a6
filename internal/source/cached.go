// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Cached answers from a local source first and asks a remote source for
// whatever is missing. When Writer is set, remote results are written back
// so later runs resolve them locally.
type Cached struct {
	Local  Source
	Remote Source
	Writer Writer
	Logger *zap.Logger
}

// Get returns the publication from the local source, falling back to the
// remote one.
func (c *Cached) Get(ctx context.Context, id string) (*types.Publication, error) {
	p, err := c.Local.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPublicationNotFound) || c.Remote == nil {
		return nil, err
	}

	p, err = c.Remote.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.write(ctx, p)
	return p, nil
}

// GetBulk resolves ids locally and fetches the misses remotely.
func (c *Cached) GetBulk(ctx context.Context, ids []string) ([]*types.Publication, error) {
	ids = dedupe(ids)
	local, err := c.Local.GetBulk(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reading local source: %w", err)
	}
	byID := make(map[string]*types.Publication, len(ids))
	for _, p := range local {
		byID[p.ID] = p
	}

	var missed []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missed = append(missed, id)
		}
	}
	if len(missed) > 0 && c.Remote != nil {
		fetched, err := c.Remote.GetBulk(ctx, missed)
		if err != nil {
			return nil, fmt.Errorf("fetching %d missing publications: %w", len(missed), err)
		}
		c.logger().Debug("fetched remote publications",
			zap.Int("requested", len(missed)), zap.Int("found", len(fetched)))
		for _, p := range fetched {
			byID[p.ID] = p
		}
		c.write(ctx, fetched...)
	}
	return ordered(ids, byID), nil
}

// write stores fetched publications. Failures are logged, not returned:
// the caller already has the data it asked for.
func (c *Cached) write(ctx context.Context, pubs ...*types.Publication) {
	if c.Writer == nil || len(pubs) == 0 {
		return
	}
	if err := c.Writer.Put(ctx, pubs...); err != nil {
		c.logger().Warn("writing fetched publications", zap.Int("count", len(pubs)), zap.Error(err))
	}
}

func (c *Cached) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
