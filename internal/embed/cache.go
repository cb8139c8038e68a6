// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Cache stores vectors in badger keyed by model and publication content, and
// asks Next only for the publications it has not seen.
type Cache struct {
	db     *badger.DB
	model  string
	Next   Embedder
	Logger *zap.Logger
}

// OpenCache opens the cache in dir. An empty dir keeps the cache in memory.
func OpenCache(dir, model string, next Embedder) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}
	return &Cache{db: db, model: model, Next: next, Logger: zap.NewNop()}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Embed returns cached vectors and fills the misses from Next. If Next
// skips the batch, the whole result is skipped.
func (c *Cache) Embed(ctx context.Context, pubs []*types.Publication) ([][]float64, error) {
	out := make([][]float64, len(pubs))
	var missing []int

	err := c.db.View(func(txn *badger.Txn) error {
		for i, p := range pubs {
			item, err := txn.Get(c.key(p))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, i)
				continue
			}
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[i] = decodeVector(raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading embedding cache: %w", err)
	}
	c.Logger.Debug("embedding cache lookup",
		zap.Int("hits", len(pubs)-len(missing)), zap.Int("misses", len(missing)))
	if len(missing) == 0 {
		return out, nil
	}
	if c.Next == nil {
		return nil, nil
	}

	misses := make([]*types.Publication, len(missing))
	for j, i := range missing {
		misses[j] = pubs[i]
	}
	vectors, err := c.Next.Embed(ctx, misses)
	if err != nil || vectors == nil {
		return nil, err
	}
	if len(vectors) != len(misses) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d publications", len(vectors), len(misses))
	}

	for j, i := range missing {
		out[i] = vectors[j]
	}
	if err := c.store(pubs, missing, vectors); err != nil {
		c.Logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return out, nil
}

// store writes the vectors of pubs[missing[j]] in a write batch, which
// splits into as many transactions as badger needs.
func (c *Cache) store(pubs []*types.Publication, missing []int, vectors [][]float64) error {
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for j, i := range missing {
		if len(vectors[j]) == 0 {
			continue
		}
		if err := wb.Set(c.key(pubs[i]), encodeVector(vectors[j])); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// key changes whenever the model or the embedded text changes.
func (c *Cache) key(p *types.Publication) []byte {
	sum := sha256.Sum256([]byte(p.Content()))
	return []byte("emb/" + c.model + "/" + p.ID + "/" + hex.EncodeToString(sum[:8]))
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float64 {
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return v
}
