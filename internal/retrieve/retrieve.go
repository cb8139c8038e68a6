// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve expands a seed publication's reference graph breadth
// first and ranks the candidates it finds.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/internal/graph"
	"github.com/pdiddy/roadmap-engine/internal/source"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// ErrInvalidSize is returned for a candidate-set size below one.
var ErrInvalidSize = errors.New("candidate set size must be at least 1")

// Session owns the state of one expansion: the known publications and the
// ids still to fetch. It is not safe for concurrent use.
type Session struct {
	seed      *types.Publication
	known     map[string]*types.Publication
	requested map[string]bool
	frontier  []string
	depth     int
}

// NewSession starts an expansion from seed, which gets depth 0.
func NewSession(seed *types.Publication) *Session {
	seed.EnsureSets()
	seed.Depth = 0
	s := &Session{
		seed:      seed,
		known:     map[string]*types.Publication{seed.ID: seed},
		requested: map[string]bool{seed.ID: true},
	}
	s.frontier = s.unseen(seed.References)
	return s
}

// Len returns the number of known publications.
func (s *Session) Len() int { return len(s.known) }

// Depth returns the number of completed expansion rounds.
func (s *Session) Depth() int { return s.depth }

// Frontier returns the ids the next round will fetch.
func (s *Session) Frontier() []string { return s.frontier }

// Expand runs one round: it fetches the frontier in bulk, assigns the new
// publications the round number as depth, and collects their unseen
// references as the next frontier. Ids the source cannot resolve are
// dropped. It returns the number of publications added.
func (s *Session) Expand(ctx context.Context, src source.Source) (int, error) {
	if len(s.frontier) == 0 {
		return 0, nil
	}
	for _, id := range s.frontier {
		s.requested[id] = true
	}
	fetched, err := src.GetBulk(ctx, s.frontier)
	if err != nil {
		return 0, fmt.Errorf("fetching depth %d references: %w", s.depth+1, err)
	}
	s.depth++

	next := types.IDSet{}
	added := 0
	for _, p := range fetched {
		if _, ok := s.known[p.ID]; ok {
			continue
		}
		p.EnsureSets()
		p.Depth = s.depth
		s.known[p.ID] = p
		added++
		for ref := range p.References {
			next.Add(ref)
		}
	}
	s.frontier = s.unseen(next)
	return added, nil
}

// unseen returns the sorted ids of refs that are neither known nor already
// requested.
func (s *Session) unseen(refs types.IDSet) []string {
	var out []string
	for _, id := range refs.Sorted() {
		if _, ok := s.known[id]; ok || s.requested[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Symmetrize makes citation links bidirectional inside the known set: if A
// references known B then B's citations gain A, and if A is cited by known
// C then C's references gain A. Ids outside the set are left as they are.
func (s *Session) Symmetrize() {
	for _, p := range s.known {
		for ref := range p.References {
			if q, ok := s.known[ref]; ok && q != p {
				q.Citations.Add(p.ID)
			}
		}
		for cit := range p.Citations {
			if q, ok := s.known[cit]; ok && q != p {
				q.References.Add(p.ID)
			}
		}
	}
}

// Ranked computes centrality over the known set and returns at most size
// publications: the seed first, then by ascending depth, descending
// centrality, and id.
func (s *Session) Ranked(size int) []*types.Publication {
	pubs := make([]*types.Publication, 0, len(s.known))
	for _, p := range s.known {
		pubs = append(pubs, p)
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].ID < pubs[j].ID })

	scores := graph.Centrality(pubs)
	for _, p := range pubs {
		p.Centrality = scores[p.ID]
	}

	sort.SliceStable(pubs, func(i, j int) bool {
		a, b := pubs[i], pubs[j]
		if (a == s.seed) != (b == s.seed) {
			return a == s.seed
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		if a.Centrality != b.Centrality {
			return a.Centrality > b.Centrality
		}
		return a.ID < b.ID
	})
	if len(pubs) > size {
		pubs = pubs[:size]
	}
	return pubs
}

// Retriever builds ranked candidate sets.
type Retriever struct {
	Source source.Source
	Logger *zap.Logger
}

// New returns a Retriever over src.
func New(src source.Source, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{Source: src, Logger: logger}
}

// Retrieve resolves seedID and expands its references until size
// publications are known or the graph is exhausted. The result holds at
// most size publications with the seed at index 0. A seed the source cannot
// resolve yields an error matching source.ErrPublicationNotFound.
func (r *Retriever) Retrieve(ctx context.Context, seedID string, size int) ([]*types.Publication, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	seed, err := r.Source.Get(ctx, seedID)
	if err != nil {
		return nil, fmt.Errorf("resolving seed %s: %w", seedID, err)
	}
	return r.RetrieveFrom(ctx, seed, size)
}

// RetrieveFrom expands an already resolved seed. The seed is annotated in
// place.
func (r *Retriever) RetrieveFrom(ctx context.Context, seed *types.Publication, size int) ([]*types.Publication, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := NewSession(seed)
	for s.Len() < size && len(s.Frontier()) > 0 {
		requested := len(s.Frontier())
		added, err := s.Expand(ctx, r.Source)
		if err != nil {
			return nil, err
		}
		logger.Debug("expanded references",
			zap.Int("depth", s.Depth()),
			zap.Int("requested", requested),
			zap.Int("added", added))
	}
	logger.Info("candidates retrieved", zap.String("seed", seed.ID), zap.Int("candidates", s.Len()))

	s.Symmetrize()
	return s.Ranked(size), nil
}
