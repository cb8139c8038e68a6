// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph builds gonum graphs over publication sets and computes the
// graph measures the roadmap stages rely on: PageRank centrality for
// retrieval ranking and citation order for timelines.
package graph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Damping is the PageRank damping factor.
const Damping = 0.85

// pageRankTolerance is tight enough that quantized scores do not depend on
// the random start vector gonum uses.
const pageRankTolerance = 1e-12

// quantum is the resolution centrality scores are rounded to.
const quantum = 1e-9

// Index maps publication ids to dense gonum node ids in input order.
type Index struct {
	ids []string
	pos map[string]int64
}

// NewIndex returns an index over ids. Duplicate ids keep their first position.
func NewIndex(ids []string) *Index {
	idx := &Index{pos: make(map[string]int64, len(ids))}
	for _, id := range ids {
		if _, dup := idx.pos[id]; dup {
			continue
		}
		idx.pos[id] = int64(len(idx.ids))
		idx.ids = append(idx.ids, id)
	}
	return idx
}

// IndexOf returns an index over the ids of pubs.
func IndexOf(pubs []*types.Publication) *Index {
	ids := make([]string, len(pubs))
	for i, p := range pubs {
		ids[i] = p.ID
	}
	return NewIndex(ids)
}

// Len returns the number of indexed ids.
func (idx *Index) Len() int { return len(idx.ids) }

// ID returns the publication id of node n.
func (idx *Index) ID(n int64) string { return idx.ids[n] }

// Node returns the node id of a publication id.
func (idx *Index) Node(id string) (int64, bool) {
	n, ok := idx.pos[id]
	return n, ok
}

// Pairs returns every citing → cited pair with both ends inside the set.
// Both the reference lists and the citation lists contribute, so a link known
// from either side is found. Self references are ignored. The result is
// sorted and free of duplicates.
func Pairs(pubs []*types.Publication) [][2]string {
	idx := IndexOf(pubs)
	seen := make(map[[2]string]bool)
	var out [][2]string
	add := func(from, to string) {
		if from == to {
			return
		}
		if _, ok := idx.Node(from); !ok {
			return
		}
		if _, ok := idx.Node(to); !ok {
			return
		}
		e := [2]string{from, to}
		if seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}
	for _, p := range pubs {
		for ref := range p.References {
			add(p.ID, ref)
		}
		for cit := range p.Citations {
			add(cit, p.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Citation returns the directed citation graph of pubs, with an edge from
// each citing paper to the paper it references.
func Citation(pubs []*types.Publication) (*simple.DirectedGraph, *Index) {
	idx := IndexOf(pubs)
	g := simple.NewDirectedGraph()
	for i := 0; i < idx.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range Pairs(pubs) {
		from, _ := idx.Node(e[0])
		to, _ := idx.Node(e[1])
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	return g, idx
}

// Undirected returns the citation graph of pubs with edge direction dropped.
func Undirected(pubs []*types.Publication) (*simple.UndirectedGraph, *Index) {
	idx := IndexOf(pubs)
	return FromEdges(idx, Pairs(pubs)), idx
}

// FromEdges returns an undirected graph over every id in idx with an edge for
// each pair whose ends are both indexed. Self pairs are ignored.
func FromEdges(idx *Index, pairs [][2]string) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < idx.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range pairs {
		a, okA := idx.Node(e[0])
		b, okB := idx.Node(e[1])
		if !okA || !okB || a == b {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
	}
	return g
}

// Centrality returns the PageRank score of every publication over the
// symmetrized citation graph. Scores are rounded to 1e-9.
func Centrality(pubs []*types.Publication) map[string]float64 {
	idx := IndexOf(pubs)
	scores := make(map[string]float64, idx.Len())
	switch idx.Len() {
	case 0:
		return scores
	case 1:
		scores[idx.ID(0)] = 1
		return scores
	}

	g := simple.NewDirectedGraph()
	for i := 0; i < idx.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range Pairs(pubs) {
		a, _ := idx.Node(e[0])
		b, _ := idx.Node(e[1])
		g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
		g.SetEdge(simple.Edge{F: simple.Node(b), T: simple.Node(a)})
	}

	for n, r := range network.PageRankSparse(g, Damping, pageRankTolerance) {
		scores[idx.ID(n)] = math.Round(r/quantum) * quantum
	}
	return scores
}

// TopologicalOrder returns the ids of the publications that take part in at
// least one citation link among pubs, ordered so every citing paper comes
// before the papers it cites. Ties are broken by input order. ok is false when
// the links contain a cycle.
func TopologicalOrder(pubs []*types.Publication) (order []string, ok bool) {
	pairs := Pairs(pubs)
	linked := make(map[string]bool)
	for _, e := range pairs {
		linked[e[0]] = true
		linked[e[1]] = true
	}
	var members []*types.Publication
	for _, p := range pubs {
		if linked[p.ID] {
			members = append(members, p)
		}
	}
	if len(members) == 0 {
		return nil, true
	}

	g, idx := Citation(members)
	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		// topo.Unorderable: the links contain a cycle.
		return nil, false
	}
	order = make([]string, len(sorted))
	for i, n := range sorted {
		order[i] = idx.ID(n.ID())
	}
	return order, true
}
