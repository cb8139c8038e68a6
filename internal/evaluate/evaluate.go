// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores roadmaps against the citation structure they were
// built from: how much of the maximum spanning tree of neighborhood overlap
// the presentation edges recover, and how well embedding similarity tracks
// neighborhood overlap.
package evaluate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/roadmap-engine/internal/graph"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Neighborhoods returns, for every publication, the set of its citations,
// its references, and itself.
func Neighborhoods(pubs []*types.Publication) map[string]types.IDSet {
	out := make(map[string]types.IDSet, len(pubs))
	for _, p := range pubs {
		n := types.NewIDSet(p.ID)
		for id := range p.Citations {
			n.Add(id)
		}
		for id := range p.References {
			n.Add(id)
		}
		out[p.ID] = n
	}
	return out
}

// Overlap is |a ∩ b| / sqrt(|a| |b|), or 0 when either set is empty.
func Overlap(a, b types.IDSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	shared := 0
	for id := range a {
		if b.Has(id) {
			shared++
		}
	}
	return float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
}

// MST returns the relative spanning score of a roadmap: the total overlap
// weight of its presentation edges, plus one edge from the seed to the
// newest paper of every branch, divided by the weight of the maximum
// spanning tree of the complete overlap graph over pubs. pubs[0] is the
// seed. The score is 0 when the tree has no weight.
func MST(pubs []*types.Publication, clusters []*types.Cluster) float64 {
	if len(pubs) < 2 {
		return 0
	}
	hoods := Neighborhoods(pubs)
	weight := func(a, b string) float64 { return Overlap(hoods[a], hoods[b]) }

	idx := graph.IndexOf(pubs)
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < idx.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < idx.Len(); i++ {
		for j := i + 1; j < idx.Len(); j++ {
			// Kruskal finds minimum trees, so the weights are negated.
			w := weight(idx.ID(int64(i)), idx.ID(int64(j)))
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: -w})
		}
	}
	gold := -path.Kruskal(simple.NewWeightedUndirectedGraph(0, math.Inf(1)), g)
	if gold <= 0 {
		return 0
	}

	seed := pubs[0].ID
	var generated float64
	for _, c := range clusters {
		for _, e := range c.Edges {
			generated += weight(e.From, e.To)
		}
		switch {
		case len(c.MainTimeline) > 0:
			generated += weight(seed, c.MainTimeline[0].ID)
		case len(c.SecondaryTimeline) > 0:
			generated += weight(seed, c.SecondaryTimeline[0].ID)
		}
	}
	return generated / gold
}

// NeighborhoodSimilarity returns the Spearman rank correlation between the
// pairwise cosine similarity of the embeddings of pubs and their pairwise
// neighborhood overlap, over all ordered pairs. ok is false when some
// publication has no embedding, the lengths differ, or either side is
// constant.
func NeighborhoodSimilarity(pubs []*types.Publication) (rho float64, ok bool) {
	n := len(pubs)
	if n == 0 {
		return 0, false
	}
	dim := len(pubs[0].Embedding)
	if dim == 0 {
		return 0, false
	}
	data := make([]float64, 0, n*dim)
	for _, p := range pubs {
		if len(p.Embedding) != dim {
			return 0, false
		}
		data = append(data, p.Embedding...)
	}
	x := mat.NewDense(n, dim, data)
	norms := make([]float64, n)
	for i := range norms {
		norms[i] = mat.Norm(x.RowView(i), 2)
	}

	hoods := Neighborhoods(pubs)
	gold := make([]float64, 0, n*n)
	sim := make([]float64, 0, n*n)
	for i, a := range pubs {
		for j, b := range pubs {
			gold = append(gold, overlapSmoothed(hoods[a.ID], hoods[b.ID]))
			var cos float64
			if norms[i] > 0 && norms[j] > 0 {
				cos = mat.Dot(x.RowView(i), x.RowView(j)) / (norms[i] * norms[j])
			}
			sim = append(sim, cos)
		}
	}
	rho = Spearman(gold, sim)
	if math.IsNaN(rho) {
		return 0, false
	}
	return rho, true
}

func overlapSmoothed(a, b types.IDSet) float64 {
	shared := 0
	for id := range a {
		if b.Has(id) {
			shared++
		}
	}
	return float64(shared) / (math.Sqrt(float64(len(a))*float64(len(b))) + 1e-8)
}

// Spearman returns the rank correlation of x and y: the Pearson correlation
// of their ranks, with tied values sharing their average rank. It is NaN
// when either input is constant.
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(Ranks(x), Ranks(y), nil)
}

// Ranks returns the 1-based rank of every value, averaging ties.
func Ranks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, len(values))
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && values[order[end]] == values[order[start]] {
			end++
		}
		avg := float64(start+end+1) / 2
		for _, i := range order[start:end] {
			ranks[i] = avg
		}
		start = end
	}
	return ranks
}
