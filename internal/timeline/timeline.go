// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package timeline orders a cluster's members into a main timeline (papers
// the seed cites directly) and a secondary timeline (everything deeper),
// newest first, and wires both into a presentation graph.
package timeline

import (
	"sort"

	"github.com/pdiddy/roadmap-engine/internal/graph"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Build fills MainTimeline, SecondaryTimeline, and Edges of c and writes
// TopoOrder on the members that take part in a same-year citation link.
func Build(c *types.Cluster) {
	var main, secondary []*types.Publication
	for _, p := range c.Members {
		if p.Depth == 1 {
			main = append(main, p)
		} else if p.Depth > 1 {
			secondary = append(secondary, p)
		}
	}
	c.MainTimeline = Order(main)
	c.SecondaryTimeline = Order(secondary)
	c.Edges = Edges(c.MainTimeline, c.SecondaryTimeline)
}

// Order sorts pubs newest first. Within a year, papers citing other papers
// of that year come before the papers they cite; remaining ties go to the
// more cited paper, then the lower id. A citation cycle inside a year leaves
// that year's topological order untouched.
func Order(pubs []*types.Publication) []*types.Publication {
	byYear := make(map[int][]*types.Publication)
	for _, p := range pubs {
		byYear[p.Year] = append(byYear[p.Year], p)
	}
	for _, group := range byYear {
		order, ok := graph.TopologicalOrder(group)
		if !ok {
			continue
		}
		pos := make(map[string]int, len(order))
		for i, id := range order {
			pos[id] = i
		}
		for _, p := range group {
			if i, linked := pos[p.ID]; linked {
				p.TopoOrder = i
			}
		}
	}

	out := append([]*types.Publication(nil), pubs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.TopoOrder != b.TopoOrder {
			return a.TopoOrder < b.TopoOrder
		}
		if a.CitedBy() != b.CitedBy() {
			return a.CitedBy() > b.CitedBy()
		}
		return a.ID < b.ID
	})
	return out
}

// Edges returns the presentation graph: consecutive entries of each
// timeline are linked, and one connector joins the main timeline to the
// newest secondary entry. The connector is the oldest main entry whose year
// is not before that secondary entry's year, or the oldest main entry when
// every main entry is older.
func Edges(main, secondary []*types.Publication) []types.Edge {
	var edges []types.Edge
	for i := 0; i+1 < len(main); i++ {
		edges = append(edges, types.Edge{From: main[i].ID, To: main[i+1].ID})
	}
	for i := 0; i+1 < len(secondary); i++ {
		edges = append(edges, types.Edge{From: secondary[i].ID, To: secondary[i+1].ID})
	}
	if len(main) == 0 || len(secondary) == 0 {
		return edges
	}
	return append(edges, types.Edge{From: Connector(main, secondary[0]).ID, To: secondary[0].ID})
}

// Connector picks the main timeline entry the secondary timeline hangs from.
func Connector(main []*types.Publication, latest *types.Publication) *types.Publication {
	for i := len(main) - 1; i >= 0; i-- {
		if main[i].Year >= latest.Year {
			return main[i]
		}
	}
	return main[len(main)-1]
}
