// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

func pub(id string, refs ...string) *types.Publication {
	return &types.Publication{ID: id, Title: id, Year: 2020, References: types.NewIDSet(refs...), Citations: types.IDSet{}}
}

func TestIndex(t *testing.T) {
	idx := NewIndex([]string{"a", "b", "a", "c"})
	assert.Equal(t, 3, idx.Len())
	n, ok := idx.Node("c")
	require.True(t, ok)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "b", idx.ID(1))
	_, ok = idx.Node("z")
	assert.False(t, ok)
}

func TestPairs_RestrictedToSet(t *testing.T) {
	a := pub("a", "b", "x", "a")
	b := pub("b")
	c := pub("c")
	c.Citations.Add("a")
	c.Citations.Add("y")

	pairs := Pairs([]*types.Publication{a, b, c})
	assert.Equal(t, [][2]string{{"a", "b"}, {"a", "c"}}, pairs)
}

func TestCitation_Direction(t *testing.T) {
	g, idx := Citation([]*types.Publication{pub("a", "b"), pub("b")})
	a, _ := idx.Node("a")
	b, _ := idx.Node("b")
	assert.True(t, g.HasEdgeFromTo(a, b))
	assert.False(t, g.HasEdgeFromTo(b, a))
	assert.Equal(t, 2, g.Nodes().Len())
}

func TestFromEdges_IgnoresOutsidePairs(t *testing.T) {
	idx := NewIndex([]string{"a", "b", "c"})
	g := FromEdges(idx, [][2]string{{"a", "b"}, {"b", "z"}, {"c", "c"}})
	assert.Equal(t, 3, g.Nodes().Len())
	assert.Equal(t, 1, g.Edges().Len())
	assert.True(t, g.HasEdgeBetween(0, 1))
}

func TestCentrality_HubScoresHighest(t *testing.T) {
	pubs := []*types.Publication{
		pub("hub", "a", "b", "c", "d"),
		pub("a"), pub("b"), pub("c"), pub("d"),
		pub("lonely"),
	}
	scores := Centrality(pubs)
	require.Len(t, scores, 6)
	for _, id := range []string{"a", "b", "c", "d", "lonely"} {
		assert.Greater(t, scores["hub"], scores[id], id)
	}
	assert.InDelta(t, scores["a"], scores["d"], 1e-9)

	var sum float64
	for _, s := range scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestCentrality_Deterministic(t *testing.T) {
	pubs := []*types.Publication{
		pub("s", "a", "b"), pub("a", "c"), pub("b", "c"), pub("c"), pub("d", "s"),
	}
	first := Centrality(pubs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Centrality(pubs))
	}
}

func TestCentrality_Small(t *testing.T) {
	assert.Empty(t, Centrality(nil))
	assert.Equal(t, map[string]float64{"a": 1}, Centrality([]*types.Publication{pub("a")}))
}

func TestTopologicalOrder_CitingFirst(t *testing.T) {
	pubs := []*types.Publication{pub("old"), pub("mid", "old"), pub("new", "mid", "old"), pub("alone")}
	order, ok := TopologicalOrder(pubs)
	require.True(t, ok)
	assert.Equal(t, []string{"new", "mid", "old"}, order)
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	order, ok := TopologicalOrder([]*types.Publication{pub("a", "b"), pub("b", "a")})
	assert.False(t, ok)
	assert.Nil(t, order)
}

func TestTopologicalOrder_NoLinks(t *testing.T) {
	order, ok := TopologicalOrder([]*types.Publication{pub("a"), pub("b")})
	assert.True(t, ok)
	assert.Empty(t, order)
}
