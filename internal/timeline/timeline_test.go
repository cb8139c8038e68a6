// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

func pub(id string, year, depth, citedBy int, refs ...string) *types.Publication {
	return &types.Publication{
		ID: id, Title: id, Year: year, Depth: depth, CitationCount: citedBy,
		References: types.NewIDSet(refs...), Citations: types.IDSet{},
	}
}

func ids(pubs []*types.Publication) []string {
	out := make([]string, len(pubs))
	for i, p := range pubs {
		out[i] = p.ID
	}
	return out
}

func TestOrder_SameYearPairByCitationCount(t *testing.T) {
	pubs := []*types.Publication{
		pub("less", 2019, 1, 3),
		pub("newest", 2020, 1, 1),
		pub("more", 2019, 1, 30),
	}
	assert.Equal(t, []string{"newest", "more", "less"}, ids(Order(pubs)))
}

func TestOrder_CitingBeforeCitedWithinYear(t *testing.T) {
	pubs := []*types.Publication{
		pub("cited", 2019, 1, 500),
		pub("citing", 2019, 1, 2, "cited"),
		pub("old", 2010, 1, 0),
	}
	ordered := Order(pubs)
	assert.Equal(t, []string{"citing", "cited", "old"}, ids(ordered))
	assert.Equal(t, 0, ordered[0].TopoOrder)
	assert.Equal(t, 1, ordered[1].TopoOrder)
}

func TestOrder_CycleFallsBackToCitationCount(t *testing.T) {
	pubs := []*types.Publication{
		pub("a", 2019, 1, 1, "b"),
		pub("b", 2019, 1, 9, "a"),
	}
	assert.Equal(t, []string{"b", "a"}, ids(Order(pubs)))
	assert.Zero(t, pubs[0].TopoOrder)
	assert.Zero(t, pubs[1].TopoOrder)
}

func TestOrder_CrossYearLinksIgnored(t *testing.T) {
	pubs := []*types.Publication{
		pub("x", 2018, 1, 1),
		pub("y", 2018, 1, 5, "old"),
		pub("old", 2001, 1, 0),
	}
	assert.Equal(t, []string{"y", "x", "old"}, ids(Order(pubs)))
}

func TestBuild_Permutation(t *testing.T) {
	c := &types.Cluster{Members: []*types.Publication{
		pub("m1", 2015, 1, 10),
		pub("s1", 2012, 2, 4),
		pub("m2", 2018, 1, 3, "m1"),
		pub("s2", 2016, 3, 1),
		pub("m3", 2018, 1, 8),
		pub("s3", 2016, 2, 2),
	}}
	Build(c)

	all := append(ids(c.MainTimeline), ids(c.SecondaryTimeline)...)
	assert.ElementsMatch(t, ids(c.Members), all)
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(c.MainTimeline))
	assert.Equal(t, []string{"s3", "s2", "s1"}, ids(c.SecondaryTimeline))

	for i := 1; i < len(c.MainTimeline); i++ {
		assert.LessOrEqual(t, c.MainTimeline[i].Year, c.MainTimeline[i-1].Year)
	}
}

func TestBuild_Edges(t *testing.T) {
	c := &types.Cluster{Members: []*types.Publication{
		pub("m2018", 2018, 1, 0),
		pub("m2015", 2015, 1, 0),
		pub("m2010", 2010, 1, 0),
		pub("s2014", 2014, 2, 0),
		pub("s2001", 2001, 2, 0),
	}}
	Build(c)

	assert.Equal(t, []types.Edge{
		{From: "m2018", To: "m2015"},
		{From: "m2015", To: "m2010"},
		{From: "s2014", To: "s2001"},
		{From: "m2015", To: "s2014"},
	}, c.Edges)
}

func TestConnector(t *testing.T) {
	main := []*types.Publication{pub("a", 2020, 1, 0), pub("b", 2015, 1, 0), pub("c", 2012, 1, 0)}

	assert.Equal(t, "c", Connector(main, pub("s", 2011, 2, 0)).ID)
	assert.Equal(t, "b", Connector(main, pub("s", 2015, 2, 0)).ID)
	assert.Equal(t, "a", Connector(main, pub("s", 2019, 2, 0)).ID)
	// Every main entry is older: fall back to the oldest.
	assert.Equal(t, "c", Connector(main, pub("s", 2023, 2, 0)).ID)
}

func TestBuild_OnlyMain(t *testing.T) {
	c := &types.Cluster{Members: []*types.Publication{pub("a", 2020, 1, 0)}}
	Build(c)
	require.Len(t, c.MainTimeline, 1)
	assert.Empty(t, c.SecondaryTimeline)
	assert.Empty(t, c.Edges)
}
