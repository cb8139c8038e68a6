// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

func pub(id string, refs ...string) *types.Publication {
	return &types.Publication{ID: id, Title: id, Year: 2020, References: types.NewIDSet(refs...), Citations: types.IDSet{}}
}

func assertSymmetric(t *testing.T, k *Kernel) {
	t.Helper()
	for i := 0; i < k.Len(); i++ {
		for j := 0; j < k.Len(); j++ {
			assert.InDelta(t, k.At(i, j), k.At(j, i), 1e-12)
		}
	}
}

func TestBuild_Structural(t *testing.T) {
	pubs := []*types.Publication{pub("s", "a", "b"), pub("a", "b"), pub("b"), pub("c")}
	k := Build(pubs, Options{Alpha: 2, Beta: 0.5, Supervision: [][2]string{{"a", "c"}, {"c", "x"}}})

	require.Equal(t, 4, k.Len())
	assertSymmetric(t, k)
	assert.Equal(t, 2.0, k.At(0, 1))
	assert.Equal(t, 2.0, k.At(0, 2))
	assert.Equal(t, 2.0, k.At(1, 2))
	assert.Equal(t, 0.5, k.At(1, 3))
	assert.Equal(t, 0.0, k.At(0, 3))
	assert.Equal(t, 0.0, k.At(2, 2))
	assert.GreaterOrEqual(t, k.Min(), 0.0)
}

func TestBuild_SupervisionOverlapsCitation(t *testing.T) {
	pubs := []*types.Publication{pub("s", "a"), pub("a")}
	k := Build(pubs, Options{Alpha: 1, Beta: 1, Supervision: [][2]string{{"s", "a"}, {"a", "s"}}})
	assert.Equal(t, 2.0, k.At(0, 1))
}

func TestBuild_Embeddings(t *testing.T) {
	pubs := []*types.Publication{pub("s"), pub("a"), pub("b"), pub("c")}
	pubs[0].Embedding = []float64{1, 0}
	pubs[1].Embedding = []float64{1, 1}
	pubs[2].Embedding = []float64{0, 2}
	pubs[3].Embedding = []float64{2, 0}

	k := Build(pubs, Options{Alpha: 1})
	assertSymmetric(t, k)

	// Seed row: cosine similarity.
	assert.InDelta(t, 1.0, k.At(0, 0), 1e-12)
	assert.InDelta(t, 1/math.Sqrt2, k.At(0, 1), 1e-12)
	assert.InDelta(t, 0.0, k.At(0, 2), 1e-12)
	assert.InDelta(t, 1.0, k.At(0, 3), 1e-12)

	// Non-seed block: centered inner products, mean (1, 1).
	// a=(0,0) b=(-1,1) c=(1,-1)
	assert.InDelta(t, 0.0, k.At(1, 1), 1e-12)
	assert.InDelta(t, 2.0, k.At(2, 2), 1e-12)
	assert.InDelta(t, -2.0, k.At(2, 3), 1e-12)
}

func TestBuild_PartialEmbeddingsIgnored(t *testing.T) {
	pubs := []*types.Publication{pub("s"), pub("a")}
	pubs[0].Embedding = []float64{1, 0}
	k := Build(pubs, Options{Alpha: 1})
	assert.Equal(t, 0.0, k.At(0, 0))

	_, ok := Embeddings(pubs)
	assert.False(t, ok)
}

func TestBuild_Empty(t *testing.T) {
	k := Build(nil, Options{Alpha: 1})
	assert.Equal(t, 0, k.Len())
	assert.Equal(t, 0, k.Shifted().Len())

	k, err := FromRows(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, k.Len())
}

func TestShifted_StructuralKernel(t *testing.T) {
	pubs := []*types.Publication{pub("a", "b", "c"), pub("b", "c"), pub("c"), pub("d")}
	k := Build(pubs, Options{Alpha: 2})
	require.Equal(t, 0.0, k.At(0, 0))

	shifted := k.Shifted()
	assertSymmetric(t, shifted)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 2.0, shifted.At(i, i))
	}
	assert.Equal(t, 2.0, shifted.At(0, 1))
	assert.Equal(t, 0.0, shifted.At(0, 3))
	assert.Equal(t, 0.0, k.At(1, 1), "original kernel is left unchanged")

	// Linked points are now closer than unlinked ones.
	assert.Less(t, shifted.Distance(0, []float64{0, 1, 0, 0}), shifted.Distance(0, []float64{0, 0, 0, 1}))
}

func TestShifted_DominantDiagonalUnchanged(t *testing.T) {
	k, err := FromRows([][]float64{{3, 1}, {1, 2}})
	require.NoError(t, err)
	assert.Same(t, k, k.Shifted())
}

func TestSub(t *testing.T) {
	k, err := FromRows([][]float64{{1, 2, 3}, {2, 4, 5}, {3, 5, 6}})
	require.NoError(t, err)
	sub := k.Sub(1)
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 4.0, sub.At(0, 0))
	assert.Equal(t, 5.0, sub.At(0, 1))
	assert.Equal(t, []float64{5, 6}, sub.Row(1))
	assert.Equal(t, 0, k.Sub(3).Len())
	assert.Panics(t, func() { k.Sub(4) })
}

func TestFromRows_Validation(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3, 1}})
	assert.Error(t, err)
	_, err = FromRows([][]float64{{1, 2}, {2}})
	assert.Error(t, err)
}

func TestDistance_SelfIsZero(t *testing.T) {
	pubs := []*types.Publication{pub("s", "a", "b"), pub("a", "b"), pub("b", "c"), pub("c")}
	k := Build(pubs, Options{Alpha: 1})
	for x := 0; x < k.Len(); x++ {
		w := make([]float64, k.Len())
		w[x] = 1
		assert.InDelta(t, 0.0, k.Distance(x, w), 1e-9, "point %d", x)
	}
}

func TestDistance_MatchesEuclideanForLinearKernel(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{0, 0, 2, 0, 0, 4})
	k := Linear(x)

	// Centroid of points 1 and 2 is (1, 2); point 0 is at squared distance 5.
	assert.InDelta(t, 5.0, k.Distance(0, []float64{0, 1, 1}), 1e-9)
	// Weights need not be normalized.
	assert.InDelta(t, 5.0, k.Distance(0, []float64{0, 3, 3}), 1e-9)

	d := k.Distances([]float64{1, 0, 0})
	assert.InDeltaSlice(t, []float64{0, 4, 16}, d, 1e-9)
}

func TestDistance_EmptySetIsSelfSimilarity(t *testing.T) {
	k, err := FromRows([][]float64{{3, 1}, {1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, k.Distance(0, []float64{0, 0}))
	assert.Equal(t, []float64{3, 2}, k.Distances([]float64{0, 0}))
}

func TestDistance_ClippedAtZero(t *testing.T) {
	// Not positive semi-definite: raw distance would be negative.
	k, err := FromRows([][]float64{{0, 5}, {5, 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, k.Distance(0, []float64{0, 1}))
}
