// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/roadmap-engine/internal/kernel"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

func pub(id string, depth int, refs ...string) *types.Publication {
	return &types.Publication{ID: id, Title: id, Year: 2020, Depth: depth, References: types.NewIDSet(refs...), Citations: types.IDSet{}}
}

// blobs returns six 2-d points in two tight groups far apart.
func blobs() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		0, 0, 1, 0, 0, 1,
		100, 100, 101, 100, 100, 101,
	})
}

// triangles is a seed citing d1 and d2, where {d1,a1,a2} and {d2,b1,b2}
// are densely linked and the two groups share no links.
func triangles() []*types.Publication {
	return []*types.Publication{
		pub("seed", 0, "d1", "d2"),
		pub("d1", 1, "a1", "a2"),
		pub("a1", 2, "a2"),
		pub("a2", 2),
		pub("d2", 1, "b1", "b2"),
		pub("b1", 2, "b2"),
		pub("b2", 2),
	}
}

func sameGroup(labels []int, idx ...int) bool {
	for _, i := range idx[1:] {
		if labels[i] != labels[idx[0]] {
			return false
		}
	}
	return true
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// --- kernel k-means ---

func TestKernelKMeans_SeparatesBlobs(t *testing.T) {
	k := kernel.Linear(blobs())
	res, err := KernelKMeans(context.Background(), k, 2, 7, KMeansOptions{})
	require.NoError(t, err)

	assert.True(t, sameGroup(res.Labels, 0, 1, 2))
	assert.True(t, sameGroup(res.Labels, 3, 4, 5))
	assert.NotEqual(t, res.Labels[0], res.Labels[3])
	require.Len(t, res.RestartInertias, 10)
	best := math.Inf(1)
	for _, v := range res.RestartInertias {
		best = math.Min(best, v)
	}
	assert.False(t, math.IsInf(best, 1))
	assert.LessOrEqual(t, res.Inertia, best)
	// Each group has within-cluster squared distance 4/3.
	assert.InDelta(t, 8.0/3.0, res.Inertia, 1e-6)
}

func TestKernelKMeans_Deterministic(t *testing.T) {
	k := kernel.Linear(blobs())
	a, err := KernelKMeans(context.Background(), k, 3, 42, KMeansOptions{Workers: 1})
	require.NoError(t, err)
	b, err := KernelKMeans(context.Background(), k, 3, 42, KMeansOptions{Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKernelKMeans_InvalidCount(t *testing.T) {
	k := kernel.Linear(blobs())
	_, err := KernelKMeans(context.Background(), k, 0, 1, KMeansOptions{})
	assert.ErrorIs(t, err, ErrInvalidClusterCount)
	_, err = KernelKMeans(context.Background(), k, 7, 1, KMeansOptions{})
	assert.ErrorIs(t, err, ErrInvalidClusterCount)
}

func TestKernelKMeans_AllIdenticalPointsFail(t *testing.T) {
	k := kernel.Linear(mat.NewDense(4, 1, []float64{1, 1, 1, 1}))
	_, err := KernelKMeans(context.Background(), k, 2, 1, KMeansOptions{Restarts: 3})
	assert.ErrorIs(t, err, ErrClusteringFailed)
}

func TestKernelKMeans_RestartsRaisedToMinimum(t *testing.T) {
	k := kernel.Linear(blobs())
	for _, restarts := range []int{0, 1, 3, 9} {
		res, err := KernelKMeans(context.Background(), k, 2, 1, KMeansOptions{Restarts: restarts})
		require.NoError(t, err)
		assert.Len(t, res.RestartInertias, MinRestarts, "restarts=%d", restarts)
	}
	res, err := KernelKMeans(context.Background(), k, 2, 1, KMeansOptions{Restarts: 12})
	require.NoError(t, err)
	assert.Len(t, res.RestartInertias, 12)
}

func TestKernelKMeans_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := KernelKMeans(ctx, kernel.Linear(blobs()), 2, 1, KMeansOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKernelKMeans_StructuralKernel(t *testing.T) {
	sub := kernel.Build(triangles(), kernel.Options{Alpha: 1}).Sub(1)

	// Without a diagonal every kernel distance clips to zero.
	_, err := KernelKMeans(context.Background(), sub, 2, 3, KMeansOptions{})
	assert.ErrorIs(t, err, ErrClusteringFailed)

	res, err := KernelKMeans(context.Background(), sub.Shifted(), 2, 3, KMeansOptions{})
	require.NoError(t, err)
	assert.True(t, sameGroup(res.Labels, 0, 1, 2))
	assert.True(t, sameGroup(res.Labels, 3, 4, 5))
	assert.NotEqual(t, res.Labels[0], res.Labels[3])
	assert.InDelta(t, 0, res.Inertia, 1e-9)
}

func TestSeedCenters_DistinctCenters(t *testing.T) {
	k := kernel.Linear(blobs())
	for seed := uint64(0); seed < 20; seed++ {
		labels := seedCenters(k, 4, newRand(seed))
		centers := map[int]bool{}
		for _, l := range labels {
			if l >= 0 {
				assert.False(t, centers[l])
				centers[l] = true
			}
		}
		assert.Len(t, centers, 4)
	}
}

// --- alternatives ---

func TestSpectral_Triangles(t *testing.T) {
	pubs := triangles()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1}).Sub(1)
	res, err := Spectral(context.Background(), k, 2, 3, KMeansOptions{})
	require.NoError(t, err)
	assert.True(t, sameGroup(res.Labels, 0, 1, 2))
	assert.True(t, sameGroup(res.Labels, 3, 4, 5))
	assert.NotEqual(t, res.Labels[0], res.Labels[3])
}

func TestWard(t *testing.T) {
	res, err := Ward(blobs(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, res.Labels)
	assert.InDelta(t, 8.0/3.0, res.Inertia, 1e-9)

	res, err = Ward(blobs(), 6)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, res.Labels)
	assert.Zero(t, res.Inertia)

	_, err = Ward(blobs(), 7)
	assert.ErrorIs(t, err, ErrInvalidClusterCount)
}

// --- feasibility loop ---

func TestPartition_EveryClusterHasDirectReference(t *testing.T) {
	pubs := triangles()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})

	clusters, stats, err := Partition(context.Background(), pubs, k, Options{K: 2, Seed: 42})
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.GreaterOrEqual(t, stats.Attempts, 1)

	total := 0
	for i, c := range clusters {
		assert.Equal(t, i, c.ID)
		assert.GreaterOrEqual(t, c.DepthOneCount(), 1)
		total += len(c.Members)
		for _, p := range c.Members {
			require.NotNil(t, p.ClusterID)
			assert.Equal(t, c.ID, *p.ClusterID)
		}
	}
	assert.Equal(t, 6, total)
	assert.Nil(t, pubs[0].ClusterID)
}

func TestPartition_Deterministic(t *testing.T) {
	ids := func() [][]string {
		pubs := triangles()
		k := kernel.Build(pubs, kernel.Options{Alpha: 1})
		clusters, _, err := Partition(context.Background(), pubs, k, Options{K: 2, Seed: 9})
		require.NoError(t, err)
		var out [][]string
		for _, c := range clusters {
			var m []string
			for _, p := range c.Members {
				m = append(m, p.ID)
			}
			out = append(out, m)
		}
		return out
	}
	assert.Equal(t, ids(), ids())
}

func TestPartition_TooFewDirectReferences(t *testing.T) {
	pubs := triangles()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	_, stats, err := Partition(context.Background(), pubs, k, Options{K: 3, Seed: 1})
	assert.ErrorIs(t, err, ErrClusteringInfeasible)
	assert.Zero(t, stats.Attempts)
}

func TestPartition_InvalidK(t *testing.T) {
	pubs := triangles()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	for _, n := range []int{0, 7} {
		_, _, err := Partition(context.Background(), pubs, k, Options{K: n})
		assert.ErrorIs(t, err, ErrInvalidClusterCount, "K=%d", n)
	}
}

// directInOneBlob puts both depth-1 candidates in the same embedding blob,
// so the natural two-way split is never feasible.
func directInOneBlob() []*types.Publication {
	x := blobs()
	pubs := []*types.Publication{pub("seed", 0)}
	pubs[0].Embedding = []float64{50, 50}
	for i := 0; i < 6; i++ {
		depth := 2
		if i < 2 {
			depth = 1
		}
		p := pub(string(rune('a'+i)), depth)
		p.Embedding = mat.Row(nil, i, x)
		pubs = append(pubs, p)
	}
	return pubs
}

func TestPartition_CapsAttempts(t *testing.T) {
	pubs := directInOneBlob()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	_, stats, err := Partition(context.Background(), pubs, k, Options{
		K: 2, Algorithm: types.AlgorithmKMeans, Seed: 5, MaxAttempts: 3,
	})
	assert.ErrorIs(t, err, ErrClusteringInfeasible)
	assert.Equal(t, 3, stats.Attempts)
}

func TestPartition_DeterministicAlgorithmTriedOnce(t *testing.T) {
	pubs := directInOneBlob()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	_, stats, err := Partition(context.Background(), pubs, k, Options{K: 2, Algorithm: types.AlgorithmHierarchical})
	assert.ErrorIs(t, err, ErrClusteringInfeasible)
	assert.Equal(t, 1, stats.Attempts)
}

func TestPartition_EmbeddingsRequired(t *testing.T) {
	pubs := triangles()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	for _, alg := range []types.ClusterAlgorithm{types.AlgorithmKMeans, types.AlgorithmHierarchical} {
		_, _, err := Partition(context.Background(), pubs, k, Options{K: 2, Algorithm: alg})
		assert.ErrorIs(t, err, ErrEmbeddingsRequired, string(alg))
	}
}

func TestPartition_UnknownAlgorithm(t *testing.T) {
	pubs := triangles()
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	_, _, err := Partition(context.Background(), pubs, k, Options{K: 2, Algorithm: "dbscan"})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestPartition_HierarchicalFeasible(t *testing.T) {
	pubs := directInOneBlob()
	pubs[4].Depth = 1 // d now anchors the second blob
	k := kernel.Build(pubs, kernel.Options{Alpha: 1})
	clusters, stats, err := Partition(context.Background(), pubs, k, Options{K: 2, Algorithm: types.AlgorithmHierarchical})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Attempts)
	assert.Len(t, clusters[0].Members, 3)
	assert.False(t, math.IsInf(stats.Inertia, 0))
}
