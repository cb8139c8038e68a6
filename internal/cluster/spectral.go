// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/roadmap-engine/internal/kernel"
)

// Spectral clusters the points of k by running kernel k-means on the
// leading eigenvectors of the normalized affinity D^-1/2 A D^-1/2. A kernel
// with negative entries is shifted by its minimum first so the affinity is
// non-negative.
func Spectral(ctx context.Context, k *kernel.Kernel, n int, seed uint64, opts KMeansOptions) (Result, error) {
	size := k.Len()
	if n < 1 || n > size {
		return Result{}, fmt.Errorf("%w: %d clusters for %d points", ErrInvalidClusterCount, n, size)
	}

	shift := 0.0
	if lo := k.Min(); lo < 0 {
		shift = -lo
	}
	degree := make([]float64, size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			degree[i] += k.At(i, j) + shift
		}
	}

	affinity := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		for j := i; j < size; j++ {
			if degree[i] <= 0 || degree[j] <= 0 {
				continue
			}
			affinity.SetSym(i, j, (k.At(i, j)+shift)/math.Sqrt(degree[i]*degree[j]))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(affinity, true); !ok {
		return Result{}, fmt.Errorf("%w: eigendecomposition did not converge", ErrClusteringFailed)
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues come in ascending order; keep the last n columns.
	embedding := mat.DenseCopyOf(vectors.Slice(0, size, size-n, size))
	for i := 0; i < size; i++ {
		row := embedding.RawRowView(i)
		norm := 0.0
		for _, v := range row {
			norm += v * v
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for j := range row {
			row[j] /= norm
		}
	}

	return KernelKMeans(ctx, kernel.Linear(embedding), n, seed, opts)
}
