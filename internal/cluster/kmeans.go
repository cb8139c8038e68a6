// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/roadmap-engine/internal/kernel"
)

// MinRestarts is the fewest independent k-means runs a clustering uses.
const MinRestarts = 10

// KMeansOptions tunes kernel k-means.
type KMeansOptions struct {
	// Restarts is the number of independent runs; the lowest inertia wins.
	// Values below MinRestarts are raised to it.
	Restarts int

	// MaxIter caps Lloyd iterations per run.
	MaxIter int

	// Tolerance stops a run once the fraction of points changing cluster
	// is at or below it.
	Tolerance float64

	// Workers bounds concurrently running restarts.
	Workers int
}

func (o KMeansOptions) withDefaults() KMeansOptions {
	if o.Restarts < MinRestarts {
		o.Restarts = MinRestarts
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 300
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-8
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Result is a labeling of the kernel's points.
type Result struct {
	Labels  []int
	Inertia float64

	// RestartInertias holds every restart's final inertia in restart order;
	// restarts that left a cluster empty report +Inf.
	RestartInertias []float64
}

// KernelKMeans partitions the points of k into n clusters using only
// kernel evaluations. Each restart draws its own PCG stream from seed, so
// results do not depend on scheduling. Restarts that leave a cluster empty
// are discarded; if every restart does, ErrClusteringFailed is returned.
func KernelKMeans(ctx context.Context, k *kernel.Kernel, n int, seed uint64, opts KMeansOptions) (Result, error) {
	opts = opts.withDefaults()
	if n < 1 || n > k.Len() {
		return Result{}, fmt.Errorf("%w: %d clusters for %d points", ErrInvalidClusterCount, n, k.Len())
	}

	master := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seeds := make([]uint64, opts.Restarts)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	type run struct {
		labels  []int
		inertia float64
	}
	runs := make([]run, opts.Restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			labels, inertia := lloyd(k, n, rng, opts.MaxIter, opts.Tolerance)
			runs[i] = run{labels: labels, inertia: inertia}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Inertia: math.Inf(1), RestartInertias: make([]float64, len(runs))}
	for i, r := range runs {
		if hasEmptyCluster(r.labels, n) {
			res.RestartInertias[i] = math.Inf(1)
			continue
		}
		res.RestartInertias[i] = r.inertia
		if res.Labels == nil || r.inertia < res.Inertia {
			res.Labels, res.Inertia = r.labels, r.inertia
		}
	}
	if res.Labels == nil {
		return res, fmt.Errorf("%w: every restart left a cluster empty", ErrClusteringFailed)
	}
	return res, nil
}

// lloyd runs one k-means restart and returns its labeling and inertia.
func lloyd(k *kernel.Kernel, n int, rng *rand.Rand, maxIter int, tol float64) ([]int, float64) {
	labels := seedCenters(k, n, rng)

	var best []int
	bestInertia := math.Inf(1)
	shift := 1.0
	for iter := 0; iter < maxIter; iter++ {
		old := labels
		var inertia float64
		labels, inertia = assign(k, n, old)
		if best == nil || inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
		shift = changed(old, labels)
		if shift <= tol {
			break
		}
	}
	if shift > 0 {
		// Not converged: one more assignment so labels match their centers.
		return assign(k, n, labels)
	}
	return best, bestInertia
}

// assign moves every point to its nearest cluster of prev (implicit
// centroids). Points labeled -1 belong to no cluster. Ties go to the lower
// cluster index.
func assign(k *kernel.Kernel, n int, prev []int) ([]int, float64) {
	size := k.Len()
	dist := make([][]float64, n)
	weights := make([]float64, size)
	for c := 0; c < n; c++ {
		for i, l := range prev {
			weights[i] = 0
			if l == c {
				weights[i] = 1
			}
		}
		dist[c] = k.Distances(weights)
	}

	labels := make([]int, size)
	var inertia float64
	for x := 0; x < size; x++ {
		bestC, bestD := 0, dist[0][x]
		for c := 1; c < n; c++ {
			if dist[c][x] < bestD {
				bestC, bestD = c, dist[c][x]
			}
		}
		labels[x] = bestC
		inertia += bestD
	}
	return labels, inertia
}

// seedCenters picks n centers k-means++ style with 2+⌊ln n⌋ local trials per
// center. The returned labels mark center c with c and every other point -1.
func seedCenters(k *kernel.Kernel, n int, rng *rand.Rand) []int {
	size := k.Len()
	labels := make([]int, size)
	for i := range labels {
		labels[i] = -1
	}
	trials := 2 + int(math.Log(float64(n)))

	first := rng.IntN(size)
	labels[first] = 0
	closest := k.Distances(oneHot(size, first))
	potential := sum(closest)

	cum := make([]float64, size)
	for c := 1; c < n; c++ {
		var acc float64
		for i, d := range closest {
			acc += d
			cum[i] = acc
		}

		bestID, bestPot := -1, math.Inf(1)
		var bestDist []float64
		for t := 0; t < trials; t++ {
			id := sort.SearchFloat64s(cum, rng.Float64()*potential)
			if id >= size {
				id = size - 1
			}
			if labels[id] != -1 {
				id = randomNonCenter(labels, rng)
			}
			d := k.Distances(oneHot(size, id))
			for i := range d {
				d[i] = math.Min(d[i], closest[i])
			}
			if pot := sum(d); pot < bestPot {
				bestID, bestPot, bestDist = id, pot, d
			}
		}
		labels[bestID] = c
		closest, potential = bestDist, bestPot
	}
	return labels
}

// randomNonCenter returns a uniformly chosen point that is not yet a center.
func randomNonCenter(labels []int, rng *rand.Rand) int {
	var free []int
	for i, l := range labels {
		if l == -1 {
			free = append(free, i)
		}
	}
	return free[rng.IntN(len(free))]
}

func changed(old, cur []int) float64 {
	diff := 0
	for i := range cur {
		if old[i] != cur[i] {
			diff++
		}
	}
	return float64(diff) / float64(len(cur))
}

func hasEmptyCluster(labels []int, n int) bool {
	counts := make([]int, n)
	for _, l := range labels {
		counts[l]++
	}
	for _, c := range counts {
		if c == 0 {
			return true
		}
	}
	return false
}

func oneHot(size, i int) []float64 {
	w := make([]float64, size)
	w[i] = 1
	return w
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
