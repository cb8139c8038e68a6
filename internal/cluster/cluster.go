// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster partitions the non-seed candidates of a roadmap into
// branches. Kernel k-means is the primary algorithm; plain k-means,
// spectral, and Ward clustering are drop-in alternatives. Every algorithm
// runs inside the same feasibility loop, which requires each branch to hold
// at least one publication the seed cites directly.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/internal/kernel"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

var (
	// ErrClusteringInfeasible means no attempt gave every cluster a depth-1 member.
	ErrClusteringInfeasible = errors.New("no clustering gives every cluster a depth-1 member")

	// ErrClusteringFailed means the algorithm produced no usable labeling.
	ErrClusteringFailed = errors.New("clustering failed")

	// ErrInvalidClusterCount means K is below 1 or above the number of non-seed candidates.
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrEmbeddingsRequired means the algorithm needs embeddings on every candidate.
	ErrEmbeddingsRequired = errors.New("algorithm requires embeddings")

	// ErrUnknownAlgorithm means the algorithm name is not recognized.
	ErrUnknownAlgorithm = errors.New("unknown clustering algorithm")
)

// DefaultMaxAttempts caps the feasibility loop.
const DefaultMaxAttempts = 100

// Options configures Partition.
type Options struct {
	// K is the number of clusters.
	K int

	// Algorithm selects the assignment step (default kernel-kmeans).
	Algorithm types.ClusterAlgorithm

	// Seed makes every random choice reproducible.
	Seed int64

	// MaxAttempts caps the feasibility loop (default 100).
	MaxAttempts int

	KMeans KMeansOptions

	Logger *zap.Logger
}

// Stats describes how a partition was found.
type Stats struct {
	// Attempts is the number of labelings tried by the feasibility loop.
	Attempts int

	// Inertia is the objective value of the accepted labeling.
	Inertia float64

	// RestartInertias holds the restart inertias of the accepted attempt.
	RestartInertias []float64
}

// Partition clusters pubs[1:] into opts.K clusters using k, the kernel over
// all of pubs (the seed is row 0 and takes no part). Every returned cluster
// holds at least one depth-1 publication; labelings violating that are
// rejected and retried with fresh randomness up to MaxAttempts times.
// Deterministic algorithms are tried once. Members keep candidate order and
// get their ClusterID set.
func Partition(ctx context.Context, pubs []*types.Publication, k *kernel.Kernel, opts Options) ([]*types.Cluster, Stats, error) {
	var stats Stats
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if k.Len() != len(pubs) {
		return nil, stats, fmt.Errorf("kernel has %d rows for %d publications", k.Len(), len(pubs))
	}
	points := pubs[1:]
	if opts.K < 1 || opts.K > len(points) {
		return nil, stats, fmt.Errorf("%w: K=%d with %d non-seed candidates", ErrInvalidClusterCount, opts.K, len(points))
	}
	direct := 0
	for _, p := range points {
		if p.Depth == 1 {
			direct++
		}
	}
	if direct < opts.K {
		return nil, stats, fmt.Errorf("%w: %d depth-1 candidates for %d clusters", ErrClusteringInfeasible, direct, opts.K)
	}

	assign, deterministic, err := assigner(opts.Algorithm, pubs, k)
	if err != nil {
		return nil, stats, err
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	seeds := rand.New(rand.NewPCG(uint64(opts.Seed), 0))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Attempts = attempt

		res, err := assign(ctx, opts.K, seeds.Uint64(), opts.KMeans)
		if err != nil {
			return nil, stats, err
		}
		clusters := build(points, res.Labels, opts.K)
		if feasible(clusters) {
			for _, c := range clusters {
				for _, p := range c.Members {
					id := c.ID
					p.ClusterID = &id
				}
			}
			stats.Inertia = res.Inertia
			stats.RestartInertias = res.RestartInertias
			logger.Info("clustering accepted",
				zap.String("algorithm", string(opts.Algorithm)),
				zap.Int("attempt", attempt),
				zap.Float64("inertia", res.Inertia))
			return clusters, stats, nil
		}
		logger.Debug("clustering rejected: cluster without depth-1 member",
			zap.Int("attempt", attempt), zap.Float64("inertia", res.Inertia))
		if deterministic {
			break
		}
	}
	return nil, stats, fmt.Errorf("%w after %d attempts", ErrClusteringInfeasible, stats.Attempts)
}

type assignFunc func(ctx context.Context, n int, seed uint64, opts KMeansOptions) (Result, error)

// assigner returns the labeling function for algorithm over the non-seed
// candidates, and whether it is deterministic.
func assigner(algorithm types.ClusterAlgorithm, pubs []*types.Publication, k *kernel.Kernel) (assignFunc, bool, error) {
	switch algorithm {
	case types.AlgorithmKernelKMeans, "":
		sub := k.Sub(1).Shifted()
		return func(ctx context.Context, n int, seed uint64, opts KMeansOptions) (Result, error) {
			return KernelKMeans(ctx, sub, n, seed, opts)
		}, false, nil

	case types.AlgorithmKMeans:
		x, ok := kernel.Embeddings(pubs[1:])
		if !ok {
			return nil, false, fmt.Errorf("%w: %s", ErrEmbeddingsRequired, algorithm)
		}
		gram := kernel.Linear(x)
		return func(ctx context.Context, n int, seed uint64, opts KMeansOptions) (Result, error) {
			return KernelKMeans(ctx, gram, n, seed, opts)
		}, false, nil

	case types.AlgorithmSpectral:
		sub := k.Sub(1)
		return func(ctx context.Context, n int, seed uint64, opts KMeansOptions) (Result, error) {
			return Spectral(ctx, sub, n, seed, opts)
		}, false, nil

	case types.AlgorithmHierarchical:
		x, ok := kernel.Embeddings(pubs[1:])
		if !ok {
			return nil, false, fmt.Errorf("%w: %s", ErrEmbeddingsRequired, algorithm)
		}
		return func(_ context.Context, n int, _ uint64, _ KMeansOptions) (Result, error) {
			return Ward(x, n)
		}, true, nil
	}
	return nil, false, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}

// build groups points by label into n clusters.
func build(points []*types.Publication, labels []int, n int) []*types.Cluster {
	clusters := make([]*types.Cluster, n)
	for i := range clusters {
		clusters[i] = &types.Cluster{ID: i}
	}
	for i, p := range points {
		c := clusters[labels[i]]
		c.Members = append(c.Members, p)
	}
	return clusters
}

func feasible(clusters []*types.Cluster) bool {
	for _, c := range clusters {
		if c.DepthOneCount() == 0 {
			return false
		}
	}
	return true
}
