// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package roadmap runs the full roadmap pipeline: it retrieves the citation
// neighborhood of a seed paper, fuses citation, supervision, and embedding
// signals into a kernel, partitions the candidates into branches, orders
// every branch into timelines, scores importance, and labels the branches.
package roadmap

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/internal/cluster"
	"github.com/pdiddy/roadmap-engine/internal/embed"
	"github.com/pdiddy/roadmap-engine/internal/evaluate"
	"github.com/pdiddy/roadmap-engine/internal/kernel"
	"github.com/pdiddy/roadmap-engine/internal/label"
	"github.com/pdiddy/roadmap-engine/internal/retrieve"
	"github.com/pdiddy/roadmap-engine/internal/supervision"
	"github.com/pdiddy/roadmap-engine/internal/timeline"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Roadmap is the result of one build.
type Roadmap struct {
	// ID identifies the run.
	ID string

	// Candidates is the ranked candidate set; Candidates[0] is the seed.
	Candidates []*types.Publication

	// Clusters are the branches in cluster-id order.
	Clusters []*types.Cluster

	Kernel *kernel.Kernel
	Stats  cluster.Stats

	// Embedded reports whether the kernel includes the embedding signal.
	Embedded bool

	// Comentions is set when a co-mention file was supplied.
	Comentions *Comentions
}

// Seed returns the seed publication.
func (r *Roadmap) Seed() *types.Publication {
	return r.Candidates[0]
}

// Comentions holds co-mention hit rates of the clustering.
type Comentions struct {
	Strong supervision.Evaluation `json:"strong" yaml:"strong"`
	Weak   supervision.Evaluation `json:"weak" yaml:"weak"`
}

// Builder holds the services a build needs. Retriever is required and
// Build also needs Labeler; Embedder and Supervision are optional.
type Builder struct {
	Retriever   *retrieve.Retriever
	Embedder    embed.Embedder
	Labeler     *label.Labeler
	Supervision *supervision.Source

	// SupervisionKind selects the co-mention groups fed to the kernel.
	SupervisionKind supervision.Kind

	Config types.RoadmapConfig
	Logger *zap.Logger
}

// Build constructs the roadmap of the publication seedID.
func (b *Builder) Build(ctx context.Context, seedID string) (*Roadmap, error) {
	if b.Labeler == nil {
		return nil, errors.New("roadmap builder needs a labeler")
	}
	r, links, err := b.prepare(ctx, seedID)
	if err != nil {
		return nil, err
	}
	logger := b.logger().With(zap.String("run", r.ID), zap.String("seed", seedID))

	if err := b.arrange(ctx, r, b.Config.Seed, logger); err != nil {
		return nil, err
	}
	if err := b.label(r); err != nil {
		return nil, err
	}
	if b.Supervision != nil {
		r.Comentions = &Comentions{
			Strong: supervision.Evaluate(r.Candidates, links.Strong),
			Weak:   supervision.Evaluate(r.Candidates, links.Weak),
		}
	}
	logger.Info("roadmap built",
		zap.Int("candidates", len(r.Candidates)),
		zap.Int("clusters", len(r.Clusters)),
		zap.Int("attempts", r.Stats.Attempts))
	return r, nil
}

// Evaluate builds the candidate set and kernel of seedID once, clusters it
// repeat times with consecutive random seeds, and scores every clustering
// with the spanning-tree and co-mention benchmarks. The neighborhood
// similarity benchmark needs embeddings and reports NaN without them.
func (b *Builder) Evaluate(ctx context.Context, seedID string, repeat int) (*evaluate.Report, error) {
	if repeat < 1 {
		repeat = 1
	}
	r, links, err := b.prepare(ctx, seedID)
	if err != nil {
		return nil, err
	}
	logger := b.logger().With(zap.String("run", r.ID), zap.String("seed", seedID))

	rep := &evaluate.Report{Seed: seedID, Spearman: math.NaN()}
	if rho, ok := evaluate.NeighborhoodSimilarity(r.Candidates); ok {
		rep.Spearman = rho
	}

	var mst, strong, weak []float64
	for i := 0; i < repeat; i++ {
		if err := b.arrange(ctx, r, b.Config.Seed+int64(i), logger); err != nil {
			return nil, err
		}
		mst = append(mst, evaluate.MST(r.Candidates, r.Clusters))
		if b.Supervision != nil {
			strong = append(strong, supervision.Evaluate(r.Candidates, links.Strong).Ratio)
			weak = append(weak, supervision.Evaluate(r.Candidates, links.Weak).Ratio)
		}
	}
	rep.MST = evaluate.Summarize(mst)
	if b.Supervision != nil {
		s, w := evaluate.Summarize(strong), evaluate.Summarize(weak)
		rep.Strong, rep.Weak = &s, &w
	}
	logger.Info("roadmap evaluated", zap.Int("runs", repeat), zap.Float64("mst", rep.MST.Mean))
	return rep, nil
}

// prepare retrieves the candidates, resolves supervision, attaches
// embeddings, and builds the kernel.
func (b *Builder) prepare(ctx context.Context, seedID string) (*Roadmap, supervision.Links, error) {
	var links supervision.Links
	if b.Retriever == nil {
		return nil, links, errors.New("roadmap builder needs a retriever")
	}
	logger := b.logger()
	cfg := b.Config

	candidates, err := b.Retriever.Retrieve(ctx, seedID, cfg.Size)
	if err != nil {
		return nil, links, err
	}
	r := &Roadmap{ID: uuid.NewString(), Candidates: candidates}
	logger = logger.With(zap.String("run", r.ID), zap.String("seed", seedID))

	var pairs [][2]string
	if b.Supervision != nil {
		links = b.Supervision.Resolve(candidates)
		if pairs, err = links.Pairs(b.SupervisionKind); err != nil {
			return nil, links, err
		}
		logger.Debug("supervision resolved",
			zap.Int("strong", len(links.Strong)), zap.Int("weak", len(links.Weak)))
	}

	if r.Embedded, err = embed.Attach(ctx, b.Embedder, candidates); err != nil {
		return nil, links, err
	}

	r.Kernel = kernel.Build(candidates, kernel.Options{
		Alpha:       cfg.Alpha,
		Beta:        cfg.Beta,
		Supervision: pairs,
	})
	logger.Debug("kernel built", zap.Int("candidates", r.Kernel.Len()), zap.Bool("embedded", r.Embedded))
	return r, links, nil
}

// arrange partitions the candidates with the given random seed, builds the
// timelines, and assigns importance. Earlier clustering state on the
// candidates is cleared first.
func (b *Builder) arrange(ctx context.Context, r *Roadmap, seed int64, logger *zap.Logger) error {
	cfg := b.Config
	for _, p := range r.Candidates {
		p.ClusterID = nil
		p.TopoOrder = 0
	}

	var err error
	r.Clusters, r.Stats, err = cluster.Partition(ctx, r.Candidates, r.Kernel, cluster.Options{
		K:           cfg.Clusters,
		Algorithm:   cfg.Algorithm,
		Seed:        seed,
		MaxAttempts: cfg.MaxAttempts,
		KMeans: cluster.KMeansOptions{
			Restarts: cfg.Restarts,
			Workers:  cfg.Workers,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("clustering %d candidates: %w", len(r.Candidates), err)
	}

	for _, c := range r.Clusters {
		timeline.Build(c)
	}
	AssignImportance(r.Candidates, r.Clusters, r.Kernel)
	return nil
}

// label names every cluster from its members' text, weighting each paper by
// its importance.
func (b *Builder) label(r *Roadmap) error {
	in := label.Input{
		Root:       r.Seed().Content(),
		RootWeight: 1,
		Clusters:   make([][]string, len(r.Clusters)),
		Weights:    make([][]float64, len(r.Clusters)),
	}
	for i, c := range r.Clusters {
		for _, p := range c.Members {
			in.Clusters[i] = append(in.Clusters[i], p.Content())
			in.Weights[i] = append(in.Weights[i], p.Importance)
		}
	}
	res, err := b.Labeler.Label(in)
	if err != nil {
		return fmt.Errorf("labeling clusters: %w", err)
	}
	for i, c := range r.Clusters {
		c.PrimaryLabel = res.Primary[i]
		c.LabelGroup = res.Groups[i]
	}
	return nil
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// AssignImportance scores every candidate by its kernel similarity to the
// seed and every cluster by the sum of its members' scores.
func AssignImportance(candidates []*types.Publication, clusters []*types.Cluster, k *kernel.Kernel) {
	row := k.Row(0)
	for i, p := range candidates {
		p.Importance = row[i]
	}
	for _, c := range clusters {
		c.Importance = 0
		for _, p := range c.Members {
			c.Importance += p.Importance
		}
	}
}
