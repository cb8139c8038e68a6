package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/internal/cluster"
	"github.com/pdiddy/roadmap-engine/internal/embed"
	"github.com/pdiddy/roadmap-engine/internal/export"
	"github.com/pdiddy/roadmap-engine/internal/httputil"
	"github.com/pdiddy/roadmap-engine/internal/label"
	"github.com/pdiddy/roadmap-engine/internal/retrieve"
	"github.com/pdiddy/roadmap-engine/internal/roadmap"
	"github.com/pdiddy/roadmap-engine/internal/source"
	"github.com/pdiddy/roadmap-engine/internal/store"
	"github.com/pdiddy/roadmap-engine/internal/supervision"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap <paper-id>",
	Short: "Build the reading roadmap of a paper",
	Long: `Roadmap retrieves the citation neighborhood of the given paper, clusters it
into branches, orders each branch into timelines, and labels the branches.

The result prints as a text summary, or as JSON or YAML with --format or an
--output file ending in .json, .yaml, or .yml.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindBuildFlags,
	RunE:    runRoadmap,
}

func runRoadmap(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	output := viper.GetString("output.path")
	format, err := export.ParseFormat(viper.GetString("output.format"), output)
	if err != nil {
		return err
	}

	b, closeBuilder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer closeBuilder()

	r, err := b.Build(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeRoadmap(r, format, output)
}

// newBuilder assembles a roadmap builder from cfg and the supervision.*
// settings. The returned function releases the source and embedder.
func newBuilder(cfg types.Config) (*roadmap.Builder, func(), error) {
	labeler, err := newLabeler(cfg.Roadmap)
	if err != nil {
		return nil, func() {}, err
	}

	src, closeSource, err := openSource(cfg)
	if err != nil {
		return nil, func() {}, err
	}
	b := &roadmap.Builder{
		Retriever: retrieve.New(src, logger),
		Labeler:   labeler,
		Config:    cfg.Roadmap,
		Logger:    logger,
	}
	release := closeSource

	if cfg.Embedding.Enabled {
		embedder, closeEmbedder, err := openEmbedder(cfg.Embedding)
		if err != nil {
			closeSource()
			return nil, func() {}, err
		}
		b.Embedder = embedder
		release = func() {
			closeEmbedder()
			closeSource()
		}
	}

	if path := viper.GetString("supervision.path"); path != "" {
		s, err := supervision.Load(path)
		if err != nil {
			release()
			return nil, func() {}, err
		}
		b.Supervision = s
		b.SupervisionKind = supervision.Kind(viper.GetString("supervision.kind"))
	}
	return b, release, nil
}

// newLabeler returns a labeler using the configured weights. A zero weight
// is kept as given.
func newLabeler(cfg types.RoadmapConfig) (*label.Labeler, error) {
	if cfg.LabelGroupSize < 1 {
		return nil, fmt.Errorf("label group size must be at least 1, got %d", cfg.LabelGroupSize)
	}
	l := label.New(label.NewTokenizer())
	l.GroupSize = cfg.LabelGroupSize
	l.Mu = cfg.Mu
	l.Phi = cfg.Phi
	l.Lambda = cfg.Lambda
	return l, nil
}

func writeRoadmap(r *roadmap.Roadmap, format export.Format, output string) error {
	if format == export.Text {
		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return r.WriteSummary(w)
	}

	exp := r.Export(version)
	if output == "" {
		return export.Encode(os.Stdout, format, exp)
	}
	if err := export.WriteFile(output, format, exp); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Roadmap written to %s\n", output)
	return nil
}

// openSource builds the publication source selected by cfg.Source.Kind and
// returns a function releasing it.
func openSource(cfg types.Config) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.Source.Kind {
	case types.SourceDataset:
		if cfg.Source.Dataset == "" {
			return nil, noop, fmt.Errorf("the dataset source needs --dataset")
		}
		m, err := source.LoadFile(cfg.Source.Dataset)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("dataset loaded", zap.String("path", cfg.Source.Dataset), zap.Int("publications", m.Len()))
		return m, noop, nil

	case types.SourceStore, "":
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		return st, func() { st.Close() }, nil

	case types.SourceSemanticScholar, types.SourceOpenAlex:
		client := httputil.NewClient(cfg.Source.Timeout, cfg.Source.RequestsPerSecond, cfg.Source.UserAgent)
		client.MaxRetries = 3
		client.Logger = logger

		var remote source.Source
		if cfg.Source.Kind == types.SourceSemanticScholar {
			remote = &source.SemanticScholar{Client: client, APIKey: cfg.Source.SemanticScholarAPIKey}
		} else {
			remote = &source.OpenAlex{Client: client, Email: cfg.Source.Email}
		}
		if !cfg.Source.WriteThrough {
			return remote, noop, nil
		}

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		cached := &source.Cached{Local: st, Remote: remote, Writer: st, Logger: logger}
		return cached, func() { st.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown source %q (want store, dataset, s2, or openalex)", cfg.Source.Kind)
}

// openEmbedder returns the OpenAI embedder, wrapped in a badger cache when a
// cache directory is configured.
func openEmbedder(cfg types.EmbeddingConfig) (embed.Embedder, func(), error) {
	o := embed.NewOpenAI(cfg, nil)
	o.Logger = logger
	if cfg.CacheDir == "" {
		return o, func() {}, nil
	}
	cache, err := embed.OpenCache(cfg.CacheDir, o.Model(), o)
	if err != nil {
		return nil, func() {}, err
	}
	cache.Logger = logger
	return cache, func() { cache.Close() }, nil
}

// buildFlagKeys maps viper keys to the flags added by addBuildFlags.
var buildFlagKeys = map[string]string{
	"roadmap.size":               "size",
	"roadmap.clusters":           "clusters",
	"roadmap.algorithm":          "algorithm",
	"roadmap.alpha":              "alpha",
	"roadmap.beta":               "beta",
	"roadmap.seed":               "seed",
	"roadmap.restarts":           "restarts",
	"roadmap.max_attempts":       "max-attempts",
	"roadmap.workers":            "workers",
	"roadmap.label_group_size":   "label-group-size",
	"roadmap.mu":                 "mu",
	"roadmap.phi":                "phi",
	"roadmap.lambda":             "lambda",
	"source.kind":                "source",
	"source.dataset":             "dataset",
	"source.requests_per_second": "rps",
	"source.timeout":             "timeout",
	"source.write_through":       "write-through",
	"embedding.enabled":          "embed",
	"embedding.model":            "embedding-model",
	"embedding.base_url":         "embedding-url",
	"embedding.cache_dir":        "embedding-cache",
	"supervision.path":           "supervision",
	"supervision.kind":           "supervision-kind",
}

// addBuildFlags adds the flags shared by the commands that build roadmaps.
// Viper binds a key to a single flag, so each command binds them with
// bindBuildFlags when it runs.
func addBuildFlags(f *pflag.FlagSet) {
	d := types.DefaultRoadmapConfig()

	f.Int("size", d.Size, "candidate-set size including the seed")
	f.Int("clusters", d.Clusters, "number of branches")
	f.String("algorithm", string(d.Algorithm), "clustering algorithm: kernel-kmeans, kmeans, spectral, hierarchical")
	f.Float64("alpha", d.Alpha, "weight of citation links in the kernel")
	f.Float64("beta", d.Beta, "weight of co-mention links in the kernel")
	f.Int64("seed", d.Seed, "random seed")
	f.Int("restarts", d.Restarts, fmt.Sprintf("k-means restarts per attempt (at least %d)", cluster.MinRestarts))
	f.Int("max-attempts", d.MaxAttempts, "maximum clustering attempts before giving up")
	f.Int("workers", d.Workers, "concurrent k-means restarts")
	f.Int("label-group-size", d.LabelGroupSize, "maximum labels per branch")
	f.Float64("mu", d.Mu, "labeler contrast weight")
	f.Float64("phi", d.Phi, "labeler seed weight")
	f.Float64("lambda", d.Lambda, "labeler relevance versus diversity trade-off")

	f.String("source", string(types.SourceStore), "publication source: store, dataset, s2, openalex")
	f.String("dataset", "", "dataset file (JSON or YAML, optionally gzipped) for --source dataset")
	f.Float64("rps", 1, "remote API requests per second")
	f.Duration("timeout", 0, "remote API request timeout (default 60s)")
	f.Bool("write-through", false, "store remotely fetched publications in the local store")

	f.Bool("embed", false, "add OpenAI-compatible embeddings to the kernel")
	f.String("embedding-model", "", "embedding model (default "+embed.DefaultModel+")")
	f.String("embedding-url", "", "embedding API base URL")
	f.String("embedding-cache", "", "badger directory caching embeddings")

	f.String("supervision", "", "co-mention file (JSON or YAML)")
	f.String("supervision-kind", string(supervision.Strong), "co-mention groups used as supervision: strong or weak")
}

func bindBuildFlags(cmd *cobra.Command, _ []string) error {
	bindFlags(cmd.Flags(), buildFlagKeys)
	return nil
}

func init() {
	f := roadmapCmd.Flags()
	addBuildFlags(f)
	f.String("format", "", "output format: text, json, yaml (default from --output, else text)")
	f.StringP("output", "o", "", "output file (default stdout)")

	bindFlags(f, map[string]string{
		"output.format": "format",
		"output.path":   "output",
	})

	rootCmd.AddCommand(roadmapCmd)
}
