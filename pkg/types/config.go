package types

import "time"

// HTTPConfig holds shared HTTP settings used by sources that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "roadmap-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Config groups every setting the CLI reads from flags, environment, and
// the config file.
type Config struct {
	Roadmap   RoadmapConfig   `json:"roadmap" yaml:"roadmap" mapstructure:"roadmap"`
	Source    SourceConfig    `json:"source" yaml:"source" mapstructure:"source"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// SourceKind selects the publication source backend.
type SourceKind string

const (
	SourceStore           SourceKind = "store"
	SourceSemanticScholar SourceKind = "s2"
	SourceOpenAlex        SourceKind = "openalex"
	SourceDataset         SourceKind = "dataset"
)

// SourceConfig holds settings for resolving publications.
type SourceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Kind selects the backend: store, s2, openalex, or dataset.
	Kind SourceKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Dataset is the JSON or YAML file read by the dataset backend.
	Dataset string `json:"dataset,omitempty" yaml:"dataset,omitempty" mapstructure:"dataset"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// Email is sent to OpenAlex as the mailto parameter.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// RequestsPerSecond caps remote API calls (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// WriteThrough stores remotely fetched publications in the local store.
	WriteThrough bool `json:"write_through" yaml:"write_through" mapstructure:"write_through"`
}

// StoreConfig holds settings for the SQLite publication cache.
type StoreConfig struct {
	// Path is the database file (default data/publications.db).
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// EmbeddingConfig holds settings for the OpenAI-compatible embedder.
type EmbeddingConfig struct {
	// Enabled turns the embedding signal on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL overrides the API endpoint for compatible providers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates against the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Model is the embedding model (default text-embedding-3-small).
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Dimensions requests a reduced vector size when the model supports it.
	Dimensions int `json:"dimensions,omitempty" yaml:"dimensions,omitempty" mapstructure:"dimensions"`

	// CacheDir is the badger directory for cached vectors; empty disables caching.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" mapstructure:"cache_dir"`
}

// ClusterAlgorithm names a clustering strategy.
type ClusterAlgorithm string

const (
	AlgorithmKernelKMeans ClusterAlgorithm = "kernel-kmeans"
	AlgorithmKMeans       ClusterAlgorithm = "kmeans"
	AlgorithmSpectral     ClusterAlgorithm = "spectral"
	AlgorithmHierarchical ClusterAlgorithm = "hierarchical"
)

// RoadmapConfig holds the parameters of one roadmap build.
type RoadmapConfig struct {
	// Size is the requested candidate-set size including the seed (default 100).
	Size int `json:"size" yaml:"size" mapstructure:"size"`

	// Clusters is the number of branches K (default 6).
	Clusters int `json:"clusters" yaml:"clusters" mapstructure:"clusters"`

	// Algorithm selects the clustering strategy (default kernel-kmeans).
	Algorithm ClusterAlgorithm `json:"algorithm" yaml:"algorithm" mapstructure:"algorithm"`

	// Alpha weighs the citation adjacency in the kernel (default 1).
	Alpha float64 `json:"alpha" yaml:"alpha" mapstructure:"alpha"`

	// Beta weighs the supervision links in the kernel (default 1).
	Beta float64 `json:"beta" yaml:"beta" mapstructure:"beta"`

	// Seed drives every random choice of the run (default 42).
	Seed int64 `json:"seed" yaml:"seed" mapstructure:"seed"`

	// Restarts is the number of independent k-means restarts (default and
	// minimum 10).
	Restarts int `json:"restarts" yaml:"restarts" mapstructure:"restarts"`

	// MaxAttempts caps the feasibility retry loop (default 100).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// Workers bounds concurrent restarts (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// LabelGroupSize is the maximum number of labels per cluster (default 5).
	LabelGroupSize int `json:"label_group_size" yaml:"label_group_size" mapstructure:"label_group_size"`

	// Mu is the contrastive weight of the labeler (default 0.8).
	Mu float64 `json:"mu" yaml:"mu" mapstructure:"mu"`

	// Phi is the seed-baseline weight of the labeler (default 0.1).
	Phi float64 `json:"phi" yaml:"phi" mapstructure:"phi"`

	// Lambda trades relevance against redundancy in label selection (default 0.95).
	Lambda float64 `json:"lambda" yaml:"lambda" mapstructure:"lambda"`
}

// DefaultRoadmapConfig returns the standard build parameters.
func DefaultRoadmapConfig() RoadmapConfig {
	return RoadmapConfig{
		Size:           100,
		Clusters:       6,
		Algorithm:      AlgorithmKernelKMeans,
		Alpha:          1.0,
		Beta:           1.0,
		Seed:           42,
		Restarts:       10,
		MaxAttempts:    100,
		Workers:        4,
		LabelGroupSize: 5,
		Mu:             0.8,
		Phi:            0.1,
		Lambda:         0.95,
	}
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default warn).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}
