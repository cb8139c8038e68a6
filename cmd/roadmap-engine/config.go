package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/roadmap-engine/internal/store"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// bindFlags binds viper keys to flags so the config file and environment
// can supply values the command line leaves unset.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: binding %s: %v\n", key, err)
		}
	}
}

func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	}
}

func storeConfig() types.StoreConfig {
	path := viper.GetString("store.path")
	if path == "" {
		path = store.DefaultPath
	}
	return types.StoreConfig{Path: path}
}

// loadConfig returns the merged view of flags, environment, and config file,
// with secrets filling the API credentials left empty.
func loadConfig() types.Config {
	cfg := types.Config{
		Roadmap: types.RoadmapConfig{
			Size:           viper.GetInt("roadmap.size"),
			Clusters:       viper.GetInt("roadmap.clusters"),
			Algorithm:      types.ClusterAlgorithm(viper.GetString("roadmap.algorithm")),
			Alpha:          viper.GetFloat64("roadmap.alpha"),
			Beta:           viper.GetFloat64("roadmap.beta"),
			Seed:           viper.GetInt64("roadmap.seed"),
			Restarts:       viper.GetInt("roadmap.restarts"),
			MaxAttempts:    viper.GetInt("roadmap.max_attempts"),
			Workers:        viper.GetInt("roadmap.workers"),
			LabelGroupSize: viper.GetInt("roadmap.label_group_size"),
			Mu:             viper.GetFloat64("roadmap.mu"),
			Phi:            viper.GetFloat64("roadmap.phi"),
			Lambda:         viper.GetFloat64("roadmap.lambda"),
		},
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: viper.GetString("source.user_agent"),
			},
			Kind:                  types.SourceKind(viper.GetString("source.kind")),
			Dataset:               viper.GetString("source.dataset"),
			SemanticScholarAPIKey: viper.GetString("source.semantic_scholar_api_key"),
			Email:                 viper.GetString("source.email"),
			RequestsPerSecond:     viper.GetFloat64("source.requests_per_second"),
			WriteThrough:          viper.GetBool("source.write_through"),
		},
		Store: storeConfig(),
		Embedding: types.EmbeddingConfig{
			Enabled:    viper.GetBool("embedding.enabled"),
			BaseURL:    viper.GetString("embedding.base_url"),
			APIKey:     viper.GetString("embedding.api_key"),
			Model:      viper.GetString("embedding.model"),
			Dimensions: viper.GetInt("embedding.dimensions"),
			CacheDir:   viper.GetString("embedding.cache_dir"),
		},
		Log: logConfig(),
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "roadmap-engine/" + version
	}
	loadedSecrets.Apply(&cfg.Source, &cfg.Embedding)
	return cfg
}
