// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the roadmap-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/internal/logging"
	"github.com/pdiddy/roadmap-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is built from the log.* settings before any command runs.
var logger = zap.NewNop()

// rootCmd is the base command for the roadmap-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "roadmap-engine",
	Short: "Build reading roadmaps from a paper's citation neighborhood",
	Long: `roadmap-engine turns a seed paper into a reading roadmap. It retrieves the
papers the seed cites (and the papers those cite), groups them into thematic
branches, orders every branch into a main and a secondary timeline, and
labels each branch with phrases drawn from its papers.

Publications come from a local SQLite store, a dataset file, Semantic Scholar,
or OpenAlex. Use "store import" to fill the local store from a dataset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logConfig())
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./roadmap-engine.yaml or ~/.config/roadmap-engine/roadmap-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", logging.DefaultLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", logging.DefaultFormat, "log format: console or json")
	rootCmd.PersistentFlags().String("db", "", "SQLite publication store (default data/publications.db)")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
		"store.path": "db",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("roadmap-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "roadmap-engine"))
		}
	}

	viper.SetEnvPrefix("ROADMAP_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
