package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Roadmap builds the roadmap of the paper named by $PAPER and writes it to
// output/roadmaps/<paper>.json. $ARGS is passed to the CLI unchanged.
func Roadmap() error {
	mg.Deps(Build, Init)

	paper := os.Getenv("PAPER")
	if paper == "" {
		return fmt.Errorf("set PAPER to the seed paper id")
	}
	out := filepath.Join("output", "roadmaps", filepath.Base(paper)+".json")

	args := []string{"roadmap", paper, "--output", out}
	if extra := os.Getenv("ARGS"); extra != "" {
		args = append(args, strings.Fields(extra)...)
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Import loads the dataset named by $DATASET into the local store.
func Import() error {
	mg.Deps(Build, Init)

	dataset := os.Getenv("DATASET")
	if dataset == "" {
		return fmt.Errorf("set DATASET to a JSON or YAML dataset file")
	}
	return sh.RunV(filepath.Join(binDir, binName), "store", "import", dataset)
}
