// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Recognized key files.
const (
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	OpenAIAPIKey          = "openai-api-key"
	OpenAlexEmail         = "openalex-email"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty set. Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (Secrets, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills credentials the configuration leaves empty. Explicit
// configuration values win over secret files.
func (s Secrets) Apply(src *types.SourceConfig, emb *types.EmbeddingConfig) {
	if src != nil {
		fill(&src.SemanticScholarAPIKey, s[SemanticScholarAPIKey])
		fill(&src.Email, s[OpenAlexEmail])
	}
	if emb != nil {
		fill(&emb.APIKey, s[OpenAIAPIKey])
	}
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
