// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

const (
	// DefaultModel is used when the config leaves the model empty.
	DefaultModel = "text-embedding-3-small"

	// DefaultBatchSize is the number of inputs per API request.
	DefaultBatchSize = 64
)

// ErrEmptyResponse is returned when the API answers without vectors.
var ErrEmptyResponse = errors.New("empty embedding response")

// OpenAI embeds publication content through an OpenAI-compatible
// embeddings endpoint.
type OpenAI struct {
	client     *openai.Client
	model      string
	dimensions int

	BatchSize int
	Logger    *zap.Logger
}

// NewOpenAI builds an embedder from cfg. An empty BaseURL targets the
// OpenAI API.
func NewOpenAI(cfg types.EmbeddingConfig, httpClient *http.Client) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: cfg.Dimensions,
		BatchSize:  DefaultBatchSize,
		Logger:     zap.NewNop(),
	}
}

// Model returns the embedding model name.
func (o *OpenAI) Model() string { return o.model }

// Embed requests vectors for the title and abstract of every publication.
// It returns nil when no publication has any text.
func (o *OpenAI) Embed(ctx context.Context, pubs []*types.Publication) ([][]float64, error) {
	texts := make([]string, len(pubs))
	empty := true
	for i, p := range pubs {
		texts[i] = strings.TrimSpace(p.Content())
		if texts[i] == "" {
			texts[i] = p.ID
			continue
		}
		empty = false
	}
	if empty {
		return nil, nil
	}

	batch := o.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := min(start+batch, len(texts))
		vectors, err := o.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	o.Logger.Debug("embedded publications", zap.Int("count", len(out)), zap.String("model", o.model))
	return out, nil
}

func (o *OpenAI) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		if len(resp.Data) == 0 {
			return nil, ErrEmptyResponse
		}
		return nil, fmt.Errorf("create embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("create embeddings: index %d out of range", d.Index)
		}
		v := make([]float64, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float64(x)
		}
		vectors[d.Index] = v
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("create embeddings: missing vector %d", i)
		}
	}
	return vectors, nil
}
