// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/roadmap-engine/internal/httputil"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const semanticFields = "paperId,title,abstract,year,venue,authors,citationCount,references.paperId,citations.paperId"

// semanticBatchSize is the largest id list the batch endpoint accepts.
const semanticBatchSize = 500

// SemanticScholar resolves publications through the Semantic Scholar Graph
// API. Single lookups use /paper/{id}; bulk lookups use the batch endpoint.
type SemanticScholar struct {
	Client *httputil.Client
	APIKey string
}

// Get fetches one paper.
func (s *SemanticScholar) Get(ctx context.Context, id string) (*types.Publication, error) {
	reqURL := semanticAPIBase + "/paper/" + url.PathEscape(id) + "?" + url.Values{"fields": {semanticFields}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	s.authorize(req)

	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, &NotFoundError{ID: id}
	default:
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var paper semanticPaper
	if err := json.NewDecoder(resp.Body).Decode(&paper); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	p := paper.publication()
	if p.Validate() != nil {
		return nil, &NotFoundError{ID: id}
	}
	return p, nil
}

// GetBulk fetches papers through the batch endpoint in chunks of 500.
func (s *SemanticScholar) GetBulk(ctx context.Context, ids []string) ([]*types.Publication, error) {
	ids = dedupe(ids)
	byID := make(map[string]*types.Publication, len(ids))
	for start := 0; start < len(ids); start += semanticBatchSize {
		end := min(start+semanticBatchSize, len(ids))
		chunk := ids[start:end]
		papers, err := s.batch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		// The batch endpoint answers in request order with null for unknown ids.
		for i, paper := range papers {
			if paper == nil || i >= len(chunk) {
				continue
			}
			p := paper.publication()
			if p.Validate() != nil {
				continue
			}
			byID[chunk[i]] = p
		}
	}
	return ordered(ids, byID), nil
}

func (s *SemanticScholar) batch(ctx context.Context, ids []string) ([]*semanticPaper, error) {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}
	reqURL := semanticAPIBase + "/paper/batch?" + url.Values{"fields": {semanticFields}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar batch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar batch returned HTTP %d", resp.StatusCode)
	}

	var papers []*semanticPaper
	if err := json.NewDecoder(resp.Body).Decode(&papers); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar batch response: %w", err)
	}
	return papers, nil
}

func (s *SemanticScholar) authorize(req *http.Request) {
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}
}

// Semantic Scholar API JSON structures.
type semanticPaper struct {
	PaperID       string           `json:"paperId"`
	Title         string           `json:"title"`
	Abstract      string           `json:"abstract"`
	Year          int              `json:"year"`
	Venue         string           `json:"venue"`
	CitationCount int              `json:"citationCount"`
	Authors       []semanticAuthor `json:"authors"`
	References    []semanticRef    `json:"references"`
	Citations     []semanticRef    `json:"citations"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticRef struct {
	PaperID string `json:"paperId"`
}

func (sp *semanticPaper) publication() *types.Publication {
	p := &types.Publication{
		ID:            sp.PaperID,
		Title:         sp.Title,
		Abstract:      sp.Abstract,
		Year:          sp.Year,
		Venue:         sp.Venue,
		CitationCount: sp.CitationCount,
		References:    types.IDSet{},
		Citations:     types.IDSet{},
	}
	for _, a := range sp.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	for _, r := range sp.References {
		p.References.Add(r.PaperID)
	}
	for _, c := range sp.Citations {
		p.Citations.Add(c.PaperID)
	}
	return p
}
