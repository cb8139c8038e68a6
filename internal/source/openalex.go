// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/roadmap-engine/internal/httputil"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

const openAlexIDPrefix = "https://openalex.org/"

// openAlexChunk is the number of ids per filter query, the API's OR limit.
const openAlexChunk = 50

const openAlexSelect = "id,title,publication_year,abstract_inverted_index,authorships,primary_location,cited_by_count,referenced_works"

// OpenAlex resolves publications through the OpenAlex works API. Ids are
// OpenAlex work ids ("W2741809807"). Only references are available, so
// Citations stays empty and CitationCount carries the cited_by_count.
type OpenAlex struct {
	Client *httputil.Client

	// Email is sent as the mailto parameter for polite pool access.
	Email string

	// Workers bounds concurrent chunk requests in GetBulk (default 4).
	Workers int
}

// Get fetches one work.
func (o *OpenAlex) Get(ctx context.Context, id string) (*types.Publication, error) {
	params := url.Values{"select": {openAlexSelect}}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}
	reqURL := openAlexAPIBase + "/" + url.PathEscape(shortOpenAlexID(id)) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := o.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &NotFoundError{ID: id}
	default:
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var work openAlexWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	p := work.publication()
	if p.Validate() != nil {
		return nil, &NotFoundError{ID: id}
	}
	return p, nil
}

// GetBulk fetches works in chunks of 50 ids, running chunks concurrently.
func (o *OpenAlex) GetBulk(ctx context.Context, ids []string) ([]*types.Publication, error) {
	ids = dedupe(ids)
	workers := o.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	byID := make(map[string]*types.Publication, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(ids); start += openAlexChunk {
		chunk := ids[start:min(start+openAlexChunk, len(ids))]
		g.Go(func() error {
			works, err := o.filter(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, w := range works {
				p := w.publication()
				if p.Validate() == nil {
					byID[p.ID] = p
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Requests may use long ids; results always carry short ones.
	short := make([]string, len(ids))
	for i, id := range ids {
		short[i] = shortOpenAlexID(id)
	}
	return ordered(short, byID), nil
}

func (o *OpenAlex) filter(ctx context.Context, ids []string) ([]openAlexWork, error) {
	short := make([]string, len(ids))
	for i, id := range ids {
		short[i] = shortOpenAlexID(id)
	}
	params := url.Values{
		"filter":   {"openalex_id:" + strings.Join(short, "|")},
		"per_page": {fmt.Sprintf("%d", openAlexChunk)},
		"select":   {openAlexSelect},
	}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := o.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar.Results, nil
}

// shortOpenAlexID strips the https://openalex.org/ prefix.
func shortOpenAlexID(id string) string {
	return strings.TrimPrefix(id, openAlexIDPrefix)
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	PublicationYear       int                  `json:"publication_year"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	CitedByCount          int                  `json:"cited_by_count"`
	ReferencedWorks       []string             `json:"referenced_works"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

func (w *openAlexWork) publication() *types.Publication {
	p := &types.Publication{
		ID:            shortOpenAlexID(w.ID),
		Title:         w.Title,
		Abstract:      reconstructAbstract(w.AbstractInvertedIndex),
		Year:          w.PublicationYear,
		CitationCount: w.CitedByCount,
		References:    types.IDSet{},
		Citations:     types.IDSet{},
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		p.Venue = w.PrimaryLocation.Source.DisplayName
	}
	for _, ref := range w.ReferencedWorks {
		p.References.Add(shortOpenAlexID(ref))
	}
	return p
}
