// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.yaml.in/yaml/v3"
)

// IDSet is a set of publication identifiers. It serializes as a sorted list
// so exports are stable across runs.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Empty ids are ignored.
func (s IDSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members that are also in other, sorted.
func (s IDSet) Intersect(other IDSet) []string {
	out := make([]string, 0)
	for id := range s {
		if other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// MarshalJSON encodes the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// MarshalYAML encodes the set as a sorted sequence.
func (s IDSet) MarshalYAML() (interface{}, error) {
	return s.Sorted(), nil
}

// UnmarshalYAML decodes a sequence of ids.
func (s *IDSet) UnmarshalYAML(value *yaml.Node) error {
	var ids []string
	if err := value.Decode(&ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// Publication is one paper in a roadmap candidate set. The bibliographic
// fields come from the publication source; the algorithm fields are written
// by the stage that computes them (retrieval sets Depth and Centrality,
// clustering sets ClusterID, timelines set TopoOrder, reasoning sets
// Importance).
type Publication struct {
	// ID is the source identifier (Semantic Scholar paper id, OpenAlex work id, ...).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract (may be empty).
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Venue is the journal or conference.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Authors lists author names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// References holds ids of papers this paper cites.
	References IDSet `json:"references" yaml:"references"`

	// Citations holds ids of papers citing this paper.
	Citations IDSet `json:"citations" yaml:"citations"`

	// CitationCount is the total citation count reported by the source,
	// which may exceed len(Citations) when the source truncates the list.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	Depth      int       `json:"-" yaml:"-"`
	Centrality float64   `json:"-" yaml:"-"`
	Embedding  []float64 `json:"-" yaml:"-"`
	ClusterID  *int      `json:"-" yaml:"-"`
	Importance float64   `json:"-" yaml:"-"`
	TopoOrder  int       `json:"-" yaml:"-"`
}

// Validate checks the fields every publication must carry.
func (p *Publication) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("publication has no id")
	case p.Title == "":
		return fmt.Errorf("publication %s has no title", p.ID)
	case p.Year == 0:
		return fmt.Errorf("publication %s has no year", p.ID)
	}
	return nil
}

// Content returns the text used for labeling and embedding.
func (p *Publication) Content() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + " " + p.Abstract
}

// CitedBy returns the best known citation count.
func (p *Publication) CitedBy() int {
	if p.CitationCount > len(p.Citations) {
		return p.CitationCount
	}
	return len(p.Citations)
}

// Clone returns a deep copy of the bibliographic fields with the algorithm
// fields reset, so every roadmap run owns its publications.
func (p *Publication) Clone() *Publication {
	c := &Publication{
		ID:            p.ID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		Year:          p.Year,
		Venue:         p.Venue,
		CitationCount: p.CitationCount,
		References:    p.References.Clone(),
		Citations:     p.Citations.Clone(),
	}
	if len(p.Authors) > 0 {
		c.Authors = append([]string(nil), p.Authors...)
	}
	return c
}

// EnsureSets allocates nil reference and citation sets.
func (p *Publication) EnsureSets() {
	if p.References == nil {
		p.References = IDSet{}
	}
	if p.Citations == nil {
		p.Citations = IDSet{}
	}
}
