// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package supervision loads co-mention annotations and resolves them into
// publication id pairs. Papers mentioned together in the same sentence of a
// survey are strong co-mentions; papers mentioned in the same paragraph are
// weak co-mentions.
package supervision

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Kind selects which co-mention groups feed the kernel.
type Kind string

const (
	Strong Kind = "strong"
	Weak   Kind = "weak"
)

// Source is a co-mention annotation file. References and Alias map short
// reference keys to paper titles; each co-mention group lists reference keys.
type Source struct {
	References       map[string]string `json:"references" yaml:"references"`
	Alias            map[string]string `json:"alias,omitempty" yaml:"alias,omitempty"`
	StrongComentions [][]string        `json:"strong_comentions" yaml:"strong_comentions"`
	WeakComentions   [][]string        `json:"weak_comentions" yaml:"weak_comentions"`
}

// Load reads a co-mention file. JSON files parse as YAML.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading co-mention file: %w", err)
	}
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parsing co-mention file %s: %w", path, err)
	}
	if len(src.References) == 0 {
		return nil, fmt.Errorf("co-mention file %s has no references", path)
	}
	return &src, nil
}

// TitleKey normalizes a title to its lowercase letters and digits.
func TitleKey(title string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, title)
}

// Links holds the resolved co-mention pairs.
type Links struct {
	Strong [][2]string
	Weak   [][2]string
}

// Pairs returns the pairs of the given kind.
func (l Links) Pairs(kind Kind) ([][2]string, error) {
	switch kind {
	case Strong, "":
		return l.Strong, nil
	case Weak:
		return l.Weak, nil
	}
	return nil, fmt.Errorf("unknown co-mention kind %q", kind)
}

// Resolve matches reference titles against pubs and expands every group into
// id pairs. References that match no publication are dropped.
func (s *Source) Resolve(pubs []*types.Publication) Links {
	byTitle := make(map[string]string, len(pubs))
	for _, p := range pubs {
		byTitle[TitleKey(p.Title)] = p.ID
	}
	keyToID := map[string]string{}
	for _, refs := range []map[string]string{s.References, s.Alias} {
		for key, title := range refs {
			if id, ok := byTitle[TitleKey(title)]; ok {
				keyToID[key] = id
			}
		}
	}
	return Links{
		Strong: expand(s.StrongComentions, keyToID),
		Weak:   expand(s.WeakComentions, keyToID),
	}
}

func expand(groups [][]string, keyToID map[string]string) [][2]string {
	seen := map[[2]string]bool{}
	out := [][2]string{}
	for _, group := range groups {
		for _, x := range group {
			for _, y := range group {
				if x >= y {
					continue
				}
				u, okU := keyToID[x]
				v, okV := keyToID[y]
				if !okU || !okV || u == v {
					continue
				}
				pair := [2]string{u, v}
				if !seen[pair] {
					seen[pair] = true
					out = append(out, pair)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Evaluation is the co-mention hit rate of a clustering.
type Evaluation struct {
	Hits  int     `json:"hits" yaml:"hits"`
	Total int     `json:"total" yaml:"total"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// Evaluate counts the pairs whose publications landed in the same cluster.
// Pairs with a publication outside pubs count toward the total only.
func Evaluate(pubs []*types.Publication, pairs [][2]string) Evaluation {
	cluster := make(map[string]*int, len(pubs))
	for _, p := range pubs {
		cluster[p.ID] = p.ClusterID
	}
	ev := Evaluation{Total: len(pairs)}
	for _, pair := range pairs {
		a, b := cluster[pair[0]], cluster[pair[1]]
		if a != nil && b != nil && *a == *b {
			ev.Hits++
		}
	}
	if ev.Total > 0 {
		ev.Ratio = float64(ev.Hits) / float64(ev.Total)
	}
	return ev
}
