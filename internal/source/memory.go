// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Memory is an in-memory Source over a fixed publication set. It hands out
// copies, so callers may annotate what they receive.
type Memory struct {
	mu   sync.RWMutex
	pubs map[string]*types.Publication
}

// NewMemory returns a Memory holding pubs.
func NewMemory(pubs ...*types.Publication) *Memory {
	m := &Memory{pubs: make(map[string]*types.Publication, len(pubs))}
	for _, p := range pubs {
		m.add(p)
	}
	return m
}

func (m *Memory) add(p *types.Publication) {
	c := p.Clone()
	c.EnsureSets()
	m.pubs[c.ID] = c
}

// Get returns the publication with id.
func (m *Memory) Get(_ context.Context, id string) (*types.Publication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pubs[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return p.Clone(), nil
}

// GetBulk returns the known publications among ids.
func (m *Memory) GetBulk(_ context.Context, ids []string) ([]*types.Publication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Publication
	for _, id := range dedupe(ids) {
		if p, ok := m.pubs[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// Put adds or replaces publications.
func (m *Memory) Put(_ context.Context, pubs ...*types.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pubs {
		m.add(p)
	}
	return nil
}

// Len returns the number of publications held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pubs)
}

// All returns copies of every publication, sorted by id.
func (m *Memory) All() []*types.Publication {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Publication, 0, len(m.pubs))
	for _, p := range m.pubs {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadFile reads a dataset file into a Memory source. See ReadDataset for
// the accepted formats.
func LoadFile(path string) (*Memory, error) {
	pubs, err := ReadDataset(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(pubs...), nil
}

// ReadDataset reads publications from a JSON or YAML file, optionally gzip
// compressed (".gz" suffix). The document is either a list of publications
// or a map from id to publication. Entries failing validation are skipped.
func ReadDataset(path string) ([]*types.Publication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	name := path
	if strings.HasSuffix(name, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening gzip dataset %s: %w", path, err)
		}
		data, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("decompressing dataset %s: %w", path, err)
		}
		name = strings.TrimSuffix(name, ".gz")
	}

	var pubs []*types.Publication
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		pubs, err = decodeDataset(data, yaml.Unmarshal)
	default:
		pubs, err = decodeDataset(data, json.Unmarshal)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return pubs, nil
}

func decodeDataset(data []byte, unmarshal func([]byte, any) error) ([]*types.Publication, error) {
	var list []*types.Publication
	if err := unmarshal(data, &list); err != nil {
		var byID map[string]*types.Publication
		if mapErr := unmarshal(data, &byID); mapErr != nil {
			return nil, err
		}
		for id, p := range byID {
			if p == nil {
				continue
			}
			if p.ID == "" {
				p.ID = id
			}
			list = append(list, p)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	out := list[:0]
	for _, p := range list {
		if p == nil || p.Validate() != nil {
			continue
		}
		p.EnsureSets()
		out = append(out, p)
	}
	return out, nil
}
