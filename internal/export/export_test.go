// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

func sampleExport() types.RoadmapExport {
	return types.RoadmapExport{
		ID:   "run-1",
		Root: types.PublicationRecord{ID: "seed", Title: "Seed", Year: 2021, Citations: []string{}, References: []string{"a"}},
		Branches: []types.Branch{{
			{{ID: "a", Title: "Alpha", Year: 2020, Citations: []string{"seed"}, References: []string{}}},
			{},
		}},
		Importance:         []float64{1},
		ClusterNames:       []string{"alpha"},
		TagGroups:          [][]string{{"alpha", "beta"}},
		RelatedPaperTitles: []string{"Alpha"},
		Version:            "dev",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       Format
		wantErr    bool
	}{
		{"json", "", JSON, false},
		{"YAML", "", YAML, false},
		{"", "out/roadmap.yml", YAML, false},
		{"", "roadmap.json", JSON, false},
		{"", "", Text, false},
		{"text", "roadmap.json", Text, false},
		{"xml", "", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name, tt.path)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestEncode_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, JSON, sampleExport()))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"root", "branches", "importance", "clusterNames", "tagGroups", "related_paper_titles", "version"} {
		assert.Contains(t, raw, key)
	}
	root := raw["root"].(map[string]any)
	assert.Equal(t, "seed", root["paper_id"])
	assert.NotContains(t, root, "embeddings")
}

func TestEncode_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, YAML, sampleExport()))

	var got types.RoadmapExport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, [][]string{{"alpha", "beta"}}, got.TagGroups)
	assert.Equal(t, "Alpha", got.Branches[0][0][0].Title)
}

func TestEncode_TextRejected(t *testing.T) {
	assert.Error(t, Encode(&bytes.Buffer{}, Text, sampleExport()))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roadmap.json")
	require.NoError(t, WriteFile(path, JSON, sampleExport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"clusterNames"`)
}
