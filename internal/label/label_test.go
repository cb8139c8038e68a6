// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package label

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Tokenizer ---

func TestTokenize_NormalizesAndSplitsSentences(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Tokenize("The <b>Transformers</b> are état-of-art models. Attention is all.")
	assert.Equal(t, [][]string{
		{"#", "transformer", "#", "etat-of-art", "model"},
		{"attention", "#", "#"},
	}, got)
}

func TestTokenize_ShortWordsBecomePlaceholder(t *testing.T) {
	tok := NewTokenizer()
	got := tok.Tokenize("AI on graphs")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"#", "#", "graph"}, got[0])
}

func TestTokenize_CustomStopWords(t *testing.T) {
	tok := &Tokenizer{Lemmatizer: NounLemmatizer{}, StopWords: map[string]bool{"graph": true}}
	got := tok.Tokenize("graphs matter")
	assert.Equal(t, [][]string{{"#", "matter"}}, got)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, NewTokenizer().Tokenize("  "))
}

func TestNounLemmatizer(t *testing.T) {
	cases := map[string]string{
		"networks":    "network",
		"studies":     "study",
		"analysis":    "analysis",
		"process":     "process",
		"data":        "data",
		"bias":        "bias",
		"graphics":    "graphics",
		"various":     "various",
		"graph-based": "graph-based",
		"learning":    "learning",
	}
	var lem NounLemmatizer
	for in, want := range cases {
		assert.Equal(t, want, lem.Lemmatize(in), in)
	}
}

func TestStopWords_ReturnsCopy(t *testing.T) {
	a := StopWords()
	a["graph"] = true
	assert.False(t, StopWords()["graph"])
	assert.True(t, StopWords()["dataset"])
}

// --- Phrase profile ---

func TestProfile_PhrasesDoNotSpanPlaceholder(t *testing.T) {
	lengths := map[string]int{}
	doc := profile([][]string{{"graph", "neural", "#", "network"}}, lengths)

	assert.Equal(t, map[string]int{"graph": 1, "neural": 1, "network": 1}, doc.words)
	assert.Equal(t, map[string]int{"graph neural": 1}, doc.phrases)
	assert.Equal(t, 2, lengths["graph neural"])
}

func TestProfile_TrigramsAndHyphenatedWords(t *testing.T) {
	lengths := map[string]int{}
	doc := profile([][]string{{"deep", "graph-based", "model"}}, lengths)

	assert.Contains(t, doc.phrases, "graph-based")
	assert.Contains(t, doc.phrases, "deep graph-based")
	assert.Contains(t, doc.phrases, "graph-based model")
	assert.Contains(t, doc.phrases, "deep graph-based model")
	assert.Equal(t, 1, lengths["graph-based"])
	assert.Equal(t, 3, lengths["deep graph-based model"])
}

func TestProfile_FallsBackToWords(t *testing.T) {
	lengths := map[string]int{}
	doc := profile([][]string{{"graph", "#", "network"}}, lengths)
	assert.Equal(t, map[string]int{"graph": 1, "network": 1}, doc.phrases)
}

// --- Labeler ---

var (
	graphDocs = []string{
		"Graph neural networks learn node embeddings by message passing.",
		"We study graph neural networks for molecule property prediction.",
		"Message passing graph neural networks scale to large citation graphs.",
	}
	agentDocs = []string{
		"Reinforcement learning agents maximize reward through exploration.",
		"Deep reinforcement learning trains policy networks for robot control.",
		"Reward shaping speeds up reinforcement learning agents.",
	}
	root = "A survey of representation learning methods."
)

func vocabulary(tok *Tokenizer, texts []string) map[string]bool {
	words := map[string]bool{}
	for _, text := range texts {
		for _, sent := range tok.Tokenize(text) {
			for _, w := range sent {
				words[w] = true
			}
		}
	}
	return words
}

func TestLabel_GroupsComeFromClusterText(t *testing.T) {
	tok := NewTokenizer()
	l := New(tok)

	res, err := l.Label(Input{Root: root, Clusters: [][]string{graphDocs, agentDocs}})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	require.Len(t, res.Primary, 2)

	for i, docs := range [][]string{graphDocs, agentDocs} {
		vocab := vocabulary(tok, docs)
		require.NotEmpty(t, res.Groups[i])
		assert.LessOrEqual(t, len(res.Groups[i]), DefaultGroupSize)
		for _, label := range res.Groups[i] {
			for _, w := range strings.Fields(label) {
				assert.True(t, vocab[w], "label %q of cluster %d uses %q", label, i, w)
			}
		}
	}
	assert.NotEqual(t, res.Primary[0], res.Primary[1])
}

func TestLabel_GroupSizeLimit(t *testing.T) {
	l := New(NewTokenizer())
	l.GroupSize = 2
	res, err := l.Label(Input{Root: root, Clusters: [][]string{graphDocs, agentDocs}})
	require.NoError(t, err)
	for _, g := range res.Groups {
		assert.LessOrEqual(t, len(g), 2)
	}
}

func TestLabel_Deterministic(t *testing.T) {
	in := Input{
		Root:     root,
		Clusters: [][]string{graphDocs, agentDocs},
		Weights:  [][]float64{{0.5, 0.2, 0.1}, {0.3, 0.3, 0.3}},
	}
	first, err := New(NewTokenizer()).Label(in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := New(NewTokenizer()).Label(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLabel_NoLabelWithinSelectedPhrase(t *testing.T) {
	res, err := New(NewTokenizer()).Label(Input{Root: root, Clusters: [][]string{graphDocs, agentDocs}})
	require.NoError(t, err)
	for _, g := range res.Groups {
		seen := map[string]bool{}
		for _, label := range g {
			assert.False(t, seen[label], "duplicate label %q", label)
			seen[label] = true
		}
		for _, label := range g {
			parts := strings.Fields(label)
			if len(parts) == 2 {
				assert.False(t, seen[parts[0]] && seen[parts[1]], "both words of %q selected", label)
			}
		}
	}
}

func TestLabel_Errors(t *testing.T) {
	l := New(NewTokenizer())

	_, err := l.Label(Input{Root: root})
	assert.ErrorIs(t, err, ErrNoClusters)

	_, err = l.Label(Input{Clusters: [][]string{graphDocs}, Weights: [][]float64{{1}}})
	assert.Error(t, err)

	_, err = l.Label(Input{Clusters: [][]string{graphDocs}, Weights: [][]float64{{1, 1, 1}, {1}}})
	assert.Error(t, err)
}

func TestLabel_EmptyTextYieldsEmptyGroups(t *testing.T) {
	res, err := New(NewTokenizer()).Label(Input{Clusters: [][]string{{"the of and"}, {""}}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{}, {}}, res.Groups)
	assert.Equal(t, []string{"", ""}, res.Primary)
}

// --- Primary labels ---

func TestPrimaryLabels_HeaviestClusterWins(t *testing.T) {
	groups := [][]string{{"a", "b"}, {"a", "c"}}
	assert.Equal(t, []string{"b", "a"}, primaryLabels(groups, []float64{1, 2}))
	assert.Equal(t, []string{"a", "c"}, primaryLabels(groups, []float64{2, 1}))
}

func TestPrimaryLabels_TiesGoToLowerIndex(t *testing.T) {
	groups := [][]string{{"a"}, {"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, primaryLabels(groups, []float64{1, 1}))
}

func TestPrimaryLabels_ExhaustedGroupKeepsBestLabel(t *testing.T) {
	groups := [][]string{{"a"}, {"a"}, {}}
	assert.Equal(t, []string{"a", "a", ""}, primaryLabels(groups, []float64{3, 2, 1}))
}

// --- Scoring helpers ---

func TestContrast(t *testing.T) {
	f := contrast(3, 0.8, 0.1)
	assert.InDelta(t, 0.1, f.At(1, 0), 1e-12)
	assert.InDelta(t, 1.8, f.At(1, 1), 1e-12)
	assert.InDelta(t, -0.8, f.At(1, 2), 1e-12)
	assert.InDelta(t, 0.1, f.At(0, 0), 1e-12)

	two := contrast(2, 0.8, 0.1)
	assert.InDelta(t, 0.8, two.At(1, 1), 1e-12)
}

func TestCandidateBetter(t *testing.T) {
	a := candidate{label: "alpha", score: 1, rel: 1}
	b := candidate{label: "beta", score: 1, rel: 1}
	assert.True(t, a.better(b))
	assert.False(t, b.better(a))

	b.length = 2
	assert.True(t, b.better(a))

	a.score = 2
	assert.True(t, a.better(b))
}
