// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package label assigns human-readable labels to document clusters. It scores
// candidate phrases by their pointwise mutual information with the words of
// each cluster, contrasts every cluster against the others, and assembles a
// diverse label group per cluster with a greedy selection.
package label

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Labeling defaults.
const (
	DefaultGroupSize = 5
	DefaultMu        = 0.8
	DefaultPhi       = 0.1
	DefaultLambda    = 0.95

	smoothing = 1e-12
)

// ErrNoClusters is returned when there is nothing to label.
var ErrNoClusters = errors.New("no clusters to label")

// Labeler produces a primary label and a label group for each cluster.
type Labeler struct {
	Tokenizer *Tokenizer

	// GroupSize caps the number of labels per cluster.
	GroupSize int

	// Mu is the share of the other clusters' relevance subtracted from a
	// cluster's own relevance.
	Mu float64

	// Phi weights the seed document's relevance.
	Phi float64

	// Lambda trades relevance against similarity to labels already chosen.
	Lambda float64
}

// New returns a Labeler with default parameters using tok.
func New(tok *Tokenizer) *Labeler {
	return &Labeler{
		Tokenizer: tok,
		GroupSize: DefaultGroupSize,
		Mu:        DefaultMu,
		Phi:       DefaultPhi,
		Lambda:    DefaultLambda,
	}
}

// Input holds the texts to label. Clusters[i] lists the documents of
// cluster i. Weights, when set, has the same shape as Clusters; otherwise
// every document weighs 1.
type Input struct {
	Root       string
	RootWeight float64
	Clusters   [][]string
	Weights    [][]float64
}

// Result holds one primary label and one label group per cluster.
type Result struct {
	Primary []string
	Groups  [][]string
}

// document is the per-document token profile.
type document struct {
	words   map[string]int
	phrases map[string]int
}

// corpus is the tokenized input with every cluster, the seed included as
// cluster 0, flattened into one document list.
type corpus struct {
	docs      []document
	clusterOf []int
	weights   []float64
	nClusters int

	// df[c][phrase] counts the documents of cluster c containing phrase.
	df      []map[string]int
	lengths map[string]int
}

// Label runs the labeling pipeline over in.
func (l *Labeler) Label(in Input) (*Result, error) {
	if len(in.Clusters) == 0 {
		return nil, ErrNoClusters
	}
	if in.Weights != nil {
		if len(in.Weights) != len(in.Clusters) {
			return nil, fmt.Errorf("label: %d weight rows for %d clusters", len(in.Weights), len(in.Clusters))
		}
		for i := range in.Clusters {
			if len(in.Weights[i]) != len(in.Clusters[i]) {
				return nil, fmt.Errorf("label: cluster %d has %d documents and %d weights", i, len(in.Clusters[i]), len(in.Weights[i]))
			}
		}
	}

	tok := l.Tokenizer
	if tok == nil {
		tok = NewTokenizer()
	}
	c := newCorpus(tok, in)

	res := &Result{
		Primary: make([]string, len(in.Clusters)),
		Groups:  make([][]string, len(in.Clusters)),
	}
	for i := range res.Groups {
		res.Groups[i] = []string{}
	}

	labels, words := c.vocabulary()
	if len(labels) == 0 || len(words) == 0 {
		return res, nil
	}

	s := c.score(labels, words, l.Mu, l.Phi)
	groupSize := l.GroupSize
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	for k := 1; k < c.nClusters; k++ {
		res.Groups[k-1] = s.selectGroup(c, k, groupSize, l.Lambda)
	}
	res.Primary = primaryLabels(res.Groups, clusterWeights(in))
	return res, nil
}

func newCorpus(tok *Tokenizer, in Input) *corpus {
	c := &corpus{
		nClusters: len(in.Clusters) + 1,
		lengths:   make(map[string]int),
	}
	c.df = make([]map[string]int, c.nClusters)
	for i := range c.df {
		c.df[i] = make(map[string]int)
	}

	rootWeight := in.RootWeight
	if rootWeight == 0 {
		rootWeight = 1
	}
	c.add(tok, 0, in.Root, rootWeight)
	for i, texts := range in.Clusters {
		for j, text := range texts {
			w := 1.0
			if in.Weights != nil {
				w = in.Weights[i][j]
			}
			c.add(tok, i+1, text, w)
		}
	}
	return c
}

func (c *corpus) add(tok *Tokenizer, cluster int, text string, weight float64) {
	doc := profile(tok.Tokenize(text), c.lengths)
	for p := range doc.phrases {
		c.df[cluster][p]++
	}
	c.docs = append(c.docs, doc)
	c.clusterOf = append(c.clusterOf, cluster)
	c.weights = append(c.weights, weight)
}

// profile counts a document's words and phrases. Phrases are hyphenated
// words, bigrams and trigrams that do not span a placeholder. A document
// without any phrase falls back to its single words.
func profile(sentences [][]string, lengths map[string]int) document {
	doc := document{words: map[string]int{}, phrases: map[string]int{}}
	addPhrase := func(tokens []string) {
		key := strings.Join(tokens, " ")
		doc.phrases[key]++
		lengths[key] = len(tokens)
	}

	for _, sent := range sentences {
		for i, tok := range sent {
			if tok == Placeholder {
				continue
			}
			doc.words[tok]++
			if strings.Contains(tok, "-") && !strings.HasSuffix(tok, "-") {
				addPhrase(sent[i : i+1])
			}
			for n := 2; n <= 3 && i+n <= len(sent); n++ {
				if !contains(sent[i:i+n], Placeholder) {
					addPhrase(sent[i : i+n])
				}
			}
		}
	}
	if len(doc.phrases) == 0 {
		for _, sent := range sentences {
			for i, tok := range sent {
				if tok != Placeholder {
					addPhrase(sent[i : i+1])
				}
			}
		}
	}
	return doc
}

func contains(tokens []string, s string) bool {
	for _, t := range tokens {
		if t == s {
			return true
		}
	}
	return false
}

// vocabulary returns the sorted candidate labels and words. A phrase is a
// candidate for a cluster when its document frequency reaches the cluster's
// highest phrase frequency divided by the phrase length.
func (c *corpus) vocabulary() (labels, words []string) {
	labelSet := map[string]bool{}
	for _, df := range c.df {
		top := 0
		for _, n := range df {
			top = max(top, n)
		}
		for p, n := range df {
			if float64(n) >= float64(top)/float64(c.lengths[p]) {
				labelSet[p] = true
			}
		}
	}
	wordSet := map[string]bool{}
	for _, d := range c.docs {
		for w := range d.words {
			wordSet[w] = true
		}
	}
	return sortedKeys(labelSet), sortedKeys(wordSet)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// scores holds the per-cluster label statistics used by the greedy
// selection.
type scores struct {
	labels  []string
	index   map[string]int
	rel     *mat.Dense // clusters x labels
	tfidf   *mat.Dense // clusters x labels
	entropy *mat.Dense // labels x labels
}

func (c *corpus) score(labels, words []string, mu, phi float64) *scores {
	D, W, L, C := len(c.docs), len(words), len(labels), c.nClusters
	labelIdx := indexOf(labels)
	wordIdx := indexOf(words)

	docWords := mat.NewDense(D, W, nil)
	docLabels := mat.NewDense(D, L, nil)
	clusterDoc := mat.NewDense(C, D, nil)
	for d, doc := range c.docs {
		for w, n := range doc.words {
			docWords.Set(d, wordIdx[w], float64(n))
		}
		for p, n := range doc.phrases {
			if j, ok := labelIdx[p]; ok {
				docLabels.Set(d, j, float64(n))
			}
		}
		clusterDoc.Set(c.clusterOf[d], d, c.weights[d])
	}

	hasWord := binarize(docWords)
	hasLabel := binarize(docLabels)
	pw := columnMeans(hasWord)
	pl := columnMeans(hasLabel)

	var pwl mat.Dense
	pwl.Mul(hasWord.T(), hasLabel)
	pwl.Scale(1/float64(D), &pwl)

	pmi := mat.NewDense(W, L, nil)
	pmi.Apply(func(i, j int, v float64) float64 {
		return math.Log((v + smoothing) / (pw[i] * pl[j]))
	}, &pwl)

	weights := l1Rows(clusterDoc)

	var clusterWords, raw mat.Dense
	clusterWords.Mul(weights, l1Rows(docWords))
	raw.Mul(&clusterWords, pmi)

	rel := mat.NewDense(C, L, nil)
	rel.Mul(contrast(C, mu, phi), &raw)

	tfidf := mat.NewDense(C, L, nil)
	tfidf.Mul(weights, l1Rows(docLabels))
	tfidf.Apply(func(_, j int, v float64) float64 {
		return v * math.Log(1/pl[j])
	}, tfidf)

	// Conditional word distribution of each label, column-normalized.
	cond := mat.NewDense(W, L, nil)
	cond.Apply(func(_, j int, v float64) float64 { return v / pl[j] }, &pwl)
	for j := 0; j < L; j++ {
		col := mat.Col(nil, j, cond)
		sum := 0.0
		for _, v := range col {
			sum += math.Abs(v)
		}
		if sum == 0 {
			continue
		}
		for i, v := range col {
			cond.Set(i, j, v/sum)
		}
	}
	logCond := mat.NewDense(W, L, nil)
	logCond.Apply(func(_, _ int, v float64) float64 { return math.Log(v + smoothing) }, cond)

	entropy := mat.NewDense(L, L, nil)
	entropy.Mul(logCond.T(), cond)

	return &scores{
		labels:  labels,
		index:   labelIdx,
		rel:     rel,
		tfidf:   tfidf,
		entropy: entropy,
	}
}

// contrast returns the C x C matrix that subtracts a share mu of the other
// clusters' relevance from each cluster's own and weights the seed row by
// phi.
func contrast(n int, mu, phi float64) *mat.Dense {
	denom := float64(max(n-2, 1))
	f := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -mu
			if i == j {
				v += float64(n-2) + 2*mu
			}
			f.Set(i, j, v/denom)
		}
		f.Set(i, 0, phi)
	}
	return f
}

// similarity is how much label r is already explained by covered label c.
// It is zero when the two share a word distribution and negative otherwise.
func (s *scores) similarity(c, r int) float64 {
	return s.entropy.At(c, r) - s.entropy.At(r, r)
}

type candidate struct {
	label  string
	score  float64
	rel    float64
	negSim float64
	tfidf  float64
	df     int
	length int
}

func (a candidate) better(b candidate) bool {
	switch {
	case a.score != b.score:
		return a.score > b.score
	case a.rel != b.rel:
		return a.rel > b.rel
	case a.negSim != b.negSim:
		return a.negSim > b.negSim
	case a.tfidf != b.tfidf:
		return a.tfidf > b.tfidf
	case a.df != b.df:
		return a.df > b.df
	case a.length != b.length:
		return a.length > b.length
	}
	return a.label < b.label
}

// selectGroup greedily assembles the label group of cluster k. Choosing a
// bigram also covers its words; choosing a trigram covers its two bigrams.
func (s *scores) selectGroup(c *corpus, k, size int, lambda float64) []string {
	remaining := map[string]bool{}
	for j, label := range s.labels {
		if s.tfidf.At(k, j) > 0 {
			remaining[label] = true
		}
	}
	var covered []int
	cover := func(label string) {
		if j, ok := s.index[label]; ok {
			covered = append(covered, j)
		}
		delete(remaining, label)
	}

	group := []string{}
	for len(group) < size && len(remaining) > 0 {
		var best candidate
		first := true
		for label := range remaining {
			j := s.index[label]
			sim := 0.0
			for i, cj := range covered {
				if v := s.similarity(cj, j); i == 0 || v > sim {
					sim = v
				}
			}
			rel := s.rel.At(k, j)
			cand := candidate{
				label:  label,
				score:  lambda*rel - (1-lambda)*sim,
				rel:    rel,
				negSim: -sim,
				tfidf:  s.tfidf.At(k, j),
				df:     c.df[k][label],
				length: c.lengths[label],
			}
			if first || cand.better(best) {
				best, first = cand, false
			}
		}

		cover(best.label)
		parts := strings.Fields(best.label)
		switch len(parts) {
		case 2:
			cover(parts[0])
			cover(parts[1])
		case 3:
			cover(parts[0] + " " + parts[1])
			cover(parts[1] + " " + parts[2])
		}
		group = append(group, best.label)
	}
	return group
}

// primaryLabels visits clusters from heaviest to lightest and gives each the
// first label of its group not yet taken. A cluster whose group is fully
// taken keeps its best label.
func primaryLabels(groups [][]string, weights []float64) []string {
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	primary := make([]string, len(groups))
	used := map[string]bool{}
	for _, i := range order {
		for _, label := range groups[i] {
			if !used[label] {
				primary[i] = label
				used[label] = true
				break
			}
		}
		if primary[i] == "" && len(groups[i]) > 0 {
			primary[i] = groups[i][0]
		}
	}
	return primary
}

func clusterWeights(in Input) []float64 {
	out := make([]float64, len(in.Clusters))
	for i, texts := range in.Clusters {
		if in.Weights == nil {
			out[i] = float64(len(texts))
			continue
		}
		for _, w := range in.Weights[i] {
			out[i] += w
		}
	}
	return out
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

func binarize(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	}, m)
	return out
}

func columnMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for j := 0; j < c; j++ {
		out[j] = mat.Sum(m.ColView(j)) / float64(r)
	}
	return out
}

// l1Rows scales every row to unit absolute sum. Zero rows stay zero.
func l1Rows(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.DenseCopyOf(m)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += math.Abs(m.At(i, j))
		}
		if sum == 0 {
			continue
		}
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(i, j)/sum)
		}
	}
	return out
}
