// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kernel fuses citation structure, supervision links, and embedding
// similarity into one symmetric similarity matrix over a candidate set.
package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	pgraph "github.com/pdiddy/roadmap-engine/internal/graph"
	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// Kernel is a symmetric similarity matrix. Row and column i refer to the
// i-th publication of the candidate set it was built from.
type Kernel struct {
	m *mat.SymDense
}

// New wraps a symmetric matrix.
func New(m *mat.SymDense) *Kernel {
	return &Kernel{m: m}
}

// FromRows builds a kernel from a square row-major matrix, which must be
// symmetric.
func FromRows(rows [][]float64) (*Kernel, error) {
	n := len(rows)
	if n == 0 {
		return &Kernel{}, nil
	}
	m := mat.NewSymDense(n, nil)
	for i := range rows {
		if len(rows[i]) != n {
			return nil, fmt.Errorf("kernel row %d has %d columns, want %d", i, len(rows[i]), n)
		}
		for j := i; j < n; j++ {
			if math.Abs(rows[i][j]-rows[j][i]) > 1e-9 {
				return nil, fmt.Errorf("kernel is not symmetric at (%d,%d)", i, j)
			}
			m.SetSym(i, j, rows[i][j])
		}
	}
	return &Kernel{m: m}, nil
}

// Len returns the number of rows.
func (k *Kernel) Len() int {
	if k == nil || k.m == nil {
		return 0
	}
	return k.m.SymmetricDim()
}

// At returns the similarity of i and j.
func (k *Kernel) At(i, j int) float64 { return k.m.At(i, j) }

// Row returns a copy of row i.
func (k *Kernel) Row(i int) []float64 {
	n := k.Len()
	row := make([]float64, n)
	for j := 0; j < n; j++ {
		row[j] = k.m.At(i, j)
	}
	return row
}

// Matrix returns the underlying matrix. Callers must not modify it.
func (k *Kernel) Matrix() mat.Symmetric { return k.m }

// Min returns the smallest entry.
func (k *Kernel) Min() float64 {
	n := k.Len()
	lo := math.Inf(1)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			lo = math.Min(lo, k.m.At(i, j))
		}
	}
	return lo
}

// Shifted returns k with δ added to its diagonal, where δ is the largest
// absolute off-diagonal entry minus the smallest diagonal entry. It returns
// k itself when δ is not positive. Structural kernels have a zero diagonal
// and need the shift before k-means can tell points apart.
func (k *Kernel) Shifted() *Kernel {
	n := k.Len()
	if n == 0 {
		return k
	}
	var dominant float64
	lowest := math.Inf(1)
	for i := 0; i < n; i++ {
		lowest = math.Min(lowest, k.m.At(i, i))
		for j := i + 1; j < n; j++ {
			dominant = math.Max(dominant, math.Abs(k.m.At(i, j)))
		}
	}
	delta := dominant - lowest
	if delta <= 0 {
		return k
	}
	m := mat.NewSymDense(n, nil)
	m.CopySym(k.m)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, m.At(i, i)+delta)
	}
	return &Kernel{m: m}
}

// Sub returns the kernel restricted to rows and columns from..Len()-1. The
// clustering stage uses Sub(1) to leave out the seed.
func (k *Kernel) Sub(from int) *Kernel {
	n := k.Len()
	if from < 0 || from > n {
		panic(fmt.Sprintf("kernel: sub offset %d out of range [0,%d]", from, n))
	}
	size := n - from
	if size == 0 {
		return &Kernel{}
	}
	m := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		for j := i; j < size; j++ {
			m.SetSym(i, j, k.m.At(i+from, j+from))
		}
	}
	return &Kernel{m: m}
}

// Distance returns the squared kernel distance of point x to the weighted
// set described by weights: K[x,x] - 2 Σ w_s K[x,s] + Σ w_s w_t K[s,t]. The
// weights are normalized to sum to one and the result is clipped at zero. A
// set with no weight degenerates to K[x,x].
func (k *Kernel) Distance(x int, weights []float64) float64 {
	w, idx := normalize(weights)
	return k.distance(x, w, idx, k.selfSimilarity(w, idx))
}

// Distances returns Distance for every point against the same set.
func (k *Kernel) Distances(weights []float64) []float64 {
	w, idx := normalize(weights)
	self := k.selfSimilarity(w, idx)
	out := make([]float64, k.Len())
	for x := range out {
		out[x] = k.distance(x, w, idx, self)
	}
	return out
}

func (k *Kernel) distance(x int, w []float64, idx []int, self float64) float64 {
	var cross float64
	for _, s := range idx {
		cross += w[s] * k.m.At(x, s)
	}
	return math.Max(k.m.At(x, x)-2*cross+self, 0)
}

// selfSimilarity is Σ w_s w_t K[s,t] over the support of w.
func (k *Kernel) selfSimilarity(w []float64, idx []int) float64 {
	var total float64
	for _, s := range idx {
		for _, t := range idx {
			total += w[s] * w[t] * k.m.At(s, t)
		}
	}
	return total
}

// normalize scales weights to sum one (with a 1e-12 guard) and returns the
// indices of the nonzero entries.
func normalize(weights []float64) ([]float64, []int) {
	var sum float64
	for _, v := range weights {
		sum += v
	}
	w := make([]float64, len(weights))
	var idx []int
	for i, v := range weights {
		if v == 0 {
			continue
		}
		w[i] = v / (sum + 1e-12)
		idx = append(idx, i)
	}
	return w, idx
}

// Options configures Build.
type Options struct {
	// Alpha scales the citation adjacency.
	Alpha float64

	// Beta scales the supervision adjacency.
	Beta float64

	// Supervision lists id pairs known to belong together. Pairs with an id
	// outside the candidate set are ignored.
	Supervision [][2]string
}

// Build returns α·A + β·W over pubs, where A is the undirected citation
// adjacency and W the supervision adjacency, both binary. When every
// publication carries an embedding of the same length, the cosine
// similarity of the embeddings is added too, except that the block without
// pubs[0] uses inner products of embeddings centered on the non-seed mean.
// The structural part is non-negative; the embedding part may not be.
func Build(pubs []*types.Publication, opts Options) *Kernel {
	n := len(pubs)
	if n == 0 {
		return &Kernel{}
	}
	m := mat.NewSymDense(n, nil)

	citations, idx := pgraph.Undirected(pubs)
	addAdjacency(m, citations, opts.Alpha)
	if opts.Beta != 0 && len(opts.Supervision) > 0 {
		addAdjacency(m, pgraph.FromEdges(idx, opts.Supervision), opts.Beta)
	}

	if vectors, ok := Embeddings(pubs); ok {
		addEmbeddingSimilarity(m, vectors)
	}
	return &Kernel{m: m}
}

// Embeddings returns the embedding matrix of pubs, one row per publication,
// when every publication has a non-empty embedding of the same length.
func Embeddings(pubs []*types.Publication) (*mat.Dense, bool) {
	if len(pubs) == 0 {
		return nil, false
	}
	dim := len(pubs[0].Embedding)
	if dim == 0 {
		return nil, false
	}
	data := make([]float64, 0, len(pubs)*dim)
	for _, p := range pubs {
		if len(p.Embedding) != dim {
			return nil, false
		}
		data = append(data, p.Embedding...)
	}
	return mat.NewDense(len(pubs), dim, data), true
}

// Linear returns the Gram kernel X·Xᵀ of the rows of x.
func Linear(x mat.Matrix) *Kernel {
	r, _ := x.Dims()
	m := mat.NewSymDense(r, nil)
	m.SymOuterK(1, x)
	return &Kernel{m: m}
}

func addAdjacency(m *mat.SymDense, g *simple.UndirectedGraph, weight float64) {
	if weight == 0 {
		return
	}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		i, j := int(e.From().ID()), int(e.To().ID())
		m.SetSym(i, j, m.At(i, j)+weight)
	}
}

func addEmbeddingSimilarity(m *mat.SymDense, x *mat.Dense) {
	n, dim := x.Dims()

	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		norms[i] = mat.Norm(x.RowView(i), 2)
	}
	for j := 0; j < n; j++ {
		var cos float64
		if norms[0] > 0 && norms[j] > 0 {
			cos = mat.Dot(x.RowView(0), x.RowView(j)) / (norms[0] * norms[j])
		}
		m.SetSym(0, j, m.At(0, j)+cos)
	}
	if n < 2 {
		return
	}

	// Center the non-seed rows before taking inner products.
	rest := mat.DenseCopyOf(x.Slice(1, n, 0, dim))
	for c := 0; c < dim; c++ {
		col := mat.Col(nil, c, rest)
		var mean float64
		for _, v := range col {
			mean += v
		}
		mean /= float64(len(col))
		for r := range col {
			rest.Set(r, c, col[r]-mean)
		}
	}
	gram := mat.NewSymDense(n-1, nil)
	gram.SymOuterK(1, rest)
	for i := 1; i < n; i++ {
		for j := i; j < n; j++ {
			m.SetSym(i, j, m.At(i, j)+gram.At(i-1, j-1))
		}
	}
}
