// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Ward performs agglomerative clustering of the rows of x with Ward
// linkage, merging until n clusters remain. It is deterministic: ties merge
// the pair with the lowest indices. Clusters are numbered by their lowest
// member row.
func Ward(x mat.Matrix, n int) (Result, error) {
	rows, cols := x.Dims()
	if n < 1 || n > rows {
		return Result{}, fmt.Errorf("%w: %d clusters for %d points", ErrInvalidClusterCount, n, rows)
	}

	type group struct {
		members  []int
		centroid []float64
	}
	groups := make([]*group, rows)
	for i := range groups {
		groups[i] = &group{members: []int{i}, centroid: mat.Row(nil, i, x)}
	}

	cost := func(a, b *group) float64 {
		na, nb := float64(len(a.members)), float64(len(b.members))
		var d float64
		for c := 0; c < cols; c++ {
			diff := a.centroid[c] - b.centroid[c]
			d += diff * diff
		}
		return na * nb / (na + nb) * d
	}

	for len(groups) > n {
		bi, bj, best := 0, 1, math.Inf(1)
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if c := cost(groups[i], groups[j]); c < best {
					bi, bj, best = i, j, c
				}
			}
		}
		a, b := groups[bi], groups[bj]
		na, nb := float64(len(a.members)), float64(len(b.members))
		merged := &group{
			members:  append(append([]int(nil), a.members...), b.members...),
			centroid: make([]float64, cols),
		}
		for c := 0; c < cols; c++ {
			merged.centroid[c] = (na*a.centroid[c] + nb*b.centroid[c]) / (na + nb)
		}
		sort.Ints(merged.members)
		groups[bi] = merged
		groups = append(groups[:bj], groups[bj+1:]...)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].members[0] < groups[j].members[0] })
	res := Result{Labels: make([]int, rows)}
	for label, g := range groups {
		for _, m := range g.members {
			res.Labels[m] = label
		}
		res.Inertia += within(g.members, g.centroid, x)
	}
	res.RestartInertias = []float64{res.Inertia}
	return res, nil
}

func within(members []int, centroid []float64, x mat.Matrix) float64 {
	var total float64
	for _, m := range members {
		for c, v := range centroid {
			d := x.At(m, c) - v
			total += d * d
		}
	}
	return total
}
