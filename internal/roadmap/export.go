// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package roadmap

import (
	"sort"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// RelatedPapers is the number of related titles in an export.
const RelatedPapers = 5

// Export converts r to its published form. Branches are arranged with the
// most important cluster in the middle and importance falling off toward
// both ends. Citation and reference lists only name candidates.
func (r *Roadmap) Export(version string) types.RoadmapExport {
	ids := make(types.IDSet, len(r.Candidates))
	for _, p := range r.Candidates {
		ids.Add(p.ID)
	}

	out := types.RoadmapExport{
		ID:                 r.ID,
		Root:               record(r.Seed(), ids),
		Branches:           []types.Branch{},
		Importance:         []float64{},
		ClusterNames:       []string{},
		TagGroups:          [][]string{},
		RelatedPaperTitles: []string{},
		Version:            version,
	}
	for _, c := range CenterOrder(r.Clusters) {
		out.Branches = append(out.Branches, types.Branch{
			records(c.MainTimeline, ids),
			records(c.SecondaryTimeline, ids),
		})
		out.Importance = append(out.Importance, c.Importance)
		out.ClusterNames = append(out.ClusterNames, c.PrimaryLabel)
		out.TagGroups = append(out.TagGroups, append([]string{}, c.LabelGroup...))
	}
	for _, p := range r.Related(RelatedPapers) {
		out.RelatedPaperTitles = append(out.RelatedPaperTitles, p.Title)
	}
	return out
}

// Related returns up to n non-seed candidates, most important first.
func (r *Roadmap) Related(n int) []*types.Publication {
	if len(r.Candidates) < 2 {
		return nil
	}
	pubs := append([]*types.Publication(nil), r.Candidates[1:]...)
	sort.SliceStable(pubs, func(i, j int) bool {
		return pubs[i].Importance > pubs[j].Importance
	})
	return pubs[:min(n, len(pubs))]
}

// CenterOrder sorts clusters by importance and deals them alternately to the
// front and the back, leaving the most important cluster in the middle.
func CenterOrder(clusters []*types.Cluster) []*types.Cluster {
	byImportance := append([]*types.Cluster(nil), clusters...)
	sort.SliceStable(byImportance, func(i, j int) bool {
		return byImportance[i].Importance > byImportance[j].Importance
	})
	out := make([]*types.Cluster, 0, len(clusters))
	for i, c := range byImportance {
		if i%2 == 0 {
			out = append([]*types.Cluster{c}, out...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

func records(pubs []*types.Publication, ids types.IDSet) []types.PublicationRecord {
	out := make([]types.PublicationRecord, len(pubs))
	for i, p := range pubs {
		out[i] = record(p, ids)
	}
	return out
}

func record(p *types.Publication, ids types.IDSet) types.PublicationRecord {
	authors := p.Authors
	if authors == nil {
		authors = []string{}
	}
	return types.PublicationRecord{
		ID:         p.ID,
		Title:      p.Title,
		Year:       p.Year,
		Venue:      p.Venue,
		Authors:    authors,
		CitedBy:    p.CitedBy(),
		Abstract:   p.Abstract,
		Citations:  p.Citations.Intersect(ids),
		References: p.References.Intersect(ids),
		Score:      p.Importance,
		Embedding:  p.Embedding,
	}
}
