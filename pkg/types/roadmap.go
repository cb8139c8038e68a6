// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Edge is a directed presentation edge between two cluster members.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Cluster is one thematic branch of a roadmap. The clustering stage creates
// it with its members; the timeline and labeling stages fill in the rest.
type Cluster struct {
	// ID is the zero-based cluster index.
	ID int `json:"id" yaml:"id"`

	// Members lists the cluster's publications in candidate order.
	Members []*Publication `json:"-" yaml:"-"`

	// PrimaryLabel is the displayed label, unique across clusters where possible.
	PrimaryLabel string `json:"primary_label" yaml:"primary_label"`

	// LabelGroup is the ranked group of candidate labels.
	LabelGroup []string `json:"label_group" yaml:"label_group"`

	// Importance is the sum of member importances.
	Importance float64 `json:"importance" yaml:"importance"`

	// MainTimeline orders the depth-1 members, newest first.
	MainTimeline []*Publication `json:"-" yaml:"-"`

	// SecondaryTimeline orders the deeper members, newest first.
	SecondaryTimeline []*Publication `json:"-" yaml:"-"`

	// Edges is the directed presentation graph over the members.
	Edges []Edge `json:"edges" yaml:"edges"`
}

// DepthOneCount returns the number of members cited directly by the seed.
func (c *Cluster) DepthOneCount() int {
	n := 0
	for _, p := range c.Members {
		if p.Depth == 1 {
			n++
		}
	}
	return n
}

// PublicationRecord is the exported view of a publication.
type PublicationRecord struct {
	ID         string    `json:"paper_id" yaml:"paper_id"`
	Title      string    `json:"paper_title" yaml:"paper_title"`
	Year       int       `json:"paper_year" yaml:"paper_year"`
	Venue      string    `json:"paper_venue" yaml:"paper_venue"`
	Authors    []string  `json:"paper_authors" yaml:"paper_authors"`
	CitedBy    int       `json:"paper_citations" yaml:"paper_citations"`
	Abstract   string    `json:"paper_abstract" yaml:"paper_abstract"`
	Citations  []string  `json:"citations" yaml:"citations"`
	References []string  `json:"references" yaml:"references"`
	Score      float64   `json:"score" yaml:"score"`
	Embedding  []float64 `json:"embeddings,omitempty" yaml:"embeddings,omitempty"`
}

// Branch holds one cluster's timelines: index 0 is the main timeline,
// index 1 the secondary timeline.
type Branch [2][]PublicationRecord

// RoadmapExport is the artifact written for a finished roadmap.
type RoadmapExport struct {
	// ID identifies the roadmap run.
	ID string `json:"id" yaml:"id"`

	// Root is the seed publication.
	Root PublicationRecord `json:"root" yaml:"root"`

	// Branches lists the clusters, most important in the middle.
	Branches []Branch `json:"branches" yaml:"branches"`

	// Importance holds each branch's importance score.
	Importance []float64 `json:"importance" yaml:"importance"`

	// ClusterNames holds each branch's primary label.
	ClusterNames []string `json:"clusterNames" yaml:"cluster_names"`

	// TagGroups holds each branch's label group.
	TagGroups [][]string `json:"tagGroups" yaml:"tag_groups"`

	// RelatedPaperTitles lists the most important non-seed publications.
	RelatedPaperTitles []string `json:"related_paper_titles" yaml:"related_paper_titles"`

	// Version is the engine version that produced the roadmap.
	Version string `json:"version" yaml:"version"`
}
