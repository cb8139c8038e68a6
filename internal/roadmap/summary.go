// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package roadmap

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/roadmap-engine/pkg/types"
)

// WriteSummary prints every cluster with its labels and timelines. Main
// timeline papers that lead into the secondary timeline are marked "+".
func (r *Roadmap) WriteSummary(w io.Writer) error {
	seed := r.Seed()
	if _, err := fmt.Fprintf(w, "Roadmap %s for %s (%d) %s\n\n", r.ID, seed.ID, seed.Year, seed.Title); err != nil {
		return err
	}
	for _, c := range r.Clusters {
		if err := writeCluster(w, c); err != nil {
			return err
		}
	}
	if r.Comentions != nil {
		_, err := fmt.Fprintf(w, "Co-mentions: strong %d/%d (%.4f), weak %d/%d (%.4f)\n",
			r.Comentions.Strong.Hits, r.Comentions.Strong.Total, r.Comentions.Strong.Ratio,
			r.Comentions.Weak.Hits, r.Comentions.Weak.Total, r.Comentions.Weak.Ratio)
		return err
	}
	return nil
}

func writeCluster(w io.Writer, c *types.Cluster) error {
	main := make(map[string]bool, len(c.MainTimeline))
	for _, p := range c.MainTimeline {
		main[p.ID] = true
	}
	connectors := map[string]bool{}
	for _, e := range c.Edges {
		if main[e.From] && !main[e.To] {
			connectors[e.From] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Cluster[%d] %s (%s) ===\n", c.ID, c.PrimaryLabel, strings.Join(c.LabelGroup, ", "))
	b.WriteString("\t> Main Timeline\n")
	for _, p := range c.MainTimeline {
		mark := " "
		if connectors[p.ID] {
			mark = "+"
		}
		fmt.Fprintf(&b, "\t\t%s %d %s\n", mark, p.Year, p.Title)
	}
	b.WriteString("\t> Secondary Timeline\n")
	for _, p := range c.SecondaryTimeline {
		fmt.Fprintf(&b, "\t\t  %d %s\n", p.Year, p.Title)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
