// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"fmt"
	"io"
	"math"
)

// Score summarizes one measure over repeated clusterings.
type Score struct {
	Mean float64
	Max  float64
	Runs int
}

// Summarize returns the mean and maximum of values, ignoring NaNs. Both are
// NaN when no value is a number.
func Summarize(values []float64) Score {
	s := Score{Mean: math.NaN(), Max: math.NaN()}
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if s.Runs == 0 || v > s.Max {
			s.Max = v
		}
		sum += v
		s.Runs++
	}
	if s.Runs > 0 {
		s.Mean = sum / float64(s.Runs)
	}
	return s
}

// Report is the outcome of evaluating one seed.
type Report struct {
	Seed string

	// Spearman is the neighborhood similarity correlation; it is NaN when
	// the candidates carry no embeddings.
	Spearman float64

	MST Score

	// Strong and Weak are the co-mention hit rates, present when a
	// co-mention file was supplied.
	Strong *Score
	Weak   *Score
}

// Write prints the report in the evaluation log format.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Neighborhood Similarity Benchmark (Spearman): %.4f\n", r.Spearman); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "MST Relative Score: avg:%.4f max:%.4f\n", r.MST.Mean, r.MST.Max); err != nil {
		return err
	}
	if r.Strong == nil || r.Weak == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "Comention Score: \n\tStrong: avg:%.4f max:%.4f\n\tWeak  : avg:%.4f max:%.4f\n",
		r.Strong.Mean, r.Strong.Max, r.Weak.Mean, r.Weak.Max)
	return err
}

// Summary averages reports over several seeds.
type Summary struct {
	Reports  []*Report
	Failed   int
	Spearman float64
	MST      Score
	Strong   *Score
	Weak     *Score
}

// SummarizeReports averages the per-seed means and maxima of reports. failed
// counts the seeds that could not be evaluated.
func SummarizeReports(reports []*Report, failed int) *Summary {
	s := &Summary{Reports: reports, Failed: failed}
	var spearman, mstMean, mstMax, strongMean, strongMax, weakMean, weakMax []float64
	for _, r := range reports {
		spearman = append(spearman, r.Spearman)
		mstMean = append(mstMean, r.MST.Mean)
		mstMax = append(mstMax, r.MST.Max)
		if r.Strong != nil && r.Weak != nil {
			strongMean = append(strongMean, r.Strong.Mean)
			strongMax = append(strongMax, r.Strong.Max)
			weakMean = append(weakMean, r.Weak.Mean)
			weakMax = append(weakMax, r.Weak.Max)
		}
	}
	s.Spearman = Summarize(spearman).Mean
	s.MST = Score{Mean: Summarize(mstMean).Mean, Max: Summarize(mstMax).Mean, Runs: len(mstMean)}
	if len(strongMean) > 0 {
		s.Strong = &Score{Mean: Summarize(strongMean).Mean, Max: Summarize(strongMax).Mean, Runs: len(strongMean)}
		s.Weak = &Score{Mean: Summarize(weakMean).Mean, Max: Summarize(weakMax).Mean, Runs: len(weakMean)}
	}
	return s
}

// Write prints the summary block.
func (s *Summary) Write(w io.Writer) error {
	total := len(s.Reports) + s.Failed
	if _, err := fmt.Fprintf(w, "=== Summary ===\nCalculated Count/Total Count: %d/%d\n", len(s.Reports), total); err != nil {
		return err
	}
	r := &Report{Spearman: s.Spearman, MST: s.MST, Strong: s.Strong, Weak: s.Weak}
	return r.Write(w)
}
