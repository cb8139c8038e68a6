package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/roadmap-engine/internal/evaluate"
	"github.com/pdiddy/roadmap-engine/internal/roadmap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <paper-id>...",
	Short: "Score repeated clusterings of one or more papers",
	Long: `Evaluate builds the candidate set of every given paper once, clusters it
--repeat times with consecutive random seeds, and prints:

  - the Spearman correlation between embedding similarity and citation
    neighborhood overlap (NaN without --embed),
  - the spanning score: the overlap weight of the roadmap edges relative to
    the maximum spanning tree of the neighborhood overlap graph,
  - the strong and weak co-mention hit rates when --supervision is given.

With several papers a summary averages the per-paper results. Papers that
fail are reported and counted but do not stop the run.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindBuildFlags,
	RunE:    runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	repeat, _ := cmd.Flags().GetInt("repeat")
	if repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
	}

	b, closeBuilder, err := newBuilder(loadConfig())
	if err != nil {
		return err
	}
	defer closeBuilder()

	reports, failed := evaluateAll(cmd.Context(), b, args, repeat, os.Stdout)
	if len(args) == 1 {
		if failed > 0 {
			return fmt.Errorf("evaluating %s failed", args[0])
		}
		return nil
	}
	return evaluate.SummarizeReports(reports, failed).Write(os.Stdout)
}

// evaluateAll prints the report of every seed to w, logging the seeds that
// fail.
func evaluateAll(ctx context.Context, b *roadmap.Builder, seeds []string, repeat int, w io.Writer) ([]*evaluate.Report, int) {
	var reports []*evaluate.Report
	failed := 0
	for _, seed := range seeds {
		rep, err := b.Evaluate(ctx, seed, repeat)
		if err != nil {
			logger.Error("evaluation failed", zap.String("seed", seed), zap.Error(err))
			fmt.Fprintf(os.Stderr, "%s: %v\n", seed, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "=== %s ===\n", seed)
		if err := rep.Write(w); err != nil {
			logger.Warn("writing report", zap.Error(err))
		}
		reports = append(reports, rep)
	}
	return reports, failed
}

func init() {
	f := evaluateCmd.Flags()
	addBuildFlags(f)
	f.Int("repeat", 10, "clusterings per paper")

	rootCmd.AddCommand(evaluateCmd)
}
