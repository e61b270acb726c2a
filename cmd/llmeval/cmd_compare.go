package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/render"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/transcript"
)

func (a *app) newCompareCommand() *cobra.Command {
	format := newFormatFlag("table", "table", "json", "yaml", "csv", "markdown")

	cmd := &cobra.Command{
		Use:   "compare <result.json> [result.json ...]",
		Short: "Fold saved evaluation results into a benchmark table",
		Long: `Load evaluation results saved with --save-result or --transcript-dir and
fold their average scores into one benchmark table, in argument order.

A later result for the same model replaces the earlier one. Results saved
without a model cannot be compared.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := loadOutcomes(args)
			if err != nil {
				return err
			}
			t := buildBenchmark(outcomes)
			return writeTable(cmd, t, format.value)
		},
	}

	cmd.Flags().VarP(format, "format", "f", format.usage())

	return cmd
}

// loadOutcomes reads result files concurrently, keeping argument order.
func loadOutcomes(paths []string) ([]*models.EvaluationOutcome, error) {
	outcomes := make([]*models.EvaluationOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			o, err := transcript.Read(p)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", p, err)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func buildBenchmark(outcomes []*models.EvaluationOutcome) benchmark.Table {
	t := benchmark.Clear()
	for _, o := range outcomes {
		t = benchmark.Upsert(t, o.Record())
	}
	return t
}

func writeTable(cmd *cobra.Command, t benchmark.Table, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return benchmark.WriteJSON(out, t)
	case "yaml":
		return benchmark.WriteYAML(out, t)
	case "csv":
		return benchmark.WriteCSV(out, t)
	case "markdown":
		return benchmark.WriteMarkdown(out, t)
	default:
		return render.Table(out, t)
	}
}
