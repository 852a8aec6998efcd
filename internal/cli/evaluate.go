package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/happyhackingspace/hamspam"
	"github.com/happyhackingspace/hamspam/internal/corpus"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var dataPath string
	var cvFolds int

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Cross-validate the configured pipeline",
		Example: `  hamspam evaluate --data emails.csv --cv 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := corpus.Load(dataPath, corpus.Options{DropDuplicates: c.cfg.Data.DropDuplicates})
			if err != nil {
				return err
			}
			slog.Info("Evaluating", "folds", cvFolds, "data", dataPath, "documents", len(docs))
			start := time.Now()
			result, err := hamspam.Evaluate(cmd.Context(), docs, c.cfg.Pipeline, cvFolds, c.cfg.Data.Seed)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parameters: %s\n", formatParams(c.cfg.Pipeline.Params()))
			fmt.Fprintf(out, "Fold accuracy: %s\n", formatScores(result.Folds.Scores))
			fmt.Fprintf(out, "Mean accuracy: %.1f%% (+/- %.1f%%)\n", result.Folds.Mean*100, result.Folds.Std*100)
			fmt.Fprintf(out, "Out-of-fold accuracy: %.1f%% (%d/%d)\n",
				result.Report.Accuracy*100, result.Report.Correct(), result.Report.Total())
			fmt.Fprintf(out, "Macro F1: %.1f%%  Weighted F1: %.1f%%\n\n",
				result.Report.Macro.F1*100, result.Report.Weighted.F1*100)
			printClassReport(out, result.Report)
			printConfusionMatrix(out, result.Report)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "data.csv", "Path to labelled corpus (csv, tsv or jsonl)")
	cmd.Flags().IntVar(&cvFolds, "cv", 5, "Number of cross-validation folds")
	return cmd
}
