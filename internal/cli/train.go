package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/happyhackingspace/hamspam"
	"github.com/happyhackingspace/hamspam/internal/corpus"
	"github.com/happyhackingspace/hamspam/report"
	"github.com/happyhackingspace/hamspam/search"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var dataPath string
	var storeURL string
	var topTerms int

	cmd := &cobra.Command{
		Use:   "train <modelfile>",
		Short: "Grid-search, evaluate and save a classifier",
		Args:  cobra.ExactArgs(1),
		Example: `  hamspam train model.json --data emails.csv
  hamspam train spam-v2 --data emails.jsonl --store redis://localhost:6379/0
  hamspam train model.json --data emails.csv --config hamspam.yaml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			docs, err := corpus.Load(dataPath, corpus.Options{DropDuplicates: c.cfg.Data.DropDuplicates})
			if err != nil {
				return err
			}
			ham, spam := corpus.Counts(docs)
			slog.Info("Corpus loaded", "path", dataPath, "documents", len(docs), "ham", ham, "spam", spam)

			start := time.Now()
			exp, err := hamspam.Train(ctx, docs, c.trainConfig())
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))

			out := cmd.OutOrStdout()
			printExperiment(out, exp)
			if topTerms > 0 {
				printTopTerms(out, exp.Classifier, topTerms)
			}

			store, release, err := c.openStore(ctx, storeURL)
			if err != nil {
				return err
			}
			defer release()
			if err := exp.Classifier.SaveTo(ctx, store, name); err != nil {
				return err
			}
			slog.Info("Model saved", "name", name, "id", exp.Classifier.Meta().ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "data.csv", "Path to labelled corpus (csv, tsv or jsonl)")
	cmd.Flags().StringVar(&storeURL, "store", "", "Artifact store URL (default: local file, or store.url from config)")
	cmd.Flags().IntVar(&topTerms, "top", 10, "Number of most indicative terms to print per class")
	return cmd
}

func (c *CLI) trainConfig() *hamspam.TrainConfig {
	return &hamspam.TrainConfig{
		Pipeline:    c.cfg.Pipeline,
		Grid:        c.cfg.Search.Grid,
		TestSize:    c.cfg.Data.TestSize,
		Seed:        c.cfg.Data.Seed,
		Folds:       c.cfg.Search.Folds,
		CVFolds:     c.cfg.Search.CVFolds,
		Parallelism: c.cfg.Search.Parallelism,
		Timeout:     c.cfg.Search.Timeout,
	}
}

func printExperiment(w io.Writer, exp *hamspam.Experiment) {
	fmt.Fprintf(w, "Split: %d train / %d test\n", exp.TrainSize, exp.TestSize)
	if exp.Partial {
		fmt.Fprintf(w, "Search deadline reached: %d units skipped\n",
			lo.CountBy(exp.Search.Units, func(u search.Unit) bool { return u.Skipped }))
	}

	fmt.Fprintf(w, "\nGrid search (%d folds):\n", len(exp.Search.Folds))
	printCandidates(w, exp.Search)

	fmt.Fprintf(w, "\nBest parameters: %s\n", formatParams(exp.BestParams))
	fmt.Fprintf(w, "Best mean CV accuracy: %.4f\n", exp.BestScore)

	fmt.Fprintf(w, "\nHoldout: accuracy %.1f%% (%d/%d)\n",
		exp.Holdout.Accuracy*100, exp.Holdout.Correct(), exp.Holdout.Total())
	printClassReport(w, exp.Holdout)
	printConfusionMatrix(w, exp.Holdout)

	fmt.Fprintf(w, "\nCross-validation scores: %s\n", formatScores(exp.CV.Scores))
	fmt.Fprintf(w, "Mean CV accuracy: %.4f (+/- %.4f)\n", exp.CV.Mean, exp.CV.Std)
}

func printCandidates(w io.Writer, res *search.Result) {
	table := newTable(w, []string{"Rank", "Params", "Mean", "Std", "Folds"})
	for _, cand := range res.Candidates {
		rank := "-"
		if cand.Rank > 0 {
			rank = fmt.Sprint(cand.Rank)
		}
		folds := fmt.Sprintf("%d/%d", len(cand.Scores), len(res.Folds))
		if cand.Excluded {
			table.Append([]string{rank, formatParams(cand.Params), "-", "-", folds})
			continue
		}
		table.Append([]string{
			rank,
			formatParams(cand.Params),
			fmt.Sprintf("%.4f", cand.Mean),
			fmt.Sprintf("%.4f", cand.Std),
			folds,
		})
	}
	table.Render()
}

func printTopTerms(w io.Writer, cl *hamspam.Classifier, n int) {
	spam, ham := cl.Model().TopTerms(n)
	table := newTable(w, []string{"Spam term", "Weight", "Ham term", "Weight"})
	for i := range max(len(spam), len(ham)) {
		row := make([]string, 4)
		if i < len(spam) {
			row[0], row[1] = spam[i].Term, fmt.Sprintf("%+.3f", spam[i].Weight)
		}
		if i < len(ham) {
			row[2], row[3] = ham[i].Term, fmt.Sprintf("%+.3f", ham[i].Weight)
		}
		table.Append(row)
	}
	fmt.Fprintln(w)
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

// formatParams renders params as "k=v" pairs sorted by name.
func formatParams(params map[string]any) string {
	keys := lo.Keys(params)
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}

func formatScores(scores []float64) string {
	return "[" + strings.Join(lo.Map(scores, func(s float64, _ int) string {
		return fmt.Sprintf("%.4f", s)
	}), " ") + "]"
}

func printClassReport(w io.Writer, r *report.Report) {
	table := newTable(w, []string{"Class", "Precision", "Recall", "F1", "Support"})
	for _, cls := range r.Classes {
		table.Append([]string{
			cls.Name,
			fmt.Sprintf("%.3f", cls.Precision),
			fmt.Sprintf("%.3f", cls.Recall),
			fmt.Sprintf("%.3f", cls.F1),
			fmt.Sprint(cls.Support),
		})
	}
	total := fmt.Sprint(r.Total())
	table.Append([]string{"macro avg", fmt.Sprintf("%.3f", r.Macro.Precision), fmt.Sprintf("%.3f", r.Macro.Recall), fmt.Sprintf("%.3f", r.Macro.F1), total})
	table.Append([]string{"weighted avg", fmt.Sprintf("%.3f", r.Weighted.Precision), fmt.Sprintf("%.3f", r.Weighted.Recall), fmt.Sprintf("%.3f", r.Weighted.F1), total})
	table.Render()
}

func printConfusionMatrix(w io.Writer, r *report.Report) {
	if len(r.Confusion) == 0 {
		return
	}
	names := lo.Map(r.Classes, func(c report.ClassMetrics, _ int) string { return c.Name })

	fmt.Fprintf(w, "\nConfusion matrix (rows=true, cols=predicted):\n")
	fmt.Fprintf(w, "%8s", "")
	for _, name := range names {
		fmt.Fprintf(w, " %5s", name)
	}
	fmt.Fprintf(w, "  total  acc%%\n")

	for i, row := range r.Confusion {
		fmt.Fprintf(w, "%8s", names[i])
		total := 0
		for _, count := range row {
			total += count
			if count == 0 {
				fmt.Fprintf(w, " %5s", ".")
			} else {
				fmt.Fprintf(w, " %5d", count)
			}
		}
		acc := 0.0
		if total > 0 {
			acc = float64(row[i]) / float64(total) * 100
		}
		fmt.Fprintf(w, "  %5d %5.1f\n", total, acc)
	}
}
