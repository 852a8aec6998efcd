package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/happyhackingspace/hamspam/internal/corpus"
	"github.com/spf13/cobra"
)

func (c *CLI) newGenerateCommand() *cobra.Command {
	var nHam, nSpam int
	var seed uint64

	cmd := &cobra.Command{
		Use:     "generate <out.csv>",
		Short:   "Write a synthetic labelled corpus",
		Args:    cobra.ExactArgs(1),
		Example: `  hamspam generate data.csv --ham 500 --spam 500 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if nHam < 1 || nSpam < 1 {
				return fmt.Errorf("need at least one document per class, got --ham %d --spam %d", nHam, nSpam)
			}
			docs := corpus.Generate(nHam, nSpam, seed)

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := corpus.Write(f, docs); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			slog.Info("Corpus written", "path", args[0], "ham", nHam, "spam", nSpam, "seed", seed)
			return nil
		},
	}

	cmd.Flags().IntVar(&nHam, "ham", 100, "Number of ham messages")
	cmd.Flags().IntVar(&nSpam, "spam", 100, "Number of spam messages")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed")
	return cmd
}
