package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/happyhackingspace/hamspam"
	"github.com/spf13/cobra"
)

func (c *CLI) newPredictCommand() *cobra.Command {
	var modelName string
	var storeURL string

	cmd := &cobra.Command{
		Use:   "predict [text...]",
		Short: "Classify texts given as arguments or one per line on stdin",
		Example: `  # Classify arguments
  hamspam predict "WIN a FREE prize now" "lunch at noon?"

  # Classify one text per line from stdin
  cat messages.txt | hamspam predict

  # Use a model stored in Redis
  hamspam predict "cheap meds" --model spam-v2 --store redis://localhost:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				in := cmd.InOrStdin()
				if in == os.Stdin && isStdinTerminal() {
					return cmd.Help()
				}
				var err error
				texts, err = readLines(in)
				if err != nil {
					return err
				}
			}

			start := time.Now()
			cl, err := c.loadClassifier(cmd.Context(), modelName, storeURL)
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "duration", time.Since(start))

			preds, err := cl.Predict(texts)
			if err != nil {
				return err
			}
			slog.Debug("Classification completed", "texts", len(texts), "duration", time.Since(start))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(preds)
		},
	}

	cmd.Flags().StringVar(&modelName, "model", "", "Model file or store key (default: auto-detect model.json)")
	cmd.Flags().StringVar(&storeURL, "store", "", "Artifact store URL (default: local file, or store.url from config)")
	return cmd
}

// loadClassifier loads name from the configured store. An empty name with a
// file store searches for model.json upward from the working directory.
func (c *CLI) loadClassifier(ctx context.Context, name, storeURL string) (*hamspam.Classifier, error) {
	if name == "" && storeURL == "" && c.cfg.Store.URL == "" {
		return hamspam.New()
	}
	if name == "" {
		name = hamspam.DefaultModelFile
	}
	store, release, err := c.openStore(ctx, storeURL)
	if err != nil {
		return nil, err
	}
	defer release()
	return hamspam.LoadFrom(ctx, store, name)
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	slog.Debug("Reading from stdin")
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.New("stdin is empty")
	}
	return lines, nil
}
