package cli

import (
	"github.com/happyhackingspace/hamspam/internal/metrics"
	"github.com/happyhackingspace/hamspam/internal/server"
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCommand() *cobra.Command {
	var modelName string
	var storeURL string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP",
		Example: `  hamspam serve --model model.json --addr :8080
  curl -s localhost:8080/predict -d '{"texts": ["WIN a FREE prize", "see you at 5"]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := c.loadClassifier(ctx, modelName, storeURL)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			srv := server.New(cl, metrics.New(nil), server.Options{
				ReadTimeout:  c.cfg.Server.ReadTimeout,
				WriteTimeout: c.cfg.Server.WriteTimeout,
				MaxBodyBytes: c.cfg.Server.MaxBodyBytes,
				MaxTexts:     c.cfg.Server.MaxTexts,
				ModelID:      cl.Meta().ID.String(),
			})
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&modelName, "model", "", "Model file or store key (default: auto-detect model.json)")
	cmd.Flags().StringVar(&storeURL, "store", "", "Artifact store URL (default: local file, or store.url from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	return cmd
}
