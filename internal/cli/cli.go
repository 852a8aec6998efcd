package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyhackingspace/hamspam/internal/artifact"
	"github.com/happyhackingspace/hamspam/internal/banner"
	"github.com/happyhackingspace/hamspam/internal/config"
	"github.com/happyhackingspace/hamspam/internal/logger"
	"github.com/spf13/cobra"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	configPath  string
	verbose     bool
	silent      bool
	initialized bool
	cfg         *config.Config
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "hamspam",
		Short:         "Spam/ham text classifier",
		Version:       c.version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to YAML config file")
	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		_ = c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newTrainCommand())
	c.rootCmd.AddCommand(c.newPredictCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newGenerateCommand())
	c.rootCmd.AddCommand(c.newServeCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error. SIGINT and SIGTERM cancel the
// command context.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.rootCmd.ExecuteContext(ctx)
}

// initApp loads the configuration, initializes logging and prints the banner.
func (c *CLI) initApp() error {
	if c.initialized {
		return nil
	}
	c.initialized = true

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	if c.silent {
		level = "silent"
	}
	logger.Setup(level, cfg.Log.Format)
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
	return nil
}

// openStore returns the artifact store for url: Redis for redis:// and
// rediss:// URLs, local files otherwise. The returned func releases it.
func (c *CLI) openStore(ctx context.Context, url string) (artifact.Store, func(), error) {
	if url == "" {
		url = c.cfg.Store.URL
	}
	if url == "" {
		return artifact.FileStore{}, func() {}, nil
	}
	rs, err := artifact.NewRedisStore(ctx, url, c.cfg.Store.Prefix, c.cfg.Store.TTL)
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}
