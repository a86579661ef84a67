// Command graphwalk converts graphs and runs out-of-core random walks on them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

type globalFlags struct {
	config   string
	envFile  string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "graphwalk",
		Short: "Out-of-core second-order random walks",
		Long: `graphwalk runs node2vec-style random walks over graphs larger than memory.

The graph is stored as CSR blocks; only a few blocks are cached at a time and a
scheduler decides which blocks to load so that most pending walkers can move.

Configuration is read from a YAML file (--config), then from GRAPHWALK_*
environment variables (optionally loaded from --env-file), then from flags.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file with GRAPHWALK_* variables")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graphwalk v%s (%s)\n", version, commit)
		},
	})
	rootCmd.AddCommand(newConvertCmd(&flags))
	rootCmd.AddCommand(newInfoCmd(&flags))
	rootCmd.AddCommand(newWalkCmd(&flags))

	return rootCmd
}

// load reads the layered configuration for cmd.
func (f *globalFlags) load(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(f.config, f.envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}
