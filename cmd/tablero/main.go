package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tablero/internal/config"
	"tablero/internal/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// app holds what every subcommand shares once the root command has run.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	verbose bool
}

func (a *app) openDB() (*storage.DB, error) {
	return storage.Open(a.cfg.DBPath)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "tablero",
		Short:         "Project tracking dashboards over spreadsheet exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := config.NewLogger(cfg.LogLevel, a.verbose)
			if err != nil {
				return err
			}
			a.log = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		serveCmd(a),
		classifyCmd(),
		reportCmd(a),
		mailFetchCmd(a),
		mailListenCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tablero version %s (build: %s)\n", Version, BuildTime)
			},
		},
	)
	return cmd
}
