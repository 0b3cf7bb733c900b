// Package cmd holds the haven command line.
package cmd

import (
	"fmt"
	"os"

	"haven/config"
	"haven/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "haven",
	Short: "Haven - a private journal with notes, poems and a comfort chat",
	Long: `Haven serves a personal journaling API: notes, poems and a gentle
keyword-driven chat companion, each scoped to the signed-in user.

Run "haven serve" to start the API and "haven tui" for the terminal client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		// The terminal UI owns stdout.
		if cmd.Name() == tuiCmd.Name() {
			return nil
		}
		logger.Init(cfg.Log.Level)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $HAVEN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, tuiCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
