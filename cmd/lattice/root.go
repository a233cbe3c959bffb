package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice is an incremental dataflow engine for derived columns",
	Long:  `Lattice runs flows of step-indexed columns: push values into sources and derived columns catch up incrementally, each computed from its declared dependencies.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "lattice.yaml", "Flow definition file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// buildLogger reads the verbose flag and returns the CLI logger.
func buildLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelWarn)
}

// loadEngine builds an engine from the configured flow file.
func loadEngine(cmd *cobra.Command, opts ...lattice.Option) (*lattice.Engine, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return config.BuildEngine(cfg, nil, buildLogger(cmd), opts...)
}
