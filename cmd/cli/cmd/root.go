package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/webpack-chart/pkg/config"
	"github.com/webpack-chart/pkg/telemetry"
	"github.com/webpack-chart/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger            utils.Logger
	appConfig         *config.Config
	shutdownTelemetry telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "webpack-chart",
	Short: "Explore webpack bundle composition as a size tree",
	Long: `webpack-chart turns a webpack stats report into a tree of module sizes.

Every module path is split on "/" and its size is added to each directory on
the way, so the tree shows where the bytes of a bundle come from. The tree can
be summarised on the command line, written to disk, or explored in the web
viewer by zooming in and out of directories.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appConfig = cfg

		log, err := newLogger(cfg.Log, verbose)
		if err != nil {
			return err
		}
		logger = log
		utils.SetGlobalLogger(log)

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Failed to initialise tracing: %v", err)
			shutdown = func(context.Context) error { return nil }
		}
		shutdownTelemetry = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("Failed to flush traces: %v", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ./config.yaml if present)")

	binName := BinName()
	rootCmd.Example = `  # Summarise a stats report
  ` + binName + ` analyze -i ./stats.json

  # Fetch a report over HTTP and keep only the folded output
  ` + binName + ` analyze -i https://ci.example.com/build/42/stats.json --format folded

  # Start the web viewer
  ` + binName + ` serve -p 8080`
}

// newLogger builds the logger for the configured level and destination.
// --verbose forces debug output.
func newLogger(cfg config.LogConfig, verbose bool) (utils.Logger, error) {
	level := utils.ParseLogLevel(cfg.Level)
	if verbose {
		level = utils.LevelDebug
	}
	if cfg.OutputPath == "" {
		return utils.NewDefaultLogger(level, os.Stdout), nil
	}
	log, err := utils.NewFileLogger(level, cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log, nil
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	if logger == nil {
		return utils.GetGlobalLogger()
	}
	return logger
}

// GetConfig returns the loaded configuration, or defaults before loading.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
