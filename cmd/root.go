package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/paraprep/internal/config"
	"github.com/KaramelBytes/paraprep/internal/logging"
	"github.com/KaramelBytes/paraprep/internal/metrics"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string

	// Loaded configuration and logger, set in PersistentPreRunE
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "paraprep",
	Short: "Paraprep: prepare, validate and plot the Paralympics datasets",
	Long: `Paraprep loads the Paralympics events, medal and NPC code tables from CSV/Excel files,
cleans them, derives the event duration, checks data-quality constraints and renders
exploratory charts as PNG files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		l, err := logging.New(cfg.LogLevel, debug)
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("Loaded configuration", zap.String("data_dir", cfg.DataDir), zap.String("output_dir", cfg.OutputDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// stderr sync fails on some terminals
		_ = logger.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.paraprep/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

// loadConfig reads and validates the configuration. A --log-level given to
// cmd overrides the configured level.
func loadConfig(cmd *cobra.Command) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// writeMetrics writes the recorder to the configured textfile, if any.
func writeMetrics(rec *metrics.Recorder) error {
	if cfg.MetricsTextfile == "" {
		return nil
	}
	if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
		return err
	}
	logger.Info("Wrote metrics", zap.String("path", cfg.MetricsTextfile))
	return nil
}
