// Package cmd implements the rab CLI commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/extract"
	"github.com/theirongolddev/rab/internal/logging"
	"github.com/theirongolddev/rab/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel string
	flagLogFile  string
	flagQuiet    bool
	flagTimeout  time.Duration
	flagModel    string
	flagEnvFile  []string
)

// Resolved in PersistentPreRunE and shared by every command.
var (
	appCfg config.Config
	logger *logrus.Logger
	logOut io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "rab",
	Short: "Rencana Anggaran Biaya builder",
	Long: "Build a construction cost estimate (RAB) from manual entries or from an\n" +
		"Excel sheet read by Gemini, then review totals and export XLSX or PDF.",
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logOut != nil {
			_ = logOut.Close()
		}
	},
	RunE: runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "AI extraction timeout (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Gemini model (overrides config)")
	rootCmd.PersistentFlags().StringSliceVar(&flagEnvFile, "env-file", []string{".env"}, "Dotenv files to load")
}

// loadRuntime resolves config and logging before any command runs.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(flagEnvFile...); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("model") && flagModel != "" {
		cfg.Gemini.Model = flagModel
	}
	if cmd.Flags().Changed("timeout") {
		sec, err := timeoutSeconds(flagTimeout)
		if err != nil {
			return err
		}
		cfg.Gemini.TimeoutSec = sec
	}
	if flagLogLevel != "" {
		cfg.General.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	appCfg = cfg

	level := cfg.General.LogLevel
	if flagQuiet {
		level = "error"
	}

	var out io.Writer = os.Stderr
	if flagLogFile != "" {
		//nolint:gosec // log path is chosen by the local user
		f, err := os.OpenFile(flagLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out, logOut = f, f
	}
	logger = logging.New(level, cfg.General.LogFormat, out)
	return nil
}

// timeoutSeconds converts --timeout to whole seconds, rounding up. The
// config stores seconds, so anything under one would silently become the
// default.
func timeoutSeconds(d time.Duration) (int, error) {
	if d < time.Second {
		return 0, fmt.Errorf("--timeout must be at least 1s, got %s", d)
	}
	return int((d + time.Second - 1) / time.Second), nil
}

// newExtractor builds the Gemini client for cfg. It returns a nil interface
// when no key is configured so uploads report a configuration error.
func newExtractor(cfg config.Config) budget.Extractor {
	key := config.GetAPIKey(cfg)
	if key == "" {
		return nil
	}

	opts := []extract.Option{
		extract.WithModel(cfg.Gemini.Model),
		extract.WithTimeout(cfg.Timeout()),
		extract.WithLogger(logger),
	}
	if cfg.Gemini.BaseURL != "" {
		opts = append(opts, extract.WithBaseURL(cfg.Gemini.BaseURL))
	}

	client, err := extract.NewClient(key, opts...)
	if err != nil {
		logger.WithError(err).Warn("gemini client unavailable")
		return nil
	}
	return client
}

// newService wires a fresh in-memory collection to the AI collaborator.
func newService(cfg config.Config) *budget.Service {
	return budget.New(store.New(), newExtractor(cfg), budget.Config{
		EventsBuffer: cfg.Server.EventsBuffer,
		Logger:       logger,
	})
}
