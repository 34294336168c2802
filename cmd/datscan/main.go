package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jchantrell/datscan/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	archive    string
	dataDir    string
	codecName  string
	batchSize  int
	languages  []string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "datscan",
	Short: "Game asset archive indexer and extractor",
	Long: `datscan reads .dat game asset archives, classifies every entry by its
content and keeps a persistent catalog of the archive grouped into categories.

Scans are resumable: an interrupted scan continues where it stopped, and an
archive is only rescanned when it changed on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("archive") {
			cfg.Archive = archive
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
		}
		if cmd.Flags().Changed("codec") {
			cfg.Codec = codecName
		}
		if cmd.Flags().Changed("batch-size") {
			cfg.BatchSize = batchSize
		}
		if cmd.Flags().Changed("languages") {
			cfg.Languages = languages
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		var level slog.Level
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if strings.ToLower(cfg.LogFormat) == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		slog.SetDefault(slog.New(handler))

		slog.Debug("Configuration",
			"archive", cfg.Archive,
			"data_dir", cfg.DataDir,
			"codec", cfg.Codec,
			"batch_size", cfg.BatchSize,
			"languages", cfg.Languages,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

// progressEnabled reports whether a progress bar may be drawn over the logs
func progressEnabled() bool {
	return !(noProgress || strings.ToLower(cfg.LogFormat) == "json" || strings.ToLower(cfg.LogLevel) == "debug")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is datscan.yaml in home or pwd)")
	rootCmd.PersistentFlags().StringVarP(&archive, "archive", "a", "", "archive file, used when no archive argument is given")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding catalogs (default ~/.datscan)")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "", "codec for compressed entries (auto, oodle, zstd, zlib, lz4)")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "rows per insert statement when saving catalogs")
	rootCmd.PersistentFlags().StringSliceVar(&languages, "languages", []string{}, "comma-separated list of string table languages to export")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
