// Package cmd defines the command-line interface for timeline2svg.
package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbitech/timeline2svg/internal/cache"
	"github.com/dbitech/timeline2svg/internal/diag"
	"github.com/dbitech/timeline2svg/internal/report"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Persistent flags layer over the YAML config and can also come from TIMELINE_* variables.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML configuration file (default is $HOME/.timeline2svg.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode for verbose output")
	rootCmd.PersistentFlags().Int("width", 0, "Canvas width override (0 = config)")
	rootCmd.PersistentFlags().Int("lane-height", 0, "Lane height override (0 = config)")
	rootCmd.PersistentFlags().Duration("duration", 0, "Animation duration override, e.g. 4s (0 = config)")
	rootCmd.PersistentFlags().String("theme", "", "Theme override: light or dark")
	rootCmd.PersistentFlags().String("github-token", "", "GitHub token for contribution calendars")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		diag.Log.Fatalf("Error binding root flags: %v", err)
	}

	renderCmd.Flags().String("csv", "", "CSV file with timeline data (required)")
	renderCmd.Flags().String("output", "", "Output SVG filename (default: CSV name with .svg)")
	renderCmd.Flags().String("now", "", "Date that ongoing intervals end at (default: today)")
	renderCmd.Flags().Bool("no-logos", false, "Skip logo retrieval")

	activityCmd.Flags().String("csv", "", "CSV file with date,count rows")
	activityCmd.Flags().String("user", "", "GitHub login to chart instead of a CSV file")
	activityCmd.Flags().Int("days", 0, "Days of history for --user (0 = config)")
	activityCmd.Flags().String("title", "", "Chart title (default: the user login)")
	activityCmd.Flags().String("output", "", "Output SVG filename")

	layoutCmd.Flags().String("csv", "", "CSV file with timeline data (required)")
	layoutCmd.Flags().String("now", "", "Date that ongoing intervals end at (default: today)")
	layoutCmd.Flags().String("format", string(report.TableOut), "Output format: table or csv or json or parquet")
	layoutCmd.Flags().String("output", "", "Optional path to write output to")
	layoutCmd.Flags().Bool("color", true, "Color sides and suppressed labels in table output")

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("cache-backend", string(cache.MemoryBackend), "Cache backend: memory or sqlite or mysql or postgresql or none")
	serveCmd.Flags().String("cache-path", "", "sqlite file path, or DSN for mysql/postgresql")
	serveCmd.Flags().Duration("max-age", time.Hour, "Cache lifetime and Cache-Control max-age")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		diag.Log.Fatalf("Error binding serve flags: %v", err)
	}
}
