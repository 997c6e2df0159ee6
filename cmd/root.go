package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbitech/timeline2svg/internal/config"
	"github.com/dbitech/timeline2svg/internal/diag"
	"github.com/dbitech/timeline2svg/internal/interval"
)

// All linker flags will be set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgFile string

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "timeline2svg",
	Short: "Render animated SVG timelines and activity charts.",
	Long: `timeline2svg turns CSV interval data into an animated SVG timeline: overlapping
intervals are stacked into lanes around a baseline, crowded date labels are dropped,
and each item draws itself in order.

It also renders daily activity charts and can serve both widgets over HTTP.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads .env and TIMELINE_* variables and sets the log level.
func initConfig() {
	if err := godotenv.Load(); err == nil {
		diag.Log.Debug("Loaded environment variables from .env file")
	}

	viper.SetEnvPrefix("TIMELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	level := viper.GetString("loglevel")
	if viper.GetBool("debug") {
		level = "debug"
	}
	if err := diag.SetLogLevel(level); err != nil {
		diag.Log.Warnf("%v, using info", err)
		_ = diag.SetLogLevel("info")
	}
}

// configPath returns --config, or ~/.timeline2svg.yaml when that file exists.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".timeline2svg.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// loadConfig reads the YAML config and applies flag and environment overrides.
func loadConfig() (config.Config, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		diag.Log.Debugf("Configuration loaded from %s", path)
	}

	if v := viper.GetInt("width"); v > 0 {
		cfg.Layout.Width = v
	}
	if v := viper.GetInt("lane-height"); v > 0 {
		cfg.Layout.LaneHeight = v
	}
	if v := viper.GetDuration("duration"); v > 0 {
		cfg.Animation.Duration = v
	}
	if v := viper.GetString("theme"); v != "" {
		cfg.Theme = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	diag.Log.Debugf("Font size: %d, width: %d, duration: %s", cfg.Font.Size, cfg.Layout.Width, cfg.Animation.Duration)
	return cfg, nil
}

// parseNow reads --now. Empty means midnight UTC today.
func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := interval.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", s, err)
	}
	return t, nil
}

// readTimeline loads interval records from a CSV file.
func readTimeline(path string, cols interval.Columns) ([]interval.Record, error) {
	if path == "" {
		return nil, errors.New("CSV file is required, use --csv to specify the file")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	recs, err := interval.ReadCSV(f, cols)
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no intervals found in %s", path)
	}
	diag.Log.Debugf("Parsed %d records from %s", len(recs), path)
	return recs, nil
}

// getOutputFilename determines the output filename for the SVG file.
// If outputFile is provided and not empty, it returns that filename.
// Otherwise, it derives the filename from the input file by replacing
// the extension with .svg (e.g., "data.csv" becomes "data.svg").
func getOutputFilename(inputFile, outputFile string) string {
	if outputFile != "" {
		return outputFile
	}

	base := filepath.Base(inputFile)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".svg"
}
