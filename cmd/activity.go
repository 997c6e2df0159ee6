package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/config"
	"github.com/dbitech/timeline2svg/internal/diag"
	"github.com/dbitech/timeline2svg/internal/github"
	"github.com/dbitech/timeline2svg/internal/render"
	"github.com/dbitech/timeline2svg/internal/server"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Render a daily activity chart to an animated SVG file.",
	Long: `Activity draws a line chart of daily counts, either from a CSV file with
date,count rows or from a GitHub user's contribution calendar.

Fetching a calendar needs a token in --github-token or TIMELINE_GITHUB_TOKEN.

Examples:
  timeline2svg activity --csv commits.csv
  timeline2svg activity --user octocat --days 90 --output octocat.svg`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		in := activityInput{}
		in.CSV, _ = cmd.Flags().GetString("csv")
		in.User, _ = cmd.Flags().GetString("user")
		in.Days, _ = cmd.Flags().GetInt("days")
		in.Title, _ = cmd.Flags().GetString("title")
		in.Output, _ = cmd.Flags().GetString("output")

		var src server.ActivitySource
		if token := viper.GetString("github-token"); token != "" {
			src = github.NewClient(github.DefaultEndpoint, token, diag.Log)
		}
		path, err := runActivity(cmd.Context(), cfg, src, in, time.Now().UTC())
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Activity SVG generated successfully: %s\n", path)
		return nil
	},
}

type activityInput struct {
	CSV    string
	User   string
	Days   int
	Title  string
	Output string
}

// runActivity loads the series, renders it and returns the written path.
func runActivity(ctx context.Context, cfg config.Config, src server.ActivitySource, in activityInput, now time.Time) (string, error) {
	var (
		series []activity.Point
		err    error
		input  string
	)
	switch {
	case in.CSV != "" && in.User != "":
		return "", errors.New("use either --csv or --user, not both")
	case in.CSV != "":
		series, err = readActivity(in.CSV)
		input = in.CSV
	case in.User != "":
		if src == nil {
			return "", github.ErrNoToken
		}
		days := in.Days
		if days <= 0 {
			days = cfg.Activity.Days
		}
		series, err = src.Contributions(ctx, in.User, now.AddDate(0, 0, -days), now)
		input = in.User
		if in.Title == "" {
			in.Title = in.User
		}
	default:
		return "", errors.New("either --csv or --user is required")
	}
	if err != nil {
		return "", err
	}
	diag.Log.Debugf("Loaded %d activity points from %s", len(series), input)

	if in.Title == "" {
		in.Title = cfg.Activity.Title
	}
	style, err := cfg.Style()
	if err != nil {
		return "", err
	}
	svg := render.Activity(activity.Layout(series, cfg.ActivityOptions()), style, in.Title)

	outputPath := getOutputFilename(input, in.Output)
	if err := os.WriteFile(outputPath, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("error writing SVG file: %w", err)
	}
	return outputPath, nil
}

func readActivity(path string) ([]activity.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	series, err := activity.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}
	return series, nil
}
