package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dbitech/timeline2svg/internal/config"
	"github.com/dbitech/timeline2svg/internal/diag"
	"github.com/dbitech/timeline2svg/internal/layout"
	"github.com/dbitech/timeline2svg/internal/logo"
	"github.com/dbitech/timeline2svg/internal/render"
	"github.com/dbitech/timeline2svg/internal/server"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a CSV timeline to an animated SVG file.",
	Long: `Render reads intervals from a CSV file and writes an animated SVG timeline.

The CSV needs a header row with at least the label and start columns. Column names
come from the columns section of the config file. If no output file is specified,
the CSV filename with .svg extension is used.

Example:
  timeline2svg render --csv timeline.csv --config config.yaml --output timeline.svg`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		csvFile, _ := cmd.Flags().GetString("csv")
		outputFile, _ := cmd.Flags().GetString("output")
		nowText, _ := cmd.Flags().GetString("now")
		noLogos, _ := cmd.Flags().GetBool("no-logos")
		if noLogos {
			cfg.Logos.Resolve = false
		}

		var logos server.LogoResolver
		if cfg.Logos.Resolve {
			logos = logo.NewResolver(cfg.Logos.Timeout, diag.Log)
		}
		path, err := runRender(cmd.Context(), cmd.OutOrStdout(), cfg, logos, csvFile, outputFile, nowText)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Timeline SVG generated successfully: %s\n", path)
		return nil
	},
}

// runRender is the render command without flag plumbing. It returns the written path.
func runRender(ctx context.Context, out io.Writer, cfg config.Config, logos server.LogoResolver, csvFile, outputFile, nowText string) (string, error) {
	now, err := parseNow(nowText)
	if err != nil {
		return "", err
	}
	recs, err := readTimeline(csvFile, cfg.Columns)
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(out, "Loaded %d intervals from %s\n", len(recs), csvFile)

	opts := cfg.Options(now)
	opts.Logos = opts.Logos && logos != nil
	res, err := layout.FromRecords(recs, opts)
	if err != nil {
		return "", fmt.Errorf("error parsing CSV file: %w", err)
	}
	diag.Log.Debugf("Laid out %d intervals in %d lanes", len(res.Items), res.LaneCount)

	style, err := cfg.Style()
	if err != nil {
		return "", err
	}

	var uris map[string]string
	if opts.Logos {
		uris = logos.Resolve(ctx, res.LogoRefs())
		diag.Log.Debugf("Resolved %d logos", len(uris))
	}

	svg := render.Timeline(res, style, uris)
	outputPath := getOutputFilename(csvFile, outputFile)
	if err := os.WriteFile(outputPath, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("error writing SVG file: %w", err)
	}
	return outputPath, nil
}
