package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbitech/timeline2svg/internal/config"
	"github.com/dbitech/timeline2svg/internal/layout"
	"github.com/dbitech/timeline2svg/internal/report"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the computed lanes, labels and timing of a CSV timeline.",
	Long: `Layout runs the same computation as render but prints it instead of drawing it:
lane, side, projected dates, which date labels survive and when each item animates.

Suppressed date labels are dimmed in table output. csv, json and parquet output
carry the same columns for further analysis.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		csvFile, _ := cmd.Flags().GetString("csv")
		nowText, _ := cmd.Flags().GetString("now")
		format, _ := cmd.Flags().GetString("format")
		outputFile, _ := cmd.Flags().GetString("output")
		useColor, _ := cmd.Flags().GetBool("color")

		out := cmd.OutOrStdout()
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("error creating output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
			useColor = false
		} else if report.Format(format) == report.ParquetOut {
			return errors.New("parquet output needs --output")
		}
		return runLayout(out, cfg, csvFile, nowText, report.Format(format), report.Options{Color: useColor})
	},
}

func runLayout(out io.Writer, cfg config.Config, csvFile, nowText string, format report.Format, opts report.Options) error {
	now, err := parseNow(nowText)
	if err != nil {
		return err
	}
	recs, err := readTimeline(csvFile, cfg.Columns)
	if err != nil {
		return err
	}
	res, err := layout.FromRecords(recs, cfg.Options(now))
	if err != nil {
		return fmt.Errorf("error parsing CSV file: %w", err)
	}
	return report.Write(out, res, format, opts)
}
