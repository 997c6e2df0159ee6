// Package report prints a computed layout row by row for inspection.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/term"

	"github.com/dbitech/timeline2svg/internal/labels"
	"github.com/dbitech/timeline2svg/internal/layout"
)

// Format selects the report encoding.
type Format string

const (
	TableOut   Format = "table"
	CSVOut     Format = "csv"
	JSONOut    Format = "json"
	ParquetOut Format = "parquet"
)

// Row is one interval of the layout in processing order.
type Row struct {
	Order      int32   `json:"order" parquet:"order,snappy"`
	ID         int32   `json:"id" parquet:"id,snappy"`
	Label      string  `json:"label" parquet:"label,snappy"`
	Start      string  `json:"start" parquet:"start,snappy"`
	End        *string `json:"end,omitempty" parquet:"end,optional,snappy"` // nil while ongoing
	Lane       int32   `json:"lane" parquet:"lane,snappy"`
	Side       string  `json:"side" parquet:"side,snappy"`
	StartX     float64 `json:"start_x" parquet:"start_x,snappy"`
	EndX       float64 `json:"end_x" parquet:"end_x,snappy"`
	ShowStart  bool    `json:"show_start" parquet:"show_start,snappy"`
	ShowEnd    bool    `json:"show_end" parquet:"show_end,snappy"`
	DelayMs    int64   `json:"delay_ms" parquet:"delay_ms,snappy"`
	RevealMs   int64   `json:"reveal_ms" parquet:"reveal_ms,snappy"`
	ClosingMs  int64   `json:"closing_ms" parquet:"closing_ms,snappy"`
	PathLength float64 `json:"path_length" parquet:"path_length,snappy"`
}

// Rows flattens a layout.
func Rows(res layout.Result) []Row {
	rows := make([]Row, len(res.Items))
	for i, it := range res.Items {
		r := Row{
			Order:      int32(i),
			ID:         int32(it.Interval.ID),
			Label:      it.Interval.Label,
			Start:      it.Interval.StartText,
			Lane:       int32(it.Lane),
			Side:       it.Anchor.String(),
			StartX:     it.StartX,
			EndX:       it.EndX,
			ShowStart:  it.ShowStartLabel,
			ShowEnd:    it.ShowEndLabel,
			DelayMs:    it.Timing.Delay.Milliseconds(),
			RevealMs:   it.Timing.Reveal.Milliseconds(),
			ClosingMs:  it.Timing.Closing.Milliseconds(),
			PathLength: it.PathLength,
		}
		if it.Interval.HasEnd {
			end := it.Interval.EndText
			r.End = &end
		}
		rows[i] = r
	}
	return rows
}

// Options tune the table output. Width 0 detects the terminal width.
type Options struct {
	Color bool
	Width int
}

// Write encodes res in the given format.
func Write(w io.Writer, res layout.Result, format Format, opts Options) error {
	rows := Rows(res)
	switch format {
	case CSVOut:
		return writeCSV(w, rows)
	case JSONOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case ParquetOut:
		return writeParquet(w, rows)
	case TableOut, "":
		return writeTable(w, res, rows, opts)
	default:
		return fmt.Errorf("unsupported output format: %s. Must be table, csv, json or parquet", format)
	}
}

func writeParquet(w io.Writer, rows []Row) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return writer.Close()
}

func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"order", "id", "label", "start", "end", "lane", "side", "start_x", "end_x",
		"show_start", "show_end", "delay_ms", "reveal_ms", "closing_ms", "path_length"})
	for _, r := range rows {
		end := ""
		if r.End != nil {
			end = *r.End
		}
		_ = cw.Write([]string{
			strconv.Itoa(int(r.Order)), strconv.Itoa(int(r.ID)), r.Label, r.Start, end,
			strconv.Itoa(int(r.Lane)), r.Side, fmtFloat(r.StartX), fmtFloat(r.EndX),
			strconv.FormatBool(r.ShowStart), strconv.FormatBool(r.ShowEnd),
			strconv.FormatInt(r.DelayMs, 10), strconv.FormatInt(r.RevealMs, 10), strconv.FormatInt(r.ClosingMs, 10),
			fmtFloat(r.PathLength),
		})
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// TerminalWidth returns the stdout width, or 80 when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if maxRunes < 2 || len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-1]) + "…"
}

func writeTable(w io.Writer, res layout.Result, rows []Row, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth()
	}
	// Everything but the label column takes roughly 75 columns with borders.
	labelWidth := max(width-75, 12)

	above, below, dim := fmt.Sprint, fmt.Sprint, fmt.Sprint
	if opts.Color {
		above = color.New(color.FgCyan).SprintFunc()
		below = color.New(color.FgYellow).SprintFunc()
		dim = color.New(color.FgHiBlack).SprintFunc()
	}
	date := func(text string, shown bool) string {
		if shown {
			return text
		}
		return dim(text)
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"#", "Label", "Start", "End", "Lane", "Side", "Delay", "Reveal", "Length"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range rows {
		end := "ongoing"
		if r.End != nil {
			end = date(*r.End, r.ShowEnd)
		}
		side := below(r.Side)
		if r.Side == labels.Above.String() {
			side = above(r.Side)
		}
		data = append(data, []string{
			strconv.Itoa(int(r.Order) + 1),
			truncate(r.Label, labelWidth),
			date(r.Start, r.ShowStart),
			end,
			strconv.Itoa(int(r.Lane)),
			side,
			(time.Duration(r.DelayMs) * time.Millisecond).String(),
			(time.Duration(r.RevealMs) * time.Millisecond).String(),
			fmtFloat(r.PathLength),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d intervals in %d lanes, canvas %.0fx%.0f, animation %s\n",
		len(rows), res.LaneCount, res.Width, res.Height, res.Plan.Total)
	return err
}
