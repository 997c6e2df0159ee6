package interval

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Columns names the CSV header for each Record field. Matching is case-insensitive.
type Columns struct {
	Label    string `yaml:"label"`
	Subtitle string `yaml:"subtitle"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Logo     string `yaml:"logo"`
	Color    string `yaml:"color"`
}

// DefaultColumns returns the header names used when no configuration overrides them.
func DefaultColumns() Columns {
	return Columns{
		Label:    "label",
		Subtitle: "subtitle",
		Start:    "start",
		End:      "end",
		Logo:     "logo",
		Color:    "color",
	}
}

// ReadCSV reads records from CSV with a header row. Label and start columns are required;
// the others are optional. Rows whose cells are all empty are skipped.
func ReadCSV(r io.Reader, cols Columns) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("error reading CSV header: %w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	// Create case-insensitive column mapping
	columnMap := make(map[string]int, len(header))
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	lookup := func(name string) int {
		if name == "" {
			return -1
		}
		if idx, ok := columnMap[strings.ToLower(name)]; ok {
			return idx
		}
		return -1
	}

	labelCol, startCol := lookup(cols.Label), lookup(cols.Start)
	if labelCol < 0 {
		return nil, fmt.Errorf("%w: %q not found in CSV. Available columns: %v", ErrMissingColumn, cols.Label, header)
	}
	if startCol < 0 {
		return nil, fmt.Errorf("%w: %q not found in CSV. Available columns: %v", ErrMissingColumn, cols.Start, header)
	}
	subtitleCol, endCol := lookup(cols.Subtitle), lookup(cols.End)
	logoCol, colorCol := lookup(cols.Logo), lookup(cols.Color)

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if blankRow(row) {
			continue
		}
		records = append(records, Record{
			Label:      cell(row, labelCol),
			Subtitle:   cell(row, subtitleCol),
			Start:      cell(row, startCol),
			End:        cell(row, endCol),
			Decoration: cell(row, logoCol),
			Color:      cell(row, colorCol),
		})
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
