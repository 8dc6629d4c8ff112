package export

import (
	"fmt"
	"strings"
)

// Dataset defines tabular export content. Rows are keyed by header name.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records into CSV bytes. The header row is
// emitted bare; every data cell is double-quoted with embedded quotes
// doubled, and a missing value renders as an empty quoted cell.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	var b strings.Builder
	b.WriteString(strings.Join(data.Headers, ","))

	cells := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			cells[i] = quoteCell(row[header])
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, ","))
	}

	return []byte(b.String()), nil
}

func quoteCell(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
