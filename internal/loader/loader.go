// Package loader parses the raw delimited civic datasets into the canonical
// record types, coercing dates, dropping rows with invalid coordinates, and
// reporting before/after row counts so data loss stays observable.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Diagnostics records how many raw rows survived loading. Rows are dropped
// silently per the data-quality policy, but the counts are always returned
// and logged.
type Diagnostics struct {
	Dataset       string `json:"dataset"`
	RowsRead      int    `json:"rows_read"`
	RowsKept      int    `json:"rows_kept"`
	DroppedCoords int    `json:"dropped_coords"`
	DroppedDates  int    `json:"dropped_dates"`
}

func (d Diagnostics) log() {
	zap.L().Info("loader: dataset loaded",
		zap.String("dataset", d.Dataset),
		zap.Int("rows_read", d.RowsRead),
		zap.Int("rows_kept", d.RowsKept),
		zap.Int("dropped_coords", d.DroppedCoords),
		zap.Int("dropped_dates", d.DroppedDates),
	)
}

// readTable reads a delimited file into a header map and record rows.
// Malformed rows are skipped rather than failing the dataset.
func readTable(r io.Reader, dataset string) (map[string]int, [][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "loader: read %s header", dataset)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, record)
	}
	return mapColumns(header), rows, nil
}

// requireColumns returns a configuration error naming the missing columns.
// Each entry in groups is a set of accepted spellings for one logical
// column; at least one spelling per group must be present.
func requireColumns(colIdx map[string]int, dataset string, groups ...[]string) error {
	var missing []string
	for _, group := range groups {
		if !hasAnyColumn(colIdx, group...) {
			missing = append(missing, group[0])
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("loader: %s missing required columns: %s", dataset, strings.Join(missing, ", "))
	}
	return nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	return f, nil
}
