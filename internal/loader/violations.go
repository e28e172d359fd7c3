package loader

import (
	"fmt"
	"io"

	"github.com/citylab/decayscope/internal/model"
)

// LoadViolations parses the code-violations export. Tier assignment and the
// tier-0/coordinate filters happen later in the tiering engine, so rows with
// missing coordinates are kept here; only rows with unparseable dates are
// dropped. Required columns: violation date, complaint type, violation text.
func LoadViolations(r io.Reader) ([]model.ViolationRecord, Diagnostics, error) {
	diag := Diagnostics{Dataset: "violations"}

	colIdx, rows, err := readTable(r, "violations")
	if err != nil {
		return nil, diag, err
	}
	if err := requireColumns(colIdx, "violations",
		[]string{"violation_date", "date"},
		[]string{"complaint_type_name", "complaint_type"},
		[]string{"violation", "violation_text"},
	); err != nil {
		return nil, diag, err
	}

	records := make([]model.ViolationRecord, 0, len(rows))
	for i, rec := range rows {
		diag.RowsRead++

		date, ok := parseTime(firstCol(rec, colIdx, "violation_date", "date"))
		if !ok {
			diag.DroppedDates++
			continue
		}

		status := model.StatusClosed
		if firstCol(rec, colIdx, "status_type_name", "status") == "Open" {
			status = model.StatusOpen
		}

		lat, _ := parseFloat(firstCol(rec, colIdx, "latitude", "lat"))
		lon, _ := parseFloat(firstCol(rec, colIdx, "longitude", "long", "lon"))

		records = append(records, model.ViolationRecord{
			ID:            fmt.Sprintf("violation-%06d", i+1),
			Geo:           model.GeoPoint{Lat: lat, Lon: lon},
			ZipCode:       firstCol(rec, colIdx, "complaint_zip", "zip", "zip_code"),
			Neighborhood:  firstCol(rec, colIdx, "neighborhood"),
			ComplaintType: firstCol(rec, colIdx, "complaint_type_name", "complaint_type"),
			ViolationText: firstCol(rec, colIdx, "violation", "violation_text"),
			Status:        status,
			Date:          date,
		})
	}

	diag.RowsKept = len(records)
	diag.log()
	return records, diag, nil
}

// LoadViolationsFile is LoadViolations over a file path.
func LoadViolationsFile(path string) ([]model.ViolationRecord, Diagnostics, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, Diagnostics{Dataset: "violations"}, err
	}
	defer f.Close() //nolint:errcheck
	return LoadViolations(f)
}
