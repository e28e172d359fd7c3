package loader

import (
	"fmt"
	"io"

	"github.com/citylab/decayscope/internal/model"
)

// LoadCrime parses the crime-event export. Required columns: end timestamp,
// latitude, longitude, crime-type code. Start time, severity, and the
// quality-of-life flag are optional and default to zero values.
func LoadCrime(r io.Reader) ([]model.CrimeEvent, Diagnostics, error) {
	diag := Diagnostics{Dataset: "crime"}

	colIdx, rows, err := readTable(r, "crime")
	if err != nil {
		return nil, diag, err
	}
	if err := requireColumns(colIdx, "crime",
		[]string{"dateend", "timestamp", "date"},
		[]string{"lat", "latitude"},
		[]string{"long", "lon", "longitude"},
		[]string{"code_defined", "crime_type", "offense"},
	); err != nil {
		return nil, diag, err
	}

	events := make([]model.CrimeEvent, 0, len(rows))
	for i, rec := range rows {
		diag.RowsRead++

		ts, ok := parseTime(firstCol(rec, colIdx, "dateend", "timestamp", "date"))
		if !ok {
			diag.DroppedDates++
			continue
		}

		lat, latOK := parseFloat(firstCol(rec, colIdx, "lat", "latitude"))
		lon, lonOK := parseFloat(firstCol(rec, colIdx, "long", "lon", "longitude"))
		geo := model.GeoPoint{Lat: lat, Lon: lon}
		if !latOK || !lonOK || !geo.Valid() {
			diag.DroppedCoords++
			continue
		}

		events = append(events, model.CrimeEvent{
			ID:            fmt.Sprintf("crime-%06d", i+1),
			Geo:           geo,
			Timestamp:     ts,
			Hour:          hourFromStart(getCol(rec, colIdx, "timestart")),
			CrimeType:     firstCol(rec, colIdx, "code_defined", "crime_type", "offense"),
			Severity:      parseIntOr(getCol(rec, colIdx, "severity"), 0),
			QualityOfLife: parseBool(getCol(rec, colIdx, "qualityoflife")),
			DecayZone:     model.ZoneNeither,
		})
	}

	diag.RowsKept = len(events)
	diag.log()
	return events, diag, nil
}

// LoadCrimeFile is LoadCrime over a file path.
func LoadCrimeFile(path string) ([]model.CrimeEvent, Diagnostics, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, Diagnostics{Dataset: "crime"}, err
	}
	defer f.Close() //nolint:errcheck
	return LoadCrime(f)
}
