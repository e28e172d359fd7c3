package loader

import (
	"fmt"
	"io"

	"github.com/citylab/decayscope/internal/model"
)

// LoadUnfit parses the unfit-property citation export into decay features.
// A citation is active while its status is "Open". Required columns:
// violation date, latitude, longitude, zip, status.
func LoadUnfit(r io.Reader) ([]model.DecayFeature, Diagnostics, error) {
	diag := Diagnostics{Dataset: "unfit"}

	colIdx, rows, err := readTable(r, "unfit")
	if err != nil {
		return nil, diag, err
	}
	if err := requireColumns(colIdx, "unfit",
		[]string{"violation_date", "date"},
		[]string{"latitude", "lat"},
		[]string{"longitude", "long", "lon"},
		[]string{"zip", "zip_code"},
		[]string{"status_type_name", "status"},
	); err != nil {
		return nil, diag, err
	}

	features := make([]model.DecayFeature, 0, len(rows))
	for i, rec := range rows {
		diag.RowsRead++

		date, ok := parseTime(firstCol(rec, colIdx, "violation_date", "date"))
		if !ok {
			diag.DroppedDates++
			continue
		}

		lat, latOK := parseFloat(firstCol(rec, colIdx, "latitude", "lat"))
		lon, lonOK := parseFloat(firstCol(rec, colIdx, "longitude", "long", "lon"))
		geo := model.GeoPoint{Lat: lat, Lon: lon}
		if !latOK || !lonOK || !geo.Valid() {
			diag.DroppedCoords++
			continue
		}

		status := firstCol(rec, colIdx, "status_type_name", "status")
		features = append(features, model.DecayFeature{
			ID:       fmt.Sprintf("unfit-%06d", i+1),
			Geo:      geo,
			ZipCode:  firstCol(rec, colIdx, "zip", "zip_code"),
			Kind:     model.KindUnfitProperty,
			IsActive: status == "Open",
			Date:     date,
		})
	}

	diag.RowsKept = len(features)
	diag.log()
	return features, diag, nil
}

// LoadUnfitFile is LoadUnfit over a file path.
func LoadUnfitFile(path string) ([]model.DecayFeature, Diagnostics, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, Diagnostics{Dataset: "unfit"}, err
	}
	defer f.Close() //nolint:errcheck
	return LoadUnfit(f)
}
