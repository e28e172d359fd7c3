package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/citylab/decayscope/internal/model"
)

// LoadVacant parses the vacant-property registry export into decay
// features. A vacancy is active while its registry-valid marker is missing
// or not "Y" (a valid registration means the owner is compliant). Required
// columns: latitude, longitude, zip.
func LoadVacant(r io.Reader) ([]model.DecayFeature, Diagnostics, error) {
	diag := Diagnostics{Dataset: "vacant"}

	colIdx, rows, err := readTable(r, "vacant")
	if err != nil {
		return nil, diag, err
	}
	if err := requireColumns(colIdx, "vacant",
		[]string{"latitude", "lat"},
		[]string{"longitude", "long", "lon"},
		[]string{"zip", "zip_code"},
	); err != nil {
		return nil, diag, err
	}

	features := make([]model.DecayFeature, 0, len(rows))
	for i, rec := range rows {
		diag.RowsRead++

		lat, latOK := parseFloat(firstCol(rec, colIdx, "latitude", "lat"))
		lon, lonOK := parseFloat(firstCol(rec, colIdx, "longitude", "long", "lon"))
		geo := model.GeoPoint{Lat: lat, Lon: lon}
		if !latOK || !lonOK || !geo.Valid() {
			diag.DroppedCoords++
			continue
		}

		marker := strings.TrimSpace(getCol(rec, colIdx, "vpr_valid"))
		features = append(features, model.DecayFeature{
			ID:       fmt.Sprintf("vacant-%06d", i+1),
			Geo:      geo,
			ZipCode:  firstCol(rec, colIdx, "zip", "zip_code"),
			Kind:     model.KindVacantProperty,
			IsActive: marker != "Y",
		})
	}

	diag.RowsKept = len(features)
	diag.log()
	return features, diag, nil
}

// LoadVacantFile is LoadVacant over a file path.
func LoadVacantFile(path string) ([]model.DecayFeature, Diagnostics, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, Diagnostics{Dataset: "vacant"}, err
	}
	defer f.Close() //nolint:errcheck
	return LoadVacant(f)
}
