// Package decayindex unions the unfit and vacant feature sets into one
// typed decay-point dataset and derives the per-geography statistics built
// on top of it: ZIP centroids, proximity stats, and economic-abandonment
// zones.
package decayindex

import (
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/citylab/decayscope/internal/model"
	"github.com/citylab/decayscope/internal/spatial"
)

// Union concatenates the unfit and vacant feature sets into the combined
// decay dataset. Inputs are value collections; the result is a fresh slice.
func Union(unfit, vacant []model.DecayFeature) []model.DecayFeature {
	combined := make([]model.DecayFeature, 0, len(unfit)+len(vacant))
	combined = append(combined, unfit...)
	combined = append(combined, vacant...)

	zap.L().Info("decayindex: combined decay dataset",
		zap.Int("unfit", len(unfit)),
		zap.Int("vacant", len(vacant)),
		zap.Int("total", len(combined)),
	)
	return combined
}

// Centroids computes the mean location of decay features per ZIP code,
// restricted to 5-digit numeric ZIPs. Output is sorted by ZIP code so that
// repeated runs over the same feature set produce identical centroid sets.
func Centroids(features []model.DecayFeature) []spatial.Centroid {
	type acc struct {
		latSum, lonSum float64
		n              int
	}
	byZip := make(map[string]*acc)
	for _, f := range features {
		a := byZip[f.ZipCode]
		if a == nil {
			a = &acc{}
			byZip[f.ZipCode] = a
		}
		a.latSum += f.Geo.Lat
		a.lonSum += f.Geo.Lon
		a.n++
	}

	centroids := make([]spatial.Centroid, 0, len(byZip))
	for zip, a := range byZip {
		centroids = append(centroids, spatial.Centroid{
			ZipCode: zip,
			Geo: model.GeoPoint{
				Lat: a.latSum / float64(a.n),
				Lon: a.lonSum / float64(a.n),
			},
		})
	}
	sort.Slice(centroids, func(i, j int) bool { return centroids[i].ZipCode < centroids[j].ZipCode })
	return centroids
}

// ProximityStats summarizes how many crime events carry each proximity
// flag, as counts and shares of all events.
type ProximityStats struct {
	Events        int     `json:"events"`
	NearUnfitN    int     `json:"near_unfit_n"`
	NearVacantN   int     `json:"near_vacant_n"`
	NearDecayN    int     `json:"near_decay_n"`
	NearBothN     int     `json:"near_both_n"`
	NearUnfitPct  float64 `json:"near_unfit_pct"`
	NearVacantPct float64 `json:"near_vacant_pct"`
	NearDecayPct  float64 `json:"near_decay_pct"`
	NearBothPct   float64 `json:"near_both_pct"`
}

// Stats computes proximity statistics over tagged crime events.
func Stats(events []model.CrimeEvent) ProximityStats {
	s := ProximityStats{Events: len(events)}
	for _, ev := range events {
		if ev.NearUnfit {
			s.NearUnfitN++
		}
		if ev.NearVacant {
			s.NearVacantN++
		}
		if ev.NearDecay {
			s.NearDecayN++
		}
		if ev.DecayZone == model.ZoneNearBoth {
			s.NearBothN++
		}
	}
	if s.Events > 0 {
		n := float64(s.Events)
		s.NearUnfitPct = 100 * float64(s.NearUnfitN) / n
		s.NearVacantPct = 100 * float64(s.NearVacantN) / n
		s.NearDecayPct = 100 * float64(s.NearDecayN) / n
		s.NearBothPct = 100 * float64(s.NearBothN) / n
	}
	return s
}

// AbandonmentZones returns the vacant decay features located in low-crime
// ZIP codes: ZIPs at or below the 25th percentile of per-ZIP crime counts.
// These are candidate economic-abandonment areas, where vacancy outpaces
// crime. Also returns the low-crime ZIP list itself, sorted.
func AbandonmentZones(events []model.CrimeEvent, features []model.DecayFeature) ([]model.DecayFeature, []string) {
	crimeByZip := make(map[string]int)
	for _, ev := range events {
		if ev.ZipCode != "" {
			crimeByZip[ev.ZipCode]++
		}
	}
	if len(crimeByZip) == 0 {
		return nil, nil
	}

	counts := make([]float64, 0, len(crimeByZip))
	for _, n := range crimeByZip {
		counts = append(counts, float64(n))
	}
	sort.Float64s(counts)
	threshold := stat.Quantile(0.25, stat.LinInterp, counts, nil)

	lowCrime := make(map[string]bool)
	var zips []string
	for zip, n := range crimeByZip {
		if float64(n) <= threshold {
			lowCrime[zip] = true
			zips = append(zips, zip)
		}
	}
	sort.Strings(zips)

	var abandoned []model.DecayFeature
	for _, f := range features {
		if f.Kind == model.KindVacantProperty && lowCrime[f.ZipCode] {
			abandoned = append(abandoned, f)
		}
	}

	zap.L().Info("decayindex: abandonment zones computed",
		zap.Float64("crime_threshold", threshold),
		zap.Int("low_crime_zips", len(zips)),
		zap.Int("abandoned_vacancies", len(abandoned)),
	)
	return abandoned, zips
}

// ZipVacancy is the abandonment breakdown for one low-crime ZIP.
type ZipVacancy struct {
	ZipCode   string `json:"zip_code"`
	Vacancies int    `json:"vacancies"`
}

// VacancyByZip aggregates abandonment features into per-ZIP vacancy counts,
// sorted by ZIP code.
func VacancyByZip(features []model.DecayFeature) []ZipVacancy {
	byZip := make(map[string]int)
	for _, f := range features {
		byZip[f.ZipCode]++
	}
	out := make([]ZipVacancy, 0, len(byZip))
	for zip, n := range byZip {
		out = append(out, ZipVacancy{ZipCode: zip, Vacancies: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZipCode < out[j].ZipCode })
	return out
}
