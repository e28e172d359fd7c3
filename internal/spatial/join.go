package spatial

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/model"
)

var fiveDigitZip = regexp.MustCompile(`^\d{5}$`)

// Centroid is the mean location of all decay features sharing a ZIP code,
// used to assign ZIP codes to crime events by nearest-centroid lookup.
type Centroid struct {
	ZipCode string         `json:"zip_code"`
	Geo     model.GeoPoint `json:"geo"`
}

// indexFeatures builds an index over a decay-feature subset of one kind.
func indexFeatures(features []model.DecayFeature, kind model.FeatureKind) *Index {
	var lats, lons []float64
	for _, f := range features {
		if f.Kind == kind {
			lats = append(lats, f.Geo.Lat)
			lons = append(lons, f.Geo.Lon)
		}
	}
	return NewIndex(lats, lons)
}

// TagProximity computes the per-event proximity flags and the 4-way decay
// zone against the unfit and vacant subsets of the decay feature set. Events
// are returned as a new slice; the input is not modified. An empty feature
// subset yields all-false flags for that kind without building an index.
func TagProximity(events []model.CrimeEvent, features []model.DecayFeature) []model.CrimeEvent {
	unfitIx := indexFeatures(features, model.KindUnfitProperty)
	vacantIx := indexFeatures(features, model.KindVacantProperty)

	out := make([]model.CrimeEvent, len(events))
	nearAny := 0
	for i, ev := range events {
		ev.NearUnfit = unfitIx.CountWithin(ev.Geo.Lat, ev.Geo.Lon, JoinRadiusMeters) > 0
		ev.NearVacant = vacantIx.CountWithin(ev.Geo.Lat, ev.Geo.Lon, JoinRadiusMeters) > 0
		ev.NearDecay = ev.NearUnfit || ev.NearVacant
		ev.DecayZone = model.DecayZoneFor(ev.NearUnfit, ev.NearVacant)
		if ev.NearDecay {
			nearAny++
		}
		out[i] = ev
	}

	zap.L().Info("spatial: proximity tagging complete",
		zap.Int("events", len(events)),
		zap.Int("unfit_refs", unfitIx.Len()),
		zap.Int("vacant_refs", vacantIx.Len()),
		zap.Int("near_decay", nearAny),
	)
	return out
}

// TagViolations attaches violation aggregates to each event: the count of
// tiered violations within the join radius, the sum of their tier values,
// and whether any is a tier-3 structural violation.
func TagViolations(events []model.CrimeEvent, violations []model.ViolationRecord) []model.CrimeEvent {
	out := make([]model.CrimeEvent, len(events))

	if len(violations) == 0 {
		for i, ev := range events {
			ev.ViolationCount = 0
			ev.ViolationSeverityScore = 0
			ev.HasCriticalViolation = false
			out[i] = ev
		}
		return out
	}

	lats := make([]float64, len(violations))
	lons := make([]float64, len(violations))
	for i, v := range violations {
		lats[i] = v.Geo.Lat
		lons[i] = v.Geo.Lon
	}
	ix := NewIndex(lats, lons)

	for i, ev := range events {
		matched := ix.Within(ev.Geo.Lat, ev.Geo.Lon, JoinRadiusMeters)
		ev.ViolationCount = len(matched)
		ev.ViolationSeverityScore = 0
		ev.HasCriticalViolation = false
		for _, j := range matched {
			ev.ViolationSeverityScore += violations[j].Tier
			if violations[j].Tier == 3 {
				ev.HasCriticalViolation = true
			}
		}
		out[i] = ev
	}

	zap.L().Info("spatial: violation features attached",
		zap.Int("events", len(events)),
		zap.Int("violation_refs", len(violations)),
	)
	return out
}

// AssignZips assigns each event the ZIP code of its nearest centroid.
// Centroids with non-5-digit ZIP codes are ignored. With no usable
// centroids, events pass through with ZipCode untouched.
func AssignZips(events []model.CrimeEvent, centroids []Centroid) []model.CrimeEvent {
	var usable []Centroid
	for _, c := range centroids {
		if fiveDigitZip.MatchString(c.ZipCode) {
			usable = append(usable, c)
		}
	}

	out := make([]model.CrimeEvent, len(events))
	copy(out, events)
	if len(usable) == 0 {
		zap.L().Warn("spatial: no 5-digit zip centroids, skipping zip assignment")
		return out
	}

	lats := make([]float64, len(usable))
	lons := make([]float64, len(usable))
	for i, c := range usable {
		lats[i] = c.Geo.Lat
		lons[i] = c.Geo.Lon
	}
	ix := NewIndex(lats, lons)

	for i := range out {
		if j, ok := ix.Nearest(out[i].Geo.Lat, out[i].Geo.Lon); ok {
			out[i].ZipCode = usable[j].ZipCode
		}
	}
	return out
}
