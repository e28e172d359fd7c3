// Package zone computes the per-ZIP composite risk classification from
// crime counts, decay scores, and unresolved-citation rates.
package zone

import (
	"sort"

	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/model"
)

// UnfitRatioThreshold marks a ZIP as infrastructure-decay dominant when the
// unfit share of its decay score exceeds it.
const UnfitRatioThreshold = 0.4

// Classify groups crime events and decay features by ZIP code and assigns
// each ZIP a zone type and a 0-100 composite risk score. Every ZIP that has
// at least one decay feature appears in the output; missing crime or
// citation data defaults to zero (left-join semantics). The result is
// sorted descending by risk score with a stable order on ties.
func Classify(events []model.CrimeEvent, features []model.DecayFeature) []model.ZipAggregate {
	crimeByZip := make(map[string]int)
	for _, ev := range events {
		if ev.ZipCode != "" {
			crimeByZip[ev.ZipCode]++
		}
	}

	byZip := make(map[string]*model.ZipAggregate)
	var order []string
	get := func(zip string) *model.ZipAggregate {
		if agg, ok := byZip[zip]; ok {
			return agg
		}
		agg := &model.ZipAggregate{ZipCode: zip}
		byZip[zip] = agg
		order = append(order, zip)
		return agg
	}

	for _, f := range features {
		agg := get(f.ZipCode)
		switch f.Kind {
		case model.KindUnfitProperty:
			agg.UnfitCount++
			agg.TotalUnfit++
			if f.IsActive {
				agg.OpenUnfit++
			}
		case model.KindVacantProperty:
			agg.VacantCount++
		}
	}
	sort.Strings(order)

	rows := make([]model.ZipAggregate, 0, len(order))
	for _, zip := range order {
		agg := byZip[zip]
		agg.CrimeCount = crimeByZip[zip]
		agg.DecayScore = agg.UnfitCount + agg.VacantCount

		denom := agg.DecayScore
		if denom == 0 {
			denom = 1
		}
		agg.UnfitRatio = float64(agg.UnfitCount) / float64(denom)

		if agg.TotalUnfit > 0 {
			agg.PctUnresolved = float64(agg.OpenUnfit) / float64(agg.TotalUnfit)
		}
		rows = append(rows, *agg)
	}

	if len(rows) == 0 {
		return rows
	}

	crimeMedian := medianOf(rows, func(r model.ZipAggregate) float64 { return float64(r.CrimeCount) })
	decayMedian := medianOf(rows, func(r model.ZipAggregate) float64 { return float64(r.DecayScore) })

	for i := range rows {
		rows[i].ZoneType = zoneFor(rows[i], crimeMedian, decayMedian)
	}

	crimeNorm := normalize(rows, func(r model.ZipAggregate) float64 { return float64(r.CrimeCount) })
	decayNorm := normalize(rows, func(r model.ZipAggregate) float64 { return float64(r.DecayScore) })
	unresolvedNorm := normalize(rows, func(r model.ZipAggregate) float64 { return r.PctUnresolved })
	for i := range rows {
		rows[i].RiskScore = 100 * (0.40*crimeNorm[i] + 0.35*decayNorm[i] + 0.25*unresolvedNorm[i])
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RiskScore > rows[j].RiskScore })

	zap.L().Info("zone: classification complete",
		zap.Int("zips", len(rows)),
		zap.Float64("crime_median", crimeMedian),
		zap.Float64("decay_median", decayMedian),
	)
	return rows
}

// zoneFor applies the priority-ordered taxonomy. Comparisons are strictly
// greater-than: a ZIP exactly at a median does not count as high.
func zoneFor(r model.ZipAggregate, crimeMedian, decayMedian float64) model.ZoneType {
	highCrime := float64(r.CrimeCount) > crimeMedian
	highDecay := float64(r.DecayScore) > decayMedian
	switch {
	case highCrime && highDecay:
		return model.ZoneTypeA
	case highDecay:
		return model.ZoneTypeB
	case r.UnfitRatio > UnfitRatioThreshold:
		return model.ZoneTypeC
	default:
		return model.ZoneLowRisk
	}
}

// medianOf returns the midpoint median: the middle element for odd counts,
// the mean of the two middle elements for even counts.
func medianOf(rows []model.ZipAggregate, value func(model.ZipAggregate) float64) float64 {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = value(r)
	}
	sort.Float64s(vals)

	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// normalize min-max scales the extracted values into [0,1], or returns the
// zero vector when every value is equal.
func normalize(rows []model.ZipAggregate, value func(model.ZipAggregate) float64) []float64 {
	out := make([]float64, len(rows))
	if len(rows) == 0 {
		return out
	}

	min, max := value(rows[0]), value(rows[0])
	for _, r := range rows[1:] {
		v := value(r)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return out
	}
	for i, r := range rows {
		out[i] = (value(r) - min) / (max - min)
	}
	return out
}
