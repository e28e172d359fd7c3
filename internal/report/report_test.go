package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/decayscope/internal/model"
)

func crimeAt(crimeType string, month time.Month, hour int, qol bool) model.CrimeEvent {
	return model.CrimeEvent{
		CrimeType:     crimeType,
		Timestamp:     time.Date(2024, month, 10, hour, 0, 0, 0, time.UTC),
		Hour:          hour,
		QualityOfLife: qol,
	}
}

func TestTopCrimeTypes(t *testing.T) {
	events := []model.CrimeEvent{
		crimeAt("Larceny", time.June, 20, false),
		crimeAt("Larceny", time.June, 21, false),
		crimeAt("Larceny", time.July, 22, false),
		crimeAt("Assault", time.June, 23, false),
		crimeAt("Assault", time.June, 1, false),
		crimeAt("Burglary", time.June, 2, false),
		{CrimeType: ""},
	}

	top := TopCrimeTypes(events, 2)
	require.Len(t, top, 2)
	assert.Equal(t, CategoryCount{Label: "Larceny", Count: 3}, top[0])
	assert.Equal(t, CategoryCount{Label: "Assault", Count: 2}, top[1])
}

func TestTopCrimeTypes_TieBreakByLabel(t *testing.T) {
	events := []model.CrimeEvent{
		{CrimeType: "Robbery"}, {CrimeType: "Arson"},
	}
	top := TopCrimeTypes(events, 0)
	require.Len(t, top, 2)
	assert.Equal(t, "Arson", top[0].Label)
	assert.Equal(t, "Robbery", top[1].Label)
}

func TestCrimesByMonthAndHour(t *testing.T) {
	events := []model.CrimeEvent{
		crimeAt("a", time.June, 20, false),
		crimeAt("b", time.June, 20, false),
		crimeAt("c", time.January, 3, false),
		{CrimeType: "no-date", Hour: 20},
	}

	months := CrimesByMonth(events)
	require.Len(t, months, 12)
	assert.Equal(t, CategoryCount{Label: "January", Count: 1}, months[0])
	assert.Equal(t, CategoryCount{Label: "June", Count: 2}, months[5])
	assert.Zero(t, months[11].Count)

	hours := CrimesByHour(events)
	require.Len(t, hours, 24)
	assert.Equal(t, CategoryCount{Label: "20:00", Count: 3}, hours[20])
	assert.Equal(t, CategoryCount{Label: "03:00", Count: 1}, hours[3])
}

func TestQualityOfLifeSplit(t *testing.T) {
	events := []model.CrimeEvent{
		{QualityOfLife: true}, {}, {}, {},
	}
	split := QualityOfLifeSplit(events)
	require.Len(t, split, 2)
	assert.Equal(t, CategoryCount{Label: "Serious", Count: 3}, split[0])
	assert.Equal(t, CategoryCount{Label: "Quality of Life", Count: 1}, split[1])
}

func unfitIn(year int, zip string, active bool) model.DecayFeature {
	return model.DecayFeature{
		Kind:     model.KindUnfitProperty,
		ZipCode:  zip,
		IsActive: active,
		Date:     time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestViolationsByYearTier(t *testing.T) {
	violations := []model.ViolationRecord{
		{Tier: 3, Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Tier: 3, Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Tier: 1, Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Tier: 2, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	rows := ViolationsByYearTier(violations)
	require.Len(t, rows, 3)
	assert.Equal(t, YearTierCount{Year: 2023, Tier: 3, TierLabel: "Structural / Critical", Count: 2}, rows[0])
	assert.Equal(t, YearTierCount{Year: 2023, Tier: 1, TierLabel: "Environmental Neglect", Count: 1}, rows[1])
	assert.Equal(t, YearTierCount{Year: 2024, Tier: 2, TierLabel: "Systems Failure", Count: 1}, rows[2])
}

func TestTierMix(t *testing.T) {
	violations := []model.ViolationRecord{
		{Tier: 3}, {Tier: 1}, {Tier: 1}, {Tier: 0},
	}
	mix := TierMix(violations)
	require.Len(t, mix, 3)
	assert.Equal(t, CategoryCount{Label: "Structural / Critical", Count: 1}, mix[0])
	assert.Equal(t, CategoryCount{Label: "Systems Failure", Count: 0}, mix[1])
	assert.Equal(t, CategoryCount{Label: "Environmental Neglect", Count: 2}, mix[2])
}

func TestMonthlyTierSeries(t *testing.T) {
	violations := []model.ViolationRecord{
		{Tier: 3, Date: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Tier: 3, Date: time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC)},
		{Tier: 3, Date: time.Date(2023, 2, 2, 0, 0, 0, 0, time.UTC)},
		{Tier: 1, Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Tier: 0, Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	series := MonthlyTierSeries(violations)
	require.Contains(t, series, 3)
	require.Contains(t, series, 1)
	assert.NotContains(t, series, 0)

	tier3 := series[3]
	require.Len(t, tier3, 2)
	assert.Equal(t, 2.0, tier3[0].Count)
	assert.Equal(t, 1.0, tier3[1].Count)
}

func TestForecastYearlyUnfit(t *testing.T) {
	// Clean linear history 2019-2023 plus a partial 2024; the fit excludes
	// 2024 and the projection covers 2024-2026.
	var features []model.DecayFeature
	for i, year := range []int{2019, 2020, 2021, 2022, 2023} {
		for j := 0; j < 10+5*i; j++ {
			features = append(features, unfitIn(year, "13205", true))
		}
	}
	features = append(features, unfitIn(2024, "13205", true))

	points := ForecastYearlyUnfit(features, 3)
	require.Len(t, points, 9)

	assert.Equal(t, ForecastPoint{Year: 2019, Count: 10}, points[0])
	assert.Equal(t, ForecastPoint{Year: 2024, Count: 1}, points[5])

	// y = 10 + 5*(year-2019) extended past the fitted window.
	for i, year := range []int{2024, 2025, 2026} {
		p := points[6+i]
		assert.Equal(t, year, p.Year)
		assert.True(t, p.Projected)
		assert.InDelta(t, float64(10+5*(year-2019)), p.Count, 1e-6)
	}
}

func TestForecastYearlyUnfit_TooFewYears(t *testing.T) {
	assert.Nil(t, ForecastYearlyUnfit([]model.DecayFeature{unfitIn(2024, "13205", true)}, 3))
	assert.Nil(t, ForecastYearlyUnfit(nil, 3))
}

func TestBuild(t *testing.T) {
	events := []model.CrimeEvent{
		crimeAt("Larceny", time.June, 20, false),
		crimeAt("Assault", time.July, 22, true),
	}
	unfit := []model.DecayFeature{
		unfitIn(2023, "13205", true),
		unfitIn(2023, "13204", false),
	}
	vacant := []model.DecayFeature{
		{Kind: model.KindVacantProperty, ZipCode: "13208", IsActive: true},
	}
	violations := []model.ViolationRecord{
		{Tier: 3, Status: model.StatusOpen, ZipCode: "13205", Neighborhood: "Northside", Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Tier: 1, Status: model.StatusClosed, ZipCode: "13204", Neighborhood: "Brighton", Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	r := Build(events, unfit, vacant, violations)

	assert.Equal(t, 2, r.KPI.TotalCrimes)
	assert.Equal(t, 1, r.KPI.SeriousCrimes)
	assert.Equal(t, 1, r.KPI.OpenUnfit)
	assert.Equal(t, 1, r.KPI.ActiveVacant)
	assert.Equal(t, 1, r.KPI.OpenViolations)
	assert.InDelta(t, 0.5, r.KPI.StructuralShare, 1e-9)

	assert.Len(t, r.TopCrimeTypes, 2)
	assert.Equal(t, OpenClosedSplit{Open: 1, Closed: 1}, r.UnfitOpenClosed)
	assert.Equal(t, []CategoryCount{{Label: "13208", Count: 1}}, r.VacantByZip)
	assert.Equal(t, OpenClosedSplit{Open: 1, Closed: 1}, r.ViolationsOpenClosed)
	assert.Len(t, r.TierMix, 3)
}
