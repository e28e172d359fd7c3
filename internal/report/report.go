// Package report builds the chart-ready aggregate tables consumed by any
// presentation layer: plain counts, shares, and forecast points, no rendering
// concerns.
package report

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/model"
)

// TopBreakdownSize caps the ranked ZIP/type/neighborhood breakdowns.
const TopBreakdownSize = 8

// CategoryCount is one labelled row of a ranked breakdown.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// YearCount is one year of an annual trend.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearTierCount is one (year, tier) cell of the violations trend.
type YearTierCount struct {
	Year      int    `json:"year"`
	Tier      int    `json:"tier"`
	TierLabel string `json:"tier_label"`
	Count     int    `json:"count"`
}

// OpenClosedSplit is a two-way resolution-status count.
type OpenClosedSplit struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

// KPI holds the headline numbers across all four datasets.
type KPI struct {
	TotalCrimes     int     `json:"total_crimes"`
	SeriousCrimes   int     `json:"serious_crimes"`
	TotalUnfit      int     `json:"total_unfit"`
	OpenUnfit       int     `json:"open_unfit"`
	TotalVacant     int     `json:"total_vacant"`
	ActiveVacant    int     `json:"active_vacant"`
	TotalViolations int     `json:"total_violations"`
	OpenViolations  int     `json:"open_violations"`
	StructuralShare float64 `json:"structural_share"`
}

// Report is the full aggregate bundle.
type Report struct {
	KPI KPI `json:"kpi"`

	TopCrimeTypes []CategoryCount `json:"top_crime_types"`
	CrimesByMonth []CategoryCount `json:"crimes_by_month"`
	CrimesByHour  []CategoryCount `json:"crimes_by_hour"`
	SeriousVsQoL  []CategoryCount `json:"serious_vs_qol"`

	UnfitByYear     []YearCount     `json:"unfit_by_year"`
	UnfitOpenClosed OpenClosedSplit `json:"unfit_open_closed"`
	UnfitByZip      []CategoryCount `json:"unfit_by_zip"`
	OpenUnfitByZip  []CategoryCount `json:"open_unfit_by_zip"`
	UnfitForecast   []ForecastPoint `json:"unfit_forecast"`

	VacantByZip []CategoryCount `json:"vacant_by_zip"`

	ViolationsByYearTier     []YearTierCount `json:"violations_by_year_tier"`
	TierMix                  []CategoryCount `json:"tier_mix"`
	ViolationsByZip          []CategoryCount `json:"violations_by_zip"`
	ViolationsByNeighborhood []CategoryCount `json:"violations_by_neighborhood"`
	ViolationsOpenClosed     OpenClosedSplit `json:"violations_open_closed"`
}

// Build assembles every aggregate table from the loaded datasets.
func Build(events []model.CrimeEvent, unfit, vacant []model.DecayFeature, violations []model.ViolationRecord) *Report {
	r := &Report{
		KPI:           buildKPI(events, unfit, vacant, violations),
		TopCrimeTypes: TopCrimeTypes(events, TopBreakdownSize),
		CrimesByMonth: CrimesByMonth(events),
		CrimesByHour:  CrimesByHour(events),
		SeriousVsQoL:  QualityOfLifeSplit(events),

		UnfitByYear:     featuresByYear(unfit),
		UnfitOpenClosed: featureOpenClosed(unfit),
		UnfitByZip:      topZips(unfit, TopBreakdownSize, false),
		OpenUnfitByZip:  topZips(unfit, TopBreakdownSize, true),
		UnfitForecast:   ForecastYearlyUnfit(unfit, ForecastHorizonYears),

		VacantByZip: topZips(vacant, TopBreakdownSize, false),

		ViolationsByYearTier:     ViolationsByYearTier(violations),
		TierMix:                  TierMix(violations),
		ViolationsByZip:          violationBreakdown(violations, TopBreakdownSize, func(v model.ViolationRecord) string { return v.ZipCode }),
		ViolationsByNeighborhood: violationBreakdown(violations, TopBreakdownSize, func(v model.ViolationRecord) string { return v.Neighborhood }),
		ViolationsOpenClosed:     violationOpenClosed(violations),
	}
	zap.L().Info("report: aggregates built",
		zap.Int("crimes", r.KPI.TotalCrimes),
		zap.Int("unfit", r.KPI.TotalUnfit),
		zap.Int("vacant", r.KPI.TotalVacant),
		zap.Int("violations", r.KPI.TotalViolations),
	)
	return r
}

func buildKPI(events []model.CrimeEvent, unfit, vacant []model.DecayFeature, violations []model.ViolationRecord) KPI {
	k := KPI{
		TotalCrimes:     len(events),
		TotalUnfit:      len(unfit),
		TotalVacant:     len(vacant),
		TotalViolations: len(violations),
	}
	for _, ev := range events {
		if !ev.QualityOfLife {
			k.SeriousCrimes++
		}
	}
	for _, f := range unfit {
		if f.IsActive {
			k.OpenUnfit++
		}
	}
	for _, f := range vacant {
		if f.IsActive {
			k.ActiveVacant++
		}
	}
	structural := 0
	for _, v := range violations {
		if v.IsOpen() {
			k.OpenViolations++
		}
		if v.Tier == 3 {
			structural++
		}
	}
	if len(violations) > 0 {
		k.StructuralShare = float64(structural) / float64(len(violations))
	}
	return k
}

// TopCrimeTypes ranks crime types by count descending, ties broken by label
// so output is deterministic.
func TopCrimeTypes(events []model.CrimeEvent, n int) []CategoryCount {
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.CrimeType != "" {
			counts[ev.CrimeType]++
		}
	}
	return rankCounts(counts, n)
}

// CrimesByMonth returns totals for all twelve calendar months, zero-filled.
func CrimesByMonth(events []model.CrimeEvent) []CategoryCount {
	var byMonth [13]int
	for _, ev := range events {
		if !ev.Timestamp.IsZero() {
			byMonth[int(ev.Timestamp.UTC().Month())]++
		}
	}
	out := make([]CategoryCount, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, CategoryCount{Label: m.String(), Count: byMonth[int(m)]})
	}
	return out
}

// CrimesByHour returns totals for all 24 hours, zero-filled, in hour order.
func CrimesByHour(events []model.CrimeEvent) []CategoryCount {
	var byHour [24]int
	for _, ev := range events {
		if ev.Hour >= 0 && ev.Hour < 24 {
			byHour[ev.Hour]++
		}
	}
	out := make([]CategoryCount, 24)
	for h := range byHour {
		out[h] = CategoryCount{Label: hourLabel(h), Count: byHour[h]}
	}
	return out
}

func hourLabel(h int) string {
	return time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("15:00")
}

// QualityOfLifeSplit is the serious vs quality-of-life composition.
func QualityOfLifeSplit(events []model.CrimeEvent) []CategoryCount {
	serious, qol := 0, 0
	for _, ev := range events {
		if ev.QualityOfLife {
			qol++
		} else {
			serious++
		}
	}
	return []CategoryCount{
		{Label: "Serious", Count: serious},
		{Label: "Quality of Life", Count: qol},
	}
}

func featuresByYear(features []model.DecayFeature) []YearCount {
	byYear := make(map[int]int)
	for _, f := range features {
		if !f.Date.IsZero() {
			byYear[f.Date.UTC().Year()]++
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]YearCount, 0, len(years))
	for _, y := range years {
		out = append(out, YearCount{Year: y, Count: byYear[y]})
	}
	return out
}

func featureOpenClosed(features []model.DecayFeature) OpenClosedSplit {
	var s OpenClosedSplit
	for _, f := range features {
		if f.IsActive {
			s.Open++
		} else {
			s.Closed++
		}
	}
	return s
}

func topZips(features []model.DecayFeature, n int, activeOnly bool) []CategoryCount {
	counts := make(map[string]int)
	for _, f := range features {
		if f.ZipCode == "" {
			continue
		}
		if activeOnly && !f.IsActive {
			continue
		}
		counts[f.ZipCode]++
	}
	return rankCounts(counts, n)
}

// ViolationsByYearTier counts violations per (year, tier), ordered by year
// then tier descending so the most severe tier leads each year.
func ViolationsByYearTier(violations []model.ViolationRecord) []YearTierCount {
	type key struct {
		year, tier int
	}
	counts := make(map[key]int)
	for _, v := range violations {
		if v.Date.IsZero() {
			continue
		}
		counts[key{year: v.Date.UTC().Year(), tier: v.Tier}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].tier > keys[j].tier
	})
	out := make([]YearTierCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, YearTierCount{
			Year:      k.year,
			Tier:      k.tier,
			TierLabel: model.TierLabel(k.tier),
			Count:     counts[k],
		})
	}
	return out
}

// TierMix is the tier composition of all violations, most severe first.
func TierMix(violations []model.ViolationRecord) []CategoryCount {
	var byTier [4]int
	for _, v := range violations {
		if v.Tier >= 1 && v.Tier <= 3 {
			byTier[v.Tier]++
		}
	}
	out := make([]CategoryCount, 0, 3)
	for tier := 3; tier >= 1; tier-- {
		out = append(out, CategoryCount{Label: model.TierLabel(tier), Count: byTier[tier]})
	}
	return out
}

func violationBreakdown(violations []model.ViolationRecord, n int, keyOf func(model.ViolationRecord) string) []CategoryCount {
	counts := make(map[string]int)
	for _, v := range violations {
		if k := keyOf(v); k != "" {
			counts[k]++
		}
	}
	return rankCounts(counts, n)
}

func violationOpenClosed(violations []model.ViolationRecord) OpenClosedSplit {
	var s OpenClosedSplit
	for _, v := range violations {
		if v.IsOpen() {
			s.Open++
		} else {
			s.Closed++
		}
	}
	return s
}

// MonthlyTierSeries builds one monthly count series per tier, for causal
// testing against the crime series.
func MonthlyTierSeries(violations []model.ViolationRecord) map[int]model.MonthlySeries {
	byTier := make(map[int][]time.Time)
	for _, v := range violations {
		if v.Tier >= 1 && v.Tier <= 3 && !v.Date.IsZero() {
			byTier[v.Tier] = append(byTier[v.Tier], v.Date)
		}
	}
	out := make(map[int]model.MonthlySeries, len(byTier))
	for tier, times := range byTier {
		out[tier] = model.MonthlyCounts(times)
	}
	return out
}

func rankCounts(counts map[string]int, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, CategoryCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
