package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/citylab/decayscope/internal/model"
)

// ForecastHorizonYears is how far past the fitted window the unfit-property
// trend is projected.
const ForecastHorizonYears = 3

// ForecastPoint is one year of the unfit-property trend: observed history or
// a projected value.
type ForecastPoint struct {
	Year      int     `json:"year"`
	Count     float64 `json:"count"`
	Projected bool    `json:"projected"`
}

// ForecastYearlyUnfit fits a linear trend to annual unfit-property counts
// and projects it horizon years forward. The final observed year is excluded
// from the fit when at least three years are present, since it is usually a
// partial year; projections start right after the fitted window so the
// partial year gets a modelled value too. Returns nil when fewer than two
// years are available to fit.
func ForecastYearlyUnfit(features []model.DecayFeature, horizon int) []ForecastPoint {
	byYear := make(map[int]float64)
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

	fitYears := years
	if len(years) >= 3 {
		fitYears = years[:len(years)-1]
	}
	if len(fitYears) < 2 {
		return nil
	}

	xs := make([]float64, len(fitYears))
	ys := make([]float64, len(fitYears))
	for i, y := range fitYears {
		xs[i] = float64(y)
		ys[i] = byYear[y]
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	out := make([]ForecastPoint, 0, len(years)+horizon)
	for _, y := range years {
		out = append(out, ForecastPoint{Year: y, Count: byYear[y]})
	}
	lastFit := fitYears[len(fitYears)-1]
	for i := 1; i <= horizon; i++ {
		year := lastFit + i
		out = append(out, ForecastPoint{
			Year:      year,
			Count:     alpha + beta*float64(year),
			Projected: true,
		})
	}
	return out
}
