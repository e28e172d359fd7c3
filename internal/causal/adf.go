package causal

import (
	"math"

	"github.com/rotisserie/eris"
)

// ADFResult holds an augmented Dickey-Fuller unit-root test outcome. A
// p-value above 0.05 means the unit-root hypothesis is not rejected and the
// series is treated as non-stationary.
type ADFResult struct {
	Stat       float64 `json:"stat"`
	PValue     float64 `json:"p_value"`
	Lags       int     `json:"lags"`
	NObs       int     `json:"n_obs"`
	Stationary bool    `json:"stationary"`
}

// adfCriticalPoints maps test statistics to approximate p-values for the
// constant-only Dickey-Fuller distribution (large-sample MacKinnon values,
// linearly interpolated). The pipeline only needs the 0.05 decision
// boundary, which the table pins exactly at the -2.86 critical value.
var adfCriticalPoints = []struct{ stat, p float64 }{
	{-4.38, 0.001},
	{-3.43, 0.010},
	{-3.12, 0.025},
	{-2.86, 0.050},
	{-2.57, 0.100},
	{-2.18, 0.200},
	{-1.57, 0.500},
	{-0.44, 0.900},
	{0.60, 0.990},
}

func adfPValue(stat float64) float64 {
	pts := adfCriticalPoints
	if stat <= pts[0].stat {
		return pts[0].p
	}
	if stat >= pts[len(pts)-1].stat {
		return pts[len(pts)-1].p
	}
	for i := 1; i < len(pts); i++ {
		if stat <= pts[i].stat {
			frac := (stat - pts[i-1].stat) / (pts[i].stat - pts[i-1].stat)
			return pts[i-1].p + frac*(pts[i].p-pts[i-1].p)
		}
	}
	return pts[len(pts)-1].p
}

// ADF runs an augmented Dickey-Fuller test with a constant term. The lag
// order is floor((n-1)^(1/3)), capped so the regression keeps positive
// degrees of freedom.
func ADF(x []float64) (*ADFResult, error) {
	n := len(x)
	if n < 8 {
		return nil, eris.Errorf("causal: adf needs at least 8 observations, have %d", n)
	}

	lags := int(math.Cbrt(float64(n - 1)))
	if maxLags := (n - 4) / 2; lags > maxLags {
		lags = maxLags
	}
	if lags < 0 {
		lags = 0
	}

	dx := diff(x)

	// Rows t = lags..len(dx)-1: regress dx[t] on x at t (level index) and
	// lagged differences.
	m := len(dx) - lags
	y := make([]float64, m)
	level := make([]float64, m)
	lagCols := make([][]float64, lags)
	for j := range lagCols {
		lagCols[j] = make([]float64, m)
	}
	for i := 0; i < m; i++ {
		t := i + lags
		y[i] = dx[t]
		level[i] = x[t] // x index of y_{t-1} relative to dx[t] = x[t+1]-x[t]
		for j := 0; j < lags; j++ {
			lagCols[j][i] = dx[t-1-j]
		}
	}

	cols := append([][]float64{level}, lagCols...)
	fit, err := fitOLS(y, cols...)
	if err != nil {
		return nil, eris.Wrap(err, "causal: adf regression")
	}
	stat, err := fit.tStat(1)
	if err != nil {
		return nil, eris.Wrap(err, "causal: adf statistic")
	}

	p := adfPValue(stat)
	return &ADFResult{
		Stat:       stat,
		PValue:     p,
		Lags:       lags,
		NObs:       m,
		Stationary: p <= 0.05,
	}, nil
}
