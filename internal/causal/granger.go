// Package causal runs stationarity-adjusted Granger causality tests between
// monthly decay-signal and crime time series.
package causal

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/citylab/decayscope/internal/model"
)

// SignificanceLevel is the p-value threshold for calling a lag significant.
const SignificanceLevel = 0.05

// Options selects the test variant.
type Options struct {
	// MinOverlap is the minimum number of overlapping months required
	// before any test is run.
	MinOverlap int
	// MaxLagCap bounds the tested lag order.
	MaxLagCap int
	// LagDivisor further bounds the lag order to n/LagDivisor so the
	// regressions stay identifiable on short series.
	LagDivisor int
	// Bidirectional also tests the reverse direction.
	Bidirectional bool
}

// SmallSeriesOptions is tuned for the short unfit-property series.
func SmallSeriesOptions() Options {
	return Options{MinOverlap: 10, MaxLagCap: 4, LagDivisor: 4}
}

// BidirectionalOptions is tuned for the longer code-violations series and
// tests both directions.
func BidirectionalOptions() Options {
	return Options{MinOverlap: 24, MaxLagCap: 6, LagDivisor: 5, Bidirectional: true}
}

// LagTest is the outcome of one Granger regression pair at a given lag.
type LagTest struct {
	Lag         int     `json:"lag"`
	FStat       float64 `json:"f_stat"`
	FPValue     float64 `json:"f_p_value"`
	Chi2Stat    float64 `json:"chi2_stat"`
	Chi2PValue  float64 `json:"chi2_p_value"`
	Significant bool    `json:"significant"`
}

// DirectionResult collects per-lag tests for one causal direction. Lags
// whose regressions failed numerically are listed in SkippedLags and simply
// omitted from Lags.
type DirectionResult struct {
	Direction   string    `json:"direction"`
	Lags        []LagTest `json:"lags"`
	SkippedLags []int     `json:"skipped_lags,omitempty"`
	Significant bool      `json:"significant"`
}

// Result is the full causality-test outcome. When OK is false no test was
// performed and Reason explains why; callers render that as a structured
// "no result" rather than an error.
type Result struct {
	OK             bool             `json:"ok"`
	Reason         string           `json:"reason,omitempty"`
	NObs           int              `json:"n_obs"`
	MaxLag         int              `json:"max_lag"`
	ADifferenced   bool             `json:"a_differenced"`
	BDifferenced   bool             `json:"b_differenced"`
	AtoB           *DirectionResult `json:"a_to_b,omitempty"`
	BtoA           *DirectionResult `json:"b_to_a,omitempty"`
	Interpretation string           `json:"interpretation"`
}

// Align inner-joins two monthly series on period, returning parallel count
// vectors in period order.
func Align(a, b model.MonthlySeries) (xs, ys []float64) {
	bByPeriod := make(map[int64]float64, len(b))
	for _, mc := range b {
		bByPeriod[mc.Period.Unix()] = mc.Count
	}
	for _, mc := range a {
		if bv, ok := bByPeriod[mc.Period.Unix()]; ok {
			xs = append(xs, mc.Count)
			ys = append(ys, bv)
		}
	}
	return xs, ys
}

// TestCausality runs the stationarity-adjusted Granger analysis between
// series a and b. labelA/labelB name the series in the interpretation
// (e.g. "decay" and "crime").
func TestCausality(a, b model.MonthlySeries, labelA, labelB string, opts Options) *Result {
	xs, ys := Align(a, b)
	n := len(xs)
	if n < opts.MinOverlap {
		return &Result{
			OK:             false,
			NObs:           n,
			Reason:         fmt.Sprintf("insufficient data: %d overlapping months, need %d", n, opts.MinOverlap),
			Interpretation: "no result: insufficient overlapping data",
		}
	}

	res := &Result{OK: true, NObs: n}

	// Difference non-stationary series once before testing. An ADF failure
	// leaves the series untransformed; the lag regressions have their own
	// failure handling.
	res.ADifferenced = needsDifferencing(xs, labelA)
	res.BDifferenced = needsDifferencing(ys, labelB)
	if res.ADifferenced || res.BDifferenced {
		if res.ADifferenced {
			xs = diff(xs)
		} else {
			xs = xs[1:]
		}
		if res.BDifferenced {
			ys = diff(ys)
		} else {
			ys = ys[1:]
		}
		n = len(xs)
	}
	res.NObs = n

	maxLag := opts.MaxLagCap
	if byN := n / opts.LagDivisor; byN < maxLag {
		maxLag = byN
	}
	if maxLag < 1 {
		res.OK = false
		res.Reason = fmt.Sprintf("insufficient data: %d observations after differencing", n)
		res.Interpretation = "no result: insufficient overlapping data"
		return res
	}
	res.MaxLag = maxLag

	res.AtoB = testDirection(xs, ys, maxLag, fmt.Sprintf("%s -> %s", labelA, labelB))
	if opts.Bidirectional {
		res.BtoA = testDirection(ys, xs, maxLag, fmt.Sprintf("%s -> %s", labelB, labelA))
	}
	res.Interpretation = interpret(res.AtoB, res.BtoA, labelA, labelB)

	zap.L().Info("causal: granger analysis complete",
		zap.Int("n_obs", n),
		zap.Int("max_lag", maxLag),
		zap.String("interpretation", res.Interpretation),
	)
	return res
}

func needsDifferencing(x []float64, label string) bool {
	adf, err := ADF(x)
	if err != nil {
		zap.L().Warn("causal: adf failed, series left untransformed",
			zap.String("series", label), zap.Error(err))
		return false
	}
	zap.L().Debug("causal: adf",
		zap.String("series", label),
		zap.Float64("stat", adf.Stat),
		zap.Float64("p_value", adf.PValue),
		zap.Bool("stationary", adf.Stationary),
	)
	return !adf.Stationary
}

// testDirection tests whether cause Granger-causes effect at each lag
// 1..maxLag: an F-test of the restricted autoregression of effect against
// the augmented regression adding lagged cause values.
func testDirection(cause, effect []float64, maxLag int, name string) *DirectionResult {
	dir := &DirectionResult{Direction: name}

	for lag := 1; lag <= maxLag; lag++ {
		lt, err := grangerLag(cause, effect, lag)
		if err != nil {
			zap.L().Warn("causal: lag skipped",
				zap.String("direction", name), zap.Int("lag", lag), zap.Error(err))
			dir.SkippedLags = append(dir.SkippedLags, lag)
			continue
		}
		dir.Lags = append(dir.Lags, *lt)
		if lt.Significant {
			dir.Significant = true
		}
	}
	return dir
}

func grangerLag(cause, effect []float64, lag int) (*LagTest, error) {
	n := len(effect)
	m := n - lag
	dfDenom := m - 2*lag - 1
	if dfDenom < 1 {
		return nil, eris.Errorf("causal: lag %d leaves no denominator degrees of freedom", lag)
	}

	y := make([]float64, m)
	ownLags := make([][]float64, lag)
	causeLags := make([][]float64, lag)
	for j := 0; j < lag; j++ {
		ownLags[j] = make([]float64, m)
		causeLags[j] = make([]float64, m)
	}
	for i := 0; i < m; i++ {
		t := i + lag
		y[i] = effect[t]
		for j := 0; j < lag; j++ {
			ownLags[j][i] = effect[t-1-j]
			causeLags[j][i] = cause[t-1-j]
		}
	}

	restricted, err := fitOLS(y, ownLags...)
	if err != nil {
		return nil, err
	}
	unrestricted, err := fitOLS(y, append(append([][]float64{}, ownLags...), causeLags...)...)
	if err != nil {
		return nil, err
	}
	if unrestricted.rss <= 0 {
		return nil, eris.Errorf("causal: lag %d unrestricted fit is degenerate", lag)
	}

	f := ((restricted.rss - unrestricted.rss) / float64(lag)) / (unrestricted.rss / float64(dfDenom))
	if f < 0 {
		f = 0
	}

	fDist := distuv.F{D1: float64(lag), D2: float64(dfDenom)}
	fp := 1 - fDist.CDF(f)

	// Large-sample chi-squared analogue of the same restriction.
	chi2 := float64(lag) * f
	chiDist := distuv.ChiSquared{K: float64(lag)}
	chiP := 1 - chiDist.CDF(chi2)

	return &LagTest{
		Lag:         lag,
		FStat:       f,
		FPValue:     fp,
		Chi2Stat:    chi2,
		Chi2PValue:  chiP,
		Significant: fp < SignificanceLevel,
	}, nil
}

// interpret derives the categorical narrative purely from which directions
// have at least one significant lag.
func interpret(aToB, bToA *DirectionResult, labelA, labelB string) string {
	aSig := aToB != nil && aToB.Significant
	bSig := bToA != nil && bToA.Significant
	switch {
	case aSig && bSig:
		return fmt.Sprintf("bidirectional feedback: %s and %s each predict the other", labelA, labelB)
	case aSig:
		return fmt.Sprintf("unidirectional: %s predicts %s", labelA, labelB)
	case bSig:
		return fmt.Sprintf("unidirectional: %s predicts %s", labelB, labelA)
	default:
		return "no significant relationship"
	}
}
