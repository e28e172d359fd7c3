package causal

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// olsFit is an ordinary least squares fit of y on an intercept plus the
// given predictor columns. It returns the coefficient vector (intercept
// first), the residual sum of squares, and the inverse of X'X for standard
// errors. Rank-deficient designs return an error so callers can skip the
// affected lag instead of aborting the analysis.
type olsFit struct {
	beta   []float64
	rss    float64
	invXtX *mat.Dense
	n      int
	p      int
}

func fitOLS(y []float64, cols ...[]float64) (*olsFit, error) {
	n := len(y)
	p := len(cols) + 1
	if n <= p {
		return nil, eris.Errorf("causal: ols needs more than %d observations, have %d", p, n)
	}

	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j, c := range cols {
			X.Set(i, j+1, c[i])
		}
	}
	yv := mat.NewDense(n, 1, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)
	var betaM mat.Dense
	if err := qr.SolveTo(&betaM, false, yv); err != nil {
		return nil, eris.Wrap(err, "causal: singular regression")
	}

	var fitted mat.Dense
	fitted.Mul(X, &betaM)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.At(i, 0)
		rss += r * r
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, eris.Wrap(err, "causal: singular design matrix")
	}

	beta := make([]float64, p)
	for j := 0; j < p; j++ {
		beta[j] = betaM.At(j, 0)
	}
	return &olsFit{beta: beta, rss: rss, invXtX: &inv, n: n, p: p}, nil
}

// tStat returns the t statistic of coefficient j (0 is the intercept).
func (f *olsFit) tStat(j int) (float64, error) {
	dof := f.n - f.p
	if dof <= 0 {
		return 0, eris.New("causal: no residual degrees of freedom")
	}
	sigma2 := f.rss / float64(dof)
	se := math.Sqrt(sigma2 * f.invXtX.At(j, j))
	if se == 0 || math.IsNaN(se) {
		return 0, eris.New("causal: zero standard error")
	}
	return f.beta[j] / se, nil
}

// diff returns the first differences of x (length len(x)-1).
func diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	d := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		d[i-1] = x[i] - x[i-1]
	}
	return d
}
