package hotspot

import (
	"math"

	"github.com/rotisserie/eris"
)

// LogisticConfig controls gradient-descent training of the grid model.
type LogisticConfig struct {
	LearningRate float64
	Epochs       int
	L2           float64
}

// DefaultLogisticConfig works well for the two-feature grid design matrix.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{LearningRate: 0.1, Epochs: 500, L2: 1e-4}
}

// Logistic is a class-balanced L2-regularized logistic regression. Feature
// columns are standardized at fit time; the scaling is baked into the model
// so prediction takes raw feature rows.
type Logistic struct {
	weights []float64
	bias    float64
	means   []float64
	stds    []float64
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// TrainLogistic fits the model by full-batch gradient descent with
// class-balanced sample weights.
func TrainLogistic(X [][]float64, y []int, cfg LogisticConfig) (*Logistic, error) {
	n := len(X)
	if n == 0 {
		return nil, eris.New("hotspot: empty logistic training set")
	}
	p := len(X[0])
	w, err := classBalancedWeights(y)
	if err != nil {
		return nil, err
	}

	m := &Logistic{
		weights: make([]float64, p),
		means:   make([]float64, p),
		stds:    make([]float64, p),
	}
	for j := 0; j < p; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X[i][j]
		}
		m.means[j] = sum / float64(n)
		varSum := 0.0
		for i := 0; i < n; i++ {
			d := X[i][j] - m.means[j]
			varSum += d * d
		}
		m.stds[j] = math.Sqrt(varSum / float64(n))
		if m.stds[j] == 0 {
			m.stds[j] = 1
		}
	}

	scaled := make([][]float64, n)
	for i := range X {
		row := make([]float64, p)
		for j := 0; j < p; j++ {
			row[j] = (X[i][j] - m.means[j]) / m.stds[j]
		}
		scaled[i] = row
	}

	totalW := 0.0
	for _, wi := range w {
		totalW += wi
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, p)
		gradB := 0.0
		for i := 0; i < n; i++ {
			z := m.bias
			for j := 0; j < p; j++ {
				z += m.weights[j] * scaled[i][j]
			}
			resid := sigmoid(z) - float64(y[i])
			werr := w[i] * resid
			for j := 0; j < p; j++ {
				gradW[j] += werr * scaled[i][j]
			}
			gradB += werr
		}
		for j := 0; j < p; j++ {
			gradW[j] = gradW[j]/totalW + cfg.L2*m.weights[j]
			m.weights[j] -= cfg.LearningRate * gradW[j]
		}
		m.bias -= cfg.LearningRate * gradB / totalW
	}
	return m, nil
}

// PredictProba returns the positive-class probability for a raw feature row.
func (m *Logistic) PredictProba(row []float64) float64 {
	z := m.bias
	for j, wj := range m.weights {
		z += wj * (row[j] - m.means[j]) / m.stds[j]
	}
	return sigmoid(z)
}

// Predict thresholds PredictProba at 0.5.
func (m *Logistic) Predict(row []float64) int {
	if m.PredictProba(row) >= 0.5 {
		return 1
	}
	return 0
}
