package hotspot

import (
	"math/rand"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// ForestConfig controls random forest training.
type ForestConfig struct {
	NumTrees int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// DefaultForestConfig mirrors the settings the severity analysis was tuned
// with.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{NumTrees: 100, MaxDepth: 10, MinLeaf: 5, Seed: 42}
}

// Forest is a trained class-balanced random forest.
type Forest struct {
	trees       []*decisionTree
	featureDim  int
	importances []float64
}

// classBalancedWeights gives each class total weight n/2 so minority labels
// are not drowned out. Returns an error when only one class is present.
func classBalancedWeights(labels []int) ([]float64, error) {
	n := len(labels)
	nPos := 0
	for _, y := range labels {
		if y == 1 {
			nPos++
		}
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return nil, eris.New("hotspot: training labels contain a single class")
	}

	wPos := float64(n) / (2 * float64(nPos))
	wNeg := float64(n) / (2 * float64(nNeg))
	w := make([]float64, n)
	for i, y := range labels {
		if y == 1 {
			w[i] = wPos
		} else {
			w[i] = wNeg
		}
	}
	return w, nil
}

// TrainForest fits cfg.NumTrees trees on bootstrap samples of the dataset,
// training them in parallel. Each tree owns a seed derived from cfg.Seed so
// results are reproducible regardless of scheduling.
func TrainForest(ds *Dataset, cfg ForestConfig) (*Forest, error) {
	n := ds.Len()
	if n < 2*cfg.MinLeaf {
		return nil, eris.Errorf("hotspot: %d rows is too few to train a forest", n)
	}
	w, err := classBalancedWeights(ds.Labels)
	if err != nil {
		return nil, err
	}

	tcfg := treeConfig{
		maxDepth:    cfg.MaxDepth,
		minLeaf:     cfg.MinLeaf,
		featuresPer: featuresPerSplit(len(ds.Names)),
	}

	f := &Forest{
		trees:      make([]*decisionTree, cfg.NumTrees),
		featureDim: len(ds.Names),
	}

	var g errgroup.Group
	var mu sync.Mutex
	total := make([]float64, len(ds.Names))

	for t := 0; t < cfg.NumTrees; t++ {
		t := t
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
			}

			tree := trainTree(ds, idx, w, tcfg, rng)
			f.trees[t] = tree

			mu.Lock()
			for j, v := range tree.importances {
				total[j] += v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := 0.0
	for _, v := range total {
		sum += v
	}
	if sum > 0 {
		for j := range total {
			total[j] /= sum
		}
	}
	f.importances = total
	return f, nil
}

// PredictProba averages the leaf positive-class shares across trees.
func (f *Forest) PredictProba(row []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predictProba(row)
	}
	return sum / float64(len(f.trees))
}

// Predict thresholds the averaged probability at 0.5.
func (f *Forest) Predict(row []float64) int {
	if f.PredictProba(row) >= 0.5 {
		return 1
	}
	return 0
}

// Importances returns the normalized impurity-decrease importance per
// feature column.
func (f *Forest) Importances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}
