package hotspot

import (
	"math"
	"math/rand"
)

// treeNode is one node of a binary classification tree. Leaves carry the
// weighted positive-class share of their training rows.
type treeNode struct {
	leaf      bool
	proba     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	featuresPer int
}

type decisionTree struct {
	root        *treeNode
	importances []float64
}

// trainTree grows a gini-impurity tree on the rows in idx with per-row
// weights w, sampling featuresPer candidate features at each split.
// Impurity-decrease importances accumulate into t.importances.
func trainTree(ds *Dataset, idx []int, w []float64, cfg treeConfig, rng *rand.Rand) *decisionTree {
	t := &decisionTree{importances: make([]float64, len(ds.Names))}
	t.root = t.grow(ds, idx, w, cfg, rng, 0)
	return t
}

func weightedShare(ds *Dataset, idx []int, w []float64) (pos, total float64) {
	for _, i := range idx {
		total += w[i]
		if ds.Labels[i] == 1 {
			pos += w[i]
		}
	}
	return pos, total
}

// gini is the binary Gini impurity for a weighted positive share.
func gini(pos, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := pos / total
	return 2 * p * (1 - p)
}

func (t *decisionTree) grow(ds *Dataset, idx []int, w []float64, cfg treeConfig, rng *rand.Rand, depth int) *treeNode {
	pos, total := weightedShare(ds, idx, w)
	node := &treeNode{leaf: true}
	if total > 0 {
		node.proba = pos / total
	}

	if depth >= cfg.maxDepth || len(idx) < 2*cfg.minLeaf || pos == 0 || pos == total {
		return node
	}

	feature, threshold, decrease, ok := t.bestSplit(ds, idx, w, cfg, rng, pos, total)
	if !ok {
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if ds.Features[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < cfg.minLeaf || len(rightIdx) < cfg.minLeaf {
		return node
	}

	t.importances[feature] += decrease
	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = t.grow(ds, leftIdx, w, cfg, rng, depth+1)
	node.right = t.grow(ds, rightIdx, w, cfg, rng, depth+1)
	return node
}

// bestSplit scans a random feature subset for the threshold with the largest
// weighted impurity decrease. Each candidate feature is sorted once and
// scanned with running weight sums.
func (t *decisionTree) bestSplit(ds *Dataset, idx []int, w []float64, cfg treeConfig, rng *rand.Rand, pos, total float64) (feature int, threshold, decrease float64, ok bool) {
	parentImpurity := gini(pos, total)
	if parentImpurity == 0 {
		return 0, 0, 0, false
	}

	nFeatures := len(ds.Names)
	candidates := rng.Perm(nFeatures)[:cfg.featuresPer]

	best := -1.0

	for _, f := range candidates {
		pts := make([]splitPoint, 0, len(idx))
		for _, i := range idx {
			p := splitPoint{value: ds.Features[i][f], weight: w[i]}
			if ds.Labels[i] == 1 {
				p.posW = w[i]
			}
			pts = append(pts, p)
		}
		sortPoints(pts)

		leftW, leftPos := 0.0, 0.0
		for i := 0; i < len(pts)-1; i++ {
			leftW += pts[i].weight
			leftPos += pts[i].posW
			if pts[i].value == pts[i+1].value {
				continue
			}
			rightW := total - leftW
			rightPos := pos - leftPos
			child := (leftW*gini(leftPos, leftW) + rightW*gini(rightPos, rightW)) / total
			dec := total * (parentImpurity - child)
			if dec > best {
				best = dec
				feature = f
				threshold = (pts[i].value + pts[i+1].value) / 2
			}
		}
	}
	if best <= 0 {
		return 0, 0, 0, false
	}
	return feature, threshold, best, true
}

type splitPoint struct {
	value  float64
	weight float64
	posW   float64
}

func sortPoints(pts []splitPoint) {
	// Insertion sort keeps allocations out of the hot split loop; candidate
	// slices are small at typical tree depths.
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0 && pts[j].value < pts[j-1].value; j-- {
			pts[j], pts[j-1] = pts[j-1], pts[j]
		}
	}
}

// predictProba walks the tree to the leaf share for one feature row.
func (t *decisionTree) predictProba(row []float64) float64 {
	node := t.root
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.proba
}

func featuresPerSplit(n int) int {
	f := int(math.Sqrt(float64(n)))
	if f < 1 {
		f = 1
	}
	return f
}
