package hotspot

import (
	"math/rand"
	"sort"
)

// StratifiedSplit partitions the dataset into train/test subsets, preserving
// the label proportions in each. The split is deterministic for a given seed.
func StratifiedSplit(ds *Dataset, testFraction float64, seed int64) (train, test *Dataset) {
	rng := rand.New(rand.NewSource(seed))

	byLabel := make(map[int][]int)
	for i, y := range ds.Labels {
		byLabel[y] = append(byLabel[y], i)
	}
	labels := make([]int, 0, len(byLabel))
	for y := range byLabel {
		labels = append(labels, y)
	}
	sort.Ints(labels)

	var trainIdx, testIdx []int
	for _, y := range labels {
		idx := byLabel[y]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx)) * testFraction)
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return ds.subset(trainIdx), ds.subset(testIdx)
}
