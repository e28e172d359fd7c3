package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	// Zero distance for identical points.
	assert.InDelta(t, 0, Haversine(43.05, -76.15, 43.05, -76.15), 1e-9)

	// One degree of latitude is about 111.2 km on the 6371 km sphere.
	d := Haversine(43.0, -76.0, 44.0, -76.0)
	assert.InDelta(t, 111_195, d, 200)

	// ~15 m pair from the city datasets.
	d = Haversine(43.048, -76.147, 43.0481, -76.1471)
	assert.Less(t, d, 20.0)
	assert.Greater(t, d, 5.0)
}

func TestNewIndex_Empty(t *testing.T) {
	ix := NewIndex(nil, nil)
	assert.Nil(t, ix)

	// A nil index behaves as an index over zero points.
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.CountWithin(43, -76, 100))
	assert.Empty(t, ix.Within(43, -76, 100))

	_, ok := ix.Nearest(43, -76)
	assert.False(t, ok)
}

func TestIndex_SelfMatch(t *testing.T) {
	lats := []float64{43.048, 43.050, 43.100}
	lons := []float64{-76.147, -76.140, -76.000}
	ix := NewIndex(lats, lons)
	require.NotNil(t, ix)
	assert.Equal(t, 3, ix.Len())

	// Every point matches itself for any non-negative radius.
	for i := range lats {
		assert.GreaterOrEqual(t, ix.CountWithin(lats[i], lons[i], 0), 1)
		assert.GreaterOrEqual(t, ix.CountWithin(lats[i], lons[i], 100), 1)
	}
}

func TestIndex_ZeroRadius(t *testing.T) {
	ix := NewIndex([]float64{43.048}, []float64{-76.147})
	require.NotNil(t, ix)

	// A zero radius matches exactly the coincident point and nothing else.
	assert.Equal(t, []int{0}, ix.Within(43.048, -76.147, 0))
	assert.Equal(t, 0, ix.CountWithin(43.0481, -76.1471, 0))
}

func TestIndex_Within100m(t *testing.T) {
	// One reference point ~15 m from the first query point and far from the
	// other two.
	ix := NewIndex([]float64{43.0481}, []float64{-76.1471})
	require.NotNil(t, ix)

	assert.Equal(t, 1, ix.CountWithin(43.048, -76.147, JoinRadiusMeters))
	assert.Equal(t, 0, ix.CountWithin(43.050, -76.140, JoinRadiusMeters))
	assert.Equal(t, 0, ix.CountWithin(43.100, -76.000, JoinRadiusMeters))
}

func TestIndex_WithinReturnsIndices(t *testing.T) {
	lats := []float64{43.0480, 43.0481, 43.9000}
	lons := []float64{-76.1470, -76.1471, -76.9000}
	ix := NewIndex(lats, lons)
	require.NotNil(t, ix)

	hits := ix.Within(43.048, -76.147, JoinRadiusMeters)
	assert.ElementsMatch(t, []int{0, 1}, hits)
}

func TestIndex_Nearest(t *testing.T) {
	lats := []float64{43.048, 43.060, 43.100}
	lons := []float64{-76.147, -76.150, -76.000}
	ix := NewIndex(lats, lons)
	require.NotNil(t, ix)

	idx, ok := ix.Nearest(43.059, -76.151)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	// Unbounded radius: a far-away query still resolves.
	idx, ok = ix.Nearest(44.5, -75.0)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}
