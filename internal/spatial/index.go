// Package spatial provides radius and nearest-neighbor queries over point
// sets using an R-tree, plus the derived per-event proximity attributes the
// analysis pipeline attaches to crime events.
package spatial

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

const (
	// EarthRadiusMeters is the spherical Earth model radius shared by every
	// distance computation in the pipeline.
	EarthRadiusMeters = 6_371_000

	// JoinRadiusMeters is the fixed proximity radius for all spatial joins.
	JoinRadiusMeters = 100

	rectTolerance = 1e-6
	minChildren   = 25
	maxChildren   = 50
	dimensions    = 2
)

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	lat1r := lat1 * degToRad
	lat2r := lat2 * degToRad
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// refItem wraps a reference point with its position in the original slice so
// query results can be mapped back to record attributes.
type refItem struct {
	idx  int
	lat  float64
	lon  float64
	rect *rtreego.Rect
}

func (r *refItem) Bounds() *rtreego.Rect { return r.rect }

// Index is an immutable R-tree over a reference point set. A nil *Index is
// valid and behaves as an index over zero points, so callers never build a
// tree for an empty reference set.
type Index struct {
	tree *rtreego.Rtree
	n    int
}

// NewIndex builds an index over the given points. Returns nil when the point
// set is empty.
func NewIndex(lats, lons []float64) *Index {
	if len(lats) == 0 || len(lats) != len(lons) {
		return nil
	}
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for i := range lats {
		p := rtreego.Point{lats[i], lons[i]}
		tree.Insert(&refItem{idx: i, lat: lats[i], lon: lons[i], rect: p.ToRect(rectTolerance)})
	}
	return &Index{tree: tree, n: len(lats)}
}

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.n
}

// Within returns the indices of all reference points within radiusMeters of
// the query point. The candidate set comes from a degree-space bounding box
// sized to cover the radius circle; exact membership is decided by haversine
// distance.
func (ix *Index) Within(lat, lon, radiusMeters float64) []int {
	if ix == nil {
		return nil
	}

	latDeg := radiusMeters / EarthRadiusMeters * 180 / math.Pi
	lonDeg := latDeg / math.Max(math.Cos(lat*math.Pi/180), 0.01)

	// Side lengths are clamped so a zero radius still yields a valid
	// point-sized box; the haversine filter admits distance-0 self matches.
	bounds, err := rtreego.NewRect(
		rtreego.Point{lat - latDeg, lon - lonDeg},
		[]float64{math.Max(2*latDeg, rectTolerance), math.Max(2*lonDeg, rectTolerance)},
	)
	if err != nil {
		return nil
	}

	var hits []int
	for _, raw := range ix.tree.SearchIntersect(bounds) {
		item := raw.(*refItem)
		if Haversine(lat, lon, item.lat, item.lon) <= radiusMeters {
			hits = append(hits, item.idx)
		}
	}
	return hits
}

// CountWithin returns the number of reference points within radiusMeters of
// the query point.
func (ix *Index) CountWithin(lat, lon, radiusMeters float64) int {
	return len(ix.Within(lat, lon, radiusMeters))
}

// Nearest returns the index of the single nearest reference point with no
// radius bound. ok is false only for an empty index.
//
// The R-tree ranks neighbors by Euclidean distance in degree space, which
// under-weights longitude away from the equator, so a small candidate set is
// re-ranked by haversine distance before picking the winner.
func (ix *Index) Nearest(lat, lon float64) (idx int, ok bool) {
	if ix == nil || ix.n == 0 {
		return 0, false
	}

	k := 8
	if ix.n < k {
		k = ix.n
	}
	results := ix.tree.NearestNeighbors(k, rtreego.Point{lat, lon})

	best := -1
	bestDist := math.Inf(1)
	for _, raw := range results {
		if raw == nil {
			continue
		}
		item := raw.(*refItem)
		if d := Haversine(lat, lon, item.lat, item.lon); d < bestDist {
			best = item.idx
			bestDist = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
