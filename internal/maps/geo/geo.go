// Package geo holds the two distance notions used by the map view. Grouping
// works on raw degree distance and is only fit for display; distances shown
// to users are great-circle kilometres. Keep them apart.
package geo

import "math"

// DefaultThreshold is roughly 11 metres in degrees.
const DefaultThreshold = 0.0001

const earthRadiusKm = 6371.0

// Point is a located item.
type Point struct {
	ID  string
	Lat float64
	Lng float64
}

// Group is a set of points close enough to draw as one marker.
type Group struct {
	Lat     float64
	Lng     float64
	Members []Point
}

// GroupByProximity is a single greedy pass: every ungrouped point collects
// the ungrouped points within threshold of itself, then the group centre is
// the mean of its members. The result depends on input order.
func GroupByProximity(points []Point, threshold float64) []Group {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	grouped := make([]bool, len(points))
	out := make([]Group, 0)
	for i, seed := range points {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		members := []Point{seed}
		for j := i + 1; j < len(points); j++ {
			if grouped[j] {
				continue
			}
			if degreeDistance(seed, points[j]) <= threshold {
				grouped[j] = true
				members = append(members, points[j])
			}
		}
		out = append(out, centroid(members))
	}
	return out
}

func degreeDistance(a, b Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

func centroid(members []Point) Group {
	var lat, lng float64
	for _, m := range members {
		lat += m.Lat
		lng += m.Lng
	}
	n := float64(len(members))
	return Group{Lat: lat / n, Lng: lng / n, Members: members}
}

// HaversineKm is the great-circle distance in kilometres.
func HaversineKm(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Nearest returns the point closest to origin and its distance in km. ok is
// false for an empty slice.
func Nearest(points []Point, origin Point) (nearest Point, km float64, ok bool) {
	km = math.Inf(1)
	for _, p := range points {
		if d := HaversineKm(origin, p); d < km {
			nearest, km, ok = p, d, true
		}
	}
	if !ok {
		return Point{}, 0, false
	}
	return nearest, km, true
}
