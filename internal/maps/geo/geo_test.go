package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByProximity(t *testing.T) {
	points := []Point{
		{ID: "A", Lat: 0, Lng: 0},
		{ID: "B", Lat: 0.00005, Lng: 0},
		{ID: "C", Lat: 5, Lng: 5},
	}

	groups := GroupByProximity(points, DefaultThreshold)

	require.Len(t, groups, 2)
	require.Len(t, groups[0].Members, 2)
	assert.Equal(t, "A", groups[0].Members[0].ID)
	assert.Equal(t, "B", groups[0].Members[1].ID)
	assert.InDelta(t, 0.000025, groups[0].Lat, 1e-12)
	assert.InDelta(t, 0, groups[0].Lng, 1e-12)
	assert.Equal(t, []Point{{ID: "C", Lat: 5, Lng: 5}}, groups[1].Members)
}

func TestGroupByProximityEmpty(t *testing.T) {
	assert.Empty(t, GroupByProximity(nil, 0))
}

func TestHaversineKm(t *testing.T) {
	ljubljana := Point{Lat: 46.0569, Lng: 14.5058}
	maribor := Point{Lat: 46.5547, Lng: 15.6459}

	assert.InDelta(t, 103, HaversineKm(ljubljana, maribor), 2)
	assert.Zero(t, HaversineKm(ljubljana, ljubljana))
	// one degree of latitude
	assert.InDelta(t, 111.19, HaversineKm(Point{}, Point{Lat: 1}), 0.01)
}

func TestNearest(t *testing.T) {
	points := []Point{
		{ID: "far", Lat: 46.5547, Lng: 15.6459},
		{ID: "near", Lat: 46.06, Lng: 14.51},
	}

	got, km, ok := Nearest(points, Point{Lat: 46.0569, Lng: 14.5058})

	require.True(t, ok)
	assert.Equal(t, "near", got.ID)
	assert.Less(t, km, 1.0)

	_, _, ok = Nearest(nil, Point{})
	assert.False(t, ok)
}
