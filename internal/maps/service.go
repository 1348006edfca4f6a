package maps

import (
	"context"
	"strings"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/maps/geo"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
)

// Service serves the map view and the address lookup.
type Service struct {
	points    PointReader
	geocoder  *Geocoder
	cache     LookupCache
	threshold float64
	log       *logger.Logger
}

// NewService creates the maps service. A nil cache disables caching.
func NewService(points PointReader, geocoder *Geocoder, cache LookupCache, threshold float64, log *logger.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{points: points, geocoder: geocoder, cache: cache, threshold: threshold, log: log}
}

// SearchAddress answers from the cache when it can. Empty results are not
// cached.
func (s *Service) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	query = strings.TrimSpace(query)
	if cached, ok := s.cache.Get(ctx, query); ok {
		return cached, nil
	}
	results, err := s.geocoder.SearchAddress(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		s.cache.Set(ctx, query, results)
	}
	return results, nil
}

// Points clusters the visible cycles for display.
func (s *Service) Points(ctx context.Context, actor access.Actor, req PointsRequest) (PointsResponse, error) {
	cycles, err := s.load(ctx, actor, req.SalespersonID, req.Status)
	if err != nil {
		return PointsResponse{}, err
	}
	threshold := req.Threshold
	if threshold == 0 {
		threshold = s.threshold
	}

	byID := make(map[string]CyclePoint, len(cycles))
	for _, c := range cycles {
		byID[c.CycleID.String()] = c
	}
	groups := geo.GroupByProximity(toGeo(cycles), threshold)
	clusters := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		members := make([]CyclePoint, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, byID[m.ID])
		}
		clusters = append(clusters, Cluster{Lat: g.Lat, Lng: g.Lng, Count: len(members), Cycles: members})
	}
	return PointsResponse{Clusters: clusters, Total: len(cycles)}, nil
}

// Nearest finds the visible cycle closest to the origin.
func (s *Service) Nearest(ctx context.Context, actor access.Actor, req NearestRequest) (NearestResponse, error) {
	if req.Lat == nil || req.Lng == nil {
		return NearestResponse{}, apperr.Validation("lat and lng are required")
	}
	cycles, err := s.load(ctx, actor, req.SalespersonID, "")
	if err != nil {
		return NearestResponse{}, err
	}
	nearest, km, ok := geo.Nearest(toGeo(cycles), geo.Point{Lat: *req.Lat, Lng: *req.Lng})
	if !ok {
		return NearestResponse{}, apperr.NotFound("no located cycles")
	}
	for _, c := range cycles {
		if c.CycleID.String() == nearest.ID {
			return NearestResponse{Cycle: c, DistanceKm: km}, nil
		}
	}
	return NearestResponse{}, apperr.NotFound("no located cycles")
}

func (s *Service) load(ctx context.Context, actor access.Actor, salespersonID, status string) ([]CyclePoint, error) {
	var requested *uuid.UUID
	if id, err := uuid.Parse(salespersonID); err == nil {
		requested = &id
	}
	var statusFilter *string
	if status != "" {
		statusFilter = &status
	}
	return s.points.CyclePoints(ctx, access.ScopeSalesperson(actor, requested), statusFilter)
}

func toGeo(cycles []CyclePoint) []geo.Point {
	out := make([]geo.Point, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, geo.Point{ID: c.CycleID.String(), Lat: c.Lat, Lng: c.Lng})
	}
	return out
}
