package maps

import (
	"time"

	"github.com/google/uuid"
)

// LookupRequest represents the query parameters from the frontend.
type LookupRequest struct {
	Query string `form:"q" validate:"required,min=3,max=200"`
}

// PointsRequest filters the map points.
type PointsRequest struct {
	SalespersonID string  `form:"salespersonId" validate:"omitempty,uuid"`
	Status        string  `form:"status" validate:"omitempty,oneof=on_test dirty waiting_driver"`
	Threshold     float64 `form:"threshold" validate:"omitempty,gt=0,lte=1"`
}

// NearestRequest is the origin of a nearest point search.
type NearestRequest struct {
	SalespersonID string   `form:"salespersonId" validate:"omitempty,uuid"`
	Lat           *float64 `form:"lat" validate:"required,latitude"`
	Lng           *float64 `form:"lng" validate:"required,longitude"`
}

// AddressSuggestion is the normalized data returned to the frontend form.
type AddressSuggestion struct {
	Label       string `json:"label"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	ZipCode     string `json:"zipCode"`
	City        string `json:"city"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// CyclePoint is an open cycle with a known location.
type CyclePoint struct {
	CycleID         uuid.UUID  `json:"cycleId"`
	Code            string     `json:"code"`
	Status          string     `json:"status"`
	SalespersonID   uuid.UUID  `json:"salespersonId"`
	SalespersonName *string    `json:"salespersonName,omitempty"`
	CompanyName     *string    `json:"companyName,omitempty"`
	TestStartDate   *time.Time `json:"testStartDate,omitempty"`
	Lat             float64    `json:"lat"`
	Lng             float64    `json:"lng"`
}

// Cluster is one map marker.
type Cluster struct {
	Lat    float64      `json:"lat"`
	Lng    float64      `json:"lng"`
	Count  int          `json:"count"`
	Cycles []CyclePoint `json:"cycles"`
}

// PointsResponse is the clustered map.
type PointsResponse struct {
	Clusters []Cluster `json:"clusters"`
	Total    int       `json:"total"`
}

// NearestResponse is the closest cycle to the origin.
type NearestResponse struct {
	Cycle      CyclePoint `json:"cycle"`
	DistanceKm float64    `json:"distanceKm"`
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
}

// nominatimResponse mirrors the relevant parts of the OSM search payload.
type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}
