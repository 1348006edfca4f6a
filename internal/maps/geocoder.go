package maps

import (
	"context"
	"net/http"
	"strings"
	"time"

	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/go-resty/resty/v2"
)

const (
	nominatimURL     = "https://nominatim.openstreetmap.org"
	nominatimCountry = "si"
	lookupLimit      = "5"

	msgLookupUnavailable = "address lookup service unavailable"
)

// Geocoder searches addresses on Nominatim, restricted to Slovenia.
type Geocoder struct {
	client *resty.Client
	log    *logger.Logger
}

// NewGeocoder creates a geocoder. An empty baseURL uses the public instance.
func NewGeocoder(baseURL string, log *logger.Logger) *Geocoder {
	if baseURL == "" {
		baseURL = nominatimURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Second).
		SetHeader("User-Agent", "PredpraznikBackend/1.0").
		SetHeader("Accept", "application/json")
	return &Geocoder{client: client, log: log}
}

// SearchAddress returns up to five street level suggestions.
func (g *Geocoder) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	var rawResults []nominatimResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":              query,
			"format":         "json",
			"addressdetails": "1",
			"limit":          lookupLimit,
			"countrycodes":   nominatimCountry,
		}).
		SetResult(&rawResults).
		Get("/search")
	if err != nil {
		g.log.Error("nominatim request failed", "error", err)
		return nil, apperr.Wrap(apperr.KindTransient, msgLookupUnavailable, err).WithOp("maps.SearchAddress")
	}
	if resp.StatusCode() != http.StatusOK {
		g.log.Error("nominatim upstream error", "status", resp.StatusCode())
		return nil, apperr.Transient(msgLookupUnavailable).WithOp("maps.SearchAddress")
	}

	suggestions := make([]AddressSuggestion, 0, len(rawResults))
	for _, raw := range rawResults {
		suggestion, ok := buildSuggestion(raw)
		if !ok {
			continue
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}

func buildSuggestion(raw nominatimResponse) (AddressSuggestion, bool) {
	if raw.Address.Road == "" {
		return AddressSuggestion{}, false
	}
	city := pickCity(raw.Address)
	if city == "" {
		return AddressSuggestion{}, false
	}

	suggestion := AddressSuggestion{
		Street:      raw.Address.Road,
		HouseNumber: raw.Address.HouseNumber,
		ZipCode:     raw.Address.Postcode,
		City:        city,
		Lat:         raw.Lat,
		Lon:         raw.Lon,
	}
	suggestion.Label = buildLabel(suggestion)
	return suggestion, true
}

func pickCity(address nominatimAddress) string {
	for _, candidate := range []string{address.City, address.Town, address.Village, address.Municipality, address.Hamlet} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// buildLabel renders "Street 12, 1000 City".
func buildLabel(s AddressSuggestion) string {
	street := strings.TrimSpace(s.Street + " " + s.HouseNumber)
	place := strings.TrimSpace(s.ZipCode + " " + s.City)
	return street + ", " + place
}
