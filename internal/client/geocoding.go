package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eugenetan01/travel-aggregator/internal/models"
)

// DefaultGeocodingURL is the Open-Meteo geocoding API base.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

// GeocodingClient resolves a city name to coordinates.
type GeocodingClient interface {
	ResolveCapital(ctx context.Context, city string) (models.Coordinates, error)
}

// OpenMeteoGeocodingClient talks to the Open-Meteo geocoding API.
type OpenMeteoGeocodingClient struct {
	httpUpstream
}

// NewOpenMeteoGeocodingClient returns a client rooted at baseURL (e.g. DefaultGeocodingURL).
func NewOpenMeteoGeocodingClient(baseURL string, timeout time.Duration) (*OpenMeteoGeocodingClient, error) {
	u, err := newHTTPUpstream("geocoding", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &OpenMeteoGeocodingClient{httpUpstream: u}, nil
}

type geocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
	} `json:"results"`
}

// ResolveCapital returns the coordinates of the first match for city.
// A search with no match is ErrNotFound; small capitals often produce one.
func (c *OpenMeteoGeocodingClient) ResolveCapital(ctx context.Context, city string) (models.Coordinates, error) {
	city = strings.TrimSpace(city)
	query := url.Values{}
	query.Set("name", city)
	query.Set("count", "1")
	query.Set("format", "json")

	var resp geocodingResponse
	if err := c.getJSON(ctx, "/search", query, &resp); err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(resp.Results) == 0 {
		return models.Coordinates{}, fmt.Errorf("geocode %q: %w: no geocoding match", city, ErrNotFound)
	}

	coords := models.Coordinates{
		Latitude:  resp.Results[0].Latitude,
		Longitude: resp.Results[0].Longitude,
	}
	if !coords.Valid() {
		return models.Coordinates{}, fmt.Errorf("geocode %q: %w: coordinates out of range (%f, %f)",
			city, ErrMalformedResponse, coords.Latitude, coords.Longitude)
	}
	return coords, nil
}
