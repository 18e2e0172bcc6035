package client

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/eugenetan01/travel-aggregator/internal/models"
)

// DefaultWeatherURL is the Open-Meteo forecast API base.
const DefaultWeatherURL = "https://api.open-meteo.com/v1"

const currentVariables = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"

// WeatherClient returns current conditions at a coordinate pair.
type WeatherClient interface {
	CurrentWeather(ctx context.Context, coords models.Coordinates, location string) (models.Weather, error)
}

// OpenMeteoWeatherClient talks to the Open-Meteo forecast API.
type OpenMeteoWeatherClient struct {
	httpUpstream
}

// NewOpenMeteoWeatherClient returns a client rooted at baseURL (e.g. DefaultWeatherURL).
func NewOpenMeteoWeatherClient(baseURL string, timeout time.Duration) (*OpenMeteoWeatherClient, error) {
	u, err := newHTTPUpstream("weather", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &OpenMeteoWeatherClient{httpUpstream: u}, nil
}

// weatherCodes maps WMO weather interpretation codes to descriptions.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeWeatherCode returns the description for a WMO code, or "Unknown".
func DescribeWeatherCode(code int) string {
	if d, ok := weatherCodes[code]; ok {
		return d
	}
	return "Unknown"
}

type forecastResponse struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
		Humidity    float64  `json:"relative_humidity_2m"`
		WeatherCode int      `json:"weather_code"`
		WindSpeed   float64  `json:"wind_speed_10m"`
	} `json:"current"`
}

// CurrentWeather fetches current conditions at coords and labels them with location.
// Any valid coordinate pair has an answer, so there is no not-found outcome.
func (c *OpenMeteoWeatherClient) CurrentWeather(ctx context.Context, coords models.Coordinates, location string) (models.Weather, error) {
	if !coords.Valid() {
		return models.Weather{}, fmt.Errorf("weather at (%f, %f): %w: coordinates out of range",
			coords.Latitude, coords.Longitude, ErrMalformedResponse)
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("current", currentVariables)
	query.Set("wind_speed_unit", "kmh")

	var resp forecastResponse
	if err := c.getJSON(ctx, "/forecast", query, &resp); err != nil {
		return models.Weather{}, fmt.Errorf("weather for %s: %w", location, err)
	}
	if resp.Current == nil || resp.Current.Temperature == nil {
		return models.Weather{}, fmt.Errorf("weather for %s: %w: missing current conditions", location, ErrMalformedResponse)
	}

	return models.Weather{
		Location:           location,
		TemperatureCelsius: *resp.Current.Temperature,
		Condition:          DescribeWeatherCode(resp.Current.WeatherCode),
		HumidityPercent:    clampPercent(resp.Current.Humidity),
		WindSpeedKmh:       math.Max(0, resp.Current.WindSpeed),
	}, nil
}

func clampPercent(v float64) int {
	p := int(math.Round(v))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
