package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eugenetan01/travel-aggregator/internal/client"
	"github.com/eugenetan01/travel-aggregator/internal/directory"
	"github.com/eugenetan01/travel-aggregator/internal/models"
	"github.com/eugenetan01/travel-aggregator/internal/service"
)

const franceJSON = `[{"cca2":"FR","name":{"common":"France"},"capital":["Paris"],"region":"Europe","population":67391582,"currencies":{"EUR":{"name":"Euro"}},"languages":{"fra":"French"}}]`

// upstreams fakes the three providers. geocodeBody overrides the geocoding answer.
type upstreams struct {
	countries *httptest.Server
	geocoding *httptest.Server
	weather   *httptest.Server
}

func newUpstreams(t *testing.T, geocodeBody string) *upstreams {
	t.Helper()
	u := &upstreams{
		countries: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/alpha/FR" {
				fmt.Fprint(w, franceJSON)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		})),
		geocoding: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, geocodeBody)
		})),
		weather: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"current":{"temperature_2m":28,"relative_humidity_2m":81,"weather_code":63,"wind_speed_10m":45}}`)
		})),
	}
	t.Cleanup(func() {
		u.countries.Close()
		u.geocoding.Close()
		u.weather.Close()
	})
	return u
}

func newStackRouter(t *testing.T, u *upstreams) http.Handler {
	t.Helper()
	countries, err := client.NewRestCountriesClient(u.countries.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	geocoder, err := client.NewOpenMeteoGeocodingClient(u.geocoding.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	weather, err := client.NewOpenMeteoWeatherClient(u.weather.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	svc := service.NewTravelService(countries, geocoder, weather, directory.New(), service.Options{})
	return NewRouter(NewHandler(svc, nil, zap.NewNop()), zap.NewNop(), 5*time.Second)
}

// TestStack_TravelSummaryByName runs a name lookup through real clients against
// fake providers and checks the assembled summary.
func TestStack_TravelSummaryByName(t *testing.T) {
	u := newUpstreams(t, `{"results":[{"latitude":48.85341,"longitude":2.3488}]}`)
	router := newStackRouter(t, u)

	req := httptest.NewRequest(http.MethodPost, "/travel-summary-by-name", strings.NewReader(`{"country_name":"  FRANCE "}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	var got models.TravelSummary
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "FR" || got.Capital != "Paris" {
		t.Errorf("country = %s/%s, want FR/Paris", got.Code, got.Capital)
	}
	if got.CurrentWeather.Condition != "Moderate rain" || got.CurrentWeather.Location != "Paris" {
		t.Errorf("weather = %+v", got.CurrentWeather)
	}
	want := []string{
		"It's warm - pack breathable clothing",
		"Use sunscreen and wear a hat during the day",
		"Consider getting a travel adapter for EU plugs",
		"Bring an umbrella or rain jacket",
	}
	if strings.Join(got.TravelTips, "|") != strings.Join(want, "|") {
		t.Errorf("tips = %q, want %q", got.TravelTips, want)
	}
	if got.BestTimeToVisit != "April-June or September-October for mild weather" {
		t.Errorf("best_time_to_visit = %q", got.BestTimeToVisit)
	}
}

func TestStack_GeocodingNotFound(t *testing.T) {
	u := newUpstreams(t, `{"generationtime_ms":0.3}`)
	router := newStackRouter(t, u)

	req := httptest.NewRequest(http.MethodPost, "/travel-summary", strings.NewReader(`{"country_code":"FR"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Paris") {
		t.Errorf("body should name the capital: %s", w.Body.String())
	}
}

func TestStack_UnknownNameSuggestsDestinations(t *testing.T) {
	u := newUpstreams(t, `{}`)
	router := newStackRouter(t, u)

	req := httptest.NewRequest(http.MethodGet, "/destinations/search?country=Atlantis", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeError(t, w)
	want := "Country 'Atlantis' not found. Try: Japan, France, Italy, Spain, Thailand..."
	if body.Error.Message != want {
		t.Errorf("message = %q, want %q", body.Error.Message, want)
	}
}

func TestStack_UpstreamDown(t *testing.T) {
	u := newUpstreams(t, `{}`)
	router := newStackRouter(t, u)
	u.countries.Close()

	req := httptest.NewRequest(http.MethodGet, "/destinations/FR", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if got := decodeError(t, w).Error.Code; got != "UPSTREAM_UNAVAILABLE" {
		t.Errorf("code = %q, want UPSTREAM_UNAVAILABLE", got)
	}
}
