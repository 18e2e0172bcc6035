package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const japanJSON = `{"cca2":"JP","name":{"common":"Japan"},"capital":["Tokyo"],"region":"Asia","population":125836021,"currencies":{"JPY":{"name":"Japanese yen","symbol":"¥"}},"languages":{"jpn":"Japanese"}}`

func newCountriesTestClient(t *testing.T, h http.HandlerFunc) *RestCountriesClient {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := NewRestCountriesClient(server.URL, 2*time.Second)
	require.NoError(t, err)
	return c
}

func TestNewRestCountriesClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative/path"} {
		c, err := NewRestCountriesClient(u, time.Second)
		assert.Error(t, err, "url %q", u)
		assert.Nil(t, c)
	}
}

func TestGetByCode_Success(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alpha/JP", r.URL.Path)
		assert.Equal(t, countryFields, r.URL.Query().Get("fields"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "["+japanJSON+"]")
	})

	country, err := c.GetByCode(context.Background(), "jp")

	require.NoError(t, err)
	assert.Equal(t, "JP", country.Code)
	assert.Equal(t, "Japan", country.Name)
	assert.Equal(t, "Tokyo", country.Capital)
	assert.Equal(t, "Asia", string(country.Region))
	assert.Equal(t, int64(125836021), country.Population)
	assert.Equal(t, []string{"JPY"}, country.Currencies)
	assert.Equal(t, []string{"Japanese"}, country.Languages)
}

func TestGetByCode_ObjectBody(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, japanJSON)
	})

	country, err := c.GetByCode(context.Background(), "JP")

	require.NoError(t, err)
	assert.Equal(t, "Japan", country.Name)
}

// TestGetByCode_DeterministicOrdering verifies currencies and languages are
// ordered by provider key regardless of map iteration order.
func TestGetByCode_DeterministicOrdering(t *testing.T) {
	body := `[{"cca2":"CH","name":{"common":"Switzerland"},"capital":["Bern"],"region":"Europe","population":8654622,
		"currencies":{"CHF":{"name":"Swiss franc"},"EUR":{"name":"Euro"}},
		"languages":{"roh":"Romansh","fra":"French","gsw":"Swiss German","ita":"Italian"}}]`
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, body)
	})

	for i := 0; i < 5; i++ {
		country, err := c.GetByCode(context.Background(), "CH")
		require.NoError(t, err)
		assert.Equal(t, []string{"CHF", "EUR"}, country.Currencies)
		assert.Equal(t, []string{"French", "Swiss German", "Italian", "Romansh"}, country.Languages)
	}
}

func TestGetByCode_MissingCapitalIsEmpty(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `[{"cca2":"AQ","name":{"common":"Antarctica"},"capital":[],"region":"Antarctic","population":1000}]`)
	})

	country, err := c.GetByCode(context.Background(), "AQ")

	require.NoError(t, err)
	assert.Empty(t, country.Capital)
	assert.NotNil(t, country.Currencies)
	assert.Empty(t, country.Currencies)
}

func TestGetByCode_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"404", http.StatusNotFound, `{"status":404,"message":"Not Found"}`, ErrNotFound},
		{"empty array", http.StatusOK, `[]`, ErrNotFound},
		{"500", http.StatusInternalServerError, ``, ErrUpstreamUnavailable},
		{"503", http.StatusServiceUnavailable, ``, ErrUpstreamUnavailable},
		{"400", http.StatusBadRequest, ``, ErrUpstreamUnavailable},
		{"invalid json", http.StatusOK, `[{"cca2": "JP"`, ErrMalformedResponse},
		{"missing name", http.StatusOK, `[{"cca2":"JP"}]`, ErrMalformedResponse},
		{"unexpected body", http.StatusOK, `"hello"`, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.GetByCode(context.Background(), "JP")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestGetByCode_MismatchedCodeIsMalformed verifies a response that does not
// contain the requested code is rejected instead of returning another country.
func TestGetByCode_MismatchedCodeIsMalformed(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "["+japanJSON+"]")
	})

	country, err := c.GetByCode(context.Background(), "FR")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Empty(t, country.Code)
}

func TestSearchByName_PrefersExactMatch(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/name/Niger", r.URL.Path)
		fmt.Fprintln(w, `[
			{"cca2":"NG","name":{"common":"Nigeria"},"capital":["Abuja"],"region":"Africa","population":206139587},
			{"cca2":"NE","name":{"common":"Niger"},"capital":["Niamey"],"region":"Africa","population":24206636}
		]`)
	})

	country, err := c.SearchByName(context.Background(), " Niger ")

	require.NoError(t, err)
	assert.Equal(t, "NE", country.Code)
}

func TestSearchByName_FirstResultOtherwise(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `[
			{"cca2":"PE","name":{"common":"Peru"},"capital":["Lima"],"region":"Americas","population":32971846},
			{"cca2":"XX","name":{"common":"Other"},"capital":["X"],"region":"Americas","population":1}
		]`)
	})

	country, err := c.SearchByName(context.Background(), "per")

	require.NoError(t, err)
	assert.Equal(t, "PE", country.Code)
}

func TestSearchByName_NotFound(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.SearchByName(context.Background(), "Atlantis")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestGetByCodes_PreservesRequestOrder(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alpha", r.URL.Path)
		assert.Equal(t, "JP,FR,ZZ", r.URL.Query().Get("codes"))
		fmt.Fprintln(w, `[
			{"cca2":"FR","name":{"common":"France"},"capital":["Paris"],"region":"Europe","population":67391582},
			`+japanJSON+`
		]`)
	})

	countries, err := c.GetByCodes(context.Background(), []string{"JP", "FR", "ZZ"})

	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "JP", countries[0].Code)
	assert.Equal(t, "FR", countries[1].Code)
}

func TestGetByCodes_Empty(t *testing.T) {
	c := newCountriesTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty code list")
	})

	countries, err := c.GetByCodes(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, countries)
}
