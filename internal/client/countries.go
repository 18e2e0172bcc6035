package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/eugenetan01/travel-aggregator/internal/models"
)

// DefaultCountriesURL is the REST Countries v3.1 base.
const DefaultCountriesURL = "https://restcountries.com/v3.1"

// countryFields limits REST Countries responses to the attributes mapped below.
const countryFields = "cca2,name,capital,region,population,currencies,languages"

// CountryClient fetches canonical country records.
type CountryClient interface {
	GetByCode(ctx context.Context, code string) (models.Country, error)
	SearchByName(ctx context.Context, name string) (models.Country, error)
	GetByCodes(ctx context.Context, codes []string) ([]models.Country, error)
}

// RestCountriesClient talks to the REST Countries API.
type RestCountriesClient struct {
	httpUpstream
}

// NewRestCountriesClient returns a client rooted at baseURL (e.g. DefaultCountriesURL).
// timeout bounds each call; DefaultTimeout is used when zero.
func NewRestCountriesClient(baseURL string, timeout time.Duration) (*RestCountriesClient, error) {
	u, err := newHTTPUpstream("countries", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &RestCountriesClient{httpUpstream: u}, nil
}

type restCountry struct {
	CCA2 string `json:"cca2"`
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital    []string `json:"capital"`
	Region     string   `json:"region"`
	Population int64    `json:"population"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	Languages map[string]string `json:"languages"`
}

// GetByCode fetches one country by its ISO 3166-1 alpha-2 code.
func (c *RestCountriesClient) GetByCode(ctx context.Context, code string) (models.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	countries, err := c.fetch(ctx, "/alpha/"+url.PathEscape(code), nil)
	if err != nil {
		return models.Country{}, fmt.Errorf("country %s: %w", code, err)
	}
	for _, rc := range countries {
		if strings.EqualFold(rc.CCA2, code) {
			return mapCountry(rc)
		}
	}
	return models.Country{}, fmt.Errorf("%w: countries: no record with code %s in response", ErrMalformedResponse, code)
}

// SearchByName looks a country up by free-text name. An exact (case-insensitive)
// common-name match among the results wins; otherwise the first result is used.
func (c *RestCountriesClient) SearchByName(ctx context.Context, name string) (models.Country, error) {
	name = strings.TrimSpace(name)
	countries, err := c.fetch(ctx, "/name/"+url.PathEscape(name), nil)
	if err != nil {
		return models.Country{}, fmt.Errorf("search %q: %w", name, err)
	}
	for _, rc := range countries {
		if strings.EqualFold(rc.Name.Common, name) {
			return mapCountry(rc)
		}
	}
	return mapCountry(countries[0])
}

// GetByCodes fetches several countries in one call. Results follow the order of
// codes; codes the provider does not know are omitted.
func (c *RestCountriesClient) GetByCodes(ctx context.Context, codes []string) ([]models.Country, error) {
	if len(codes) == 0 {
		return []models.Country{}, nil
	}
	query := url.Values{}
	query.Set("codes", strings.Join(codes, ","))
	countries, err := c.fetch(ctx, "/alpha", query)
	if err != nil {
		return nil, fmt.Errorf("countries %s: %w", strings.Join(codes, ","), err)
	}

	byCode := make(map[string]restCountry, len(countries))
	for _, rc := range countries {
		byCode[strings.ToUpper(rc.CCA2)] = rc
	}
	out := make([]models.Country, 0, len(codes))
	for _, code := range codes {
		rc, ok := byCode[strings.ToUpper(code)]
		if !ok {
			continue
		}
		country, err := mapCountry(rc)
		if err != nil {
			return nil, err
		}
		out = append(out, country)
	}
	return out, nil
}

// fetch returns at least one record or an error. The provider answers with an
// array for most endpoints and a bare object for single-code lookups with fields.
func (c *RestCountriesClient) fetch(ctx context.Context, path string, query url.Values) ([]restCountry, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("fields", countryFields)

	var raw json.RawMessage
	if err := c.getJSON(ctx, path, query, &raw); err != nil {
		return nil, err
	}

	var countries []restCountry
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &countries); err != nil {
			return nil, fmt.Errorf("%w: countries parse response: %w", ErrMalformedResponse, err)
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var one restCountry
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("%w: countries parse response: %w", ErrMalformedResponse, err)
		}
		countries = []restCountry{one}
	default:
		return nil, fmt.Errorf("%w: countries returned an unexpected body", ErrMalformedResponse)
	}

	if len(countries) == 0 {
		return nil, fmt.Errorf("%w: countries returned no results", ErrNotFound)
	}
	return countries, nil
}

// mapCountry converts the provider record to the domain model. Currencies and
// languages are ordered by their provider keys so identical payloads map identically.
func mapCountry(rc restCountry) (models.Country, error) {
	if rc.CCA2 == "" || rc.Name.Common == "" {
		return models.Country{}, fmt.Errorf("%w: country record missing code or name", ErrMalformedResponse)
	}
	if rc.Population < 0 {
		return models.Country{}, fmt.Errorf("%w: negative population for %s", ErrMalformedResponse, rc.CCA2)
	}

	currencies := make([]string, 0, len(rc.Currencies))
	for code := range rc.Currencies {
		currencies = append(currencies, code)
	}
	sort.Strings(currencies)

	langKeys := make([]string, 0, len(rc.Languages))
	for k := range rc.Languages {
		langKeys = append(langKeys, k)
	}
	sort.Strings(langKeys)
	languages := make([]string, 0, len(langKeys))
	for _, k := range langKeys {
		languages = append(languages, rc.Languages[k])
	}

	capital := ""
	if len(rc.Capital) > 0 {
		capital = strings.TrimSpace(rc.Capital[0])
	}

	return models.Country{
		Code:       strings.ToUpper(rc.CCA2),
		Name:       rc.Name.Common,
		Capital:    capital,
		Region:     models.Region(rc.Region),
		Population: rc.Population,
		Currencies: currencies,
		Languages:  languages,
	}, nil
}
