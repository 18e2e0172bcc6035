package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenetan01/travel-aggregator/internal/client"
	"github.com/eugenetan01/travel-aggregator/internal/directory"
	"github.com/eugenetan01/travel-aggregator/internal/models"
	"github.com/eugenetan01/travel-aggregator/internal/observability"
	"github.com/eugenetan01/travel-aggregator/internal/tips"
	"github.com/eugenetan01/travel-aggregator/internal/validation"
)

// Tier records which lookup source answered a name resolution.
type Tier string

const (
	TierDirectory  Tier = "directory"
	TierLiveSearch Tier = "live_search"
)

// Resolution is a resolved country together with the tier that produced it.
type Resolution struct {
	Country models.Country
	Via     Tier
}

// Options tunes input validation and NotFound suggestions. Zero values use defaults.
type Options struct {
	NameMinLen      int
	NameMaxLen      int
	SuggestionCount int
}

const (
	defaultNameMinLen      = 1
	defaultNameMaxLen      = 100
	defaultSuggestionCount = 5
)

// TravelService aggregates country data, capital weather and travel tips.
// Each request runs its stages strictly in sequence; the service holds no
// per-request state and is safe for concurrent use.
type TravelService struct {
	countries client.CountryClient
	geocoder  client.GeocodingClient
	weather   client.WeatherClient
	directory *directory.Directory
	opts      Options
}

// NewTravelService wires the three upstream clients and the destination directory.
func NewTravelService(countries client.CountryClient, geocoder client.GeocodingClient, weather client.WeatherClient, dir *directory.Directory, opts Options) *TravelService {
	if opts.NameMinLen <= 0 {
		opts.NameMinLen = defaultNameMinLen
	}
	if opts.NameMaxLen <= 0 {
		opts.NameMaxLen = defaultNameMaxLen
	}
	if opts.SuggestionCount <= 0 {
		opts.SuggestionCount = defaultSuggestionCount
	}
	if dir == nil {
		dir = directory.New()
	}
	return &TravelService{
		countries: countries,
		geocoder:  geocoder,
		weather:   weather,
		directory: dir,
		opts:      opts,
	}
}

// Pipeline values. Each stage takes the previous stage's output, so no stage
// can run without the one before it having succeeded.
type resolvedCountry struct {
	country models.Country
}

type locatedCountry struct {
	resolvedCountry
	coords models.Coordinates
}

type observedCountry struct {
	locatedCountry
	weather models.Weather
}

// SummaryByCode builds a TravelSummary for a two-letter country code.
func (s *TravelService) SummaryByCode(ctx context.Context, code string) (models.TravelSummary, error) {
	normalized, err := validation.ValidateCountryCode(code)
	if err != nil {
		observability.RecordSummary("code", KindInvalidInput.String(), "")
		return models.TravelSummary{}, invalidInput(StageValidate, code, err)
	}
	return s.aggregate(ctx, "code", normalized, func(ctx context.Context) (resolvedCountry, error) {
		c, err := s.countries.GetByCode(ctx, normalized)
		if err != nil {
			return resolvedCountry{}, s.resolveError(normalized, err)
		}
		return resolvedCountry{country: c}, nil
	})
}

// SummaryByName builds a TravelSummary for a free-text country name, resolving
// it against the directory first and the live provider second.
func (s *TravelService) SummaryByName(ctx context.Context, name string) (models.TravelSummary, error) {
	normalized, err := validation.ValidateCountryName(name, s.opts.NameMinLen, s.opts.NameMaxLen)
	if err != nil {
		observability.RecordSummary("name", KindInvalidInput.String(), "")
		return models.TravelSummary{}, invalidInput(StageValidate, name, err)
	}
	return s.aggregate(ctx, "name", normalized, func(ctx context.Context) (resolvedCountry, error) {
		res, err := s.resolveName(ctx, normalized)
		if err != nil {
			return resolvedCountry{}, err
		}
		return resolvedCountry{country: res.Country}, nil
	})
}

// ResolveByName resolves a country name to its full record and reports which
// tier answered. A directory hit is still fetched from the provider so the
// record carries live population, currencies and languages.
func (s *TravelService) ResolveByName(ctx context.Context, name string) (Resolution, error) {
	normalized, err := validation.ValidateCountryName(name, s.opts.NameMinLen, s.opts.NameMaxLen)
	if err != nil {
		return Resolution{}, invalidInput(StageValidate, name, err)
	}
	return s.resolveName(ctx, normalized)
}

func (s *TravelService) resolveName(ctx context.Context, name string) (Resolution, error) {
	logger := observability.LoggerFromContext(ctx)

	if entry, ok := s.directory.FindByName(name); ok {
		logger.Debug("directory hit", zap.String("query", name), zap.String("code", entry.Code))
		c, err := s.countries.GetByCode(ctx, entry.Code)
		if err != nil {
			return Resolution{}, s.resolveError(name, err)
		}
		observability.CountryResolutionsTotal.WithLabelValues(string(TierDirectory)).Inc()
		return Resolution{Country: c, Via: TierDirectory}, nil
	}

	logger.Debug("directory miss, searching provider", zap.String("query", name))
	c, err := s.countries.SearchByName(ctx, name)
	if err != nil {
		return Resolution{}, s.resolveError(name, err)
	}
	observability.CountryResolutionsTotal.WithLabelValues(string(TierLiveSearch)).Inc()
	return Resolution{Country: c, Via: TierLiveSearch}, nil
}

// Destination returns the live country record for code.
func (s *TravelService) Destination(ctx context.Context, code string) (models.Country, error) {
	normalized, err := validation.ValidateCountryCode(code)
	if err != nil {
		return models.Country{}, invalidInput(StageValidate, code, err)
	}
	c, err := s.countries.GetByCode(ctx, normalized)
	if err != nil {
		return models.Country{}, s.resolveError(normalized, err)
	}
	return c, nil
}

// Destinations returns live records for every directory country, in directory
// order. Directory codes are all known to exist, so a provider NotFound here is
// inconsistent data rather than a caller miss.
func (s *TravelService) Destinations(ctx context.Context) ([]models.Country, error) {
	countries, err := s.countries.GetByCodes(ctx, s.directory.Codes())
	if err != nil {
		kind := kindFromClient(err)
		if kind == KindNotFound {
			kind = KindBadUpstreamData
		}
		return nil, &Error{Kind: kind, Stage: StageResolveCountry, Err: err}
	}

	served := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		served[c.Code] = struct{}{}
	}
	for _, e := range s.directory.Entries() {
		if _, ok := served[e.Code]; !ok {
			observability.LoggerFromContext(ctx).Warn("directory country missing from provider listing",
				zap.String("code", e.Code), zap.String("name", e.Name))
		}
	}
	return countries, nil
}

// aggregate runs the pipeline after stage one has been bound to a lookup.
func (s *TravelService) aggregate(ctx context.Context, lookup, query string, resolve func(context.Context) (resolvedCountry, error)) (models.TravelSummary, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx).With(zap.String("lookup", lookup), zap.String("query", query))

	summary, err := s.run(ctx, resolve)
	if err != nil {
		outcome := KindOf(err).String()
		observability.RecordSummary(lookup, outcome, "")
		if KindOf(err) == KindUpstreamUnavailable {
			logger.Warn("travel summary failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		} else {
			logger.Debug("travel summary failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		}
		return models.TravelSummary{}, err
	}

	observability.RecordSummary(lookup, "success", summary.Code)
	logger.Debug("travel summary served", zap.String("code", summary.Code), zap.Duration("duration", time.Since(start)))
	return summary, nil
}

func (s *TravelService) run(ctx context.Context, resolve func(context.Context) (resolvedCountry, error)) (models.TravelSummary, error) {
	if err := checkContext(ctx, StageResolveCountry); err != nil {
		return models.TravelSummary{}, err
	}
	resolved, err := resolve(ctx)
	if err != nil {
		return models.TravelSummary{}, err
	}
	located, err := s.locate(ctx, resolved)
	if err != nil {
		return models.TravelSummary{}, err
	}
	observed, err := s.observe(ctx, located)
	if err != nil {
		return models.TravelSummary{}, err
	}
	return synthesize(observed), nil
}

func (s *TravelService) locate(ctx context.Context, in resolvedCountry) (locatedCountry, error) {
	if err := checkContext(ctx, StageResolveCoordinates); err != nil {
		return locatedCountry{}, err
	}
	capital := in.country.Capital
	if capital == "" {
		return locatedCountry{}, &Error{
			Kind:  KindBadUpstreamData,
			Stage: StageResolveCoordinates,
			Query: in.country.Code,
			Err:   fmt.Errorf("country %s has no capital", in.country.Code),
		}
	}
	coords, err := s.geocoder.ResolveCapital(ctx, capital)
	if err != nil {
		return locatedCountry{}, &Error{Kind: kindFromClient(err), Stage: StageResolveCoordinates, Query: capital, Err: err}
	}
	return locatedCountry{resolvedCountry: in, coords: coords}, nil
}

func (s *TravelService) observe(ctx context.Context, in locatedCountry) (observedCountry, error) {
	if err := checkContext(ctx, StageFetchWeather); err != nil {
		return observedCountry{}, err
	}
	w, err := s.weather.CurrentWeather(ctx, in.coords, in.country.Capital)
	if err != nil {
		return observedCountry{}, &Error{Kind: kindFromClient(err), Stage: StageFetchWeather, Query: in.country.Capital, Err: err}
	}
	return observedCountry{locatedCountry: in, weather: w}, nil
}

func synthesize(in observedCountry) models.TravelSummary {
	c := in.country
	return models.TravelSummary{
		Country:         c,
		CurrentWeather:  in.weather,
		TravelTips:      tips.Generate(in.weather, c.Region),
		BestTimeToVisit: tips.BestTimeToVisit(c.Code, c.Region),
	}
}

// resolveError maps a stage-one client error, attaching suggestions on NotFound.
func (s *TravelService) resolveError(query string, err error) *Error {
	e := &Error{Kind: kindFromClient(err), Stage: StageResolveCountry, Query: query, Err: err}
	if e.Kind == KindNotFound {
		e.Suggestions = s.directory.Names(s.opts.SuggestionCount)
	}
	return e
}

func checkContext(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindUpstreamUnavailable, Stage: stage, Err: err}
	}
	return nil
}
