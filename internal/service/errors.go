package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eugenetan01/travel-aggregator/internal/client"
)

// Kind classifies an aggregation failure for the caller.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindNotFound
	KindUpstreamUnavailable
	KindBadUpstreamData
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindBadUpstreamData:
		return "bad_upstream_data"
	default:
		return "unknown"
	}
}

// Stage names one step of the aggregation pipeline.
type Stage string

const (
	StageValidate           Stage = "validate_input"
	StageResolveCountry     Stage = "resolve_country"
	StageResolveCoordinates Stage = "resolve_coordinates"
	StageFetchWeather       Stage = "fetch_weather"
)

// Error is returned by every TravelService operation. Err keeps the underlying
// cause so errors.Is works against client sentinels and context errors.
type Error struct {
	Kind  Kind
	Stage Stage
	// Query is the identifier the caller asked for (code, name or capital).
	Query string
	// Suggestions lists directory names to offer on NotFound.
	Suggestions []string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Stage, e.Kind)
	if e.Query != "" {
		fmt.Fprintf(&b, " (%q)", e.Query)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// kindFromClient maps client sentinels onto the service taxonomy. Anything
// unrecognized, including context errors, is treated as unavailability.
func kindFromClient(err error) Kind {
	switch {
	case errors.Is(err, client.ErrNotFound):
		return KindNotFound
	case errors.Is(err, client.ErrMalformedResponse):
		return KindBadUpstreamData
	default:
		return KindUpstreamUnavailable
	}
}

func invalidInput(stage Stage, query string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Stage: stage, Query: query, Err: err}
}
