package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eugenetan01/travel-aggregator/internal/circuitbreaker"
	"github.com/eugenetan01/travel-aggregator/internal/observability"
)

var (
	// ErrNotFound means the provider answered but has no record for the query.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable covers transport failures, timeouts, non-2xx statuses and an open circuit.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedResponse means a 2xx response that could not be decoded or lacks required fields.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// DefaultTimeout bounds a single upstream call when none is configured.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 4 << 20

// StatusError records a non-2xx, non-404 upstream status.
type StatusError struct {
	Upstream   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Upstream, e.StatusCode)
}

// httpUpstream is the JSON-over-HTTP plumbing shared by every provider client:
// per-call timeout, correlation ID propagation, metrics, status classification
// and an optional circuit breaker.
type httpUpstream struct {
	name    string
	baseURL string
	timeout time.Duration
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

func newHTTPUpstream(name, baseURL string, timeout time.Duration) (httpUpstream, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return httpUpstream{}, fmt.Errorf("%s: invalid base URL: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return httpUpstream{}, fmt.Errorf("%s: invalid base URL %q", name, baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return httpUpstream{
		name:    name,
		baseURL: baseURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker installs cb around every call. Only ErrUpstreamUnavailable
// outcomes should be configured to count as failures.
func (u *httpUpstream) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	u.breaker = cb
}

// Name returns the upstream label used in metrics and logs.
func (u *httpUpstream) Name() string {
	return u.name
}

// IsBreakerFailure reports whether err should count toward opening a breaker.
func IsBreakerFailure(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// getJSON performs one GET against baseURL+path and decodes a 2xx body into out.
func (u *httpUpstream) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	var err error
	if u.breaker != nil {
		err = u.breaker.Call(ctx, func() error {
			return u.doGetJSON(ctx, path, query, out)
		})
		if errors.Is(err, circuitbreaker.ErrOpen) || isContextErr(err) && !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, u.name, err)
		}
	} else {
		err = u.doGetJSON(ctx, path, query, out)
	}
	if err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(u.name, string(CategorizeError(err))).Inc()
	}
	return err
}

func (u *httpUpstream) doGetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	endpoint := u.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(u.name, "error").Inc()
		return fmt.Errorf("%w: %s: build request: %w", ErrUpstreamUnavailable, u.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.UpstreamCallsTotal.WithLabelValues(u.name, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(u.name, "error").Observe(duration)
		if isContextErr(err) {
			return fmt.Errorf("%w: %s request timeout: %w", ErrUpstreamUnavailable, u.name, err)
		}
		return fmt.Errorf("%w: %s http request failed: %w", ErrUpstreamUnavailable, u.name, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(u.name, status).Inc()
	observability.UpstreamDuration.WithLabelValues(u.name, status).Observe(duration)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s returned HTTP 404", ErrNotFound, u.name)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, &StatusError{Upstream: u.name, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %s read response body: %w", ErrUpstreamUnavailable, u.name, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s parse response: %w", ErrMalformedResponse, u.name, err)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusNotFound {
		return "not_found"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
