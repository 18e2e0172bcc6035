package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eugenetan01/travel-aggregator/internal/circuitbreaker"
	"github.com/eugenetan01/travel-aggregator/internal/client"
	"github.com/eugenetan01/travel-aggregator/internal/config"
	"github.com/eugenetan01/travel-aggregator/internal/directory"
	httphandler "github.com/eugenetan01/travel-aggregator/internal/http"
	"github.com/eugenetan01/travel-aggregator/internal/lifecycle"
	"github.com/eugenetan01/travel-aggregator/internal/observability"
	"github.com/eugenetan01/travel-aggregator/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// breakerTarget is a provider client that accepts a circuit breaker.
type breakerTarget interface {
	Name() string
	SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker)
}

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	countriesClient, err := client.NewRestCountriesClient(cfg.Countries.URL, cfg.Countries.Timeout)
	if err != nil {
		logger.Fatal("countries client", zap.Error(err))
	}
	geocodingClient, err := client.NewOpenMeteoGeocodingClient(cfg.Geocoding.URL, cfg.Geocoding.Timeout)
	if err != nil {
		logger.Fatal("geocoding client", zap.Error(err))
	}
	weatherClient, err := client.NewOpenMeteoWeatherClient(cfg.Weather.URL, cfg.Weather.Timeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var breakers []httphandler.BreakerStatus
	if cfg.CircuitBreakerEnabled {
		for _, target := range []breakerTarget{countriesClient, geocodingClient, weatherClient} {
			name := target.Name()
			cb := circuitbreaker.New(circuitbreaker.Config{
				FailureThreshold: cfg.CircuitBreakerFailureThreshold,
				SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
				Timeout:          cfg.CircuitBreakerTimeout,
				Component:        name,
				IsFailure:        client.IsBreakerFailure,
				OnStateChange: func(from, to circuitbreaker.State) {
					observability.RecordCircuitBreakerTransition(name, from.String(), to.String())
					observability.SetCircuitBreakerStateGauge(name, float64(to))
					logger.Warn("circuit breaker transition", zap.String("upstream", name), zap.String("from", from.String()), zap.String("to", to.String()))
				},
			})
			target.SetCircuitBreaker(cb)
			observability.SetCircuitBreakerStateGauge(name, 0)
			breakers = append(breakers, cb)
		}
		logger.Info("circuit breakers enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	dir := directory.New()
	if len(cfg.TrackedCountries) > 0 {
		observability.SetTrackedCountries(cfg.TrackedCountries)
	} else {
		observability.SetTrackedCountries(dir.Codes())
	}

	travelService := service.NewTravelService(countriesClient, geocodingClient, weatherClient, dir, service.Options{
		NameMinLen: cfg.NameMinLength,
		NameMaxLen: cfg.NameMaxLength,
	})

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		Breakers:         breakers,
		StartTime:        time.Now(),
		Version:          version,
	}
	handler := httphandler.NewHandler(travelService, healthConfig, logger)
	router := httphandler.NewRouter(handler, logger, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.Duration("request_timeout", cfg.RequestTimeout),
			zap.Int("destinations", len(dir.Codes())))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	if !lifecycle.BeginShutdown() {
		return
	}
	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Duration("drain", lifecycle.DrainDuration()))
}
