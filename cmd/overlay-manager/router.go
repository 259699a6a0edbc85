package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alorle/overlay-manager/config"
	"github.com/alorle/overlay-manager/internal/adapter/driven"
	"github.com/alorle/overlay-manager/internal/adapter/driver"
	"github.com/alorle/overlay-manager/internal/application"
	"github.com/alorle/overlay-manager/logging"
	"github.com/alorle/overlay-manager/metrics"
)

// newRouter wires services and handlers over store and returns the root handler.
func newRouter(store *driven.Store, cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	overlayService, err := application.NewOverlayService(store.Repository, logger)
	if err != nil {
		return nil, fmt.Errorf("creating overlay service: %w", err)
	}
	healthService := application.NewHealthService(store.Repository, store.Driver)

	doc, err := driver.LoadOpenAPI()
	if err != nil {
		return nil, err
	}

	overlayHandler := driver.NewRequestValidator(doc)(driver.NewOverlayHTTPHandler(overlayService))

	// Register API routes
	apiMux := http.NewServeMux()
	apiMux.Handle("/overlays", overlayHandler)
	apiMux.Handle("/overlays/", overlayHandler)
	apiMux.Handle("/health", driver.NewHealthHTTPHandler(healthService))
	apiMux.Handle("/test-db", driver.NewStoreCheckHTTPHandler(healthService))
	apiMux.Handle("/openapi.json", driver.NewDocumentationHTTPHandler(doc))

	rootMux := http.NewServeMux()
	rootMux.Handle("/api/", http.StripPrefix("/api", apiMux))
	rootMux.Handle("/metrics", promhttp.Handler())
	rootMux.Handle("/", driver.NewRootHTTPHandler(healthService))

	return logging.AccessLog(logger, metrics.ObserveHTTPRequest, driver.WithCORS(cfg.HTTP.CORSOrigins, rootMux)), nil
}
