package driver

import (
	"net/http"

	"github.com/alorle/overlay-manager/internal/application"
)

// HealthHTTPHandler handles HTTP requests for health checks.
type HealthHTTPHandler struct {
	service *application.HealthService
}

// NewHealthHTTPHandler creates a new HTTP handler for health checks.
func NewHealthHTTPHandler(service *application.HealthService) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service}
}

// healthResponse represents the JSON response for health check endpoint.
type healthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// ServeHTTP handles GET /health
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := h.service.Check(r.Context())

	if status.Status != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "unhealthy",
			Message:  "Server is running",
			Database: "disconnected",
			Error:    status.Store.Error,
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "healthy",
		Message:  "Server is running",
		Database: "connected",
	})
}

// StoreCheckHTTPHandler handles GET /test-db, a store round trip that also
// reports how many overlays are stored.
type StoreCheckHTTPHandler struct {
	service *application.HealthService
}

// NewStoreCheckHTTPHandler creates a new HTTP handler for the store check.
func NewStoreCheckHTTPHandler(service *application.HealthService) *StoreCheckHTTPHandler {
	return &StoreCheckHTTPHandler{service: service}
}

// storeCheckResponse represents the JSON response for the store check endpoint.
type storeCheckResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	OverlaysCount *int   `json:"overlays_count,omitempty"`
	Database      string `json:"database,omitempty"`
}

// ServeHTTP handles GET /test-db
func (h *StoreCheckHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.service.StoreStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, storeCheckResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, storeCheckResponse{
		Status:        "success",
		Message:       "Database connection successful",
		OverlaysCount: &stats.Overlays,
		Database:      stats.Driver,
	})
}

// RootHTTPHandler answers GET / with a banner once the store is reachable.
type RootHTTPHandler struct {
	service *application.HealthService
}

// NewRootHTTPHandler creates the banner handler.
func NewRootHTTPHandler(service *application.HealthService) *RootHTTPHandler {
	return &RootHTTPHandler{service: service}
}

// bannerResponse represents the JSON response for the root endpoint.
type bannerResponse struct {
	Message  string `json:"message"`
	Database string `json:"database"`
}

// ServeHTTP handles GET /
func (h *RootHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if status := h.service.Check(r.Context()); status.Status != "ok" {
		writeError(w, http.StatusInternalServerError, "Database connection failed")
		return
	}

	writeJSON(w, http.StatusOK, bannerResponse{
		Message:  "Livestream API is running!",
		Database: "connected",
	})
}
