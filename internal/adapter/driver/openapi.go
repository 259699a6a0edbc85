package driver

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// LoadOpenAPI parses and validates the embedded OpenAPI document describing
// the overlay routes.
func LoadOpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	// Servers would pin validation to a host; routes are matched on path only.
	doc.Servers = nil
	return doc, nil
}

// NewRequestValidator returns middleware that checks create and update bodies
// against doc before they reach next. Other requests pass straight through so
// the handler can answer them with its own status codes.
func NewRequestValidator(doc *openapi3.T) func(http.Handler) http.Handler {
	validate := nethttpmiddleware.OapiRequestValidatorWithOptions(doc, &nethttpmiddleware.Options{
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			writeError(w, statusCode, message)
		},
	})

	return func(next http.Handler) http.Handler {
		validated := validate(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasOverlayBody(r) {
				validated.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hasOverlayBody reports whether r is a create or update request.
// hasOverlayBody reports whether r is a create or replace request. Paths are
// matched exactly: /overlays/ is not a route.
func hasOverlayBody(r *http.Request) bool {
	path := r.URL.Path
	switch r.Method {
	case http.MethodPost:
		return path == "/overlays"
	case http.MethodPut:
		id, ok := strings.CutPrefix(path, "/overlays/")
		return ok && id != "" && !strings.Contains(id, "/")
	default:
		return false
	}
}

// DocumentationHTTPHandler serves the OpenAPI document as JSON.
type DocumentationHTTPHandler struct {
	doc *openapi3.T
}

// NewDocumentationHTTPHandler creates the handler for GET /openapi.json.
func NewDocumentationHTTPHandler(doc *openapi3.T) *DocumentationHTTPHandler {
	return &DocumentationHTTPHandler{doc: doc}
}

// ServeHTTP handles GET /openapi.json
func (h *DocumentationHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.doc)
}
