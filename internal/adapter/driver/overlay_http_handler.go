package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alorle/overlay-manager/internal/application"
	"github.com/alorle/overlay-manager/internal/overlay"
)

// maxBodyBytes caps the size of create and update request bodies.
const maxBodyBytes = 1 << 20

// requiredFields are the top-level keys every create and update body must carry.
var requiredFields = []string{"name", "type", "content", "position", "size"}

// OverlayHTTPHandler handles HTTP requests for overlay management.
type OverlayHTTPHandler struct {
	service *application.OverlayService
}

// NewOverlayHTTPHandler creates a new HTTP handler for overlays.
func NewOverlayHTTPHandler(service *application.OverlayService) *OverlayHTTPHandler {
	return &OverlayHTTPHandler{service: service}
}

// positionResponse represents an overlay position in JSON format.
type positionResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// sizeResponse represents an overlay size in JSON format.
type sizeResponse struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// overlayResponse represents an overlay in JSON format.
type overlayResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Content   json.RawMessage  `json:"content"`
	Position  positionResponse `json:"position"`
	Size      sizeResponse     `json:"size"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

// ServeHTTP routes the request to the appropriate handler based on method and path.
func (h *OverlayHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/overlays")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			// GET /overlays - list all overlays
			h.handleList(w, r)
		case http.MethodPost:
			// POST /overlays - create a new overlay
			h.handleCreate(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	// The collection has no trailing-slash form, so /overlays/ is not found.
	id, ok := strings.CutPrefix(path, "/")
	if !ok || id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// toOverlayResponse converts an overlay domain object to an API response.
func toOverlayResponse(o overlay.Overlay) overlayResponse {
	pos, size := o.Position(), o.Size()
	return overlayResponse{
		ID:        o.ID().String(),
		Name:      o.Name(),
		Type:      o.Type(),
		Content:   o.Content(),
		Position:  positionResponse{X: pos.X, Y: pos.Y},
		Size:      sizeResponse{Width: size.Width, Height: size.Height},
		CreatedAt: o.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt: o.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

// decodePayload reads a create or update body. The returned message is
// suitable for a 400 response.
func decodePayload(w http.ResponseWriter, r *http.Request) (overlay.Payload, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return overlay.Payload{}, "invalid request body"
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return overlay.Payload{}, "no JSON data provided"
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return overlay.Payload{}, "request body must be a JSON object"
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return overlay.Payload{}, "missing field: " + name
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var p overlay.Payload
	if err := dec.Decode(&p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return overlay.Payload{}, fmt.Sprintf("%s has the wrong type", typeErr.Field)
		}
		return overlay.Payload{}, "invalid request body"
	}
	return p, ""
}

// handleCreate handles POST /overlays
func (h *OverlayHTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, msg := decodePayload(w, r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	o, err := h.service.CreateOverlay(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOverlayResponse(o))
}

// handleList handles GET /overlays
func (h *OverlayHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	overlays, err := h.service.ListOverlays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]overlayResponse, len(overlays))
	for i, o := range overlays {
		response[i] = toOverlayResponse(o)
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGet handles GET /overlays/{id}
func (h *OverlayHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	o, err := h.service.GetOverlay(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverlayResponse(o))
}

// handleUpdate handles PUT /overlays/{id}
func (h *OverlayHTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	p, msg := decodePayload(w, r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	o, err := h.service.UpdateOverlay(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverlayResponse(o))
}

// handleDelete handles DELETE /overlays/{id}
func (h *OverlayHTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := h.service.DeleteOverlay(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, overlay.ErrOverlayNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Overlay deleted successfully"})
}

func (h *OverlayHTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, overlay.ErrOverlayNotFound):
		writeError(w, http.StatusNotFound, overlay.ErrOverlayNotFound.Error())
	case errors.Is(err, overlay.ErrInvalidOverlay):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
