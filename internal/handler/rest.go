package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/model"
	"github.com/vyrodovalexey/material-ledger/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

const maxBodyBytes = 1 << 20

// RESTHandler handles REST API requests for materials.
type RESTHandler struct {
	store     store.Store
	validator *Validator
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(s store.Store, v *Validator, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		store:     s,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/statuses", h.ListStatuses).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/materials", h.ListMaterials).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/materials", h.CreateMaterial).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/materials/summary", h.GetSummary).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/materials/{id:[0-9]+}", h.GetMaterial).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/materials/{id:[0-9]+}", h.UpdateMaterial).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/api/v1/materials/{id:[0-9]+}", h.DeleteMaterial).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ListStatuses handles GET /api/v1/statuses requests.
func (h *RESTHandler) ListStatuses(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(StatusesResponse{Statuses: model.StatusValues}))
}

// ListMaterials handles GET /api/v1/materials requests.
func (h *RESTHandler) ListMaterials(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(h.store.List()))
}

// GetSummary handles GET /api/v1/materials/summary requests.
func (h *RESTHandler) GetSummary(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(h.store.Summary()))
}

// GetMaterial handles GET /api/v1/materials/{id} requests.
func (h *RESTHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := materialID(r)
	if err != nil {
		h.handleStoreError(w, err, "get material")
		return
	}

	material, ok := h.store.Get(id)
	if !ok {
		h.handleStoreError(w, store.ErrNotFound, "get material")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(material))
}

// CreateMaterial handles POST /api/v1/materials requests.
func (h *RESTHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if !h.decode(w, r, &req) {
		return
	}

	material := h.store.Create(req.input())
	h.logger.Debug("material created",
		zap.Int("id", material.ID),
		zap.String("status", string(material.Status)),
	)

	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(material))
}

// UpdateMaterial handles PUT and PATCH /api/v1/materials/{id} requests.
// Only the fields present in the body change.
func (h *RESTHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := materialID(r)
	if err != nil {
		h.handleStoreError(w, err, "update material")
		return
	}

	var input model.MaterialInput
	if !h.decode(w, r, &input) {
		return
	}

	material, ok := h.store.Update(id, input)
	if !ok {
		h.handleStoreError(w, store.ErrNotFound, "update material")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(material))
}

// DeleteMaterial handles DELETE /api/v1/materials/{id} requests.
func (h *RESTHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := materialID(r)
	if err != nil {
		h.handleStoreError(w, err, "delete material")
		return
	}

	if !h.store.Delete(id) {
		h.handleStoreError(w, store.ErrNotFound, "delete material")
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

// decode reads and validates the JSON body into dest. On failure it writes
// the error response and returns false.
func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if h.validator.Strict() {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dest); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}

	// Strict bodies hold exactly one JSON value.
	if h.validator.Strict() {
		if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			h.logger.Warn("trailing data after request body")
			h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return false
		}
	}

	if err := h.validator.Struct(dest); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.writeError(w, http.StatusBadRequest, verr.Error(), verr.Fields)
		} else {
			h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return false
	}

	return true
}

// materialID parses the {id} route variable.
func materialID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrInvalidID, err)
	}
	return id, nil
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "material not found", nil)
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid material ID", nil)
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string, details map[string]string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
		Details: details,
	}
	h.writeJSON(w, status, response)
}
