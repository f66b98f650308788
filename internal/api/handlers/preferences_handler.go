package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/karthikc911/cinevibe-sub001/internal/api/response"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// PreferencesService stores, searches and extracts taste preferences.
type PreferencesService interface {
	Store(ctx context.Context, userID string, prefType models.PreferenceType, value string, strength float64) error
	Retrieve(ctx context.Context, userID, query string, k int) ([]models.ScoredPreference, error)
	Analyze(ctx context.Context, userID string) ([]models.PreferenceVector, error)
}

// PreferencesHandler handles HTTP requests for taste preferences.
type PreferencesHandler struct {
	service PreferencesService
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(service PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{service: service}
}

// StorePreferenceRequest is the body for POST /v1/preferences.
type StorePreferenceRequest struct {
	UserID   string                `json:"user_id"`
	Type     models.PreferenceType `json:"type"`
	Value    string                `json:"value"`
	Strength float64               `json:"strength"`
}

// Store handles POST /v1/preferences.
func (h *PreferencesHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req StorePreferenceRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if req.UserID == "" || req.Value == "" {
		response.RespondBadRequest(w, "user_id and value are required")

		return
	}

	if req.Strength < 0 || req.Strength > 1 {
		response.RespondBadRequest(w, "strength must be in [0, 1]")

		return
	}

	if err := h.service.Store(r.Context(), req.UserID, req.Type, req.Value, req.Strength); err != nil {
		response.RespondInternalServerError(w, "failed to store preference")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchPreferencesResponse is the response for GET /v1/preferences/search.
type SearchPreferencesResponse struct {
	Results []models.ScoredPreference `json:"results"`
}

// Search handles GET /v1/preferences/search.
func (h *PreferencesHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	query := r.URL.Query().Get("query")

	if userID == "" || query == "" {
		response.RespondBadRequest(w, "user_id and query are required")

		return
	}

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.RespondBadRequest(w, "k must be a positive integer")

			return
		}

		k = parsed
	}

	results, err := h.service.Retrieve(r.Context(), userID, query, k)
	if err != nil {
		response.RespondInternalServerError(w, "failed to search preferences")

		return
	}

	if results == nil {
		results = []models.ScoredPreference{}
	}

	response.RespondJSON(w, http.StatusOK, SearchPreferencesResponse{Results: results})
}

// AnalyzeRequest is the body for POST /v1/preferences/analyze.
type AnalyzeRequest struct {
	UserID string `json:"user_id"`
}

// AnalyzeResponse is the response for POST /v1/preferences/analyze.
type AnalyzeResponse struct {
	Stored []models.PreferenceVector `json:"stored"`
}

// Analyze handles POST /v1/preferences/analyze.
func (h *PreferencesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if req.UserID == "" {
		response.RespondBadRequest(w, "user_id is required")

		return
	}

	stored, err := h.service.Analyze(r.Context(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, recerrors.ErrNoData):
			response.RespondUnprocessableEntity(w, err.Error())
		case errors.Is(err, recerrors.ErrParseFailure):
			response.RespondBadGateway(w, "preference analysis provider failed, try again later")
		default:
			response.RespondInternalServerError(w, "failed to analyze preferences")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, AnalyzeResponse{Stored: stored})
}
