package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/karthikc911/cinevibe-sub001/internal/api/response"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// SynthesisService runs one recommendation synthesis for a user.
type SynthesisService interface {
	Synthesize(ctx context.Context, userID string, filters models.SynthesisFilters) (models.BatchResult, error)
}

// SynthesisHandler handles HTTP requests for recommendation synthesis.
type SynthesisHandler struct {
	service SynthesisService
}

// NewSynthesisHandler creates a new synthesis handler.
func NewSynthesisHandler(service SynthesisService) *SynthesisHandler {
	return &SynthesisHandler{service: service}
}

// SynthesizeRequest is the body for POST /v1/recommendations/synthesize.
type SynthesizeRequest struct {
	UserID  string                  `json:"user_id"`
	Filters models.SynthesisFilters `json:"filters"`
}

// Synthesize handles POST /v1/recommendations/synthesize.
func (h *SynthesisHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest

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

	result, err := h.service.Synthesize(r.Context(), req.UserID, req.Filters)
	if err != nil {
		respondSynthesisError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// respondSynthesisError maps pipeline errors onto HTTP statuses. The
// insufficient-data message is user-correctable and surfaced verbatim.
func respondSynthesisError(w http.ResponseWriter, err error) {
	var insufficient *recerrors.InsufficientDataError
	if errors.As(err, &insufficient) {
		response.RespondUnprocessableEntity(w, insufficient.Error())

		return
	}

	switch {
	case errors.Is(err, recerrors.ErrRetrievalFailure),
		errors.Is(err, recerrors.ErrRefinementFailure),
		errors.Is(err, recerrors.ErrParseFailure):
		response.RespondBadGateway(w, "recommendation provider failed, try again later")
	default:
		response.RespondInternalServerError(w, "failed to generate recommendations")
	}
}
