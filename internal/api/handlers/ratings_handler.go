package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/karthikc911/cinevibe-sub001/internal/api/response"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// RatingStore persists user ratings.
type RatingStore interface {
	Upsert(ctx context.Context, rating models.Rating) error
	ListRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error)
}

// QueueMarker transitions a delivery-queue record to Rated.
type QueueMarker interface {
	MarkRated(ctx context.Context, userID string, itemID int64) error
}

// RatingsHandler handles HTTP requests for ratings.
type RatingsHandler struct {
	store  RatingStore
	queue  QueueMarker
	logger *slog.Logger
}

// NewRatingsHandler creates a new ratings handler. queue may be nil.
func NewRatingsHandler(store RatingStore, queue QueueMarker, logger *slog.Logger) *RatingsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RatingsHandler{store: store, queue: queue, logger: logger}
}

// CreateRatingRequest is the body for POST /v1/ratings.
type CreateRatingRequest struct {
	UserID    string             `json:"user_id"`
	ItemID    int64              `json:"item_id"`
	ItemTitle string             `json:"item_title"`
	ItemYear  int                `json:"item_year"`
	Value     models.RatingValue `json:"value"`
}

// Create handles POST /v1/ratings. Rating an item also moves any queued
// record for it to the terminal Rated state, best effort.
func (h *RatingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRatingRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if req.UserID == "" || req.ItemID == 0 || req.ItemTitle == "" {
		response.RespondBadRequest(w, "user_id, item_id and item_title are required")

		return
	}

	if !validRatingValue(req.Value) {
		response.RespondBadRequest(w, "value must be one of: amazing, good, meh, awful, not-seen, not-interested")

		return
	}

	rating := models.Rating{
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		ItemTitle: req.ItemTitle,
		ItemYear:  req.ItemYear,
		Value:     req.Value,
	}

	if err := h.store.Upsert(r.Context(), rating); err != nil {
		response.RespondInternalServerError(w, "failed to store rating")

		return
	}

	if h.queue != nil {
		if err := h.queue.MarkRated(r.Context(), req.UserID, req.ItemID); err != nil {
			h.logger.Warn("failed to mark queue record rated",
				"user_id", req.UserID, "item_id", req.ItemID, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRatingsResponse is the response for GET /v1/ratings.
type ListRatingsResponse struct {
	Ratings []models.Rating `json:"ratings"`
}

// List handles GET /v1/ratings.
func (h *RatingsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.RespondBadRequest(w, "user_id is required")

		return
	}

	ratings, err := h.store.ListRatings(r.Context(), userID, 0)
	if err != nil {
		response.RespondInternalServerError(w, "failed to list ratings")

		return
	}

	if ratings == nil {
		ratings = []models.Rating{}
	}

	response.RespondJSON(w, http.StatusOK, ListRatingsResponse{Ratings: ratings})
}

func validRatingValue(v models.RatingValue) bool {
	switch v {
	case models.RatingAmazing, models.RatingGood, models.RatingMeh,
		models.RatingAwful, models.RatingNotSeen, models.RatingNotInterested:
		return true
	default:
		return false
	}
}
