package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/karthikc911/cinevibe-sub001/internal/api/response"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/queue"
)

const maxQueueLimit = 50

// QueueService serves the per-user delivery queue.
type QueueService interface {
	NextBatch(ctx context.Context, userID string, limit int) ([]models.QueuedItem, error)
	MarkRated(ctx context.Context, userID string, itemID int64) error
	Status(ctx context.Context, userID string) (models.QueueStatus, error)
}

// QueueHandler handles HTTP requests for the delivery queue.
type QueueHandler struct {
	service QueueService
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(service QueueService) *QueueHandler {
	return &QueueHandler{service: service}
}

// NextBatchResponse is the response for GET /v1/queue/next.
type NextBatchResponse struct {
	Items []models.QueuedItem `json:"items"`
}

// Next handles GET /v1/queue/next. Returned items are marked shown; a repeat
// call yields the following page.
func (h *QueueHandler) Next(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.RespondBadRequest(w, "user_id is required")

		return
	}

	limit := queue.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.RespondBadRequest(w, "limit must be a positive integer")

			return
		}

		limit = min(parsed, maxQueueLimit)
	}

	items, err := h.service.NextBatch(r.Context(), userID, limit)
	if err != nil {
		response.RespondInternalServerError(w, "failed to fetch queue")

		return
	}

	if items == nil {
		items = []models.QueuedItem{}
	}

	response.RespondJSON(w, http.StatusOK, NextBatchResponse{Items: items})
}

// Status handles GET /v1/queue/status.
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.RespondBadRequest(w, "user_id is required")

		return
	}

	status, err := h.service.Status(r.Context(), userID)
	if err != nil {
		response.RespondInternalServerError(w, "failed to fetch queue status")

		return
	}

	response.RespondJSON(w, http.StatusOK, status)
}

// MarkRatedRequest is the body for POST /v1/queue/rated.
type MarkRatedRequest struct {
	UserID string `json:"user_id"`
	ItemID int64  `json:"item_id"`
}

// MarkRated handles POST /v1/queue/rated. Idempotent.
func (h *QueueHandler) MarkRated(w http.ResponseWriter, r *http.Request) {
	var req MarkRatedRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if req.UserID == "" || req.ItemID == 0 {
		response.RespondBadRequest(w, "user_id and item_id are required")

		return
	}

	if err := h.service.MarkRated(r.Context(), req.UserID, req.ItemID); err != nil {
		response.RespondInternalServerError(w, "failed to mark item rated")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
