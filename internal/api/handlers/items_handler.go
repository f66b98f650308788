package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/karthikc911/cinevibe-sub001/internal/api/response"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// ItemStore reads catalog items.
type ItemStore interface {
	GetByID(ctx context.Context, id int64) (*models.CatalogItem, error)
}

// ItemEnricher lazily backfills optional metadata on read.
type ItemEnricher interface {
	Enrich(ctx context.Context, item *models.CatalogItem) (*models.CatalogItem, error)
}

// ItemsHandler handles HTTP requests for catalog items.
type ItemsHandler struct {
	store    ItemStore
	enricher ItemEnricher
}

// NewItemsHandler creates a new items handler. enricher may be nil.
func NewItemsHandler(store ItemStore, enricher ItemEnricher) *ItemsHandler {
	return &ItemsHandler{store: store, enricher: enricher}
}

// Get handles GET /v1/items/{id}. Reading an item triggers lazy enrichment of
// any missing optional metadata; enrichment failures never fail the read.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondBadRequest(w, "id must be a positive integer")

		return
	}

	item, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, recerrors.ErrNotFound) {
			response.RespondNotFound(w, "catalog item not found")

			return
		}

		response.RespondInternalServerError(w, "failed to fetch catalog item")

		return
	}

	if h.enricher != nil {
		item, _ = h.enricher.Enrich(r.Context(), item)
	}

	response.RespondJSON(w, http.StatusOK, item)
}
