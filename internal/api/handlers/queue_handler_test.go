package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

type mockQueue struct {
	items     []models.QueuedItem
	status    models.QueueStatus
	rated     []int64
	gotLimit  int
	returnErr error
}

func (m *mockQueue) NextBatch(_ context.Context, _ string, limit int) ([]models.QueuedItem, error) {
	m.gotLimit = limit

	return m.items, m.returnErr
}

func (m *mockQueue) MarkRated(_ context.Context, _ string, itemID int64) error {
	m.rated = append(m.rated, itemID)

	return m.returnErr
}

func (m *mockQueue) Status(_ context.Context, _ string) (models.QueueStatus, error) {
	return m.status, m.returnErr
}

func TestQueueHandler_Next(t *testing.T) {
	svc := &mockQueue{items: []models.QueuedItem{
		{Record: models.RecommendationRecord{Position: 1}, Item: models.CatalogItem{ID: 78, Title: "Blade Runner"}},
	}}

	h := NewQueueHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/queue/next?user_id=u1&limit=5", nil)
	rec := httptest.NewRecorder()

	h.Next(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.gotLimit)
	assert.Contains(t, rec.Body.String(), "Blade Runner")
}

func TestQueueHandler_Next_ClampsLimit(t *testing.T) {
	svc := &mockQueue{}

	h := NewQueueHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/queue/next?user_id=u1&limit=500", nil)
	rec := httptest.NewRecorder()

	h.Next(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxQueueLimit, svc.gotLimit)
}

func TestQueueHandler_Next_RequiresUserID(t *testing.T) {
	h := NewQueueHandler(&mockQueue{})
	req := httptest.NewRequest(http.MethodGet, "/v1/queue/next", nil)
	rec := httptest.NewRecorder()

	h.Next(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueHandler_Next_EmptyQueueIsEmptyArray(t *testing.T) {
	h := NewQueueHandler(&mockQueue{})
	req := httptest.NewRequest(http.MethodGet, "/v1/queue/next?user_id=u1", nil)
	rec := httptest.NewRecorder()

	h.Next(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestQueueHandler_Status(t *testing.T) {
	svc := &mockQueue{status: models.QueueStatus{Total: 10, Unshown: 4, Shown: 3, Rated: 3, Available: 7}}

	h := NewQueueHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/queue/status?user_id=u1", nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":7`)
}

func TestQueueHandler_MarkRated(t *testing.T) {
	svc := &mockQueue{}

	h := NewQueueHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/queue/rated",
		strings.NewReader(`{"user_id": "u1", "item_id": 78}`))
	rec := httptest.NewRecorder()

	h.MarkRated(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{78}, svc.rated)
}

func TestQueueHandler_MarkRated_Validation(t *testing.T) {
	h := NewQueueHandler(&mockQueue{})
	req := httptest.NewRequest(http.MethodPost, "/v1/queue/rated", strings.NewReader(`{"user_id": "u1"}`))
	rec := httptest.NewRecorder()

	h.MarkRated(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
