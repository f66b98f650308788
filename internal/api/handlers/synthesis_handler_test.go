package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

type mockSynthesis struct {
	result models.BatchResult
	err    error
	gotID  string
}

func (m *mockSynthesis) Synthesize(_ context.Context, userID string, _ models.SynthesisFilters) (models.BatchResult, error) {
	m.gotID = userID

	return m.result, m.err
}

func postSynthesize(t *testing.T, svc SynthesisService, body string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewSynthesisHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations/synthesize", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Synthesize(rec, req)

	return rec
}

func TestSynthesisHandler_Success(t *testing.T) {
	svc := &mockSynthesis{result: models.BatchResult{
		BatchID: uuid.New(), TotalRequested: 10, SuccessfullyStored: 9, Failed: 1,
	}}

	rec := postSynthesize(t, svc, `{"user_id": "u1", "filters": {"count": 10}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", svc.gotID)
	assert.Contains(t, rec.Body.String(), `"successfully_stored":9`)
}

func TestSynthesisHandler_MissingUserID(t *testing.T) {
	rec := postSynthesize(t, &mockSynthesis{}, `{"filters": {"count": 5}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSynthesisHandler_InvalidBody(t *testing.T) {
	rec := postSynthesize(t, &mockSynthesis{}, `{"user_id": "u1", "bogus": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSynthesisHandler_InsufficientDataIsUnprocessable(t *testing.T) {
	svc := &mockSynthesis{err: recerrors.NewInsufficientDataError(1, 3)}

	rec := postSynthesize(t, svc, `{"user_id": "u1"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	// The user-correctable message is surfaced verbatim.
	assert.Contains(t, rec.Body.String(), "need at least 3 ratings")
}

func TestSynthesisHandler_ProviderFailuresAreBadGateway(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"retrieval", recerrors.NewRetrievalFailure(errors.New("down"))},
		{"refinement", recerrors.NewRefinementFailure(errors.New("down"))},
		{"parse", recerrors.NewParseFailure("not json", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSynthesize(t, &mockSynthesis{err: tt.err}, `{"user_id": "u1"}`)
			assert.Equal(t, http.StatusBadGateway, rec.Code)
		})
	}
}

func TestSynthesisHandler_UnknownErrorIsInternal(t *testing.T) {
	rec := postSynthesize(t, &mockSynthesis{err: errors.New("db down")}, `{"user_id": "u1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
