package preferences

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikc911/cinevibe-sub001/internal/embeddings"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

type mockStore struct {
	upserts    []models.PreferenceVector
	upsertErr  error
	nearest    []models.ScoredPreference
	nearestErr error
	listed     []models.PreferenceVector
	listErr    error
}

func (m *mockStore) Upsert(_ context.Context, userID string, prefType models.PreferenceType, value string, strength float64, embedding []float32) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}

	if len(embedding) == 0 {
		return errors.New("empty embedding reached store")
	}

	m.upserts = append(m.upserts, models.PreferenceVector{
		UserID: userID, Type: prefType, Value: value, Strength: strength,
	})

	return nil
}

func (m *mockStore) NearestByEmbedding(_ context.Context, _ string, _ []float32, k int) ([]models.ScoredPreference, error) {
	if m.nearestErr != nil {
		return nil, m.nearestErr
	}

	if len(m.nearest) > k {
		return m.nearest[:k], nil
	}

	return m.nearest, nil
}

func (m *mockStore) ListByUser(_ context.Context, _ string, k int) ([]models.PreferenceVector, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	if len(m.listed) > k {
		return m.listed[:k], nil
	}

	return m.listed, nil
}

type mockRatings struct {
	positives []models.Rating
	err       error
}

func (m *mockRatings) ListPositiveRatings(_ context.Context, _ string, _ int) ([]models.Rating, error) {
	return m.positives, m.err
}

type mockAnalyzer struct {
	doc []byte
	err error
}

func (m *mockAnalyzer) CompleteJSON(_ context.Context, _, _ string, _ int) ([]byte, error) {
	return m.doc, m.err
}

func newTestService(t *testing.T, store *mockStore, ratings *mockRatings, analyzer *mockAnalyzer) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Store:    store,
		Ratings:  ratings,
		Embedder: embeddings.NewMockClient(),
		Analyzer: analyzer,
	})
	require.NoError(t, err)

	return svc
}

func scored(value string, sim float64) models.ScoredPreference {
	return models.ScoredPreference{
		Preference: models.PreferenceVector{Type: models.PreferenceGenre, Value: value},
		Similarity: sim,
	}
}

func TestService_Embed_RejectsEmptyInput(t *testing.T) {
	svc := newTestService(t, &mockStore{}, &mockRatings{}, &mockAnalyzer{})

	_, err := svc.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}

func TestService_Embed_IsDeterministicForSameText(t *testing.T) {
	svc := newTestService(t, &mockStore{}, &mockRatings{}, &mockAnalyzer{})

	a, err := svc.Embed(context.Background(), "moody neo-noir")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "moody neo-noir")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, embeddings.DefaultDimension)
}

func TestService_Store_EmbedsTypedText(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, store, &mockRatings{}, &mockAnalyzer{})

	err := svc.Store(context.Background(), "u1", models.PreferenceDirector, "Denis Villeneuve", 0.9)
	require.NoError(t, err)

	require.Len(t, store.upserts, 1)
	assert.Equal(t, models.PreferenceDirector, store.upserts[0].Type)
	assert.Equal(t, "Denis Villeneuve", store.upserts[0].Value)
	assert.InDelta(t, 0.9, store.upserts[0].Strength, 0.001)
}

func TestService_Retrieve_AtMostKAndOrdered(t *testing.T) {
	store := &mockStore{nearest: []models.ScoredPreference{
		scored("sci-fi", 0.91),
		scored("thriller", 0.84),
		scored("noir", 0.72),
		scored("western", 0.55),
	}}

	svc := newTestService(t, store, &mockRatings{}, &mockAnalyzer{})

	got, err := svc.Retrieve(context.Background(), "u1", "tense cerebral films", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].Similarity > got[j].Similarity
	}))
}

func TestService_Retrieve_FallsBackWithNeutralSimilarity(t *testing.T) {
	store := &mockStore{
		nearestErr: errors.New("operator <=> does not exist"),
		listed: []models.PreferenceVector{
			{Type: models.PreferenceGenre, Value: "sci-fi"},
			{Type: models.PreferenceTheme, Value: "found family"},
		},
	}

	svc := newTestService(t, store, &mockRatings{}, &mockAnalyzer{})

	got, err := svc.Retrieve(context.Background(), "u1", "anything", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, sp := range got {
		assert.InDelta(t, 0.5, sp.Similarity, 0.001)
	}
}

func TestService_Retrieve_FallbackFailurePropagates(t *testing.T) {
	store := &mockStore{
		nearestErr: errors.New("vector search down"),
		listErr:    errors.New("db down"),
	}

	svc := newTestService(t, store, &mockRatings{}, &mockAnalyzer{})

	_, err := svc.Retrieve(context.Background(), "u1", "anything", 5)
	assert.ErrorContains(t, err, "db down")
}

func TestService_Retrieve_EmptyQueryFails(t *testing.T) {
	svc := newTestService(t, &mockStore{}, &mockRatings{}, &mockAnalyzer{})

	_, err := svc.Retrieve(context.Background(), "u1", "  ", 5)
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}

func TestService_Analyze_NoPositiveRatingsIsNoData(t *testing.T) {
	svc := newTestService(t, &mockStore{}, &mockRatings{}, &mockAnalyzer{})

	_, err := svc.Analyze(context.Background(), "u1")
	assert.ErrorIs(t, err, recerrors.ErrNoData)
}

func TestService_Analyze_StoresExtractedPreferences(t *testing.T) {
	doc := `{"preferences": [
		{"type": "genre", "value": "sci-fi", "strength": 0.9},
		{"type": "director", "value": "Denis Villeneuve", "strength": 1.4},
		{"type": "vibe", "value": "ignored, unknown type", "strength": 0.8},
		{"type": "theme", "value": "  ", "strength": 0.8}
	]}`

	store := &mockStore{}
	ratings := &mockRatings{positives: []models.Rating{
		{ItemTitle: "Arrival", ItemYear: 2016, Value: models.RatingAmazing},
		{ItemTitle: "Dune", ItemYear: 2021, Value: models.RatingGood},
	}}

	svc := newTestService(t, store, ratings, &mockAnalyzer{doc: []byte(doc)})

	stored, err := svc.Analyze(context.Background(), "u1")
	require.NoError(t, err)

	// Unknown type and blank value dropped; strength clamped to 1.
	require.Len(t, stored, 2)
	assert.Equal(t, "sci-fi", stored[0].Value)
	assert.InDelta(t, 1.0, stored[1].Strength, 0.001)
	assert.Len(t, store.upserts, 2)
}

func TestService_Analyze_MalformedResponseIsParseFailure(t *testing.T) {
	ratings := &mockRatings{positives: []models.Rating{
		{ItemTitle: "Arrival", ItemYear: 2016, Value: models.RatingAmazing},
	}}

	svc := newTestService(t, &mockStore{}, ratings, &mockAnalyzer{doc: []byte("they like movies")})

	_, err := svc.Analyze(context.Background(), "u1")
	assert.ErrorIs(t, err, recerrors.ErrParseFailure)
}

func TestService_Analyze_StorageFailureSkipsPreference(t *testing.T) {
	doc := `{"preferences": [{"type": "genre", "value": "sci-fi", "strength": 0.9}]}`

	store := &mockStore{upsertErr: errors.New("db down")}
	ratings := &mockRatings{positives: []models.Rating{
		{ItemTitle: "Arrival", ItemYear: 2016, Value: models.RatingAmazing},
	}}

	svc := newTestService(t, store, ratings, &mockAnalyzer{doc: []byte(doc)})

	stored, err := svc.Analyze(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}
