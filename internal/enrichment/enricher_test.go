package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

type mockFacts struct {
	calls int
	doc   []byte
	err   error
}

func (m *mockFacts) CompleteJSON(_ context.Context, _, _ string, _ int) ([]byte, error) {
	m.calls++

	return m.doc, m.err
}

type mockCatalog struct {
	applied      []models.EnrichmentFields
	applyErr     error
	stored       map[int64]*models.CatalogItem
	applyUpdates func(id int64, e models.EnrichmentFields)
}

func (m *mockCatalog) GetByID(_ context.Context, id int64) (*models.CatalogItem, error) {
	item, ok := m.stored[id]
	if !ok {
		return nil, errors.New("not found")
	}

	return item, nil
}

func (m *mockCatalog) ApplyEnrichment(_ context.Context, id int64, e models.EnrichmentFields) error {
	if m.applyErr != nil {
		return m.applyErr
	}

	m.applied = append(m.applied, e)

	if m.applyUpdates != nil {
		m.applyUpdates(id, e)
	}

	return nil
}

func ptr[T any](v T) *T { return &v }

func fullyPopulated() *models.CatalogItem {
	return &models.CatalogItem{
		ID:            603,
		Title:         "The Matrix",
		Year:          1999,
		Genres:        []string{"sci-fi", "action"},
		CriticRating:  ptr(8.7),
		VoterCount:    ptr(25000),
		ReviewSummary: ptr("A landmark of action cinema."),
		Budget:        ptr(int64(63_000_000)),
		BoxOffice:     ptr(int64(467_000_000)),
	}
}

func bare() *models.CatalogItem {
	return &models.CatalogItem{ID: 157336, Title: "Interstellar", Year: 2014}
}

func TestNeedsEnrichment(t *testing.T) {
	assert.False(t, NeedsEnrichment(fullyPopulated()))
	assert.True(t, NeedsEnrichment(bare()))

	missingSummary := fullyPopulated()
	missingSummary.ReviewSummary = nil
	assert.True(t, NeedsEnrichment(missingSummary))

	missingGenres := fullyPopulated()
	missingGenres.Genres = nil
	assert.True(t, NeedsEnrichment(missingGenres))
}

func TestEnricher_FullyPopulatedItemMakesZeroExternalCalls(t *testing.T) {
	facts := &mockFacts{}
	catalog := &mockCatalog{}

	e := NewEnricher(EnricherParams{Facts: facts, Catalog: catalog})

	item := fullyPopulated()

	got, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Same(t, item, got)
	assert.Zero(t, facts.calls)
	assert.Empty(t, catalog.applied)
}

func TestEnricher_BackfillsMissingFields(t *testing.T) {
	doc := `{"critic_rating": 8.6, "voter_count": 31000,
		"review_summary": "A visually stunning epic.",
		"budget": 165000000, "box_office": 677000000,
		"genres": ["sci-fi", "drama"]}`

	catalog := &mockCatalog{stored: map[int64]*models.CatalogItem{}}
	catalog.applyUpdates = func(id int64, e models.EnrichmentFields) {
		item := bare()
		item.CriticRating = e.CriticRating
		item.VoterCount = e.VoterCount
		item.ReviewSummary = e.ReviewSummary
		item.Budget = e.Budget
		item.BoxOffice = e.BoxOffice
		item.Genres = e.Genres
		catalog.stored[id] = item
	}

	e := NewEnricher(EnricherParams{Facts: &mockFacts{doc: []byte(doc)}, Catalog: catalog})

	got, err := e.Enrich(context.Background(), bare())
	require.NoError(t, err)
	require.Len(t, catalog.applied, 1)

	require.NotNil(t, got.CriticRating)
	assert.InDelta(t, 8.6, *got.CriticRating, 0.001)
	require.NotNil(t, got.ReviewSummary)
	assert.Equal(t, "A visually stunning epic.", *got.ReviewSummary)
	assert.Equal(t, []string{"sci-fi", "drama"}, got.Genres)
}

func TestEnricher_FactCallFailureReturnsOriginal(t *testing.T) {
	catalog := &mockCatalog{}

	e := NewEnricher(EnricherParams{
		Facts:   &mockFacts{err: errors.New("provider down")},
		Catalog: catalog,
	})

	item := bare()

	got, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Same(t, item, got)
	assert.Empty(t, catalog.applied)
}

func TestEnricher_MalformedFactResponseReturnsOriginal(t *testing.T) {
	catalog := &mockCatalog{}

	e := NewEnricher(EnricherParams{
		Facts:   &mockFacts{doc: []byte("I could not find that movie.")},
		Catalog: catalog,
	})

	item := bare()

	got, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Same(t, item, got)
	assert.Empty(t, catalog.applied)
}

func TestEnricher_AllNullFactsSkipWrite(t *testing.T) {
	doc := `{"critic_rating": null, "voter_count": null, "review_summary": null,
		"budget": null, "box_office": null, "genres": null}`

	catalog := &mockCatalog{}

	e := NewEnricher(EnricherParams{Facts: &mockFacts{doc: []byte(doc)}, Catalog: catalog})

	got, err := e.Enrich(context.Background(), bare())
	require.NoError(t, err)
	assert.Empty(t, catalog.applied)
	assert.Nil(t, got.CriticRating)
}

func TestEnricher_WriteFailureReturnsOriginal(t *testing.T) {
	doc := `{"critic_rating": 7.0, "voter_count": 100, "review_summary": "Fine.",
		"budget": null, "box_office": null, "genres": ["drama"]}`

	catalog := &mockCatalog{applyErr: errors.New("db down")}

	e := NewEnricher(EnricherParams{Facts: &mockFacts{doc: []byte(doc)}, Catalog: catalog})

	item := bare()

	got, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Same(t, item, got)
}
