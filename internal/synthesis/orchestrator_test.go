package synthesis

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

type mockBuilder struct {
	buildFunc func(ctx context.Context, userID string) (*models.TasteProfile, error)
}

func (m *mockBuilder) Build(ctx context.Context, userID string) (*models.TasteProfile, error) {
	return m.buildFunc(ctx, userID)
}

type mockRetrieval struct {
	calls int
	text  string
	err   error
}

func (m *mockRetrieval) Retrieve(_ context.Context, _ *models.TasteProfile, _ models.SynthesisFilters) (string, error) {
	m.calls++

	return m.text, m.err
}

type mockRefinement struct {
	calls      int
	candidates []models.Candidate
	err        error
}

func (m *mockRefinement) Refine(_ context.Context, _ string, _ *models.TasteProfile, _ models.SynthesisFilters) ([]models.Candidate, error) {
	m.calls++

	return m.candidates, m.err
}

type mockCatalog struct {
	upserted []models.CatalogItem
	failOn   map[string]error
}

func (m *mockCatalog) Upsert(_ context.Context, item models.CatalogItem) error {
	if err, ok := m.failOn[item.Title]; ok {
		return err
	}

	m.upserted = append(m.upserted, item)

	return nil
}

type mockRecords struct {
	batches []models.RecommendationBatch
	records []models.RecommendationRecord
}

func (m *mockRecords) CreateBatch(_ context.Context, batch models.RecommendationBatch) error {
	m.batches = append(m.batches, batch)

	return nil
}

func (m *mockRecords) InsertRecord(_ context.Context, rec models.RecommendationRecord) error {
	m.records = append(m.records, rec)

	return nil
}

func profileWithExclusions(excluded ...models.TitleYear) *models.TasteProfile {
	p := &models.TasteProfile{
		UserID:    "u1",
		Amazing:   []models.TitleYear{{Title: "The Matrix", Year: 1999}, {Title: "Heat", Year: 1995}, {Title: "Alien", Year: 1979}},
		Awful:     []models.TitleYear{{Title: "Cats", Year: 2019}, {Title: "Morbius", Year: 2022}},
		Exclusion: make(models.ExclusionSet),
	}

	for _, ty := range p.Amazing {
		p.Exclusion.Add(ty.Title, ty.Year)
	}
	for _, ty := range p.Awful {
		p.Exclusion.Add(ty.Title, ty.Year)
	}
	for _, ty := range excluded {
		p.Exclusion.Add(ty.Title, ty.Year)
	}

	return p
}

func candidate(title string, year int) models.Candidate {
	return models.Candidate{Title: title, Year: year, MatchPercentage: 80, Reason: "fits"}
}

func TestOrchestrator_InsufficientData_NoLLMCalls(t *testing.T) {
	retrieval := &mockRetrieval{}
	refinement := &mockRefinement{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return nil, recerrors.NewInsufficientDataError(2, 3)
		}},
		Retrieval:  retrieval,
		Refinement: refinement,
		Catalog:    &mockCatalog{},
		Records:    &mockRecords{},
	})

	_, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{Count: 10})
	assert.ErrorIs(t, err, recerrors.ErrInsufficientData)
	assert.Zero(t, retrieval.calls)
	assert.Zero(t, refinement.calls)
}

func TestOrchestrator_RejectsExclusionSetViolations(t *testing.T) {
	// Refinement stub deliberately returns two excluded titles; the
	// orchestrator's own filter must drop them regardless of the prompt.
	candidates := []models.Candidate{
		candidate("Blade Runner", 1982),
		candidate("The Matrix", 1999), // excluded
		candidate("Arrival", 2016),
		candidate("Cats", 2019), // excluded
		candidate("Sicario", 2015),
		candidate("Drive", 2011),
		candidate("Ex Machina", 2014),
		candidate("Moon", 2009),
		candidate("Looper", 2012),
		candidate("Her", 2013),
	}

	catalog := &mockCatalog{}
	records := &mockRecords{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return profileWithExclusions(), nil
		}},
		Retrieval:  &mockRetrieval{text: "raw facts"},
		Refinement: &mockRefinement{candidates: candidates},
		Catalog:    catalog,
		Records:    records,
	})

	result, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{Count: 10})
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalRequested)
	assert.Equal(t, 8, result.SuccessfullyStored)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, result.TotalRequested, result.SuccessfullyStored+result.Failed)

	for _, item := range catalog.upserted {
		assert.NotEqual(t, "The Matrix", item.Title)
		assert.NotEqual(t, "Cats", item.Title)
	}
}

func TestOrchestrator_PartialStorageFailureDoesNotAbort(t *testing.T) {
	candidates := []models.Candidate{
		candidate("Blade Runner", 1982),
		candidate("Arrival", 2016),
		candidate("Sicario", 2015),
	}

	catalog := &mockCatalog{failOn: map[string]error{"Arrival": errors.New("catalog down")}}
	records := &mockRecords{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return profileWithExclusions(), nil
		}},
		Retrieval:  &mockRetrieval{text: "raw facts"},
		Refinement: &mockRefinement{candidates: candidates},
		Catalog:    catalog,
		Records:    records,
	})

	result, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{Count: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessfullyStored)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.TotalRequested, result.SuccessfullyStored+result.Failed)
	assert.Len(t, records.records, 2)
}

func TestOrchestrator_AssignsIDsForMissingOrImplausibleOnes(t *testing.T) {
	candidates := []models.Candidate{
		{Title: "Blade Runner", Year: 1982, ID: 78},  // canonical id kept
		{Title: "Arrival", Year: 2016, ID: 0},        // missing -> hashed
		{Title: "Sicario", Year: 2015, ID: -5},       // implausible -> hashed
	}

	catalog := &mockCatalog{}
	records := &mockRecords{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return profileWithExclusions(), nil
		}},
		Retrieval:  &mockRetrieval{text: "raw facts"},
		Refinement: &mockRefinement{candidates: candidates},
		Catalog:    catalog,
		Records:    records,
	})

	_, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{Count: 3})
	require.NoError(t, err)
	require.Len(t, catalog.upserted, 3)

	assert.Equal(t, int64(78), catalog.upserted[0].ID)

	for _, item := range catalog.upserted[1:] {
		assert.GreaterOrEqual(t, item.ID, int64(100_000_000))
		assert.LessOrEqual(t, item.ID, int64(2_000_000_000))
	}
}

func TestOrchestrator_PositionsAreStableWithinBatch(t *testing.T) {
	candidates := []models.Candidate{
		candidate("Blade Runner", 1982),
		candidate("Arrival", 2016),
		candidate("Sicario", 2015),
	}

	records := &mockRecords{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return profileWithExclusions(), nil
		}},
		Retrieval:  &mockRetrieval{text: "raw facts"},
		Refinement: &mockRefinement{candidates: candidates},
		Catalog:    &mockCatalog{},
		Records:    records,
	})

	result, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{Count: 3})
	require.NoError(t, err)
	require.Len(t, records.records, 3)
	require.Len(t, records.batches, 1)

	batchID := records.batches[0].ID
	assert.NotEqual(t, uuid.Nil, batchID)

	for i, rec := range records.records {
		assert.Equal(t, i+1, rec.Position)
		assert.Equal(t, batchID, rec.BatchID)
		assert.False(t, rec.Shown)
		assert.False(t, rec.Rated)
	}

	assert.Equal(t, batchID, result.BatchID)
}

func TestOrchestrator_RetrievalFailurePropagates(t *testing.T) {
	refinement := &mockRefinement{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return profileWithExclusions(), nil
		}},
		Retrieval:  &mockRetrieval{err: recerrors.NewRetrievalFailure(errors.New("provider down"))},
		Refinement: refinement,
		Catalog:    &mockCatalog{},
		Records:    &mockRecords{},
	})

	_, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{Count: 5})
	assert.ErrorIs(t, err, recerrors.ErrRetrievalFailure)
	assert.Zero(t, refinement.calls)
}

func TestOrchestrator_DefaultsCount(t *testing.T) {
	records := &mockRecords{}

	o := NewOrchestrator(OrchestratorParams{
		Builder: &mockBuilder{buildFunc: func(_ context.Context, _ string) (*models.TasteProfile, error) {
			return profileWithExclusions(), nil
		}},
		Retrieval:  &mockRetrieval{text: "raw facts"},
		Refinement: &mockRefinement{candidates: []models.Candidate{candidate("Blade Runner", 1982)}},
		Catalog:    &mockCatalog{},
		Records:    records,
	})

	result, err := o.Synthesize(context.Background(), "u1", models.SynthesisFilters{})
	require.NoError(t, err)

	assert.Equal(t, DefaultCount, result.TotalRequested)
	assert.Equal(t, 1, result.SuccessfullyStored)
	assert.Equal(t, DefaultCount-1, result.Failed)
}
