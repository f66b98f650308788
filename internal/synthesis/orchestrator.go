package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karthikc911/cinevibe-sub001/internal/identity"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// DefaultCount is the number of candidates requested when the caller does not say.
const DefaultCount = 10

// ProfileBuilder produces the taste profile a run starts from.
type ProfileBuilder interface {
	Build(ctx context.Context, userID string) (*models.TasteProfile, error)
}

// CatalogStore persists candidate items. Upsert must be idempotent by id.
type CatalogStore interface {
	Upsert(ctx context.Context, item models.CatalogItem) error
}

// RecordStore persists batches and delivery-queue records.
type RecordStore interface {
	CreateBatch(ctx context.Context, batch models.RecommendationBatch) error
	InsertRecord(ctx context.Context, rec models.RecommendationRecord) error
}

// Orchestrator sequences one synthesis run: profile, retrieval, refinement,
// identity assignment, persistence. It exclusively owns batch and record
// creation.
type Orchestrator struct {
	builder    ProfileBuilder
	retrieval  RetrievalStage
	refinement RefinementStage
	assigner   identity.Assigner
	catalog    CatalogStore
	records    RecordStore

	// Pause between candidate stores; the catalog API behind Upsert is
	// rate-limited per caller, not per process.
	storeDelay time.Duration

	logger *slog.Logger
}

// OrchestratorParams configures an Orchestrator.
type OrchestratorParams struct {
	Builder    ProfileBuilder
	Retrieval  RetrievalStage
	Refinement RefinementStage
	Assigner   identity.Assigner
	Catalog    CatalogStore
	Records    RecordStore
	StoreDelay time.Duration
	Logger     *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	assigner := p.Assigner
	if assigner == nil {
		assigner = identity.NewHashAssigner()
	}

	return &Orchestrator{
		builder:    p.Builder,
		retrieval:  p.Retrieval,
		refinement: p.Refinement,
		assigner:   assigner,
		catalog:    p.Catalog,
		records:    p.Records,
		storeDelay: p.StoreDelay,
		logger:     logger,
	}
}

// Synthesize runs the full pipeline for one user. The batch is best effort:
// one candidate's storage failure is logged and counted, never aborting the
// run. SuccessfullyStored + Failed always equals TotalRequested. Two calls
// with identical inputs may return different candidates; only identity
// assignment and persistence are deterministic.
func (o *Orchestrator) Synthesize(ctx context.Context, userID string, filters models.SynthesisFilters) (models.BatchResult, error) {
	if filters.Count <= 0 {
		filters.Count = DefaultCount
	}

	// Fail fast before any LLM call.
	profile, err := o.builder.Build(ctx, userID)
	if err != nil {
		return models.BatchResult{}, fmt.Errorf("build taste profile: %w", err)
	}

	raw, err := o.retrieval.Retrieve(ctx, profile, filters)
	if err != nil {
		return models.BatchResult{}, err
	}

	candidates, err := o.refinement.Refine(ctx, raw, profile, filters)
	if err != nil {
		return models.BatchResult{}, err
	}

	accepted, rejected := o.filterExclusions(userID, candidates, profile.Exclusion)

	if len(accepted) > filters.Count {
		accepted = accepted[:filters.Count]
	}

	batch := models.RecommendationBatch{
		ID:             uuid.New(),
		UserID:         userID,
		GeneratedAt:    time.Now(),
		RequestedCount: filters.Count,
	}
	if err := o.records.CreateBatch(ctx, batch); err != nil {
		return models.BatchResult{}, fmt.Errorf("create batch: %w", err)
	}

	stored, failed := o.storeCandidates(ctx, userID, batch.ID, accepted)

	result := models.BatchResult{
		BatchID:            batch.ID,
		TotalRequested:     filters.Count,
		SuccessfullyStored: len(stored),
		Failed:             filters.Count - len(stored),
		Records:            stored,
	}

	o.logger.Info("synthesis run complete",
		"user_id", userID,
		"batch_id", batch.ID.String(),
		"requested", result.TotalRequested,
		"stored", result.SuccessfullyStored,
		"failed", result.Failed,
		"excluded", rejected,
		"store_failures", failed,
	)

	return result, nil
}

// filterExclusions drops candidates that match the exclusion set. The
// refinement prompt forbids them too, but the model is not trusted with the
// invariant: nothing in the exclusion set ever reaches storage.
func (o *Orchestrator) filterExclusions(
	userID string, candidates []models.Candidate, exclusion models.ExclusionSet,
) (accepted []models.Candidate, rejected int) {
	accepted = make([]models.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if exclusion.Contains(c.Title, c.Year) {
			rejected++

			o.logger.Warn("model returned an excluded title, dropping",
				"user_id", userID, "title", c.Title, "year", c.Year)

			continue
		}

		accepted = append(accepted, c)
	}

	return accepted, rejected
}

// storeCandidates is the best-effort persistence fold: each candidate's
// id-assignment, catalog upsert, and record insert is its own unit of work.
// Returns the stored records and the count of per-candidate failures.
func (o *Orchestrator) storeCandidates(
	ctx context.Context, userID string, batchID uuid.UUID, candidates []models.Candidate,
) (stored []models.RecommendationRecord, failed int) {
	for i, c := range candidates {
		if i > 0 && o.storeDelay > 0 {
			select {
			case <-ctx.Done():
				o.logger.Warn("synthesis storage cancelled mid-batch",
					"user_id", userID, "batch_id", batchID.String(), "stored", len(stored))

				return stored, failed + (len(candidates) - i)
			case <-time.After(o.storeDelay):
			}
		}

		rec, err := o.storeOne(ctx, userID, batchID, i+1, c)
		if err != nil {
			failed++

			o.logger.Error("failed to store candidate",
				"user_id", userID, "batch_id", batchID.String(),
				"title", c.Title, "year", c.Year, "error", err)

			continue
		}

		stored = append(stored, rec)
	}

	return stored, failed
}

// storeOne persists a single candidate: id if needed, catalog upsert, record insert.
func (o *Orchestrator) storeOne(
	ctx context.Context, userID string, batchID uuid.UUID, position int, c models.Candidate,
) (models.RecommendationRecord, error) {
	itemID := c.ID
	if !identity.UsableID(itemID) {
		itemID = o.assigner.AssignID(c.Title, c.Year)
	}

	item := candidateToItem(itemID, c)
	if err := o.catalog.Upsert(ctx, item); err != nil {
		return models.RecommendationRecord{}, fmt.Errorf("catalog upsert: %w", err)
	}

	rec := models.RecommendationRecord{
		ID:              uuid.New(),
		UserID:          userID,
		ItemID:          itemID,
		BatchID:         batchID,
		Position:        position,
		Reason:          c.Reason,
		MatchPercentage: c.MatchPercentage,
		CreatedAt:       time.Now(),
	}
	if err := o.records.InsertRecord(ctx, rec); err != nil {
		return models.RecommendationRecord{}, fmt.Errorf("insert record: %w", err)
	}

	return rec, nil
}

// candidateToItem maps a refinement candidate onto the canonical catalog shape.
// Enrichment fields stay empty; the lazy backfill owns them.
func candidateToItem(id int64, c models.Candidate) models.CatalogItem {
	item := models.CatalogItem{
		ID:            id,
		Title:         c.Title,
		OriginalTitle: c.OriginalTitle,
		Overview:      c.Overview,
		PosterPath:    c.PosterPath,
		BackdropPath:  c.BackdropPath,
		ReleaseDate:   c.ReleaseDate,
		Year:          c.Year,
		VoteAverage:   c.VoteAverage,
		VoteCount:     c.VoteCount,
		Popularity:    c.Popularity,
		Language:      c.Language,
		Genres:        c.Genres,
		Runtime:       c.Runtime,
		Tagline:       c.Tagline,
	}

	return item
}
