// Package enrichment backfills optional catalog metadata on demand.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/karthikc911/cinevibe-sub001/internal/llm"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

const enrichmentMaxTokens = 1024

const enrichmentSystemPrompt = `You are a movie and TV metadata assistant. ` +
	`You return verified factual data about a single title as JSON. ` +
	`Use null for any field you do not know. Never invent numbers.`

// CatalogStore is the persistence surface enrichment writes through.
type CatalogStore interface {
	GetByID(ctx context.Context, id int64) (*models.CatalogItem, error)
	ApplyEnrichment(ctx context.Context, id int64, e models.EnrichmentFields) error
}

// Enricher lazily backfills critic rating, voter count, review summary, budget,
// box office and genres for catalog items that are missing them. Best effort:
// a failed enrichment is logged and the caller keeps the item it already has.
type Enricher struct {
	facts   llm.StructuredClient
	catalog CatalogStore
	logger  *slog.Logger
}

// EnricherParams configures an Enricher.
type EnricherParams struct {
	Facts   llm.StructuredClient
	Catalog CatalogStore
	Logger  *slog.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(p EnricherParams) *Enricher {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Enricher{facts: p.Facts, catalog: p.Catalog, logger: logger}
}

// NeedsEnrichment reports whether the item is missing any enrichable field.
// Fully populated items must never trigger an external call.
func NeedsEnrichment(item *models.CatalogItem) bool {
	return item.CriticRating == nil ||
		item.VoterCount == nil ||
		item.ReviewSummary == nil ||
		len(item.Genres) == 0
}

// Enrich backfills the item's missing metadata and returns the refreshed row.
// When the item is already complete it returns it untouched without any
// external call. On fact-call or parse failure the original item comes back
// with a nil error; the failure is logged, never surfaced.
func (e *Enricher) Enrich(ctx context.Context, item *models.CatalogItem) (*models.CatalogItem, error) {
	if item == nil {
		return nil, fmt.Errorf("enrich: nil item")
	}

	if !NeedsEnrichment(item) {
		return item, nil
	}

	fields, err := e.fetchFacts(ctx, item)
	if err != nil {
		e.logger.Warn("enrichment failed, keeping item as-is",
			"item_id", item.ID, "title", item.Title, "error", err)

		return item, nil
	}

	if fields.Empty() {
		e.logger.Debug("enrichment produced no usable facts",
			"item_id", item.ID, "title", item.Title)

		return item, nil
	}

	if err := e.catalog.ApplyEnrichment(ctx, item.ID, fields); err != nil {
		e.logger.Warn("enrichment write failed, keeping item as-is",
			"item_id", item.ID, "title", item.Title, "error", err)

		return item, nil
	}

	refreshed, err := e.catalog.GetByID(ctx, item.ID)
	if err != nil {
		return item, nil
	}

	return refreshed, nil
}

// fetchFacts asks the structured provider for the missing fields.
func (e *Enricher) fetchFacts(ctx context.Context, item *models.CatalogItem) (models.EnrichmentFields, error) {
	user := buildFactPrompt(item)

	raw, err := e.facts.CompleteJSON(ctx, enrichmentSystemPrompt, user, enrichmentMaxTokens)
	if err != nil {
		return models.EnrichmentFields{}, recerrors.NewEnrichmentFailure(err)
	}

	var fields models.EnrichmentFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.EnrichmentFields{}, recerrors.NewEnrichmentFailure(
			fmt.Errorf("decode fact response: %w", err))
	}

	return fields, nil
}

func buildFactPrompt(item *models.CatalogItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s", item.Title)

	if item.Year > 0 {
		fmt.Fprintf(&b, " (%d)", item.Year)
	}

	b.WriteString("\n\nReturn a JSON object with exactly these keys:\n")
	b.WriteString(`{"critic_rating": <0-10 float or null>, "voter_count": <int or null>, ` +
		`"review_summary": <one-sentence critical consensus or null>, ` +
		`"budget": <USD int or null>, "box_office": <USD int or null>, ` +
		`"genres": <array of genre strings or null>}`)

	return b.String()
}
