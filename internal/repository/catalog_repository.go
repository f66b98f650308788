package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// CatalogRepository handles data access for the catalog_items table.
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Upsert inserts or updates a catalog item keyed by its numeric id. Base fields
// overwrite on conflict; enrichment fields are untouched here so a re-synthesis
// never wipes a prior backfill.
func (r *CatalogRepository) Upsert(ctx context.Context, item models.CatalogItem) error {
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO catalog_items (
			id, title, original_title, overview, poster_path, backdrop_path,
			release_date, year, vote_average, vote_count, popularity,
			language, genres, runtime, tagline, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			original_title = EXCLUDED.original_title,
			overview = EXCLUDED.overview,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			release_date = EXCLUDED.release_date,
			year = EXCLUDED.year,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			popularity = EXCLUDED.popularity,
			language = EXCLUDED.language,
			genres = EXCLUDED.genres,
			runtime = EXCLUDED.runtime,
			tagline = EXCLUDED.tagline,
			updated_at = $16`,
		item.ID, item.Title, item.OriginalTitle, item.Overview, item.PosterPath, item.BackdropPath,
		item.ReleaseDate, item.Year, item.VoteAverage, item.VoteCount, item.Popularity,
		item.Language, item.Genres, item.Runtime, item.Tagline, now,
	)
	if err != nil {
		return fmt.Errorf("upsert catalog item: %w", err)
	}

	return nil
}

// GetByID retrieves a single catalog item by id.
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var item models.CatalogItem

	err := r.db.QueryRow(ctx, `
		SELECT id, title, original_title, overview, poster_path, backdrop_path,
			release_date, year, vote_average, vote_count, popularity,
			language, genres, runtime, tagline,
			critic_rating, voter_count, review_summary, budget, box_office,
			created_at, updated_at
		FROM catalog_items
		WHERE id = $1`, id,
	).Scan(
		&item.ID, &item.Title, &item.OriginalTitle, &item.Overview, &item.PosterPath, &item.BackdropPath,
		&item.ReleaseDate, &item.Year, &item.VoteAverage, &item.VoteCount, &item.Popularity,
		&item.Language, &item.Genres, &item.Runtime, &item.Tagline,
		&item.CriticRating, &item.VoterCount, &item.ReviewSummary, &item.Budget, &item.BoxOffice,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recerrors.NewNotFoundError("catalog item", "catalog item not found")
		}

		return nil, fmt.Errorf("get catalog item: %w", err)
	}

	return &item, nil
}

// ApplyEnrichment fills enrichment fields that are still NULL. COALESCE keeps
// the first written value; repeated enrichments never overwrite.
func (r *CatalogRepository) ApplyEnrichment(ctx context.Context, id int64, e models.EnrichmentFields) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE catalog_items SET
			critic_rating  = COALESCE(critic_rating, $2),
			voter_count    = COALESCE(voter_count, $3),
			review_summary = COALESCE(review_summary, $4),
			budget         = COALESCE(budget, $5),
			box_office     = COALESCE(box_office, $6),
			genres         = CASE WHEN cardinality(genres) = 0 AND $7::text[] IS NOT NULL
			                      THEN $7 ELSE genres END,
			updated_at     = now()
		WHERE id = $1`,
		id, e.CriticRating, e.VoterCount, e.ReviewSummary, e.Budget, e.BoxOffice, e.Genres,
	)
	if err != nil {
		return fmt.Errorf("apply enrichment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return recerrors.NewNotFoundError("catalog item", "catalog item not found")
	}

	return nil
}
