package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// RecommendationsRepository handles data access for recommendation batches and records.
type RecommendationsRepository struct {
	db *pgxpool.Pool
}

// NewRecommendationsRepository creates a new recommendations repository.
func NewRecommendationsRepository(db *pgxpool.Pool) *RecommendationsRepository {
	return &RecommendationsRepository{db: db}
}

// CreateBatch inserts a batch row for one synthesis run.
func (r *RecommendationsRepository) CreateBatch(ctx context.Context, batch models.RecommendationBatch) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO recommendation_batches (id, user_id, generated_at, requested_count)
		VALUES ($1, $2, $3, $4)`,
		batch.ID, batch.UserID, batch.GeneratedAt, batch.RequestedCount,
	)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}

	return nil
}

// InsertRecord inserts one recommendation record in its initial Unshown state.
func (r *RecommendationsRepository) InsertRecord(ctx context.Context, rec models.RecommendationRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO recommendation_records (
			id, user_id, item_id, batch_id, position, reason, match_percentage, shown, rated, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, $8)`,
		rec.ID, rec.UserID, rec.ItemID, rec.BatchID, rec.Position,
		rec.Reason, rec.MatchPercentage, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recommendation record: %w", err)
	}

	return nil
}

// NextUnshown selects up to limit Unshown records ordered by batch recency then
// position, marks them Shown, and returns them hydrated with their catalog
// items. Select, mark, and hydrate run in one transaction so a crash never
// leaves a page half shown.
func (r *RecommendationsRepository) NextUnshown(ctx context.Context, userID string, limit int) ([]models.QueuedItem, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("next unshown: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ids, err := selectUnshownPage(ctx, tx, userID, limit)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE recommendation_records SET shown = true WHERE id = ANY($1)`, ids,
	); err != nil {
		return nil, fmt.Errorf("next unshown: mark shown: %w", err)
	}

	items, err := hydratePage(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("next unshown: commit: %w", err)
	}

	return items, nil
}

// selectUnshownPage locks and returns the ids of the next page in delivery order.
func selectUnshownPage(ctx context.Context, tx pgx.Tx, userID string, limit int) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
		SELECT r.id
		FROM recommendation_records r
		JOIN recommendation_batches b ON b.id = r.batch_id
		WHERE r.user_id = $1 AND NOT r.shown AND NOT r.rated
		ORDER BY b.generated_at DESC, r.position ASC
		LIMIT $2
		FOR UPDATE OF r SKIP LOCKED`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("next unshown: select page: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("next unshown: scan id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("next unshown: iterating page: %w", err)
	}

	return ids, nil
}

// hydratePage joins the page against catalog_items, preserving delivery order.
func hydratePage(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]models.QueuedItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT r.id, r.user_id, r.item_id, r.batch_id, r.position, r.reason,
			r.match_percentage, r.shown, r.rated, r.created_at,
			c.id, c.title, c.original_title, c.overview, c.poster_path, c.backdrop_path,
			c.release_date, c.year, c.vote_average, c.vote_count, c.popularity,
			c.language, c.genres, c.runtime, c.tagline,
			c.critic_rating, c.voter_count, c.review_summary, c.budget, c.box_office,
			c.created_at, c.updated_at
		FROM recommendation_records r
		JOIN recommendation_batches b ON b.id = r.batch_id
		JOIN catalog_items c ON c.id = r.item_id
		WHERE r.id = ANY($1)
		ORDER BY b.generated_at DESC, r.position ASC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("next unshown: hydrate: %w", err)
	}
	defer rows.Close()

	var items []models.QueuedItem

	for rows.Next() {
		var qi models.QueuedItem
		if err := rows.Scan(
			&qi.Record.ID, &qi.Record.UserID, &qi.Record.ItemID, &qi.Record.BatchID,
			&qi.Record.Position, &qi.Record.Reason, &qi.Record.MatchPercentage,
			&qi.Record.Shown, &qi.Record.Rated, &qi.Record.CreatedAt,
			&qi.Item.ID, &qi.Item.Title, &qi.Item.OriginalTitle, &qi.Item.Overview,
			&qi.Item.PosterPath, &qi.Item.BackdropPath, &qi.Item.ReleaseDate, &qi.Item.Year,
			&qi.Item.VoteAverage, &qi.Item.VoteCount, &qi.Item.Popularity,
			&qi.Item.Language, &qi.Item.Genres, &qi.Item.Runtime, &qi.Item.Tagline,
			&qi.Item.CriticRating, &qi.Item.VoterCount, &qi.Item.ReviewSummary,
			&qi.Item.Budget, &qi.Item.BoxOffice,
			&qi.Item.CreatedAt, &qi.Item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("next unshown: scan hydrated row: %w", err)
		}

		items = append(items, qi)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("next unshown: iterating hydrated rows: %w", err)
	}

	return items, nil
}

// MarkRated transitions every record of the user referencing itemID to Rated.
// Rated is terminal; repeated calls are no-ops.
func (r *RecommendationsRepository) MarkRated(ctx context.Context, userID string, itemID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE recommendation_records
		SET shown = true, rated = true
		WHERE user_id = $1 AND item_id = $2 AND NOT rated`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("mark rated: %w", err)
	}

	return nil
}

// Status returns the per-state counts of the user's delivery queue.
func (r *RecommendationsRepository) Status(ctx context.Context, userID string) (models.QueueStatus, error) {
	var s models.QueueStatus

	err := r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE NOT shown AND NOT rated),
			count(*) FILTER (WHERE shown AND NOT rated),
			count(*) FILTER (WHERE rated)
		FROM recommendation_records
		WHERE user_id = $1`,
		userID,
	).Scan(&s.Total, &s.Unshown, &s.Shown, &s.Rated)
	if err != nil {
		return models.QueueStatus{}, fmt.Errorf("queue status: %w", err)
	}

	s.Available = s.Unshown + s.Shown

	return s, nil
}
