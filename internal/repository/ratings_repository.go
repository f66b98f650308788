// Package repository provides pgx-backed data access for the recommendation core.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// RatingsRepository handles data access for the ratings table.
type RatingsRepository struct {
	db *pgxpool.Pool
}

// NewRatingsRepository creates a new ratings repository.
func NewRatingsRepository(db *pgxpool.Pool) *RatingsRepository {
	return &RatingsRepository{db: db}
}

// ListRatings returns the user's ratings ordered by recency, newest first.
// limit <= 0 means no cap.
func (r *RatingsRepository) ListRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error) {
	query := `
		SELECT user_id, item_id, item_title, item_year, value, created_at, updated_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating

	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(
			&rt.UserID, &rt.ItemID, &rt.ItemTitle, &rt.ItemYear,
			&rt.Value, &rt.CreatedAt, &rt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}

		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ratings: %w", err)
	}

	return ratings, nil
}

// ListPositiveRatings returns the user's most recent "amazing" and "good"
// ratings, newest first, capped at limit.
func (r *RatingsRepository) ListPositiveRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, item_id, item_title, item_year, value, created_at, updated_at
		FROM ratings
		WHERE user_id = $1 AND value IN ($2, $3)
		ORDER BY updated_at DESC
		LIMIT $4`,
		userID, models.RatingAmazing, models.RatingGood, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list positive ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating

	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(
			&rt.UserID, &rt.ItemID, &rt.ItemTitle, &rt.ItemYear,
			&rt.Value, &rt.CreatedAt, &rt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}

		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating positive ratings: %w", err)
	}

	return ratings, nil
}

// Upsert writes one rating. Later writes for the same (user, item) overwrite
// the value and bump updated_at.
func (r *RatingsRepository) Upsert(ctx context.Context, rating models.Rating) error {
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO ratings (user_id, item_id, item_title, item_year, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = $6`,
		rating.UserID, rating.ItemID, rating.ItemTitle, rating.ItemYear, rating.Value, now,
	)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}

	return nil
}
