package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// PreferencesRepository handles data access for the user_preferences table.
type PreferencesRepository struct {
	db *pgxpool.Pool
}

// NewPreferencesRepository creates a new preferences repository.
func NewPreferencesRepository(db *pgxpool.Pool) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Upsert inserts or updates the preference row for (user, type, value). On
// conflict the strength and embedding are replaced and updated_at bumped, so
// an embedding is only regenerated when the caller re-embeds a changed value.
func (r *PreferencesRepository) Upsert(
	ctx context.Context, userID string, prefType models.PreferenceType, value string, strength float64, embedding []float32,
) error {
	vec := pgvector.NewVector(embedding)
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO user_preferences (id, user_id, type, value, strength, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id, type, value)
		DO UPDATE SET strength = EXCLUDED.strength, embedding = EXCLUDED.embedding, updated_at = $7`,
		uuid.New(), userID, prefType, value, strength, vec, now,
	)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}

	return nil
}

// NearestByEmbedding returns the user's k preferences nearest to queryEmbedding.
// Uses cosine distance (<=>); similarity = 1 - distance, so it can exceed 1 for
// non-normalized vectors on either side.
func (r *PreferencesRepository) NearestByEmbedding(
	ctx context.Context, userID string, queryEmbedding []float32, k int,
) ([]models.ScoredPreference, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, value, strength, created_at, updated_at,
			(1 - (embedding <=> $2)) AS similarity
		FROM user_preferences
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3`,
		userID, queryVec, k,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest preferences: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredPreference

	for rows.Next() {
		var sp models.ScoredPreference
		if err := rows.Scan(
			&sp.Preference.ID, &sp.Preference.UserID, &sp.Preference.Type, &sp.Preference.Value,
			&sp.Preference.Strength, &sp.Preference.CreatedAt, &sp.Preference.UpdatedAt,
			&sp.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan scored preference: %w", err)
		}

		results = append(results, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest preferences: %w", err)
	}

	return results, nil
}

// ListByUser returns up to k of the user's preferences without any vector
// ordering. The fallback path when the vector operator is unavailable.
func (r *PreferencesRepository) ListByUser(ctx context.Context, userID string, k int) ([]models.PreferenceVector, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, value, strength, created_at, updated_at
		FROM user_preferences
		WHERE user_id = $1
		LIMIT $2`,
		userID, k,
	)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.PreferenceVector

	for rows.Next() {
		var p models.PreferenceVector
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Type, &p.Value, &p.Strength, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}

		prefs = append(prefs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating preferences: %w", err)
	}

	return prefs, nil
}
