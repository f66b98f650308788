// Package preferences stores, searches and extracts per-user taste vectors.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/karthikc911/cinevibe-sub001/internal/embeddings"
	"github.com/karthikc911/cinevibe-sub001/internal/llm"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

const (
	// DefaultTopK is the retrieve page size when the caller does not say.
	DefaultTopK = 10

	// fallbackSimilarity is the neutral score attached to preferences served
	// from the non-vector fallback path, where no real distance exists.
	fallbackSimilarity = 0.5

	queryCacheSize    = 512
	analyzeMaxTokens  = 2048
	analyzeRatingsCap = 100
)

const analyzeSystemPrompt = `You are a film-taste analyst. Given a list of ` +
	`titles a user loved, extract the distinct preferences they imply as JSON. ` +
	`Allowed types: genre, actor, director, theme, style, era. ` +
	`Strength is your confidence in [0,1]. Be specific; "movies" is not a preference.`

// PreferenceStore is the persistence surface for taste vectors.
type PreferenceStore interface {
	Upsert(ctx context.Context, userID string, prefType models.PreferenceType, value string, strength float64, embedding []float32) error
	NearestByEmbedding(ctx context.Context, userID string, queryEmbedding []float32, k int) ([]models.ScoredPreference, error)
	ListByUser(ctx context.Context, userID string, k int) ([]models.PreferenceVector, error)
}

// RatingStore provides the positive-rating history analysis works from.
type RatingStore interface {
	ListPositiveRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error)
}

// Service embeds, stores and retrieves preference vectors and extracts new
// ones from rating history.
type Service struct {
	store    PreferenceStore
	ratings  RatingStore
	embedder embeddings.Client
	analyzer llm.StructuredClient
	logger   *slog.Logger

	// Query embeddings are cached: retrieve is read-heavy and the same query
	// strings repeat across requests. Singleflight collapses concurrent misses.
	queryCache *lru.Cache[string, []float32]
	group      singleflight.Group
}

// ServiceParams configures a preferences Service.
type ServiceParams struct {
	Store    PreferenceStore
	Ratings  RatingStore
	Embedder embeddings.Client
	Analyzer llm.StructuredClient
	Logger   *slog.Logger
}

// NewService creates a preferences Service.
func NewService(p ServiceParams) (*Service, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, []float32](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	return &Service{
		store:      p.Store,
		ratings:    p.Ratings,
		embedder:   p.Embedder,
		analyzer:   p.Analyzer,
		logger:     logger,
		queryCache: cache,
	}, nil
}

// Embed produces the embedding vector for text. Empty input fails loudly;
// silently embedding "" would poison similarity search with a junk vector.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embeddings.ErrEmptyInput
	}

	vec, err := s.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	return vec, nil
}

// Store embeds and persists one preference. The embedded text is
// "{type}: {value}" so that, say, actor "Ridley Scott" and director
// "Ridley Scott" land in different places.
func (s *Service) Store(ctx context.Context, userID string, prefType models.PreferenceType, value string, strength float64) error {
	vec, err := s.Embed(ctx, fmt.Sprintf("%s: %s", prefType, value))
	if err != nil {
		return fmt.Errorf("embed preference: %w", err)
	}

	if err := s.store.Upsert(ctx, userID, prefType, value, strength, vec); err != nil {
		return fmt.Errorf("store preference: %w", err)
	}

	return nil
}

// Retrieve returns up to k of the user's preferences most similar to the
// query, ordered by descending similarity. When the vector search fails the
// service degrades to an unordered list with a neutral similarity rather than
// failing the caller; the degradation is logged.
func (s *Service) Retrieve(ctx context.Context, userID, query string, k int) ([]models.ScoredPreference, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := s.store.NearestByEmbedding(ctx, userID, queryVec, k)
	if err == nil {
		return scored, nil
	}

	s.logger.Warn("vector search failed, falling back to unordered preferences",
		"user_id", userID, "error", err)

	prefs, listErr := s.store.ListByUser(ctx, userID, k)
	if listErr != nil {
		return nil, fmt.Errorf("preference fallback: %w", listErr)
	}

	scored = make([]models.ScoredPreference, 0, len(prefs))
	for _, p := range prefs {
		scored = append(scored, models.ScoredPreference{Preference: p, Similarity: fallbackSimilarity})
	}

	return scored, nil
}

// queryEmbedding serves the query vector from cache, collapsing concurrent
// misses for the same string into one provider call.
func (s *Service) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil, embeddings.ErrEmptyInput
	}

	if vec, ok := s.queryCache.Get(key); ok {
		return vec, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		vec, err := s.embedder.CreateEmbedding(ctx, key)
		if err != nil {
			return nil, err
		}

		s.queryCache.Add(key, vec)

		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]float32), nil
}

// extractedPreference is the JSON shape the analyzer returns per preference.
type extractedPreference struct {
	Type     models.PreferenceType `json:"type"`
	Value    string                `json:"value"`
	Strength float64               `json:"strength"`
}

type analyzeResponse struct {
	Preferences []extractedPreference `json:"preferences"`
}

// Analyze extracts typed preferences from the user's positive rating history
// and stores each one. Returns NoDataError when the user has no positive
// ratings. Storage is best effort per preference.
func (s *Service) Analyze(ctx context.Context, userID string) ([]models.PreferenceVector, error) {
	positives, err := s.ratings.ListPositiveRatings(ctx, userID, analyzeRatingsCap)
	if err != nil {
		return nil, fmt.Errorf("list positive ratings: %w", err)
	}

	if len(positives) == 0 {
		return nil, recerrors.NewNoDataError("no positively rated items to analyze")
	}

	raw, err := s.analyzer.CompleteJSON(ctx, analyzeSystemPrompt, buildAnalyzePrompt(positives), analyzeMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("analyze preferences: %w", err)
	}

	var resp analyzeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, recerrors.NewParseFailure("preference analysis response is not valid JSON", err)
	}

	stored := make([]models.PreferenceVector, 0, len(resp.Preferences))

	for _, ep := range resp.Preferences {
		if !validPreferenceType(ep.Type) || strings.TrimSpace(ep.Value) == "" {
			continue
		}

		if ep.Strength < 0 {
			ep.Strength = 0
		}
		if ep.Strength > 1 {
			ep.Strength = 1
		}

		if err := s.Store(ctx, userID, ep.Type, ep.Value, ep.Strength); err != nil {
			s.logger.Warn("failed to store extracted preference",
				"user_id", userID, "type", ep.Type, "value", ep.Value, "error", err)

			continue
		}

		stored = append(stored, models.PreferenceVector{
			UserID: userID, Type: ep.Type, Value: ep.Value, Strength: ep.Strength,
		})
	}

	s.logger.Info("preference analysis complete",
		"user_id", userID, "ratings", len(positives),
		"extracted", len(resp.Preferences), "stored", len(stored))

	return stored, nil
}

func buildAnalyzePrompt(positives []models.Rating) string {
	var b strings.Builder

	b.WriteString("Titles the user rated positively, newest first:\n")

	for _, r := range positives {
		fmt.Fprintf(&b, "- %s (%d): %s\n", r.ItemTitle, r.ItemYear, r.Value)
	}

	b.WriteString("\nReturn JSON: {\"preferences\": [{\"type\": \"genre|actor|director|theme|style|era\", ")
	b.WriteString("\"value\": \"...\", \"strength\": 0.0}]}")

	return b.String()
}

func validPreferenceType(t models.PreferenceType) bool {
	switch t {
	case models.PreferenceGenre, models.PreferenceActor, models.PreferenceDirector,
		models.PreferenceTheme, models.PreferenceStyle, models.PreferenceEra:
		return true
	default:
		return false
	}
}
