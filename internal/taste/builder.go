// Package taste derives a user's taste profile from their rating history.
package taste

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// RatingStore provides the rating rows the profile is built from.
type RatingStore interface {
	ListRatings(ctx context.Context, userID string, limit int) ([]models.Rating, error)
}

// WatchlistStore provides the watchlist and skip history feeding the exclusion
// set. Implemented by an external collaborator; either list may be empty.
type WatchlistStore interface {
	ListWatchlist(ctx context.Context, userID string) ([]models.TitleYear, error)
	ListSkipped(ctx context.Context, userID string) ([]models.TitleYear, error)
}

// ProfileStore provides the user's language/genre preferences and free-text
// instructions. Implemented by an external collaborator.
type ProfileStore interface {
	GetLanguages(ctx context.Context, userID string) ([]string, error)
	GetGenrePrefs(ctx context.Context, userID string) ([]string, error)
	GetFreeTextInstructions(ctx context.Context, userID string) (string, error)
}

// Builder converts a user's stored history into a TasteProfile. Pure read; no
// side effects.
type Builder struct {
	ratings    RatingStore
	watchlist  WatchlistStore
	profile    ProfileStore
	minRatings int
	ratingCap  int
	logger     *slog.Logger
}

// BuilderParams configures a Builder. Watchlist and Profile may be nil when no
// collaborator is wired; the exclusion set then covers ratings only.
type BuilderParams struct {
	Ratings    RatingStore
	Watchlist  WatchlistStore
	Profile    ProfileStore
	MinRatings int
	RatingCap  int
	Logger     *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(p BuilderParams) *Builder {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	minRatings := p.MinRatings
	if minRatings <= 0 {
		minRatings = 3
	}

	ratingCap := p.RatingCap
	if ratingCap <= 0 {
		ratingCap = 100
	}

	return &Builder{
		ratings:    p.Ratings,
		watchlist:  p.Watchlist,
		profile:    p.Profile,
		minRatings: minRatings,
		ratingCap:  ratingCap,
		logger:     logger,
	}
}

// Build fetches the user's most recent ratings, partitions them into buckets,
// and computes the exclusion set. Returns InsufficientDataError when the count
// of on-platform ratings (not-interested excluded) is below the minimum.
func (b *Builder) Build(ctx context.Context, userID string) (*models.TasteProfile, error) {
	ratings, err := b.ratings.ListRatings(ctx, userID, b.ratingCap)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	profile := &models.TasteProfile{
		UserID:    userID,
		Exclusion: make(models.ExclusionSet),
	}

	for _, rt := range ratings {
		ty := models.TitleYear{Title: rt.ItemTitle, Year: rt.ItemYear}

		switch rt.Value {
		case models.RatingAmazing:
			profile.Amazing = append(profile.Amazing, ty)
		case models.RatingGood:
			profile.Good = append(profile.Good, ty)
		case models.RatingMeh:
			profile.Meh = append(profile.Meh, ty)
		case models.RatingAwful:
			profile.Awful = append(profile.Awful, ty)
		case models.RatingNotSeen:
			profile.NotSeen = append(profile.NotSeen, ty)
		}

		// Every rated row is excluded, not-interested included.
		profile.Exclusion.Add(rt.ItemTitle, rt.ItemYear)
	}

	if profile.RatedCount() < b.minRatings {
		return nil, recerrors.NewInsufficientDataError(profile.RatedCount(), b.minRatings)
	}

	if err := b.addCollaboratorData(ctx, userID, profile); err != nil {
		return nil, err
	}

	b.logger.Debug("taste profile built",
		"user_id", userID,
		"rated", profile.RatedCount(),
		"excluded", len(profile.Exclusion),
	)

	return profile, nil
}

// addCollaboratorData merges watchlist, skip history, and stated preferences
// into the profile when those collaborators are wired.
func (b *Builder) addCollaboratorData(ctx context.Context, userID string, profile *models.TasteProfile) error {
	if b.watchlist != nil {
		watchlisted, err := b.watchlist.ListWatchlist(ctx, userID)
		if err != nil {
			return fmt.Errorf("list watchlist: %w", err)
		}

		for _, ty := range watchlisted {
			profile.Exclusion.Add(ty.Title, ty.Year)
		}

		skipped, err := b.watchlist.ListSkipped(ctx, userID)
		if err != nil {
			return fmt.Errorf("list skipped: %w", err)
		}

		for _, ty := range skipped {
			profile.Exclusion.Add(ty.Title, ty.Year)
		}
	}

	if b.profile != nil {
		languages, err := b.profile.GetLanguages(ctx, userID)
		if err != nil {
			return fmt.Errorf("get languages: %w", err)
		}

		genres, err := b.profile.GetGenrePrefs(ctx, userID)
		if err != nil {
			return fmt.Errorf("get genre prefs: %w", err)
		}

		instructions, err := b.profile.GetFreeTextInstructions(ctx, userID)
		if err != nil {
			return fmt.Errorf("get instructions: %w", err)
		}

		profile.Languages = languages
		profile.GenrePrefs = genres
		profile.Instructions = instructions
	}

	return nil
}
