// Package catalog persists canonical items, preferring external catalog data
// over model-produced fields when the external API knows the title.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/ratelimit"
)

// Store is the repository surface the service writes through.
type Store interface {
	Upsert(ctx context.Context, item models.CatalogItem) error
	GetByID(ctx context.Context, id int64) (*models.CatalogItem, error)
}

// ExternalClient resolves titles and ids against the external catalog API.
type ExternalClient interface {
	Search(ctx context.Context, title string, year int) (*models.CatalogItem, error)
	Details(ctx context.Context, id int64) (*models.CatalogItem, error)
}

// Service persists catalog items. When an external client is configured it
// backfills missing base fields from the external API before writing, with
// every outbound call going through the sliding-window limiter. External
// lookups are best effort; the item always lands in the store.
type Service struct {
	store    Store
	external ExternalClient
	limiter  *ratelimit.Limiter

	// Spreads calls across the window instead of bursting the full quota at
	// its start.
	smoother *rate.Limiter

	logger *slog.Logger
}

// ServiceParams configures a catalog Service.
type ServiceParams struct {
	Store    Store
	External ExternalClient
	Limiter  *ratelimit.Limiter
	Logger   *slog.Logger
}

// NewService creates a catalog Service. External and Limiter may be nil, in
// which case writes go straight to the store.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var smoother *rate.Limiter
	if p.External != nil {
		smoother = rate.NewLimiter(rate.Limit(ratelimit.DefaultMaxRequests), ratelimit.DefaultMaxRequests/4)
	}

	return &Service{
		store:    p.Store,
		external: p.External,
		limiter:  p.Limiter,
		smoother: smoother,
		logger:   logger,
	}
}

// Upsert writes the item, first filling base fields the model left blank from
// the external catalog when possible. The item's id is never changed here;
// identity is decided upstream and records may already reference it.
func (s *Service) Upsert(ctx context.Context, item models.CatalogItem) error {
	if s.external != nil && sparse(item) {
		if external, err := s.lookup(ctx, item.Title, item.Year); err != nil {
			s.logger.Debug("external catalog lookup failed, storing model fields",
				"title", item.Title, "year", item.Year, "error", err)
		} else {
			item = mergeBaseFields(item, external)
		}
	}

	if err := s.store.Upsert(ctx, item); err != nil {
		return fmt.Errorf("catalog upsert: %w", err)
	}

	return nil
}

// GetByID returns the stored item.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.CatalogItem, error) {
	return s.store.GetByID(ctx, id)
}

// Resolve finds the canonical catalog record for a title via the external API,
// through the rate limiter. Used when callers reference items by title only.
func (s *Service) Resolve(ctx context.Context, title string, year int) (*models.CatalogItem, error) {
	if s.external == nil {
		return nil, fmt.Errorf("resolve %q: no external catalog configured", title)
	}

	return s.lookup(ctx, title, year)
}

func (s *Service) lookup(ctx context.Context, title string, year int) (*models.CatalogItem, error) {
	if s.smoother != nil {
		if err := s.smoother.Wait(ctx); err != nil {
			return nil, fmt.Errorf("catalog lookup wait: %w", err)
		}
	}

	var found *models.CatalogItem

	call := func() error {
		item, err := s.external.Search(ctx, title, year)
		if err != nil {
			return err
		}

		found = item

		return nil
	}

	if s.limiter != nil {
		if err := s.limiter.Execute(ctx, call); err != nil {
			return nil, err
		}
	} else if err := call(); err != nil {
		return nil, err
	}

	return found, nil
}

// sparse reports whether the item is missing fields the external API can supply.
func sparse(item models.CatalogItem) bool {
	return item.Overview == "" || item.PosterPath == "" || item.ReleaseDate == ""
}

// mergeBaseFields fills blanks in item from the external record without
// touching identity or anything the model already supplied.
func mergeBaseFields(item models.CatalogItem, external *models.CatalogItem) models.CatalogItem {
	if item.Overview == "" {
		item.Overview = external.Overview
	}

	if item.PosterPath == "" {
		item.PosterPath = external.PosterPath
	}

	if item.BackdropPath == "" {
		item.BackdropPath = external.BackdropPath
	}

	if item.ReleaseDate == "" {
		item.ReleaseDate = external.ReleaseDate
	}

	if item.Year == 0 {
		item.Year = external.Year
	}

	if item.VoteAverage == 0 {
		item.VoteAverage = external.VoteAverage
	}

	if item.VoteCount == 0 {
		item.VoteCount = external.VoteCount
	}

	if item.Popularity == 0 {
		item.Popularity = external.Popularity
	}

	if item.Language == "" {
		item.Language = external.Language
	}

	if len(item.Genres) == 0 {
		item.Genres = external.Genres
	}

	return item
}
