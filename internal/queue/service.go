// Package queue serves the per-user delivery queue of recommendation records.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

// ErrInvalidLimit is returned when nextBatch is asked for a non-positive page.
var ErrInvalidLimit = errors.New("limit must be positive")

// DefaultLimit is the page size when the caller does not specify one.
const DefaultLimit = 10

// RecordStore provides the persisted record operations the queue serves from.
// NextUnshown must mark the returned page Shown atomically.
type RecordStore interface {
	NextUnshown(ctx context.Context, userID string, limit int) ([]models.QueuedItem, error)
	MarkRated(ctx context.Context, userID string, itemID int64) error
	Status(ctx context.Context, userID string) (models.QueueStatus, error)
}

// Service exposes the delivery queue to collaborators. Record state only moves
// forward: Unshown -> Shown -> Rated.
type Service struct {
	records RecordStore
	logger  *slog.Logger
}

// NewService creates a queue Service.
func NewService(records RecordStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{records: records, logger: logger}
}

// NextBatch returns the next page of unshown records, newest batch first and
// position order within a batch, hydrated with catalog data. The page is
// marked Shown before it is returned, so a repeat call yields a disjoint set.
func (s *Service) NextBatch(ctx context.Context, userID string, limit int) ([]models.QueuedItem, error) {
	if limit == 0 {
		limit = DefaultLimit
	}

	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	items, err := s.records.NextUnshown(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("next batch: %w", err)
	}

	s.logger.Debug("delivery page served", "user_id", userID, "requested", limit, "served", len(items))

	return items, nil
}

// MarkRated transitions the user's record(s) for itemID to the terminal Rated
// state. Idempotent; repeated calls are no-ops.
func (s *Service) MarkRated(ctx context.Context, userID string, itemID int64) error {
	if err := s.records.MarkRated(ctx, userID, itemID); err != nil {
		return fmt.Errorf("mark rated: %w", err)
	}

	return nil
}

// Status returns the queue counts. Available is derived as unshown + shown.
func (s *Service) Status(ctx context.Context, userID string) (models.QueueStatus, error) {
	status, err := s.records.Status(ctx, userID)
	if err != nil {
		return models.QueueStatus{}, fmt.Errorf("queue status: %w", err)
	}

	status.Available = status.Unshown + status.Shown

	return status, nil
}
