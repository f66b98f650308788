// Package models defines the domain types shared across the recommendation core.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RatingValue is the fixed vocabulary a user can rate an item with.
type RatingValue string

const (
	RatingAmazing       RatingValue = "amazing"
	RatingGood          RatingValue = "good"
	RatingMeh           RatingValue = "meh"
	RatingAwful         RatingValue = "awful"
	RatingNotSeen       RatingValue = "not-seen"
	RatingNotInterested RatingValue = "not-interested"
)

// Positive reports whether the rating signals taste the synthesis should lean into.
func (v RatingValue) Positive() bool {
	return v == RatingAmazing || v == RatingGood
}

// Rating is one user's verdict on one item. One row per (user, item); upserts overwrite.
type Rating struct {
	UserID    string      `json:"user_id"`
	ItemID    int64       `json:"item_id"`
	ItemTitle string      `json:"item_title"`
	ItemYear  int         `json:"item_year"`
	Value     RatingValue `json:"value"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TitleYear identifies an item by title and release year when no canonical id exists.
type TitleYear struct {
	Title string
	Year  int
}

// TasteProfile is the categorized view of a user's history fed into LLM prompts.
// It is derived per synthesis run and never persisted.
type TasteProfile struct {
	UserID  string
	Amazing []TitleYear
	Good    []TitleYear
	Meh     []TitleYear
	Awful   []TitleYear
	NotSeen []TitleYear

	// Exclusion is the union of all rated, watchlisted, skipped and
	// not-interested items. Nothing in it may ever be recommended again.
	Exclusion ExclusionSet

	Languages    []string
	GenrePrefs   []string
	Instructions string
}

// RatedCount is the number of on-platform ratings backing the profile.
func (p *TasteProfile) RatedCount() int {
	return len(p.Amazing) + len(p.Good) + len(p.Meh) + len(p.Awful) + len(p.NotSeen)
}

// ExclusionSet holds normalized (title, year) pairs with O(1) membership tests.
type ExclusionSet map[TitleYear]struct{}

// Add inserts a pair after normalization.
func (s ExclusionSet) Add(title string, year int) {
	s[NormalizeTitleYear(title, year)] = struct{}{}
}

// Contains reports whether the normalized pair is excluded.
func (s ExclusionSet) Contains(title string, year int) bool {
	_, ok := s[NormalizeTitleYear(title, year)]
	return ok
}

// Titles returns the excluded pairs in unspecified order, for prompt embedding.
func (s ExclusionSet) Titles() []TitleYear {
	out := make([]TitleYear, 0, len(s))
	for ty := range s {
		out = append(out, ty)
	}

	return out
}

// CatalogItem is the canonical movie/show record. The numeric ID is the sole
// identity: externally issued when the catalog API knows the title, locally
// hashed otherwise. Enrichment fields stay nil until backfilled.
type CatalogItem struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	OriginalTitle string     `json:"original_title"`
	Overview      string     `json:"overview"`
	PosterPath    string     `json:"poster_path"`
	BackdropPath  string     `json:"backdrop_path"`
	ReleaseDate   string     `json:"release_date"`
	Year          int        `json:"year"`
	VoteAverage   float64    `json:"vote_average"`
	VoteCount     int        `json:"vote_count"`
	Popularity    float64    `json:"popularity"`
	Language      string     `json:"language"`
	Genres        []string   `json:"genres"`
	Runtime       int        `json:"runtime"`
	Tagline       string     `json:"tagline"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Enrichment fields, nullable until the lazy backfill fills them.
	CriticRating  *float64 `json:"critic_rating,omitempty"`
	VoterCount    *int     `json:"voter_count,omitempty"`
	ReviewSummary *string  `json:"review_summary,omitempty"`
	Budget        *int64   `json:"budget,omitempty"`
	BoxOffice     *int64   `json:"box_office,omitempty"`
}

// EnrichmentFields are the lazily backfilled optional catalog fields.
// Nil fields mean "the fact call did not know"; they never overwrite anything.
type EnrichmentFields struct {
	CriticRating  *float64 `json:"critic_rating"`
	VoterCount    *int     `json:"voter_count"`
	ReviewSummary *string  `json:"review_summary"`
	Budget        *int64   `json:"budget"`
	BoxOffice     *int64   `json:"box_office"`
	Genres        []string `json:"genres"`
}

// Empty reports whether the fact call produced nothing usable.
func (e EnrichmentFields) Empty() bool {
	return e.CriticRating == nil && e.VoterCount == nil && e.ReviewSummary == nil &&
		e.Budget == nil && e.BoxOffice == nil && len(e.Genres) == 0
}

// RecommendationBatch groups one synthesis run.
type RecommendationBatch struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	RequestedCount int       `json:"requested_count"`
}

// RecommendationRecord is one per-user delivery-queue row. Lifecycle is strictly
// Unshown -> Shown -> Rated; a record never reverts.
type RecommendationRecord struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"user_id"`
	ItemID          int64     `json:"item_id"`
	BatchID         uuid.UUID `json:"batch_id"`
	Position        int       `json:"position"`
	Reason          string    `json:"reason"`
	MatchPercentage int       `json:"match_percentage"`
	Shown           bool      `json:"shown"`
	Rated           bool      `json:"rated"`
	CreatedAt       time.Time `json:"created_at"`
}

// QueuedItem is a delivery-queue record hydrated with its catalog item.
type QueuedItem struct {
	Record RecommendationRecord `json:"record"`
	Item   CatalogItem          `json:"item"`
}

// QueueStatus summarizes a user's delivery queue. Available is derived, never stored.
type QueueStatus struct {
	Total     int `json:"total"`
	Unshown   int `json:"unshown"`
	Shown     int `json:"shown"`
	Rated     int `json:"rated"`
	Available int `json:"available"`
}

// SynthesisFilters constrain one synthesis run.
type SynthesisFilters struct {
	Count           int      `json:"count"`
	YearFrom        int      `json:"year_from,omitempty"`
	YearTo          int      `json:"year_to,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	MinCriticRating float64  `json:"min_critic_rating,omitempty"`
	MinBoxOffice    int64    `json:"min_box_office,omitempty"`
	MaxBudget       int64    `json:"max_budget,omitempty"`
}

// Candidate is one schema-conformant item returned by the refinement stage.
type Candidate struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	OriginalTitle   string   `json:"original_title"`
	Overview        string   `json:"overview"`
	PosterPath      string   `json:"poster_path"`
	BackdropPath    string   `json:"backdrop_path"`
	ReleaseDate     string   `json:"release_date"`
	Year            int      `json:"year"`
	VoteAverage     float64  `json:"vote_average"`
	VoteCount       int      `json:"vote_count"`
	Popularity      float64  `json:"popularity"`
	Language        string   `json:"language"`
	Genres          []string `json:"genres"`
	Runtime         int      `json:"runtime"`
	Tagline         string   `json:"tagline"`
	CriticRating    float64  `json:"critic_rating"`
	Reason          string   `json:"reason"`
	MatchPercentage int      `json:"match_percentage"`
}

// BatchResult is what synthesize returns to the caller.
// SuccessfullyStored + Failed always equals TotalRequested.
type BatchResult struct {
	BatchID            uuid.UUID              `json:"batch_id"`
	TotalRequested     int                    `json:"total_requested"`
	SuccessfullyStored int                    `json:"successfully_stored"`
	Failed             int                    `json:"failed"`
	Records            []RecommendationRecord `json:"records"`
}

// PreferenceType categorizes an extracted taste preference.
type PreferenceType string

const (
	PreferenceGenre    PreferenceType = "genre"
	PreferenceActor    PreferenceType = "actor"
	PreferenceDirector PreferenceType = "director"
	PreferenceTheme    PreferenceType = "theme"
	PreferenceStyle    PreferenceType = "style"
	PreferenceEra      PreferenceType = "era"
)

// PreferenceVector is one stored taste preference with its embedding.
// The embedding is written once and only regenerated when value/strength change.
type PreferenceVector struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Type      PreferenceType `json:"type"`
	Value     string         `json:"value"`
	Strength  float64        `json:"strength"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ScoredPreference pairs a stored preference with its similarity to a query.
type ScoredPreference struct {
	Preference PreferenceVector `json:"preference"`
	Similarity float64          `json:"similarity"`
}
