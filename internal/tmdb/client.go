// Package tmdb is a minimal client for the external movie catalog API. It
// covers only the calls the recommendation pipeline needs: resolving a title
// to a canonical id and fetching full details for an id.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// DefaultBaseURL is the production catalog API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ClientOptions configures the catalog API client.
type ClientOptions struct {
	// BaseURL is the API root (default DefaultBaseURL).
	BaseURL string
	// APIKey is the bearer token.
	APIKey string
	// RetryMax is the maximum number of retries (default 3).
	RetryMax int
	// Timeout is the HTTP client timeout (default 15 seconds).
	Timeout time.Duration
}

// Client talks to the external catalog API. All methods honor the context and
// return typed errors; rate limiting is the caller's job.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a catalog client with default settings.
func NewClient(apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{APIKey: apiKey})
}

// NewClientWithOptions creates a catalog client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

// searchResponse is the wire shape of /search/movie.
type searchResponse struct {
	Results []movieResult `json:"results"`
}

// movieResult is the wire shape of one movie, shared by search and details.
type movieResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	ReleaseDate   string  `json:"release_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
	Language      string  `json:"original_language"`
	Runtime       int     `json:"runtime"`
	Tagline       string  `json:"tagline"`
	Budget        int64   `json:"budget"`
	Revenue       int64   `json:"revenue"`
	Genres        []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Search resolves a title (and optional year) to the best-matching catalog
// item. Returns NotFoundError when the API has no match.
func (c *Client) Search(ctx context.Context, title string, year int) (*models.CatalogItem, error) {
	params := url.Values{}
	params.Set("query", title)

	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var resp searchResponse
	if err := c.get(ctx, "/search/movie?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, recerrors.NewNotFoundError("catalog match",
			fmt.Sprintf("no catalog match for %q (%d)", title, year))
	}

	item := resp.Results[0].toItem()

	return &item, nil
}

// Details fetches the full record for a canonical id, including runtime,
// budget, revenue and genres that search results omit.
func (c *Client) Details(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var resp movieResult
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), &resp); err != nil {
		return nil, err
	}

	item := resp.toItem()

	return &item, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create catalog request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read catalog response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return recerrors.NewNotFoundError("catalog item", "catalog item not found upstream")
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}

	return nil
}

func (m movieResult) toItem() models.CatalogItem {
	item := models.CatalogItem{
		ID:            m.ID,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Overview:      m.Overview,
		PosterPath:    m.PosterPath,
		BackdropPath:  m.BackdropPath,
		ReleaseDate:   m.ReleaseDate,
		VoteAverage:   m.VoteAverage,
		VoteCount:     m.VoteCount,
		Popularity:    m.Popularity,
		Language:      m.Language,
		Runtime:       m.Runtime,
		Tagline:       m.Tagline,
	}

	if len(m.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(m.ReleaseDate[:4]); err == nil {
			item.Year = y
		}
	}

	if m.Budget > 0 {
		item.Budget = &m.Budget
	}

	if m.Revenue > 0 {
		item.BoxOffice = &m.Revenue
	}

	for _, g := range m.Genres {
		item.Genres = append(item.Genres, g.Name)
	}

	return item
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
