package synthesis

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/karthikc911/cinevibe-sub001/internal/llm"
	"github.com/karthikc911/cinevibe-sub001/internal/models"
	"github.com/karthikc911/cinevibe-sub001/internal/recerrors"
)

// RetrievalStage is the first pipeline stage: taste profile in, free-text
// candidate facts out. No schema is enforced on the output.
type RetrievalStage interface {
	Retrieve(ctx context.Context, profile *models.TasteProfile, filters models.SynthesisFilters) (string, error)
}

// RefinementStage is the second pipeline stage: raw text in, schema-conformant
// ranked candidates out.
type RefinementStage interface {
	Refine(ctx context.Context, raw string, profile *models.TasteProfile, filters models.SynthesisFilters) ([]models.Candidate, error)
}

// LLMRetrievalStage backs RetrievalStage with a search-augmented completion
// provider. Provider errors surface as RetrievalFailure; no retry here.
type LLMRetrievalStage struct {
	client llm.CompletionClient
}

var _ RetrievalStage = (*LLMRetrievalStage)(nil)

// NewLLMRetrievalStage creates the retrieval stage.
func NewLLMRetrievalStage(client llm.CompletionClient) *LLMRetrievalStage {
	return &LLMRetrievalStage{client: client}
}

// Retrieve asks the search-augmented model for candidate facts. Whatever text
// comes back is accepted whole and handed to the refinement stage.
func (s *LLMRetrievalStage) Retrieve(ctx context.Context, profile *models.TasteProfile, filters models.SynthesisFilters) (string, error) {
	system, user := BuildRetrievalPrompt(profile, filters)

	text, err := s.client.Complete(ctx, system, user)
	if err != nil {
		return "", recerrors.NewRetrievalFailure(err)
	}

	return text, nil
}

// refinementMaxTokens bounds the structured response; ~150 tokens per item
// plus headroom covers the default page sizes.
const refinementMaxTokens = 8192

// LLMRefinementStage backs RefinementStage with a structured-generation
// provider in JSON mode. Provider errors surface as RefinementFailure, schema
// violations as ParseFailure, fatal for the run and never partially salvaged.
type LLMRefinementStage struct {
	client    llm.StructuredClient
	maxTokens int
}

var _ RefinementStage = (*LLMRefinementStage)(nil)

// NewLLMRefinementStage creates the refinement stage.
func NewLLMRefinementStage(client llm.StructuredClient) *LLMRefinementStage {
	return &LLMRefinementStage{client: client, maxTokens: refinementMaxTokens}
}

// refinementResponse is the expected JSON document shape.
type refinementResponse struct {
	Recommendations []models.Candidate `json:"recommendations"`
}

// Refine turns raw retrieval text into ranked candidates.
func (s *LLMRefinementStage) Refine(
	ctx context.Context, raw string, profile *models.TasteProfile, filters models.SynthesisFilters,
) ([]models.Candidate, error) {
	system, user := BuildRefinementPrompt(raw, profile, filters)

	doc, err := s.client.CompleteJSON(ctx, system, user, s.maxTokens)
	if err != nil {
		return nil, recerrors.NewRefinementFailure(err)
	}

	var resp refinementResponse
	if err := json.Unmarshal(doc, &resp); err != nil {
		return nil, recerrors.NewParseFailure("response is not the expected JSON document", err)
	}

	if len(resp.Recommendations) == 0 {
		return nil, recerrors.NewParseFailure("response contains no recommendations", nil)
	}

	for i := range resp.Recommendations {
		sanitizeCandidate(&resp.Recommendations[i])
	}

	return resp.Recommendations, nil
}

// sanitizeCandidate clamps the advisory LLM-assigned fields into their
// documented ranges. match_percentage is trusted, not verified.
func sanitizeCandidate(c *models.Candidate) {
	if c.MatchPercentage < 0 {
		c.MatchPercentage = 0
	}

	if c.MatchPercentage > 100 {
		c.MatchPercentage = 100
	}

	if c.Year == 0 && len(c.ReleaseDate) >= 4 {
		// Best effort; a bad date leaves year at zero.
		if y, err := strconv.Atoi(c.ReleaseDate[:4]); err == nil {
			c.Year = y
		}
	}
}
