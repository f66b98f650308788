// Package synthesis implements the two-stage LLM recommendation pipeline and
// its orchestrator.
package synthesis

import (
	"fmt"
	"strings"

	"github.com/karthikc911/cinevibe-sub001/internal/models"
)

const retrievalSystemPrompt = `You are a film and television discovery assistant with access to live search.
You find real, currently available movies and TV shows matching a viewer's taste.
Always include for every candidate: title, release year, critic rating, runtime,
spoken languages, genres, a short synopsis, a poster reference, box office gross,
and one sentence on why it fits this specific viewer. Never recommend anything
from the viewer's already-seen list.`

const refinementSystemPrompt = `You are a strict data formatter for a movie recommendation service.
You are given raw research notes about candidate titles plus a viewer's taste profile.
Respond with a single JSON object and nothing else.`

// BuildRetrievalPrompt embeds the full taste profile and filter constraints
// into a natural-language research request for the search-augmented model.
func BuildRetrievalPrompt(profile *models.TasteProfile, filters models.SynthesisFilters) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Find %d movies or TV shows for this viewer.\n\n", filters.Count)

	writeBucket(&b, "Titles the viewer rated AMAZING (lean hard into these)", profile.Amazing)
	writeBucket(&b, "Titles the viewer rated GOOD", profile.Good)
	writeBucket(&b, "Titles the viewer rated MEH", profile.Meh)
	writeBucket(&b, "Titles the viewer rated AWFUL (avoid anything similar)", profile.Awful)

	if excluded := profile.Exclusion.Titles(); len(excluded) > 0 {
		writeBucket(&b, "Already seen or rejected, NEVER suggest any of these", excluded)
	}

	writeFilters(&b, profile, filters)

	if profile.Instructions != "" {
		fmt.Fprintf(&b, "\nViewer's own instructions: %s\n", profile.Instructions)
	}

	b.WriteString("\nFor each candidate list title, year, rating, runtime, languages, genres, synopsis, poster reference, box office, and why it fits.")

	return retrievalSystemPrompt, b.String()
}

// BuildRefinementPrompt instructs the structured model to turn raw research
// notes into exactly count schema-conformant, taste-ranked records.
func BuildRefinementPrompt(raw string, profile *models.TasteProfile, filters models.SynthesisFilters) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Research notes:\n%s\n\n", raw)

	writeBucket(&b, "Viewer rated AMAZING", profile.Amazing)
	writeBucket(&b, "Viewer rated GOOD", profile.Good)
	writeBucket(&b, "Viewer rated AWFUL", profile.Awful)

	if excluded := profile.Exclusion.Titles(); len(excluded) > 0 {
		writeBucket(&b, "Forbidden titles (never include)", excluded)
	}

	fmt.Fprintf(&b, `
Produce EXACTLY %d items as a JSON object of the shape:
{"recommendations": [{
  "id": 0,
  "title": "", "original_title": "", "overview": "",
  "poster_path": "", "backdrop_path": "",
  "release_date": "YYYY-MM-DD", "year": 0,
  "vote_average": 0.0, "vote_count": 0, "popularity": 0.0,
  "language": "", "genres": [], "runtime": 0, "tagline": "",
  "critic_rating": 0.0,
  "reason": "", "match_percentage": 0
}]}

Rules:
- Rank items best-match first, biased toward the AMAZING and GOOD lists and away from AWFUL.
- match_percentage is your 0-100 confidence this viewer will enjoy the title.
- reason is one sentence referencing the viewer's taste.
- Use the canonical TMDB id when you know it, otherwise 0.
- Never include a forbidden title.
`, filters.Count)

	return refinementSystemPrompt, b.String()
}

// writeBucket appends a labelled "{title} ({year})" list when non-empty.
func writeBucket(b *strings.Builder, label string, items []models.TitleYear) {
	if len(items) == 0 {
		return
	}

	fmt.Fprintf(b, "%s:\n", label)

	for _, ty := range items {
		fmt.Fprintf(b, "- %s (%d)\n", ty.Title, ty.Year)
	}

	b.WriteString("\n")
}

// writeFilters appends the hard constraints of the run.
func writeFilters(b *strings.Builder, profile *models.TasteProfile, filters models.SynthesisFilters) {
	b.WriteString("Constraints:\n")

	if filters.YearFrom > 0 || filters.YearTo > 0 {
		fmt.Fprintf(b, "- Released between %s and %s\n", yearOrAny(filters.YearFrom), yearOrAny(filters.YearTo))
	}

	if len(filters.Genres) > 0 {
		fmt.Fprintf(b, "- Genres: %s\n", strings.Join(filters.Genres, ", "))
	} else if len(profile.GenrePrefs) > 0 {
		fmt.Fprintf(b, "- Preferred genres: %s\n", strings.Join(profile.GenrePrefs, ", "))
	}

	if len(filters.Languages) > 0 {
		fmt.Fprintf(b, "- Languages: %s\n", strings.Join(filters.Languages, ", "))
	} else if len(profile.Languages) > 0 {
		fmt.Fprintf(b, "- Preferred languages: %s\n", strings.Join(profile.Languages, ", "))
	}

	if filters.MinCriticRating > 0 {
		fmt.Fprintf(b, "- Critic rating at least %.1f\n", filters.MinCriticRating)
	}

	if filters.MinBoxOffice > 0 {
		fmt.Fprintf(b, "- Box office at least $%d\n", filters.MinBoxOffice)
	}

	if filters.MaxBudget > 0 {
		fmt.Fprintf(b, "- Production budget at most $%d\n", filters.MaxBudget)
	}
}

func yearOrAny(year int) string {
	if year <= 0 {
		return "any"
	}

	return fmt.Sprintf("%d", year)
}
