// The recommendation engine: derives a taste profile from the user's
// favorites, searches the catalog with it, scores and labels every candidate
// and returns a ranked list. Every failure path has exactly one fallback and
// the engine never returns an error to its caller.

package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/soramanga/sora-go/internal/catalog"
	"github.com/soramanga/sora-go/internal/models"
)

const (
	defaultLimit = 10

	// Results are memoized per favorite set. Entries expire after a day so
	// a stable library still picks up fresh catalog data eventually.
	cacheSize = 128
	cacheTTL  = 24 * time.Hour

	// candidatesPerTerm bounds how many catalog matches one search term may
	// contribute.
	candidatesPerTerm = 10
)

// searchLanguages is passed to every candidate search.
var searchLanguages = []string{"en", "es"}

// defaultProfile is used whenever the advisor is unavailable or answers with
// something unusable.
func defaultProfile() *Profile {
	return &Profile{
		PreferredGenres: []string{"Action", "Adventure", "Fantasy"},
		SearchTerms:     []string{"action", "adventure"},
		Complexity:      "intermediate",
	}
}

// Engine computes recommendations. The advisor may be nil, which disables
// profiling and reason generation but not the popular-titles fallback.
type Engine struct {
	catalog *catalog.Client
	advisor Advisor
	cache   *expirable.LRU[string, []models.AIRecommendation]
}

// NewEngine creates a recommendation engine over the given catalog client.
func NewEngine(c *catalog.Client, advisor Advisor) *Engine {
	return &Engine{
		catalog: c,
		advisor: advisor,
		cache:   expirable.NewLRU[string, []models.AIRecommendation](cacheSize, nil, cacheTTL),
	}
}

// Recommend returns up to limit recommendations for the given favorites,
// sorted by confidence descending. It never fails: a total catalog outage
// yields an empty list.
func (e *Engine) Recommend(ctx context.Context, favorites []models.FavoriteManga, limit int) []models.AIRecommendation {
	if limit <= 0 {
		limit = defaultLimit
	}

	if len(favorites) == 0 {
		return e.popularRecommendations(ctx, limit)
	}

	key := cacheKey(favorites)
	if cached, ok := e.cache.Get(key); ok {
		return truncate(cached, limit)
	}

	profile := e.profileOrDefault(ctx, favorites)
	recommendations := e.searchCandidates(ctx, profile, limit)
	if len(recommendations) == 0 {
		// Every search term failed; fall back to the popular list without
		// caching so a transient outage does not stick for a day.
		return e.popularRecommendations(ctx, limit)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Confidence > recommendations[j].Confidence
	})
	recommendations = truncate(recommendations, limit)

	e.cache.Add(key, recommendations)
	return recommendations
}

// profileOrDefault derives a taste profile via the advisor, substituting the
// default profile for any failure or missing field. This step never fails.
func (e *Engine) profileOrDefault(ctx context.Context, favorites []models.FavoriteManga) *Profile {
	fallback := defaultProfile()
	if e.advisor == nil {
		return fallback
	}

	profile, err := e.advisor.GenerateProfile(ctx, len(favorites))
	if err != nil {
		log.Printf("Advisor profile generation failed, using default profile: %v", err)
		return fallback
	}
	if len(profile.PreferredGenres) == 0 {
		profile.PreferredGenres = fallback.PreferredGenres
	}
	if len(profile.SearchTerms) == 0 {
		profile.SearchTerms = fallback.SearchTerms
	}
	if profile.Complexity == "" {
		profile.Complexity = fallback.Complexity
	}
	return profile
}

// searchCandidates queries the catalog once per search term and scores each
// hit. A failing term is skipped; the remaining terms still run.
func (e *Engine) searchCandidates(ctx context.Context, profile *Profile, limit int) []models.AIRecommendation {
	var recommendations []models.AIRecommendation

	for _, term := range profile.SearchTerms {
		if len(recommendations) >= limit {
			break
		}
		results, err := e.catalog.Search(ctx, term, searchLanguages, candidatesPerTerm, 0)
		if err != nil {
			log.Printf("Candidate search for %q failed, skipping term: %v", term, err)
			continue
		}
		for _, manga := range results {
			if len(recommendations) >= limit {
				break
			}
			recommendations = append(recommendations, models.AIRecommendation{
				Manga:      manga,
				Reason:     e.reasonFor(ctx, &manga, profile),
				Confidence: confidence(&manga, profile),
				Category:   categorize(&manga, profile),
			})
		}
	}
	return recommendations
}

// reasonFor produces the human-readable justification for a candidate,
// falling back to a templated string when the advisor is unavailable.
func (e *Engine) reasonFor(ctx context.Context, manga *models.Manga, profile *Profile) string {
	genres := manga.Genres()
	if e.advisor != nil {
		reason, err := e.advisor.GenerateReason(ctx, manga.DisplayTitle("en"), genres, profile.PreferredGenres)
		if err == nil {
			return reason
		}
		log.Printf("Advisor reason generation failed, using template: %v", err)
	}

	subject := "manga"
	if len(genres) > 0 {
		subject = genres[0]
	}
	return fmt.Sprintf("Based on your interest in %s", subject)
}

// confidence scores a candidate: a 0.5 base, 0.2 per genre shared with the
// profile, 0.1 for a safe content rating and 0.1 for a completed run,
// clamped to [0,1].
func confidence(manga *models.Manga, profile *Profile) float64 {
	score := 0.5

	preferred := make(map[string]bool, len(profile.PreferredGenres))
	for _, genre := range profile.PreferredGenres {
		preferred[genre] = true
	}
	for _, genre := range manga.Genres() {
		if preferred[genre] {
			score += 0.2
		}
	}

	if manga.Attributes.ContentRating == "safe" {
		score += 0.1
	}
	if manga.Attributes.Status == "completed" {
		score += 0.1
	}

	if score > 1.0 {
		return 1.0
	}
	if score < 0.0 {
		return 0.0
	}
	return score
}

// categorize labels a candidate. Rules are checked in priority order and the
// first match wins.
func categorize(manga *models.Manga, profile *Profile) models.RecommendationCategory {
	preferred := make(map[string]bool, len(profile.PreferredGenres))
	for _, genre := range profile.PreferredGenres {
		preferred[genre] = true
	}
	for _, genre := range manga.Genres() {
		if preferred[genre] {
			return models.CategorySimilarGenre
		}
	}
	if manga.Attributes.Year > 2020 {
		return models.CategoryTrending
	}
	return models.CategoryHiddenGem
}

// popularRecommendations is the shared fallback: the catalog's most followed
// titles, uniformly labeled. A failure here yields an empty list.
func (e *Engine) popularRecommendations(ctx context.Context, limit int) []models.AIRecommendation {
	popular, err := e.catalog.GetPopular(ctx, limit, 0)
	if err != nil {
		log.Printf("Popular titles lookup failed, returning no recommendations: %v", err)
		return []models.AIRecommendation{}
	}

	recommendations := make([]models.AIRecommendation, 0, len(popular))
	for _, manga := range popular {
		recommendations = append(recommendations, models.AIRecommendation{
			Manga:      manga,
			Reason:     "Popular among readers",
			Confidence: 0.7,
			Category:   models.CategoryTrending,
		})
	}
	return truncate(recommendations, limit)
}

// cacheKey derives a stable key from the favorite set, insensitive to order.
func cacheKey(favorites []models.FavoriteManga) string {
	ids := make([]string, 0, len(favorites))
	for _, fav := range favorites {
		ids = append(ids, fav.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func truncate(recommendations []models.AIRecommendation, limit int) []models.AIRecommendation {
	if len(recommendations) > limit {
		return recommendations[:limit]
	}
	return recommendations
}
