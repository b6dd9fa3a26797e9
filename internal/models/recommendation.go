package models

// RecommendationCategory labels why a manga was recommended.
type RecommendationCategory string

const (
	CategorySimilarGenre RecommendationCategory = "similar_genre"
	CategorySameAuthor   RecommendationCategory = "same_author"
	CategoryTrending     RecommendationCategory = "trending"
	CategoryHiddenGem    RecommendationCategory = "hidden_gem"
)

// AIRecommendation is a scored recommendation candidate. Computed on demand
// and never persisted.
type AIRecommendation struct {
	Manga      Manga                  `json:"manga"`
	Reason     string                 `json:"reason"`
	Confidence float64                `json:"confidence"` // always within [0,1]
	Category   RecommendationCategory `json:"category"`
}
