package api

import (
	"encoding/json"
	"net/http"

	"github.com/soramanga/sora-go/internal/models"
)

// handleRecommendations computes personalized recommendations. The request
// body may carry an explicit favorite list; when absent, the server-side
// library's favorites are used.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Favorites []models.FavoriteManga `json:"favorites"`
		Limit     int                    `json:"limit"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}
	if payload.Favorites == nil {
		payload.Favorites = s.library.Favorites()
	}

	recommendations := s.recommender.Recommend(r.Context(), payload.Favorites, payload.Limit)

	// Remember the last batch so the client can re-render it without
	// recomputing.
	titles := make([]models.Manga, 0, len(recommendations))
	for _, rec := range recommendations {
		titles = append(titles, rec.Manga)
	}
	s.library.SetRecommendations(titles)

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recommendations})
}
