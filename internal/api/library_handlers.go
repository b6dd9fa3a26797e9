package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soramanga/sora-go/internal/library"
	"github.com/soramanga/sora-go/internal/models"
)

// handleListFavorites lists the user's favorites, optionally filtered by the
// "status" query parameter.
func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.FavoriteStatus(raw)
		if !status.Valid() {
			RespondWithError(w, http.StatusBadRequest, "Unknown favorite status")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": s.library.FavoritesByStatus(status)})
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": s.library.Favorites()})
}

// handleAddFavorite adds a manga to the favorites list, or updates its status
// if already present.
func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Manga  models.Manga          `json:"manga"`
		Status models.FavoriteStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Manga.ID == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing manga id")
		return
	}
	if payload.Status == "" {
		payload.Status = models.StatusPlanToRead
	}
	if !payload.Status.Valid() {
		RespondWithError(w, http.StatusBadRequest, "Unknown favorite status")
		return
	}

	fav := s.library.AddOrUpdateFavorite(&payload.Manga, payload.Status)
	RespondWithJSON(w, http.StatusCreated, fav)
}

// handleRemoveFavorite removes a manga from the favorites list.
func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")
	if !s.library.RemoveFavorite(mangaID) {
		RespondWithError(w, http.StatusNotFound, "Manga is not favorited")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleUpdateFavoriteStatus changes an existing favorite's status.
func (s *Server) handleUpdateFavoriteStatus(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")

	var payload struct {
		Status models.FavoriteStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !payload.Status.Valid() {
		RespondWithError(w, http.StatusBadRequest, "Unknown favorite status")
		return
	}
	if !s.library.UpdateFavoriteStatus(mangaID, payload.Status) {
		RespondWithError(w, http.StatusNotFound, "Manga is not favorited")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleUpsertProgress records where the user left off in a manga.
func (s *Server) handleUpsertProgress(w http.ResponseWriter, r *http.Request) {
	var entry models.ReadingProgress
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if entry.MangaID == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing manga id")
		return
	}

	saved := s.library.UpsertProgress(entry)

	// Reading a chapter also counts as a library visit.
	s.library.RecordHistory(entry.MangaID)
	if s.library.Settings().AutoMarkAsRead {
		s.library.UpdateFavoriteStatus(entry.MangaID, models.StatusReading)
	}

	RespondWithJSON(w, http.StatusOK, saved)
}

// handleGetProgress returns the stored reading progress for a manga.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")
	entry, ok := s.library.ProgressFor(mangaID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "No progress recorded")
		return
	}
	RespondWithJSON(w, http.StatusOK, entry)
}

// handleGetHistory returns the reading history, most recent first.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": s.library.History()})
}

// handleRecordHistory moves a manga to the front of the reading history.
func (s *Server) handleRecordHistory(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")
	s.library.RecordHistory(mangaID)
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// handleGetSettings returns the current reader settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.library.Settings())
}

// handleUpdateSettings merges the request body over the current settings, so
// clients can send partial updates.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.library.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	s.library.UpdateSettings(settings)
	RespondWithJSON(w, http.StatusOK, s.library.Settings())
}

// handleExportLibrary downloads the whole library record as a JSON file.
func (s *Server) handleExportLibrary(w http.ResponseWriter, r *http.Request) {
	fileName := fmt.Sprintf("sora-library-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	RespondWithJSON(w, http.StatusOK, s.library.Export())
}

// handleImportLibrary replaces the whole library record from an uploaded
// JSON export.
func (s *Server) handleImportLibrary(w http.ResponseWriter, r *http.Request) {
	var state library.State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid library file")
		return
	}
	if err := s.library.Import(state); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
