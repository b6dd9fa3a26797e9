package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soramanga/sora-go/internal/catalog"
)

// getPageParams extracts limit/offset query params with sane bounds.
func getPageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100 // the catalog rejects larger pages
	}
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return
}

// getLangParams reads the requested translation languages, falling back to
// the library's default language settings.
func (s *Server) getLangParams(r *http.Request) []string {
	if raw := r.URL.Query().Get("lang"); raw != "" {
		var langs []string
		for _, lang := range strings.Split(raw, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				langs = append(langs, lang)
			}
		}
		if len(langs) > 0 {
			return langs
		}
	}
	return s.library.Settings().DefaultLanguage
}

// handleSearchManga searches the catalog by title.
func (s *Server) handleSearchManga(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing 'title' parameter")
		return
	}
	limit, offset := getPageParams(r, 20)

	results, err := s.catalog.Search(r.Context(), title, s.getLangParams(r), limit, offset)
	if err != nil {
		log.Printf("Catalog search failed: %v", err)
		RespondWithError(w, http.StatusBadGateway, "Catalog search failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": results})
}

// handleGetPopular returns the catalog's most followed manga.
func (s *Server) handleGetPopular(w http.ResponseWriter, r *http.Request) {
	limit, offset := getPageParams(r, 20)

	results, err := s.catalog.GetPopular(r.Context(), limit, offset)
	if err != nil {
		log.Printf("Popular manga lookup failed: %v", err)
		RespondWithError(w, http.StatusBadGateway, "Catalog lookup failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": results})
}

// handleListTags returns the catalog's tag list.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.catalog.GetTags(r.Context())
	if err != nil {
		log.Printf("Tag list lookup failed: %v", err)
		RespondWithError(w, http.StatusBadGateway, "Catalog lookup failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": tags})
}

// handleGetManga returns a single manga's details.
func (s *Server) handleGetManga(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")

	manga, err := s.catalog.GetManga(r.Context(), mangaID)
	if err != nil {
		log.Printf("Manga lookup for %s failed: %v", mangaID, err)
		RespondWithError(w, http.StatusBadGateway, "Manga not available")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": manga})
}

// handleGetMangaChapters returns the full aggregated chapter list for a manga.
//
// Query parameters:
//   - lang: comma-separated translation languages (default: library settings)
//   - order: "asc" (default) or "desc" by numeric chapter value
//   - feed: "1" to aggregate via the feed endpoint instead of /chapter
func (s *Server) handleGetMangaChapters(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")

	order := catalog.SortAsc
	if r.URL.Query().Get("order") == "desc" {
		order = catalog.SortDesc
	}
	filters := catalog.ChapterFilters{
		Languages: s.getLangParams(r),
		Order:     order,
	}

	var err error
	var chapters interface{}
	if r.URL.Query().Get("feed") == "1" {
		chapters, err = s.catalog.FetchAllFeed(r.Context(), mangaID, filters)
	} else {
		chapters, err = s.catalog.FetchAllChapters(r.Context(), mangaID, filters)
	}
	if err != nil {
		log.Printf("Chapter aggregation for %s failed: %v", mangaID, err)
		RespondWithError(w, http.StatusBadGateway, "Chapter list not available")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": chapters})
}

// handleGetChapter returns a single chapter's metadata.
func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")

	chapter, err := s.catalog.GetChapter(r.Context(), chapterID)
	if err != nil {
		log.Printf("Chapter lookup for %s failed: %v", chapterID, err)
		RespondWithError(w, http.StatusBadGateway, "Chapter not available")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": chapter})
}

// handleGetChapterPages resolves a chapter's page image URLs via the at-home
// server lookup. The dataSaver query parameter overrides the library setting.
func (s *Server) handleGetChapterPages(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")

	dataSaver := s.library.Settings().DataSaver
	if raw := r.URL.Query().Get("dataSaver"); raw != "" {
		dataSaver = raw == "1" || raw == "true"
	}

	server, err := s.catalog.GetPageServer(r.Context(), chapterID)
	if err != nil {
		log.Printf("Page server lookup for %s failed: %v", chapterID, err)
		RespondWithError(w, http.StatusBadGateway, "Chapter pages not available")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"baseUrl":   server.BaseURL,
		"hash":      server.Chapter.Hash,
		"dataSaver": dataSaver,
		"pages":     s.catalog.PageURLs(server, dataSaver),
	})
}
