// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soramanga/sora-go/internal/assets"
	"github.com/soramanga/sora-go/internal/catalog"
	"github.com/soramanga/sora-go/internal/core"
	"github.com/soramanga/sora-go/internal/library"
	"github.com/soramanga/sora-go/internal/recommend"
)

// Server holds the dependencies for our API.
type Server struct {
	app         *core.App
	db          *sql.DB
	catalog     *catalog.Client
	library     *library.Store
	recommender *recommend.Engine

	// coverClient fetches upstream cover images for the proxy endpoint.
	coverClient *http.Client
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:         app,
		db:          app.DB,
		catalog:     app.Catalog,
		library:     app.Library,
		recommender: app.Recommender,
		coverClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/version", s.handleGetVersion)

	r.Route("/api", func(r chi.Router) {
		// Catalog Routes
		r.Get("/manga", s.handleSearchManga)
		r.Get("/manga/popular", s.handleGetPopular)
		r.Get("/manga/tags", s.handleListTags)
		r.Get("/manga/{mangaID}", s.handleGetManga)
		r.Get("/manga/{mangaID}/chapters", s.handleGetMangaChapters)
		r.Get("/chapters/{chapterID}", s.handleGetChapter)
		r.Get("/chapters/{chapterID}/pages", s.handleGetChapterPages)

		// Cover Proxy (spoofs browser headers to bypass hotlink protection)
		r.Get("/covers/{mangaID}/{fileName}", s.handleCoverProxy)

		// Recommendations
		r.Post("/recommendations", s.handleRecommendations)

		// Library Routes
		r.Route("/library", func(r chi.Router) {
			r.Get("/favorites", s.handleListFavorites)
			r.Post("/favorites", s.handleAddFavorite)
			r.Delete("/favorites/{mangaID}", s.handleRemoveFavorite)
			r.Put("/favorites/{mangaID}/status", s.handleUpdateFavoriteStatus)

			r.Post("/progress", s.handleUpsertProgress)
			r.Get("/progress/{mangaID}", s.handleGetProgress)

			r.Get("/history", s.handleGetHistory)
			r.Post("/history/{mangaID}", s.handleRecordHistory)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)

			r.Get("/export", s.handleExportLibrary)
			r.Post("/import", s.handleImportLibrary)
		})
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Static assets (placeholder cover) from the embedded FS.
	staticFS, err := fs.Sub(assets.StaticFS, "static")
	if err != nil {
		log.Fatalf("Failed to create static sub-filesystem: %v", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	return r
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}
