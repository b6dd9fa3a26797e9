package api

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	// Upstream cover hosts reject requests that don't look like a browser.
	proxyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	proxyReferer   = "https://mangadex.org/"
)

// handleCoverProxy streams a cover image from the upstream host with spoofed
// browser headers to bypass hotlink protection.
//
// Query parameters:
//   - size: "small", "medium" (default) or "large"
//
// Any upstream failure redirects to the bundled placeholder image instead of
// returning an error, so <img> tags always render something.
func (s *Server) handleCoverProxy(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")
	fileName := chi.URLParam(r, "fileName")
	size := r.URL.Query().Get("size")

	upstreamURL := s.catalog.UpstreamCoverURL(mangaID, fileName, size)

	req, err := http.NewRequestWithContext(r.Context(), "GET", upstreamURL, nil)
	if err != nil {
		log.Printf("Error creating cover request for %s: %v", upstreamURL, err)
		s.redirectToPlaceholder(w, r)
		return
	}
	req.Header.Set("User-Agent", proxyUserAgent)
	req.Header.Set("Referer", proxyReferer)

	resp, err := s.coverClient.Do(req)
	if err != nil {
		log.Printf("Error fetching cover %s: %v", upstreamURL, err)
		s.redirectToPlaceholder(w, r)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Cover host returned status %d for %s", resp.StatusCode, upstreamURL)
		s.redirectToPlaceholder(w, r)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if contentType == "" {
		contentType = inferImageType(fileName)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400") // 1 day

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Response already started, can't recover
		log.Printf("Error streaming cover data: %v", err)
	}
}

func (s *Server) redirectToPlaceholder(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/static/placeholder-cover.svg", http.StatusFound)
}

// inferImageType guesses the content type from the file name extension.
func inferImageType(fileName string) string {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
