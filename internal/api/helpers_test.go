// Shared fixtures for the API tests: a mock upstream catalog and manga
// builders.

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soramanga/sora-go/internal/catalog"
	"github.com/soramanga/sora-go/internal/models"
)

// makeManga builds a catalog manga record with genre tags and a cover art
// relationship.
func makeManga(id, title string, genres []string, year int, rating, status, coverFile string) models.Manga {
	m := models.Manga{
		ID:   id,
		Type: "manga",
		Attributes: models.MangaAttributes{
			Title:         models.MultiLingualString{"en": title},
			Year:          year,
			ContentRating: rating,
			Status:        status,
		},
	}
	for _, g := range genres {
		m.Attributes.Tags = append(m.Attributes.Tags, models.Tag{
			ID:   strings.ToLower(g),
			Type: "tag",
			Attributes: models.TagAttributes{
				Name:  models.MultiLingualString{"en": g},
				Group: "genre",
			},
		})
	}
	if coverFile != "" {
		m.Relationships = append(m.Relationships, models.Relationship{
			ID:   id + "-cover",
			Type: "cover_art",
			Attributes: struct {
				FileName string `json:"fileName,omitempty"`
				Name     string `json:"name,omitempty"`
			}{FileName: coverFile},
		})
	}
	return m
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("Failed to encode mock response: %v", err)
	}
}

// setupMockCatalog simulates the upstream catalog API. Searches are answered
// from the searches map keyed by title; the popular list is returned for
// requests ordered by follower count.
func setupMockCatalog(t *testing.T, searches map[string][]models.Manga, popular []models.Manga) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if title := query.Get("title"); title != "" {
			results, ok := searches[title]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(t, w, catalog.MangaListResponse{Result: "ok", Data: results, Total: len(results)})
			return
		}
		if query.Get("order[followedCount]") == "desc" {
			writeJSON(t, w, catalog.MangaListResponse{Result: "ok", Data: popular, Total: len(popular)})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	})

	mux.HandleFunc("/manga/tag", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, catalog.TagListResponse{Result: "ok", Data: []models.Tag{
			{ID: "tag-action", Type: "tag", Attributes: models.TagAttributes{
				Name:  models.MultiLingualString{"en": "Action"},
				Group: "genre",
			}},
		}})
	})

	mux.HandleFunc("/manga/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/manga/")
		for _, list := range searches {
			for _, m := range list {
				if m.ID == id {
					writeJSON(t, w, catalog.MangaResponse{Result: "ok", Data: m})
					return
				}
			}
		}
		for _, m := range popular {
			if m.ID == id {
				writeJSON(t, w, catalog.MangaResponse{Result: "ok", Data: m})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("/chapter", func(w http.ResponseWriter, r *http.Request) {
		chapters := []models.Chapter{
			{ID: "ch-2", Type: "chapter", Attributes: models.ChapterAttributes{
				Chapter: "2", TranslatedLanguage: "en",
			}},
			{ID: "ch-1", Type: "chapter", Attributes: models.ChapterAttributes{
				Chapter: "1", TranslatedLanguage: "en",
			}},
		}
		writeJSON(t, w, catalog.ChapterListResponse{Result: "ok", Data: chapters, Total: len(chapters)})
	})

	mux.HandleFunc("/chapter/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/chapter/")
		writeJSON(t, w, catalog.ChapterResponse{Result: "ok", Data: models.Chapter{
			ID: id, Type: "chapter", Attributes: models.ChapterAttributes{Chapter: "1", TranslatedLanguage: "en"},
		}})
	})

	mux.HandleFunc("/at-home/server/", func(w http.ResponseWriter, r *http.Request) {
		server := catalog.PageServer{Result: "ok", BaseURL: "https://node.example"}
		server.Chapter.Hash = "abc"
		server.Chapter.Data = []string{"p1.png", "p2.png"}
		server.Chapter.DataSaver = []string{"p1.jpg", "p2.jpg"}
		writeJSON(t, w, server)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// decodeDataEnvelope unmarshals a {"data": ...} response body into out.
func decodeDataEnvelope(t *testing.T, body []byte, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("Failed to decode response data: %v", err)
	}
}
