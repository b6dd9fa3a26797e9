package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soramanga/sora-go/internal/library"
	"github.com/soramanga/sora-go/internal/models"
	"github.com/soramanga/sora-go/internal/testutil"
)

func postJSON(t *testing.T, router http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal request payload: %v", err)
	}
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestFavoriteHandlers(t *testing.T) {
	server, _ := testutil.SetupTestServer(t, "https://api.invalid", "https://img.example")
	router := server.Router()

	manga := makeManga("m1", "Berserk", []string{"Action"}, 1989, "suggestive", "completed", "berserk.png")

	t.Run("Add Favorite", func(t *testing.T) {
		rr := postJSON(t, router, "POST", "/api/library/favorites", map[string]interface{}{
			"manga":  manga,
			"status": "reading",
		})
		if status := rr.Code; status != http.StatusCreated {
			t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusCreated)
		}

		var fav models.FavoriteManga
		json.Unmarshal(rr.Body.Bytes(), &fav)
		if fav.Title != "Berserk" {
			t.Errorf("Expected snapshotted title 'Berserk', got %q", fav.Title)
		}
		if fav.CoverURL != "https://img.example/covers/m1/berserk.png.256.jpg" {
			t.Errorf("Expected thumbnail cover URL, got %q", fav.CoverURL)
		}
		if fav.Status != models.StatusReading {
			t.Errorf("Expected status reading, got %q", fav.Status)
		}
	})

	t.Run("Re-Add Updates Status Only", func(t *testing.T) {
		rr := postJSON(t, router, "POST", "/api/library/favorites", map[string]interface{}{
			"manga":  manga,
			"status": "completed",
		})
		if status := rr.Code; status != http.StatusCreated {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}

		req, _ := http.NewRequest("GET", "/api/library/favorites", nil)
		listRR := httptest.NewRecorder()
		router.ServeHTTP(listRR, req)

		var favorites []models.FavoriteManga
		decodeDataEnvelope(t, listRR.Body.Bytes(), &favorites)
		if len(favorites) != 1 {
			t.Fatalf("Expected 1 favorite after re-add, got %d", len(favorites))
		}
		if favorites[0].Status != models.StatusCompleted {
			t.Errorf("Expected status completed, got %q", favorites[0].Status)
		}
	})

	t.Run("Filter By Status", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/library/favorites?status=reading", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var favorites []models.FavoriteManga
		decodeDataEnvelope(t, rr.Body.Bytes(), &favorites)
		if len(favorites) != 0 {
			t.Errorf("Expected no favorites with status reading, got %d", len(favorites))
		}
	})

	t.Run("Reject Unknown Status", func(t *testing.T) {
		rr := postJSON(t, router, "POST", "/api/library/favorites", map[string]interface{}{
			"manga":  manga,
			"status": "binging",
		})
		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})

	t.Run("Update Status", func(t *testing.T) {
		rr := postJSON(t, router, "PUT", "/api/library/favorites/m1/status", map[string]string{"status": "dropped"})
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}
	})

	t.Run("Update Status Of Unknown Manga", func(t *testing.T) {
		rr := postJSON(t, router, "PUT", "/api/library/favorites/ghost/status", map[string]string{"status": "dropped"})
		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})

	t.Run("Remove Favorite", func(t *testing.T) {
		req, _ := http.NewRequest("DELETE", "/api/library/favorites/m1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}

		req, _ = http.NewRequest("DELETE", "/api/library/favorites/m1", nil)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("second removal should 404, got %v", status)
		}
	})
}

func TestProgressAndHistoryHandlers(t *testing.T) {
	server, _ := testutil.SetupTestServer(t, "https://api.invalid", "https://img.example")
	router := server.Router()

	manga := makeManga("m1", "Berserk", []string{"Action"}, 1989, "suggestive", "completed", "")
	postJSON(t, router, "POST", "/api/library/favorites", map[string]interface{}{
		"manga":  manga,
		"status": "plan-to-read",
	})

	t.Run("Record Progress", func(t *testing.T) {
		rr := postJSON(t, router, "POST", "/api/library/progress", models.ReadingProgress{
			MangaID:           "m1",
			LastChapterID:     "ch-5",
			LastChapterNumber: "5",
			Progress:          40,
		})
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}

		var saved models.ReadingProgress
		json.Unmarshal(rr.Body.Bytes(), &saved)
		if saved.UpdatedAt.IsZero() {
			t.Error("Expected updatedAt to be stamped")
		}
	})

	t.Run("Get Progress", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/library/progress/m1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}
		var entry models.ReadingProgress
		json.Unmarshal(rr.Body.Bytes(), &entry)
		if entry.LastChapterID != "ch-5" || entry.Progress != 40 {
			t.Errorf("Unexpected progress record: %+v", entry)
		}
	})

	t.Run("Progress For Unknown Manga", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/library/progress/ghost", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})

	t.Run("Reading Updates History And Favorite Status", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/library/history", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var history []string
		decodeDataEnvelope(t, rr.Body.Bytes(), &history)
		if len(history) != 1 || history[0] != "m1" {
			t.Errorf("Expected m1 at the front of history, got %+v", history)
		}

		// autoMarkAsRead is on by default, so the plan-to-read favorite
		// flipped to reading when progress came in.
		req, _ = http.NewRequest("GET", "/api/library/favorites", nil)
		favRR := httptest.NewRecorder()
		router.ServeHTTP(favRR, req)
		var favorites []models.FavoriteManga
		decodeDataEnvelope(t, favRR.Body.Bytes(), &favorites)
		if len(favorites) != 1 || favorites[0].Status != models.StatusReading {
			t.Errorf("Expected favorite flipped to reading, got %+v", favorites)
		}
	})

	t.Run("Record History Directly", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/library/history/m2", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}

		req, _ = http.NewRequest("GET", "/api/library/history", nil)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		var history []string
		decodeDataEnvelope(t, rr.Body.Bytes(), &history)
		if len(history) != 2 || history[0] != "m2" {
			t.Errorf("Expected m2 first in history, got %+v", history)
		}
	})
}

func TestSettingsHandlers(t *testing.T) {
	server, _ := testutil.SetupTestServer(t, "https://api.invalid", "https://img.example")
	router := server.Router()

	t.Run("Defaults", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/library/settings", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var settings models.Settings
		json.Unmarshal(rr.Body.Bytes(), &settings)
		if len(settings.DefaultLanguage) != 1 || settings.DefaultLanguage[0] != "en" {
			t.Errorf("Expected default language [en], got %+v", settings.DefaultLanguage)
		}
		if settings.DataSaver {
			t.Error("Expected data saver off by default")
		}
		if !settings.AutoMarkAsRead {
			t.Error("Expected auto mark-as-read on by default")
		}
	})

	t.Run("Partial Update", func(t *testing.T) {
		rr := postJSON(t, router, "PUT", "/api/library/settings", map[string]bool{"dataSaver": true})
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}

		var settings models.Settings
		json.Unmarshal(rr.Body.Bytes(), &settings)
		if !settings.DataSaver {
			t.Error("Expected data saver to be enabled")
		}
		// Fields not in the request body keep their current values.
		if len(settings.DefaultLanguage) != 1 || settings.DefaultLanguage[0] != "en" {
			t.Errorf("Expected default language preserved, got %+v", settings.DefaultLanguage)
		}
	})
}

func TestExportImportHandlers(t *testing.T) {
	server, _ := testutil.SetupTestServer(t, "https://api.invalid", "https://img.example")
	router := server.Router()

	manga := makeManga("m1", "Berserk", []string{"Action"}, 1989, "suggestive", "completed", "")
	postJSON(t, router, "POST", "/api/library/favorites", map[string]interface{}{
		"manga":  manga,
		"status": "reading",
	})

	var exported library.State

	t.Run("Export", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/library/export", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}
		if disposition := rr.Header().Get("Content-Disposition"); !strings.Contains(disposition, "attachment") {
			t.Errorf("Expected attachment disposition, got %q", disposition)
		}
		json.Unmarshal(rr.Body.Bytes(), &exported)
		if len(exported.Favorites) != 1 {
			t.Fatalf("Expected 1 favorite in export, got %d", len(exported.Favorites))
		}
	})

	t.Run("Import Replaces Library", func(t *testing.T) {
		exported.Favorites[0].Title = "Berserk (Restored)"
		rr := postJSON(t, router, "POST", "/api/library/import", exported)
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", status)
		}

		req, _ := http.NewRequest("GET", "/api/library/favorites", nil)
		listRR := httptest.NewRecorder()
		router.ServeHTTP(listRR, req)
		var favorites []models.FavoriteManga
		decodeDataEnvelope(t, listRR.Body.Bytes(), &favorites)
		if len(favorites) != 1 || favorites[0].Title != "Berserk (Restored)" {
			t.Errorf("Expected imported favorite, got %+v", favorites)
		}
	})

	t.Run("Import Rejects Unknown Status", func(t *testing.T) {
		bad := exported
		bad.Favorites = []models.FavoriteManga{{ID: "x", Status: "bogus"}}
		rr := postJSON(t, router, "POST", "/api/library/import", bad)
		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})
}
