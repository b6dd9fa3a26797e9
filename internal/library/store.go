// The user's library: favorites, reading progress, reading history and
// settings. State lives in memory and is mirrored after every mutation into a
// single serialized row, the same single-key layout the web client kept in
// browser storage.

package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/soramanga/sora-go/internal/models"
)

// storageKey identifies the one row holding the serialized library record.
const storageKey = "manga-reader-storage"

// maxHistory bounds the reading history list; the oldest entry is evicted.
const maxHistory = 50

// placeholderCover is served for favorites whose manga has no cover art.
const placeholderCover = "/static/placeholder-cover.svg"

// State is the full serialized library record. It is also the export/import
// payload.
type State struct {
	Favorites       []models.FavoriteManga   `json:"favorites"`
	ReadingProgress []models.ReadingProgress `json:"readingProgress"`
	ReadingHistory  []string                 `json:"readingHistory"`
	Recommendations []models.Manga           `json:"recommendations"`
	Settings        models.Settings          `json:"settings"`
}

// CoverURLFunc builds the cover URL snapshotted into a favorite.
type CoverURLFunc func(mangaID, fileName string) string

// Store owns the library state for a single session. All mutators persist
// synchronously; a persistence failure is logged and never fails the
// mutation.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	state    State
	coverURL CoverURLFunc
}

// New loads the library record from the database, or starts fresh with
// default settings when none exists.
func New(db *sql.DB, coverURL CoverURLFunc) (*Store, error) {
	s := &Store{
		db:       db,
		coverURL: coverURL,
		state: State{
			Settings: models.DefaultSettings(),
		},
	}

	var data string
	err := db.QueryRow("SELECT data FROM library_state WHERE key = ?", storageKey).Scan(&data)
	if err == sql.ErrNoRows {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load library state: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &s.state); err != nil {
		return nil, fmt.Errorf("failed to decode library state: %w", err)
	}
	if len(s.state.Settings.DefaultLanguage) == 0 {
		s.state.Settings = models.DefaultSettings()
	}
	return s, nil
}

// persistLocked mirrors the current state to the database. Callers must hold
// the mutex. Failures are reported as warnings, not errors: losing a persist
// must not lose the in-memory mutation.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.state)
	if err != nil {
		log.Printf("Warning: failed to serialize library state: %v", err)
		return
	}
	_, err = s.db.Exec(`
		INSERT INTO library_state (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		storageKey, string(data), time.Now())
	if err != nil {
		log.Printf("Warning: failed to persist library state: %v", err)
	}
}

// AddOrUpdateFavorite upserts a favorite keyed by the manga's id. The first
// call snapshots title, cover and addedAt; later calls for the same id only
// overwrite status and lastReadAt.
func (s *Store) AddOrUpdateFavorite(manga *models.Manga, status models.FavoriteStatus) models.FavoriteManga {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i := range s.state.Favorites {
		if s.state.Favorites[i].ID == manga.ID {
			s.state.Favorites[i].Status = status
			s.state.Favorites[i].LastReadAt = &now
			s.persistLocked()
			return s.state.Favorites[i]
		}
	}

	coverURL := placeholderCover
	if fileName := manga.CoverFileName(); fileName != "" {
		coverURL = s.coverURL(manga.ID, fileName)
	}

	fav := models.FavoriteManga{
		ID:         manga.ID,
		Title:      manga.DisplayTitle(s.state.Settings.DefaultLanguage...),
		CoverURL:   coverURL,
		Status:     status,
		AddedAt:    now,
		LastReadAt: &now,
	}
	s.state.Favorites = append(s.state.Favorites, fav)
	s.persistLocked()
	return fav
}

// RemoveFavorite deletes a favorite. Reading progress for the manga is left
// untouched; the two records have distinct lifecycles.
func (s *Store) RemoveFavorite(mangaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Favorites {
		if s.state.Favorites[i].ID == mangaID {
			s.state.Favorites = append(s.state.Favorites[:i], s.state.Favorites[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

// UpdateFavoriteStatus changes the status of an existing favorite and stamps
// lastReadAt. Returns false if the manga is not favorited.
func (s *Store) UpdateFavoriteStatus(mangaID string, status models.FavoriteStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i := range s.state.Favorites {
		if s.state.Favorites[i].ID == mangaID {
			s.state.Favorites[i].Status = status
			s.state.Favorites[i].LastReadAt = &now
			s.persistLocked()
			return true
		}
	}
	return false
}

// Favorites returns a copy of the favorites list.
func (s *Store) Favorites() []models.FavoriteManga {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FavoriteManga, len(s.state.Favorites))
	copy(out, s.state.Favorites)
	return out
}

// FavoritesByStatus returns the favorites with the given status.
func (s *Store) FavoritesByStatus(status models.FavoriteStatus) []models.FavoriteManga {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FavoriteManga
	for _, fav := range s.state.Favorites {
		if fav.Status == status {
			out = append(out, fav)
		}
	}
	return out
}

// UpsertProgress replaces the reading progress row for the entry's manga,
// stamping updatedAt.
func (s *Store) UpsertProgress(entry models.ReadingProgress) models.ReadingProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.UpdatedAt = time.Now()
	for i := range s.state.ReadingProgress {
		if s.state.ReadingProgress[i].MangaID == entry.MangaID {
			s.state.ReadingProgress[i] = entry
			s.persistLocked()
			return entry
		}
	}
	s.state.ReadingProgress = append(s.state.ReadingProgress, entry)
	s.persistLocked()
	return entry
}

// ProgressFor returns the reading progress for a manga, if any.
func (s *Store) ProgressFor(mangaID string) (models.ReadingProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.state.ReadingProgress {
		if p.MangaID == mangaID {
			return p, true
		}
	}
	return models.ReadingProgress{}, false
}

// RecordHistory moves a manga to the front of the reading history,
// deduplicating and evicting beyond the cap.
func (s *Store) RecordHistory(mangaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]string, 0, len(s.state.ReadingHistory)+1)
	history = append(history, mangaID)
	for _, id := range s.state.ReadingHistory {
		if id != mangaID {
			history = append(history, id)
		}
	}
	if len(history) > maxHistory {
		history = history[:maxHistory]
	}
	s.state.ReadingHistory = history
	s.persistLocked()
}

// History returns a copy of the reading history, most recent first.
func (s *Store) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.state.ReadingHistory))
	copy(out, s.state.ReadingHistory)
	return out
}

// SetRecommendations stores the last recommendation batch shown to the user.
func (s *Store) SetRecommendations(recommendations []models.Manga) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Recommendations = recommendations
	s.persistLocked()
}

// Recommendations returns the last stored recommendation batch.
func (s *Store) Recommendations() []models.Manga {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Manga, len(s.state.Recommendations))
	copy(out, s.state.Recommendations)
	return out
}

// Settings returns the current settings record.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// UpdateSettings replaces the settings record.
func (s *Store) UpdateSettings(settings models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(settings.DefaultLanguage) == 0 {
		settings.DefaultLanguage = models.DefaultSettings().DefaultLanguage
	}
	s.state.Settings = settings
	s.persistLocked()
}

// Export returns a deep copy of the whole library record.
func (s *Store) Export() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := State{Settings: s.state.Settings}
	out.Favorites = append(out.Favorites, s.state.Favorites...)
	out.ReadingProgress = append(out.ReadingProgress, s.state.ReadingProgress...)
	out.ReadingHistory = append(out.ReadingHistory, s.state.ReadingHistory...)
	out.Recommendations = append(out.Recommendations, s.state.Recommendations...)
	return out
}

// Import replaces the whole library record. Favorites are deduplicated by id
// and the history cap is re-applied so the store's invariants hold for
// arbitrary input files.
func (s *Store) Import(in State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(in.Favorites))
	favorites := in.Favorites[:0]
	for _, fav := range in.Favorites {
		if fav.ID == "" || seen[fav.ID] {
			continue
		}
		if !fav.Status.Valid() {
			return fmt.Errorf("favorite %q has unknown status %q", fav.ID, fav.Status)
		}
		seen[fav.ID] = true
		favorites = append(favorites, fav)
	}
	in.Favorites = favorites

	seenProgress := make(map[string]bool, len(in.ReadingProgress))
	progress := in.ReadingProgress[:0]
	for _, p := range in.ReadingProgress {
		if p.MangaID == "" || seenProgress[p.MangaID] {
			continue
		}
		seenProgress[p.MangaID] = true
		progress = append(progress, p)
	}
	in.ReadingProgress = progress

	if len(in.ReadingHistory) > maxHistory {
		in.ReadingHistory = in.ReadingHistory[:maxHistory]
	}
	if len(in.Settings.DefaultLanguage) == 0 {
		in.Settings = models.DefaultSettings()
	}

	s.state = in
	s.persistLocked()
	return nil
}
