// Locally owned library records: favorites, reading progress and settings.
// These are the only data this application persists.

package models

import "time"

// FavoriteStatus tracks where a favorited title sits in the user's list.
type FavoriteStatus string

const (
	StatusReading    FavoriteStatus = "reading"
	StatusCompleted  FavoriteStatus = "completed"
	StatusPlanToRead FavoriteStatus = "plan-to-read"
	StatusDropped    FavoriteStatus = "dropped"
)

// Valid reports whether s is one of the known favorite statuses.
func (s FavoriteStatus) Valid() bool {
	switch s {
	case StatusReading, StatusCompleted, StatusPlanToRead, StatusDropped:
		return true
	}
	return false
}

// FavoriteManga is a denormalized snapshot of a manga taken at the time the
// user favorited it. Title and cover are not updated when the source changes.
type FavoriteManga struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	CoverURL   string         `json:"coverUrl"`
	Status     FavoriteStatus `json:"status"`
	AddedAt    time.Time      `json:"addedAt"`
	LastReadAt *time.Time     `json:"lastReadAt,omitempty"`
}

// ReadingProgress records how far the user got in a manga. One row per manga.
type ReadingProgress struct {
	MangaID           string    `json:"mangaId"`
	LastChapterID     string    `json:"lastChapterId"`
	LastChapterNumber string    `json:"lastChapterNumber"`
	Progress          int       `json:"progress"` // 0-100
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Settings is the single process-wide reader configuration record.
type Settings struct {
	DefaultLanguage []string `json:"defaultLanguage"`
	DataSaver       bool     `json:"dataSaver"`
	AutoMarkAsRead  bool     `json:"autoMarkAsRead"`
}

// DefaultSettings returns the settings applied before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		DefaultLanguage: []string{"en"},
		DataSaver:       false,
		AutoMarkAsRead:  true,
	}
}
