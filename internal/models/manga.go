// This file defines the core data structures (models) for our application.
// The catalog types mirror the subset of the MangaDex API schema we consume.

package models

import (
	"strconv"
	"time"
)

// MultiLingualString is a language-code keyed map as returned by the catalog
// for titles, descriptions and tag names.
type MultiLingualString map[string]string

// Get returns the value for a language code, or "" if absent.
func (mls MultiLingualString) Get(lang string) string {
	if val, ok := mls[lang]; ok {
		return val
	}
	return ""
}

// Resolve picks a value with a defined fallback order: the requested
// languages in order, then English, then any available value.
func (mls MultiLingualString) Resolve(langs ...string) string {
	for _, lang := range langs {
		if val := mls.Get(lang); val != "" {
			return val
		}
	}
	if val := mls.Get("en"); val != "" {
		return val
	}
	for _, val := range mls {
		if val != "" {
			return val
		}
	}
	return ""
}

// Relationship links a catalog resource to a related record (cover art,
// author, scanlation group). Only the attributes we use are decoded.
type Relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		FileName string `json:"fileName,omitempty"`
		Name     string `json:"name,omitempty"`
	} `json:"attributes,omitempty"`
}

// Manga represents a single manga as served by the catalog. It is read-only
// from this application's perspective.
type Manga struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Attributes    MangaAttributes `json:"attributes"`
	Relationships []Relationship  `json:"relationships"`
}

type MangaAttributes struct {
	Title                        MultiLingualString `json:"title"`
	Description                  MultiLingualString `json:"description"`
	Status                       string             `json:"status"`
	Year                         int                `json:"year"`
	ContentRating                string             `json:"contentRating"`
	Tags                         []Tag              `json:"tags"`
	AvailableTranslatedLanguages []string           `json:"availableTranslatedLanguages,omitempty"`
}

// Tag is a genre/theme/format label attached to a manga.
type Tag struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Attributes TagAttributes `json:"attributes"`
}

type TagAttributes struct {
	Name  MultiLingualString `json:"name"`
	Group string             `json:"group"`
}

// DisplayTitle resolves the manga title for the given preferred languages,
// falling back to "Untitled" when the catalog provides nothing usable.
func (m *Manga) DisplayTitle(langs ...string) string {
	if title := m.Attributes.Title.Resolve(langs...); title != "" {
		return title
	}
	return "Untitled"
}

// CoverFileName finds the cover art file name in the relationships list.
// Returns "" if the manga has no cover art relationship.
func (m *Manga) CoverFileName() string {
	for _, rel := range m.Relationships {
		if rel.Type == "cover_art" {
			return rel.Attributes.FileName
		}
	}
	return ""
}

// Author returns the first author name in the relationships list, if included.
func (m *Manga) Author() string {
	for _, rel := range m.Relationships {
		if rel.Type == "author" {
			return rel.Attributes.Name
		}
	}
	return ""
}

// Genres returns the English names of the manga's genre-group tags.
func (m *Manga) Genres() []string {
	var genres []string
	for _, tag := range m.Attributes.Tags {
		if tag.Attributes.Group == "genre" {
			if name := tag.Attributes.Name.Get("en"); name != "" {
				genres = append(genres, name)
			}
		}
	}
	return genres
}

// Chapter represents a single chapter of a manga as served by the catalog.
type Chapter struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    ChapterAttributes `json:"attributes"`
	Relationships []Relationship    `json:"relationships"`
}

type ChapterAttributes struct {
	Title              string    `json:"title"`
	Volume             string    `json:"volume"`
	Chapter            string    `json:"chapter"`
	Pages              int       `json:"pages"`
	TranslatedLanguage string    `json:"translatedLanguage"`
	PublishAt          time.Time `json:"publishAt"`
}

// Number parses the chapter's string-encoded number. The second return value
// reports whether the field held a parseable value; oneshots and extras
// frequently leave it empty.
func (c *Chapter) Number() (float64, bool) {
	n, err := strconv.ParseFloat(c.Attributes.Chapter, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
