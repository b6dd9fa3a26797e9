package catalog

import "github.com/soramanga/sora-go/internal/models"

// --- Collection Envelopes ---

type MangaListResponse struct {
	Result string         `json:"result"`
	Data   []models.Manga `json:"data"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
}

type MangaResponse struct {
	Result string       `json:"result"`
	Data   models.Manga `json:"data"`
}

type ChapterListResponse struct {
	Result string           `json:"result"`
	Data   []models.Chapter `json:"data"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Total  int              `json:"total"`
}

type ChapterResponse struct {
	Result string         `json:"result"`
	Data   models.Chapter `json:"data"`
}

type TagListResponse struct {
	Result string       `json:"result"`
	Data   []models.Tag `json:"data"`
}

type CoverResponse struct {
	Result string `json:"result"`
	Data   struct {
		ID         string `json:"id"`
		Attributes struct {
			FileName string `json:"fileName"`
		} `json:"attributes"`
	} `json:"data"`
}

// --- Page Server Types ---

// PageServer is the at-home server lookup result used to build page image
// URLs as {baseUrl}/{data|data-saver}/{hash}/{filename}.
type PageServer struct {
	Result  string `json:"result"`
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`      // Page filenames
		DataSaver []string `json:"dataSaver"` // Lower-resolution variants
	} `json:"chapter"`
}
