// Chapter aggregation: walks the catalog's paginated chapter endpoints until
// exhaustion and returns one ordered list.

package catalog

import (
	"context"
	"math"
	"sort"

	"github.com/soramanga/sora-go/internal/models"
)

const (
	// chapterPageSize is the fixed page size used while aggregating.
	chapterPageSize = 100

	// maxChapterOffset is a fail-safe against a misbehaving upstream that
	// keeps returning full pages. Aggregation stops once the next offset
	// would exceed it.
	maxChapterOffset = 5000
)

// SortOrder selects how aggregated chapters are ordered by chapter number.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ChapterFilters narrows and orders an aggregated chapter list.
type ChapterFilters struct {
	Languages []string
	Order     SortOrder
}

// FetchAllChapters retrieves every chapter of a manga by paging through the
// /chapter endpoint. A page returning fewer items than the page size ends the
// walk; so does reaching the safety ceiling. Any request error aborts the
// whole aggregation with no partial result.
func (c *Client) FetchAllChapters(ctx context.Context, mangaID string, filters ChapterFilters) ([]models.Chapter, error) {
	var all []models.Chapter
	offset := 0

	for {
		page, err := c.GetChapters(ctx, mangaID, filters.Languages, chapterPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < chapterPageSize {
			break // No more pages
		}
		offset += chapterPageSize
		if offset > maxChapterOffset {
			break
		}
	}

	all = filterByLanguage(all, filters.Languages)
	sortChapters(all, filters.Order)
	return all, nil
}

// FetchAllFeed is the feed-endpoint variant of FetchAllChapters. It preserves
// the feed's own ordering (volume/chapter descending) unless a sort order is
// requested.
func (c *Client) FetchAllFeed(ctx context.Context, mangaID string, filters ChapterFilters) ([]models.Chapter, error) {
	var all []models.Chapter
	offset := 0

	for {
		page, err := c.GetFeed(ctx, mangaID, FeedOptions{
			Languages: filters.Languages,
			Limit:     chapterPageSize,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < chapterPageSize {
			break
		}
		offset += chapterPageSize
		if offset > maxChapterOffset {
			break
		}
	}

	all = filterByLanguage(all, filters.Languages)
	sortChapters(all, filters.Order)
	return all, nil
}

// filterByLanguage keeps only chapters whose translated language is in langs.
// The upstream already filters, but membership is re-checked so the contract
// holds even against a sloppy upstream.
func filterByLanguage(chapters []models.Chapter, langs []string) []models.Chapter {
	if len(langs) == 0 {
		return chapters
	}
	allowed := make(map[string]bool, len(langs))
	for _, lang := range langs {
		allowed[lang] = true
	}
	filtered := chapters[:0]
	for _, ch := range chapters {
		if allowed[ch.Attributes.TranslatedLanguage] {
			filtered = append(filtered, ch)
		}
	}
	return filtered
}

// sortChapters orders chapters by numeric chapter value. Chapters without a
// parseable number sort as +Inf, with publish date breaking ties.
func sortChapters(chapters []models.Chapter, order SortOrder) {
	if order == SortNone {
		return
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		a, b := sortKey(&chapters[i]), sortKey(&chapters[j])
		if a == b {
			return chapters[i].Attributes.PublishAt.Before(chapters[j].Attributes.PublishAt)
		}
		if order == SortDesc {
			return a > b
		}
		return a < b
	})
}

func sortKey(ch *models.Chapter) float64 {
	if n, ok := ch.Number(); ok {
		return n
	}
	return math.Inf(1)
}
