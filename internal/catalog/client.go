// Client wraps the MangaDex REST API. It is a pure request/response mapping
// layer and holds no state beyond the HTTP client and base URLs.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/soramanga/sora-go/internal/models"
)

// contentRatings is the fixed filter applied to every collection search.
var contentRatings = []string{"safe", "suggestive", "erotica"}

type Client struct {
	client       *http.Client
	apiBaseURL   string
	imageBaseURL string
}

// New creates a catalog client for the given API and image origins.
func New(apiBaseURL, imageBaseURL string) *Client {
	return &Client{
		client:       &http.Client{Timeout: 15 * time.Second},
		apiBaseURL:   apiBaseURL,
		imageBaseURL: imageBaseURL,
	}
}

// ImageBaseURL returns the configured upstream image origin.
func (c *Client) ImageBaseURL() string {
	return c.imageBaseURL
}

// getJSON performs a GET against the API and decodes the JSON body into out.
// Any non-2xx status is returned as an error.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response for %s: %w", path, err)
	}
	return nil
}

// Search queries the catalog for manga matching a title, ordered by relevance.
func (c *Client) Search(ctx context.Context, title string, langs []string, limit, offset int) ([]models.Manga, error) {
	q := url.Values{}
	q.Add("title", title)
	q.Add("limit", strconv.Itoa(limit))
	q.Add("offset", strconv.Itoa(offset))
	q.Add("order[relevance]", "desc")
	for _, lang := range langs {
		q.Add("availableTranslatedLanguage[]", lang)
	}
	addCommonMangaParams(q)

	var resp MangaListResponse
	if err := c.getJSON(ctx, "/manga", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetPopular returns the most followed manga on the catalog.
func (c *Client) GetPopular(ctx context.Context, limit, offset int) ([]models.Manga, error) {
	q := url.Values{}
	q.Add("limit", strconv.Itoa(limit))
	q.Add("offset", strconv.Itoa(offset))
	q.Add("order[followedCount]", "desc")
	addCommonMangaParams(q)

	var resp MangaListResponse
	if err := c.getJSON(ctx, "/manga", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetByTags returns manga filtered by included/excluded tag IDs, ordered by
// follower count.
func (c *Client) GetByTags(ctx context.Context, includedTags, excludedTags []string, limit, offset int) ([]models.Manga, error) {
	q := url.Values{}
	for _, id := range includedTags {
		q.Add("includedTags[]", id)
	}
	for _, id := range excludedTags {
		q.Add("excludedTags[]", id)
	}
	q.Add("limit", strconv.Itoa(limit))
	q.Add("offset", strconv.Itoa(offset))
	q.Add("order[followedCount]", "desc")
	addCommonMangaParams(q)

	var resp MangaListResponse
	if err := c.getJSON(ctx, "/manga", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetManga fetches a single manga with its cover art and author included.
func (c *Client) GetManga(ctx context.Context, mangaID string) (*models.Manga, error) {
	q := url.Values{}
	q.Add("includes[]", "cover_art")
	q.Add("includes[]", "author")
	q.Add("includes[]", "artist")

	var resp MangaResponse
	if err := c.getJSON(ctx, "/manga/"+mangaID, q, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetTags returns the catalog's full tag list.
func (c *Client) GetTags(ctx context.Context) ([]models.Tag, error) {
	var resp TagListResponse
	if err := c.getJSON(ctx, "/manga/tag", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetChapters returns one page of a manga's chapters in ascending chapter
// order.
func (c *Client) GetChapters(ctx context.Context, mangaID string, langs []string, limit, offset int) ([]models.Chapter, error) {
	q := url.Values{}
	q.Add("manga", mangaID)
	q.Add("limit", strconv.Itoa(limit))
	q.Add("offset", strconv.Itoa(offset))
	q.Add("order[chapter]", "asc")
	q.Add("includes[]", "scanlation_group")
	for _, lang := range langs {
		q.Add("translatedLanguage[]", lang)
	}

	var resp ChapterListResponse
	if err := c.getJSON(ctx, "/chapter", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FeedOptions controls a chapter feed request.
type FeedOptions struct {
	Languages []string
	Limit     int
	Offset    int
}

// GetFeed returns one page of a manga's chapter feed in descending
// volume/chapter order.
func (c *Client) GetFeed(ctx context.Context, mangaID string, opts FeedOptions) ([]models.Chapter, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	q := url.Values{}
	q.Add("limit", strconv.Itoa(limit))
	q.Add("offset", strconv.Itoa(opts.Offset))
	q.Add("order[volume]", "desc")
	q.Add("order[chapter]", "desc")
	q.Add("includes[]", "scanlation_group")
	q.Add("includes[]", "user")
	for _, lang := range opts.Languages {
		q.Add("translatedLanguage[]", lang)
	}

	var resp ChapterListResponse
	if err := c.getJSON(ctx, "/manga/"+mangaID+"/feed", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetChapter fetches a single chapter's metadata.
func (c *Client) GetChapter(ctx context.Context, chapterID string) (*models.Chapter, error) {
	var resp ChapterResponse
	if err := c.getJSON(ctx, "/chapter/"+chapterID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetPageServer looks up the at-home server for a chapter. The result is
// valid only for a short time and must be fetched fresh per reading session.
func (c *Client) GetPageServer(ctx context.Context, chapterID string) (*PageServer, error) {
	var resp PageServer
	if err := c.getJSON(ctx, "/at-home/server/"+chapterID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCoverArt fetches the file name for a cover art record.
func (c *Client) GetCoverArt(ctx context.Context, coverID string) (string, error) {
	var resp CoverResponse
	if err := c.getJSON(ctx, "/cover/"+coverID, nil, &resp); err != nil {
		return "", err
	}
	return resp.Data.Attributes.FileName, nil
}

// PageURL builds a chapter page image URL from an at-home server lookup.
func (c *Client) PageURL(baseURL, hash, fileName string, dataSaver bool) string {
	quality := "data"
	if dataSaver {
		quality = "data-saver"
	}
	return fmt.Sprintf("%s/%s/%s/%s", baseURL, quality, hash, fileName)
}

// PageURLs expands an at-home lookup into the full ordered page URL list.
func (c *Client) PageURLs(server *PageServer, dataSaver bool) []string {
	files := server.Chapter.Data
	if dataSaver {
		files = server.Chapter.DataSaver
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, c.PageURL(server.BaseURL, server.Chapter.Hash, f, dataSaver))
	}
	return urls
}

// CoverThumbURL builds the direct upstream URL for a manga's 256px cover
// thumbnail. Used when snapshotting a favorite.
func (c *Client) CoverThumbURL(mangaID, fileName string) string {
	return fmt.Sprintf("%s/covers/%s/%s.256.jpg", c.imageBaseURL, mangaID, fileName)
}

// UpstreamCoverURL maps a requested size to the upstream thumbnail naming
// convention: "small" and "medium" use the pre-rendered .256.jpg/.512.jpg
// variants, "large" fetches the unmodified original.
func (c *Client) UpstreamCoverURL(mangaID, fileName, size string) string {
	base := fmt.Sprintf("%s/covers/%s/%s", c.imageBaseURL, mangaID, fileName)
	switch size {
	case "small":
		return base + ".256.jpg"
	case "large":
		return base
	default: // medium
		return base + ".512.jpg"
	}
}

// ProxyCoverPath builds the application-relative cover proxy path handed to
// browsers, which avoids the upstream's hotlink protection.
func (c *Client) ProxyCoverPath(mangaID, fileName, size string) string {
	return fmt.Sprintf("/api/covers/%s/%s?size=%s", mangaID, fileName, size)
}

func addCommonMangaParams(q url.Values) {
	q.Add("includes[]", "cover_art")
	q.Add("includes[]", "author")
	q.Add("includes[]", "artist")
	for _, rating := range contentRatings {
		q.Add("contentRating[]", rating)
	}
}
