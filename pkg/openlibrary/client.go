package openlibrary

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/lectiohq/lectio/pkg/httpfetch"
	"github.com/lectiohq/lectio/pkg/identifiers"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"

	editionsSampleSize = 50
	searchLimit        = 20
)

var ErrNotFound = httpfetch.ErrNotFound

type Client struct {
	baseURL   string
	coversURL string
	fetcher   *httpfetch.Fetcher
}

func NewClient(baseURL, coversURL string, fetcher *httpfetch.Fetcher) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if coversURL == "" {
		coversURL = DefaultCoversURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		coversURL: strings.TrimRight(coversURL, "/"),
		fetcher:   fetcher,
	}
}

// CoverURL builds the image URL for a cover id. Size is one of S, M or L.
func CoverURL(coversURL string, id int, size string) string {
	if id <= 0 {
		return ""
	}
	if size == "" {
		size = "L"
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", strings.TrimRight(coversURL, "/"), id, size)
}

func (c *Client) CoverURL(id int) string {
	return CoverURL(c.coversURL, id, "L")
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	u := c.baseURL + path
	cacheKey := "openlibrary:" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
		cacheKey += "?" + query.Encode()
	}
	return c.fetcher.GetJSON(ctx, u, cacheKey, dest)
}

// EditionByISBN looks up the edition carrying the given ISBN.
func (c *Client) EditionByISBN(ctx context.Context, isbn string) (*Edition, error) {
	clean := identifiers.CleanISBN(isbn)
	if clean == "" {
		return nil, errors.Errorf("invalid isbn %q", isbn)
	}
	var resp EditionResponse
	if err := c.get(ctx, "/isbn/"+clean+".json", nil, &resp); err != nil {
		return nil, errors.WithStack(err)
	}
	return resp.toEdition(), nil
}

// Edition fetches an edition by its key.
func (c *Client) Edition(ctx context.Context, key string) (*Edition, error) {
	norm := identifiers.NormalizeEditionKey(key)
	if norm == "" {
		return nil, errors.Errorf("invalid edition key %q", key)
	}
	var resp EditionResponse
	if err := c.get(ctx, norm+".json", nil, &resp); err != nil {
		return nil, errors.WithStack(err)
	}
	ed := resp.toEdition()
	if ed.Key == "" {
		ed.Key = norm
	}
	return ed, nil
}

// Work fetches a work and estimates its page count from a sample of its
// editions. A failed editions request only leaves PagesMedian unset.
func (c *Client) Work(ctx context.Context, key string) (*Work, error) {
	norm := identifiers.NormalizeWorkKey(key)
	if norm == "" {
		return nil, errors.Errorf("invalid work key %q", key)
	}
	var resp WorkResponse
	if err := c.get(ctx, norm+".json", nil, &resp); err != nil {
		return nil, errors.WithStack(err)
	}
	w := &Work{
		Key:         norm,
		CoverID:     FirstCover(resp.Covers),
		Description: string(resp.Description),
	}

	var eds editionsResponse
	q := url.Values{"limit": []string{fmt.Sprint(editionsSampleSize)}}
	if err := c.get(ctx, norm+"/editions.json", q, &eds); err != nil {
		logger.FromContext(ctx).Warn("openlibrary editions lookup failed", logger.Data{"work_key": norm, "error": err.Error()})
		return w, nil
	}
	pages := make([]int, 0, len(eds.Entries))
	for _, e := range eds.Entries {
		if e.NumberOfPages > 0 {
			pages = append(pages, e.NumberOfPages)
		}
	}
	w.PagesMedian = Median(pages)
	return w, nil
}

// Search runs a free-text query against the search API.
func (c *Client) Search(ctx context.Context, query string) ([]SearchDoc, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := url.Values{
		"q":     []string{query},
		"limit": []string{fmt.Sprint(searchLimit)},
	}
	var resp searchResponse
	if err := c.get(ctx, "/search.json", q, &resp); err != nil {
		return nil, errors.WithStack(err)
	}
	return resp.Docs, nil
}

// Median returns the lower median of the values, or 0 for an empty slice.
func Median(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	return sorted[(len(sorted)-1)/2]
}
