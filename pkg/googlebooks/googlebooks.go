package googlebooks

import (
	"context"
	"net/url"
	"strings"

	"github.com/lectiohq/lectio/pkg/httpfetch"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

var (
	ErrMissingAPIKey = errors.New("google books api key is not configured")
	ErrNotFound      = httpfetch.ErrNotFound
)

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	PageCount           int                  `json:"pageCount"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	ImageLinks          ImageLinks           `json:"imageLinks"`
}

type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
	Small          string `json:"small"`
	Medium         string `json:"medium"`
	Large          string `json:"large"`
}

// Best returns the largest image link present.
func (l ImageLinks) Best() string {
	for _, s := range []string{l.Large, l.Medium, l.Small, l.Thumbnail, l.SmallThumbnail} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Identifier returns the industry identifier of the given type (ISBN_13,
// ISBN_10, ...).
func (v VolumeInfo) Identifier(typ string) string {
	for _, id := range v.IndustryIdentifiers {
		if strings.EqualFold(id.Type, typ) {
			return strings.TrimSpace(id.Identifier)
		}
	}
	return ""
}

// NormalizeCoverURL removes the zoom and edge parameters, which produce
// low-resolution or curled-page renders, and upgrades the scheme to https.
func NormalizeCoverURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme == "http" || u.Scheme == "" {
		u.Scheme = "https"
	}
	q := u.Query()
	q.Del("zoom")
	q.Del("edge")
	u.RawQuery = q.Encode()
	return u.String()
}

type Client struct {
	baseURL string
	apiKey  string
	fetcher *httpfetch.Fetcher
}

func NewClient(baseURL, apiKey string, fetcher *httpfetch.Fetcher) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		fetcher: fetcher,
	}
}

func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Volume fetches a single volume. Without an API key no request is made and
// ErrMissingAPIKey is returned.
func (c *Client) Volume(ctx context.Context, id string) (*Volume, error) {
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("google books volume id is required")
	}
	u := c.baseURL + "/volumes/" + url.PathEscape(id) + "?" + url.Values{"key": []string{c.apiKey}}.Encode()

	var v Volume
	if err := c.fetcher.GetJSON(ctx, u, "googlebooks:volume:"+id, &v); err != nil {
		return nil, errors.WithStack(err)
	}
	return &v, nil
}
