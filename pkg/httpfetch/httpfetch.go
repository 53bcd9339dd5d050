package httpfetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lectiohq/lectio/pkg/fetchcache"
	"github.com/lectiohq/lectio/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"
)

const maxBodySize = 4 << 20

var ErrNotFound = errors.New("remote resource not found")

// StatusError is returned for any non-2xx response other than 404.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return "unexpected HTTP " + http.StatusText(e.StatusCode) + " from " + e.URL
}

type Options struct {
	Timeout    time.Duration
	RateLimit  float64
	Cache      fetchcache.Cache
	HTTPClient *http.Client
}

// Fetcher issues rate-limited GET requests for JSON documents and caches the
// raw bodies of successful responses.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   fetchcache.Cache
}

func New(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	cache := opts.Cache
	if cache == nil {
		cache = fetchcache.Noop{}
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache,
	}
}

// GetJSON fetches rawURL and decodes the body into dest. cacheKey identifies
// the response in the cache; an empty key disables caching for the request.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL, cacheKey string, dest interface{}) error {
	if cacheKey != "" {
		if body, ok := f.cache.Get(ctx, cacheKey); ok {
			if err := json.Unmarshal(body, dest); err == nil {
				return nil
			}
		}
	}

	body, err := f.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}

	if cacheKey != "" {
		f.cache.Set(ctx, cacheKey, body)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lectio/"+version.Version)

	shown := redact(req.URL)
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(unwrapURLError(err), "failed to fetch %s", shown)
	}
	defer resp.Body.Close()

	logger.FromContext(ctx).Debug("metadata request", logger.Data{
		"url":         shown,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: shown}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", shown)
	}
	return body, nil
}

// redact hides API keys passed as query parameters.
func redact(u *url.URL) string {
	q := u.Query()
	if q.Get("key") == "" {
		return u.String()
	}
	q.Set("key", "REDACTED")
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}

// unwrapURLError drops the *url.Error wrapper, whose message repeats the
// unredacted URL.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
