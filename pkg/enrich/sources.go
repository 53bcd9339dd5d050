package enrich

import (
	"github.com/lectiohq/lectio/pkg/books"
	"github.com/lectiohq/lectio/pkg/config"
	"github.com/lectiohq/lectio/pkg/fetchcache"
	"github.com/lectiohq/lectio/pkg/googlebooks"
	"github.com/lectiohq/lectio/pkg/httpfetch"
	"github.com/lectiohq/lectio/pkg/openlibrary"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Sources are the external metadata clients built from config. They share one
// rate limiter and one response cache.
type Sources struct {
	OpenLibrary *openlibrary.Client
	GoogleBooks *googlebooks.Client

	redis *fetchcache.Redis
}

func NewSources(cfg *config.Config) (*Sources, error) {
	var cache fetchcache.Cache = fetchcache.Noop{}
	src := &Sources{}
	if cfg.HasRedis() {
		r, err := fetchcache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, cfg.MetadataCacheTTL)
		if err != nil {
			return nil, errors.Wrap(err, "metadata cache")
		}
		src.redis = r
		cache = r
	}

	fetcher := httpfetch.New(httpfetch.Options{
		Timeout:   cfg.MetadataHTTPTimeout,
		RateLimit: cfg.MetadataRateLimit,
		Cache:     cache,
	})
	src.OpenLibrary = openlibrary.NewClient(cfg.OpenLibraryBaseURL, cfg.OpenLibraryCoversURL, fetcher)
	src.GoogleBooks = googlebooks.NewClient(cfg.GoogleBooksBaseURL, cfg.GoogleBooksAPIKey, fetcher)
	return src, nil
}

// Close releases the response cache connection, if any.
func (s *Sources) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// NewFromConfig wires an Enricher over the books table and the configured
// sources.
func NewFromConfig(cfg *config.Config, db *bun.DB, src *Sources) *Enricher {
	return New(books.NewService(db).WithBusyRetries(cfg.DatabaseMaxRetries), src.OpenLibrary, src.GoogleBooks, Options{
		Cooldown:  cfg.EnrichCooldown,
		SkipScore: cfg.EnrichSkipScore,
	})
}
