package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lectiohq/lectio/pkg/binder"
	"github.com/lectiohq/lectio/pkg/books"
	"github.com/lectiohq/lectio/pkg/config"
	"github.com/lectiohq/lectio/pkg/enrich"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/joblogs"
	"github.com/lectiohq/lectio/pkg/jobs"
	"github.com/lectiohq/lectio/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, enricher *enrich.Enricher, searcher books.Searcher) (*http.Server, error) {
	e, err := newEcho(cfg, db, enricher, searcher)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, enricher *enrich.Enricher, searcher books.Searcher) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	jobService := jobs.NewService(db)

	booksGroup := e.Group("/books")
	books.RegisterRoutesWithGroup(booksGroup, db, searcher, jobService)
	enrich.RegisterRoutesWithGroup(booksGroup, enricher)

	usersGroup := e.Group("/users")
	books.RegisterUserRoutesWithGroup(usersGroup, db)

	jobsGroup := e.Group("/jobs")
	jobs.RegisterRoutesWithGroup(jobsGroup, db)
	joblogs.RegisterRoutes(jobsGroup, db)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
