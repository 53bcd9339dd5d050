package books

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, searcher Searcher, jobs JobCreator) {
	h := &handler{
		bookService: NewService(db),
		searcher:    searcher,
		jobs:        jobs,
	}

	g.POST("/ensure", h.ensure)
	g.GET("/key", h.key)
	g.GET("/search", h.search)
	g.GET("/:id", h.retrieve)
	g.GET("", h.list)
}

// RegisterUserRoutesWithGroup registers the per-user library routes.
func RegisterUserRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{bookService: NewService(db)}

	g.GET("/:user_id/books", h.listUserBooks)
}
