package joblogs

import (
	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/jobs"
	"github.com/uptrace/bun"
)

// RegisterRoutes adds GET /:id/logs to the jobs group.
func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		jobLogService: NewService(db),
		jobService:    jobs.NewService(db),
	}

	g.GET("/:id/logs", h.list)
}
