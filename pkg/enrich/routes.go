package enrich

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the enrichment route on the books group.
func RegisterRoutesWithGroup(g *echo.Group, enricher *Enricher) {
	h := &handler{enricher: enricher}

	g.POST("/:id/enrich", h.enrich)
}
