package enrich

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	enricher *Enricher
}

func (h *handler) enrich(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// Hints are optional.
	c.Set("disallow_empty_body", false)
	params := EnrichPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.enricher.Enrich(ctx, id, params.hints())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
