package testutils

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// createBookRequest seeds a book row as-is, placeholders included, so
// end-to-end tests can start from rows the merge rule would never produce.
type createBookRequest struct {
	Title       string  `json:"title" validate:"required"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	CoverURL    *string `json:"cover_url"`
	TotalPages  *int    `json:"total_pages"`
	Description *string `json:"description"`
}

// createBook inserts a book without reconciliation.
// POST /test/books.
func (h *handler) createBook(c echo.Context) error {
	ctx := c.Request().Context()

	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	now := time.Now()
	book := &models.Book{
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		CoverURL:    req.CoverURL,
		TotalPages:  req.TotalPages,
		Description: req.Description,
	}
	_, err := h.db.NewInsert().Model(book).Returning("*").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create book")
	}

	return c.JSON(http.StatusCreated, book)
}

type deleteAllResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAll removes every book, library entry, job and job log.
// DELETE /test/data.
func (h *handler) deleteAll(c echo.Context) error {
	ctx := c.Request().Context()

	var deleted int64
	for _, model := range []interface{}{(*models.UserBook)(nil), (*models.Book)(nil), (*models.JobLog)(nil), (*models.Job)(nil)} {
		result, err := h.db.NewDelete().
			Model(model).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete test data")
		}
		n, _ := result.RowsAffected()
		deleted += n
	}

	return c.JSON(http.StatusOK, deleteAllResponse{
		Deleted: int(deleted),
	})
}
