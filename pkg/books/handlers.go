package books

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/bookkey"
	"github.com/lectiohq/lectio/pkg/display"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/incoming"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/lectiohq/lectio/pkg/openlibrary"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Searcher looks books up on OpenLibrary.
type Searcher interface {
	Search(ctx context.Context, query string) ([]openlibrary.SearchDoc, error)
}

// JobCreator queues background jobs.
type JobCreator interface {
	CreateJob(ctx context.Context, job *models.Job) error
}

type handler struct {
	bookService *Service
	searcher    Searcher
	jobs        JobCreator
}

type bookResponse struct {
	*models.Book
	Key           string `json:"key,omitempty"`
	DisplayTitle  string `json:"display_title"`
	DisplayAuthor string `json:"display_author,omitempty"`
}

func newBookResponse(book *models.Book) bookResponse {
	f := displayFields(book.DisplayFields())
	author, _ := display.SafeAuthor(f)
	return bookResponse{
		Book:          book,
		DisplayTitle:  display.SafeTitle(f, FallbackTitle),
		DisplayAuthor: author,
	}
}

type userBookResponse struct {
	*models.UserBook
	DisplayTitle  string `json:"display_title"`
	DisplayAuthor string `json:"display_author,omitempty"`
}

func newUserBookResponse(ub *models.UserBook) userBookResponse {
	f := displayFields(ub.DisplayFields())
	author, _ := display.SafeAuthor(f)
	return userBookResponse{
		UserBook:      ub,
		DisplayTitle:  display.SafeTitle(f, FallbackTitle),
		DisplayAuthor: author,
	}
}

// displayFields treats the stored fallback title as missing so a user's
// custom title can take its place.
func displayFields(f display.Fields) display.Fields {
	if !IsGoodTitle(f.Title) {
		f.Title = ""
	}
	return f
}

func (h *handler) ensure(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	// Bind params.
	params := EnsureBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rec, err := params.record()
	if err != nil {
		return err
	}

	key := bookkey.Derive(rec)
	if key.Degenerate {
		log.Warn("record has nothing to identify it by", logger.Data{"key": key.Value, "source": rec.Source})
	}

	id, err := h.bookService.EnsureBook(ctx, rec)
	if err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Book     bookResponse      `json:"book"`
		UserBook *userBookResponse `json:"user_book,omitempty"`
		Job      *models.Job       `json:"job,omitempty"`
	}{Book: newBookResponse(book)}
	resp.Book.Key = key.Value

	if params.UserID != "" {
		ub, err := h.bookService.LinkUserBook(ctx, LinkUserBookOptions{
			UserID:       params.UserID,
			BookID:       id,
			Status:       params.Status,
			CustomTitle:  params.CustomTitle,
			CustomAuthor: params.CustomAuthor,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		ubr := newUserBookResponse(ub)
		resp.UserBook = &ubr
	}

	if params.Enrich && h.jobs != nil {
		job := &models.Job{
			Type:   models.JobTypeEnrichBook,
			Status: models.JobStatusPending,
			DataParsed: &models.JobEnrichBookData{
				BookID:                id,
				ISBN:                  rec.PreferredISBN(),
				GoogleBooksID:         rec.GoogleBooksID,
				OpenLibraryWorkKey:    rec.OpenLibraryWorkKey,
				OpenLibraryEditionKey: rec.OpenLibraryEditionKey,
			},
		}
		if err := h.jobs.CreateJob(ctx, job); err != nil {
			return errors.WithStack(err)
		}
		resp.Job = job
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// record picks the adapter for whichever input the payload carries.
func (p EnsureBookPayload) record() (incoming.Record, error) {
	given := 0
	if len(p.Raw) > 0 {
		given++
	}
	if p.Manual != nil {
		given++
	}
	if p.Barcode != "" {
		given++
	}
	if given != 1 {
		return incoming.Record{}, errcodes.ValidationError(`exactly one of "raw", "manual" or "barcode" is required`)
	}

	switch {
	case p.Manual != nil:
		return incoming.FromManualForm(p.Manual.form()), nil
	case p.Barcode != "":
		return incoming.FromBarcode(p.Barcode), nil
	}
	return incoming.FromSource(incoming.ParseSource(p.Source), p.Raw), nil
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:           &params.Limit,
		Offset:          &params.Offset,
		MissingMetadata: params.Missing,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]bookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, newBookResponse(b))
	}

	resp := struct {
		Books []bookResponse `json:"books"`
		Total int            `json:"total"`
	}{items, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) key(c echo.Context) error {
	// Bind params.
	params := KeyQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, bookkey.Derive(params.record())))
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := SearchQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	docs, err := h.searcher.Search(ctx, params.Q)
	if err != nil {
		return errors.WithStack(err)
	}

	type result struct {
		Key    string          `json:"key"`
		Record incoming.Record `json:"record"`
	}
	results := make([]result, 0, len(docs))
	for _, d := range docs {
		rec := incoming.FromOpenLibrarySearch(d)
		results = append(results, result{Key: bookkey.Derive(rec).Value, Record: rec})
	}

	resp := struct {
		Results []result `json:"results"`
	}{results}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) listUserBooks(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListUserBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userBooks, total, err := h.bookService.ListUserBooks(ctx, ListUserBooksOptions{
		UserID: c.Param("user_id"),
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]userBookResponse, 0, len(userBooks))
	for _, ub := range userBooks {
		items = append(items, newUserBookResponse(ub))
	}

	resp := struct {
		UserBooks []userBookResponse `json:"user_books"`
		Total     int                `json:"total"`
	}{items, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
