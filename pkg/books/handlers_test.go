package books

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/binder"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/lectiohq/lectio/pkg/openlibrary"
	"github.com/lectiohq/lectio/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fakeSearcher struct {
	docs []openlibrary.SearchDoc
	q    string
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]openlibrary.SearchDoc, error) {
	f.q = q
	return f.docs, nil
}

type fakeJobs struct {
	created []*models.Job
}

func (f *fakeJobs) CreateJob(_ context.Context, job *models.Job) error {
	job.ID = len(f.created) + 1
	f.created = append(f.created, job)
	return nil
}

type handlerTest struct {
	e        *echo.Echo
	db       *bun.DB
	searcher *fakeSearcher
	jobs     *fakeJobs
}

func setupTestHandler(t *testing.T) *handlerTest {
	t.Helper()

	db := testutils.NewDB(t)
	b, err := binder.New()
	require.NoError(t, err)

	e := echo.New()
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	ht := &handlerTest{e: e, db: db, searcher: &fakeSearcher{}, jobs: &fakeJobs{}}
	RegisterRoutesWithGroup(e.Group("/books"), db, ht.searcher, ht.jobs)
	RegisterUserRoutesWithGroup(e.Group("/users"), db)
	return ht
}

func (ht *handlerTest) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ht.e.ServeHTTP(rec, req)
	return rec
}

type ensureResponse struct {
	Book struct {
		ID            int     `json:"id"`
		Key           string  `json:"key"`
		Title         string  `json:"title"`
		ISBN          *string `json:"isbn"`
		DisplayTitle  string  `json:"display_title"`
		DisplayAuthor string  `json:"display_author"`
	} `json:"book"`
	UserBook *struct {
		ID           int    `json:"id"`
		Status       string `json:"status"`
		DisplayTitle string `json:"display_title"`
	} `json:"user_book"`
	Job *struct {
		ID   int    `json:"id"`
		Type string `json:"type"`
	} `json:"job"`
}

func TestHandler_EnsureOpenLibraryRecord(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	body := `{
		"source": "openlibrary",
		"raw": {
			"key": "/works/OL45804W",
			"title": "Le Petit Prince",
			"author_name": ["Antoine de Saint-Exupéry"],
			"isbn": ["2070408507", "9782070408504"],
			"cover_i": 10523466
		}
	}`
	rec := ht.do(t, http.MethodPost, "/books/ensure", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ensureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.Book.ID)
	assert.Equal(t, "ol:/works/OL45804W", resp.Book.Key)
	assert.Equal(t, "Le Petit Prince", resp.Book.DisplayTitle)
	assert.Equal(t, "Antoine de Saint-Exupéry", resp.Book.DisplayAuthor)
	require.NotNil(t, resp.Book.ISBN)
	assert.Equal(t, "9782070408504", *resp.Book.ISBN)
	assert.Nil(t, resp.UserBook)
	assert.Nil(t, resp.Job)

	// The same record again resolves to the same book.
	rec = ht.do(t, http.MethodPost, "/books/ensure", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var again ensureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, resp.Book.ID, again.Book.ID)
}

func TestHandler_EnsureBarcodeWithUserAndEnrich(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	body := `{"barcode": "978-2-07-036002-4", "user_id": "u1", "custom_title": "L'Étranger", "enrich": true}`
	rec := ht.do(t, http.MethodPost, "/books/ensure", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ensureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "isbn:9782070360024", resp.Book.Key)
	assert.Equal(t, FallbackTitle, resp.Book.Title)

	require.NotNil(t, resp.UserBook)
	assert.Equal(t, models.ReadingStatusToRead, resp.UserBook.Status)
	assert.Equal(t, "L'Étranger", resp.UserBook.DisplayTitle)

	require.NotNil(t, resp.Job)
	assert.Equal(t, models.JobTypeEnrichBook, resp.Job.Type)
	require.Len(t, ht.jobs.created, 1)
	data, ok := ht.jobs.created[0].DataParsed.(*models.JobEnrichBookData)
	require.True(t, ok)
	assert.Equal(t, resp.Book.ID, data.BookID)
	assert.Equal(t, "9782070360024", data.ISBN)
}

func TestHandler_EnsureManual(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	body := `{"manual": {"title": "  Journal ", "author": "Anne Frank", "pages": 352}}`
	rec := ht.do(t, http.MethodPost, "/books/ensure", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ensureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Journal", resp.Book.Title)
	assert.True(t, strings.HasPrefix(resp.Book.Key, "manual:") || strings.HasPrefix(resp.Book.Key, "t:"), resp.Book.Key)
}

func TestHandler_EnsureValidation(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"nothing to ensure", `{"source": "google"}`, http.StatusUnprocessableEntity},
		{"two inputs", `{"barcode": "9782070360024", "manual": {"title": "x"}}`, http.StatusUnprocessableEntity},
		{"bad barcode", `{"barcode": "12345"}`, http.StatusUnprocessableEntity},
		{"bad source", `{"source": "amazon", "raw": {"title": "x"}}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"barcode": "9782070360024", "shelf": 3}`, http.StatusUnprocessableEntity},
		{"manual without title", `{"manual": {"author": "x"}}`, http.StatusUnprocessableEntity},
		{"empty body", ``, http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := ht.do(t, http.MethodPost, "/books/ensure", tt.body)
		assert.Equal(t, tt.code, rec.Code, "%s: %s", tt.name, rec.Body.String())
	}
}

func TestHandler_RetrieveAndList(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	rec := ht.do(t, http.MethodPost, "/books/ensure", `{"barcode": "9780441172719"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created ensureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = ht.do(t, http.MethodGet, "/books/"+strconv.Itoa(created.Book.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var book struct {
		ID           int    `json:"id"`
		DisplayTitle string `json:"display_title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.Equal(t, created.Book.ID, book.ID)
	assert.Equal(t, FallbackTitle, book.DisplayTitle)

	rec = ht.do(t, http.MethodGet, "/books/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ht.do(t, http.MethodGet, "/books/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ht.do(t, http.MethodGet, "/books?missing=true&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Books []struct {
			ID int `json:"id"`
		} `json:"books"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Books, 1)

	rec = ht.do(t, http.MethodGet, "/books?limit=500", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Key(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	rec := ht.do(t, http.MethodGet, "/books/key?title=L%27%C3%89tranger&author=Albert+Camus", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"t:l etranger|a:albert camus"`)

	rec = ht.do(t, http.MethodGet, "/books/key?isbn13=9782070360024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isbn:9782070360024"`)

	rec = ht.do(t, http.MethodGet, "/books/key?openlibrary_key=nonsense", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Search(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)
	ht.searcher.docs = []openlibrary.SearchDoc{
		{Key: "/works/OL893415W", Title: "Dune", AuthorName: []string{"Frank Herbert"}, ISBN: []string{"9780441172719"}},
	}

	rec := ht.do(t, http.MethodGet, "/books/search?q=+dune+", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "dune", ht.searcher.q)

	var resp struct {
		Results []struct {
			Key    string `json:"key"`
			Record struct {
				Title  string `json:"title"`
				ISBN13 string `json:"isbn13"`
			} `json:"record"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ol:/works/OL893415W", resp.Results[0].Key)
	assert.Equal(t, "9780441172719", resp.Results[0].Record.ISBN13)

	rec = ht.do(t, http.MethodGet, "/books/search", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_ListUserBooks(t *testing.T) {
	t.Parallel()
	ht := setupTestHandler(t)

	rec := ht.do(t, http.MethodPost, "/books/ensure", `{"barcode": "9780441172719", "user_id": "reader-1", "status": "reading"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ht.do(t, http.MethodGet, "/users/reader-1/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		UserBooks []struct {
			Status       string `json:"status"`
			DisplayTitle string `json:"display_title"`
		} `json:"user_books"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.UserBooks, 1)
	assert.Equal(t, models.ReadingStatusReading, resp.UserBooks[0].Status)
	assert.Equal(t, FallbackTitle, resp.UserBooks[0].DisplayTitle)
}
