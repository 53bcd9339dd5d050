package jobs

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/binder"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHandler(t *testing.T) *echo.Echo {
	t.Helper()

	b, err := binder.New()
	require.NoError(t, err)
	e := echo.New()
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutesWithGroup(e.Group("/jobs"), testutils.NewDB(t))
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateBackfill(t *testing.T) {
	e := setupTestHandler(t)

	rec := serve(e, http.MethodPost, "/jobs", `{"type": "enrich_backfill", "data": {"limit": 10}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var job struct {
		ID     int    `json:"id"`
		Type   string `json:"type"`
		Status string `json:"status"`
		Data   struct {
			Limit int `json:"limit"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "enrich_backfill", job.Type)
	assert.Equal(t, "pending", job.Status)
	assert.Equal(t, 10, job.Data.Limit)

	// A second backfill while the first is pending conflicts.
	rec = serve(e, http.MethodPost, "/jobs", `{"type": "enrich_backfill"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(e, http.MethodGet, "/jobs?type=enrich_backfill", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestHandler_CreateEnrichBook(t *testing.T) {
	e := setupTestHandler(t)

	rec := serve(e, http.MethodPost, "/jobs", `{"type": "enrich_book", "data": {"book_id": 3, "google_books_id": "B1hSG45JCX4C"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"book_id":3`)

	rec = serve(e, http.MethodPost, "/jobs", `{"type": "enrich_book", "data": {}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(e, http.MethodPost, "/jobs", `{"type": "enrich_book", "data": {"book_id": "three"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(e, http.MethodPost, "/jobs", `{"type": "scan"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Retrieve(t *testing.T) {
	e := setupTestHandler(t)

	rec := serve(e, http.MethodPost, "/jobs", `{"type": "enrich_backfill"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodGet, "/jobs/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/jobs/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodGet, "/jobs/x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
