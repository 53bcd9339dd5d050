package binder

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Title    string `json:"title" mod:"trim" validate:"max=9"`
	ISBN     string `json:"isbn" validate:"isbn"`
	WorkKey  string `json:"work_key" validate:"olkey"`
	CoverURL string `json:"cover_url" validate:"httpurl"`
	Limit    int    `json:"limit" query:"limit" default:"20"`
	Omit     string `json:"-"`
}

func TestBind(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("rejects unsupported media types", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"title":"Dune"}`, echo.MIMEApplicationXML)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"title":"Dune","foo":"bar"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("reports type errors", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"title":123}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), `"title" should be of type string`)
	})

	t.Run("trims and applies defaults", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"title":" Dune ","isbn":"978-0-441-01359-3","work_key":"OL893415W"}`, echo.MIMEApplicationJSON)
		p := params{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "Dune", p.Title)
		assert.Equal(tt, 20, p.Limit)
	})

	t.Run("validates lengths", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"title":"0123456789"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})

	t.Run("validates isbns", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"isbn":"12345"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), `"isbn" is not a valid ISBN-10 or ISBN-13`)
	})

	t.Run("validates openlibrary keys", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"work_key":"dune"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), `"work_key" is not a valid OpenLibrary key`)
	})

	t.Run("validates cover urls", func(tt *testing.T) {
		c := newContext(http.MethodPost, `{"cover_url":"ftp://example.com/c.jpg"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), `"cover_url" must be an absolute http or https URL`)
	})

	t.Run("binds query params on GET", func(tt *testing.T) {
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "limit=5"
		p := params{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, 5, p.Limit)
	})

	t.Run("rejects empty POST bodies unless allowed", func(tt *testing.T) {
		c := newContext(http.MethodPost, "", echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(tt, err.Error(), "can't be empty")

		c = newContext(http.MethodPost, "", echo.MIMEApplicationJSON)
		c.Set("disallow_empty_body", false)
		assert.NoError(tt, b.Bind(&params{}, c))
	})
}

func newContext(method, payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(payload))
	if mime != "" {
		req.Header.Set(echo.HeaderContentType, mime)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
