package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lectiohq/lectio/pkg/httpfetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "https://covers.example.org", httpfetch.New(httpfetch.Options{}))
}

func TestEditionByISBN(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{
		"/isbn/9782070360024.json": `{
			"key": "/books/OL1M",
			"title": "L'Étranger",
			"works": [{"key": "/works/OL1W"}],
			"number_of_pages": 185,
			"covers": [-1, 12345],
			"description": {"type": "/type/text", "value": "A novel."}
		}`,
	})

	ed, err := c.EditionByISBN(context.Background(), "978-2-07-036002-4")
	require.NoError(t, err)
	assert.Equal(t, "/books/OL1M", ed.Key)
	assert.Equal(t, "/works/OL1W", ed.WorkKey)
	assert.Equal(t, 185, ed.Pages)
	assert.Equal(t, 12345, ed.CoverID)
	assert.Equal(t, "A novel.", ed.Description)
}

func TestEditionByISBN_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{})
	_, err := c.EditionByISBN(context.Background(), "9782070360024")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditionByISBN_Invalid(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{})
	_, err := c.EditionByISBN(context.Background(), "abc")
	assert.Error(t, err)
}

func TestEdition_MalformedFieldsAreAnError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{
		"/books/OL2M.json": `{"key": "/books/OL2M", "number_of_pages": "many"}`,
	})
	_, err := c.Edition(context.Background(), "OL2M")
	assert.Error(t, err)
}

func TestWork(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{
		"/works/OL1W.json": `{"key": "/works/OL1W", "covers": [77], "description": "Plain string description."}`,
		"/works/OL1W/editions.json": `{"entries": [
			{"number_of_pages": 300},
			{"number_of_pages": 0},
			{"number_of_pages": 120},
			{"number_of_pages": 200}
		]}`,
	})

	w, err := c.Work(context.Background(), "https://openlibrary.org/works/OL1W/The_Stranger")
	require.NoError(t, err)
	assert.Equal(t, "/works/OL1W", w.Key)
	assert.Equal(t, 77, w.CoverID)
	assert.Equal(t, "Plain string description.", w.Description)
	assert.Equal(t, 200, w.PagesMedian)
}

func TestWork_EditionsFailureKeepsWork(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{
		"/works/OL1W.json": `{"key": "/works/OL1W", "covers": [77]}`,
	})

	w, err := c.Work(context.Background(), "/works/OL1W")
	require.NoError(t, err)
	assert.Equal(t, 77, w.CoverID)
	assert.Zero(t, w.PagesMedian)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, map[string]string{
		"/search.json": `{"numFound": 1, "docs": [{"key": "/works/OL1W", "title": "Dune", "author_name": ["Frank Herbert"], "isbn": ["9780441013593"], "cover_i": 5}]}`,
	})

	docs, err := c.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Dune", docs[0].Title)
	assert.Equal(t, []string{"Frank Herbert"}, docs[0].AuthorName)

	docs, err = c.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCoverURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://covers.openlibrary.org/b/id/12345-L.jpg", CoverURL(DefaultCoversURL, 12345, "L"))
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-L.jpg", CoverURL(DefaultCoversURL+"/", 1, ""))
	assert.Equal(t, "", CoverURL(DefaultCoversURL, 0, "L"))

	c := NewClient("", "", httpfetch.New(httpfetch.Options{}))
	assert.Equal(t, "https://covers.openlibrary.org/b/id/9-L.jpg", c.CoverURL(9))
}

func TestMedian(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Median(nil))
	assert.Equal(t, 5, Median([]int{5}))
	assert.Equal(t, 2, Median([]int{3, 1, 2, 4}))
	assert.Equal(t, 3, Median([]int{5, 1, 3}))
}

func TestText_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var e EditionResponse
	require.NoError(t, e.Description.UnmarshalJSON([]byte(`"plain"`)))
	assert.Equal(t, Text("plain"), e.Description)
	require.NoError(t, e.Description.UnmarshalJSON([]byte(`{"type":"/type/text","value":"wrapped"}`)))
	assert.Equal(t, Text("wrapped"), e.Description)
	require.NoError(t, e.Description.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, Text(""), e.Description)
	require.NoError(t, e.Description.UnmarshalJSON([]byte(`42`)))
	assert.Equal(t, Text(""), e.Description)
}
