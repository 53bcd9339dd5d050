package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lectiohq/lectio/pkg/httpfetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolume(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volumes/abc123" || r.URL.Query().Get("key") != "k" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"id": "abc123",
			"volumeInfo": {
				"title": "Dune",
				"authors": ["Frank Herbert"],
				"pageCount": 412,
				"description": "<p>Desert planet.</p>",
				"industryIdentifiers": [{"type": "ISBN_10", "identifier": "0441013597"}, {"type": "ISBN_13", "identifier": "9780441013593"}],
				"imageLinks": {"thumbnail": "http://books.google.com/books/content?id=abc123&printsec=frontcover&img=1&zoom=1&edge=curl"}
			}
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "k", httpfetch.New(httpfetch.Options{}))
	v, err := c.Volume(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Dune", v.VolumeInfo.Title)
	assert.Equal(t, 412, v.VolumeInfo.PageCount)
	assert.Equal(t, "9780441013593", v.VolumeInfo.Identifier("ISBN_13"))
	assert.Equal(t, "0441013597", v.VolumeInfo.Identifier("isbn_10"))
	assert.Equal(t, "", v.VolumeInfo.Identifier("ISSN"))

	_, err = c.Volume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVolume_MissingKeyMakesNoRequest(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "  ", httpfetch.New(httpfetch.Options{}))
	assert.False(t, c.HasAPIKey())
	_, err := c.Volume(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestNormalizeCoverURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips zoom and edge", "http://books.google.com/books/content?id=x&zoom=1&edge=curl", "https://books.google.com/books/content?id=x"},
		{"keeps other params", "https://books.google.com/books/content?id=x&img=1", "https://books.google.com/books/content?id=x&img=1"},
		{"empty", "  ", ""},
		{"relative", "/books/content?id=x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCoverURL(tt.in))
		})
	}
}

func TestImageLinks_Best(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "m", ImageLinks{SmallThumbnail: "st", Thumbnail: "t", Medium: "m"}.Best())
	assert.Equal(t, "st", ImageLinks{SmallThumbnail: "st"}.Best())
	assert.Equal(t, "", ImageLinks{}.Best())
}
