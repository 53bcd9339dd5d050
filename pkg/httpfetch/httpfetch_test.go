package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lectiohq/lectio/pkg/fetchcache"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Key string `json:"key"`
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"key":"/books/OL1M"}`))
		case "/broken":
			_, _ = w.Write([]byte(`{"key":`))
		case "/boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := New(Options{})
	ctx := context.Background()

	t.Run("decodes body", func(t *testing.T) {
		var d doc
		require.NoError(t, f.GetJSON(ctx, srv.URL+"/ok", "", &d))
		assert.Equal(t, "/books/OL1M", d.Key)
	})

	t.Run("not found", func(t *testing.T) {
		var d doc
		err := f.GetJSON(ctx, srv.URL+"/missing", "", &d)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		var d doc
		err := f.GetJSON(ctx, srv.URL+"/boom", "", &d)
		var serr *StatusError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		var d doc
		assert.Error(t, f.GetJSON(ctx, srv.URL+"/broken", "", &d))
	})
}

func TestGetJSON_RedactsKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	var d doc
	err := New(Options{}).GetJSON(context.Background(), srv.URL+"/volumes/x?key=secret", "", &d)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestGetJSON_UsesCache(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"key":"/works/OL1W"}`))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	cache, err := fetchcache.NewRedis(mr.Addr(), "", "test", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	f := New(Options{Cache: cache})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		var d doc
		require.NoError(t, f.GetJSON(ctx, srv.URL, "works/OL1W", &d))
		assert.Equal(t, "/works/OL1W", d.Key)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestGetJSON_CanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var d doc
	err := New(Options{RateLimit: 1}).GetJSON(ctx, srv.URL, "", &d)
	assert.Error(t, err)
}
