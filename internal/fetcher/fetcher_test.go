package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/pttcrawl/internal/model"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bbs/Drink/index.html":
			cookie, err := r.Cookie(AgeGateCookieName)
			if err != nil || cookie.Value != AgeGateCookieValue {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if r.Header.Get("User-Agent") != "pttcrawl-test" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte("<html>listing</html>"))
		case "/bbs/Drink/broken.html":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("<html>500 - Internal Server Error</html>"))
		case "/bbs/Drink/moved.html":
			http.Redirect(w, r, "/bbs/Drink/index.html", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	f, err := New(
		WithSiteRoot(server.URL+"/"),
		WithUserAgent("pttcrawl-test"),
		WithTimeout(2*time.Second),
	)
	require.NoError(t, err)

	t.Run("relative address with cookie", func(t *testing.T) {
		t.Parallel()

		body, err := f.Fetch(context.Background(), "/bbs/Drink/index.html")
		require.NoError(t, err)
		assert.Equal(t, "<html>listing</html>", string(body))
	})

	t.Run("address without leading slash", func(t *testing.T) {
		t.Parallel()

		body, err := f.Fetch(context.Background(), "bbs/Drink/index.html")
		require.NoError(t, err)
		assert.Equal(t, "<html>listing</html>", string(body))
	})

	t.Run("absolute address", func(t *testing.T) {
		t.Parallel()

		body, err := f.Fetch(context.Background(), server.URL+"/bbs/Drink/index.html")
		require.NoError(t, err)
		assert.NotEmpty(t, body)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		_, err := f.Fetch(context.Background(), "/bbs/Drink/missing.html")
		require.ErrorIs(t, err, model.ErrFetchFailed)

		var fetchErr *model.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusNotFound, fetchErr.Status)
		assert.Equal(t, server.URL+"/bbs/Drink/missing.html", fetchErr.URL)
	})

	t.Run("server error keeps the response body", func(t *testing.T) {
		t.Parallel()

		body, err := f.Fetch(context.Background(), "/bbs/Drink/broken.html")
		require.ErrorIs(t, err, model.ErrFetchFailed)
		assert.Nil(t, body)

		var fetchErr *model.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
		assert.Equal(t, "<html>500 - Internal Server Error</html>", string(fetchErr.Body))
	})

	t.Run("redirects are not followed", func(t *testing.T) {
		t.Parallel()

		_, err := f.Fetch(context.Background(), "/bbs/Drink/moved.html")
		assert.ErrorIs(t, err, model.ErrFetchFailed)
	})

	t.Run("empty address", func(t *testing.T) {
		t.Parallel()

		_, err := f.Fetch(context.Background(), "  ")
		assert.ErrorIs(t, err, model.ErrAddressMissing)
	})
}

func TestFetcher_Fetch_MissingCookie(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(AgeGateCookieName); err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	f, err := New(WithSiteRoot(server.URL), WithCookie("other", "1"))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "/bbs/Drink/index.html")
	var fetchErr *model.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusForbidden, fetchErr.Status)
}

func TestFetcher_Fetch_TransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	root := server.URL
	server.Close()

	f, err := New(WithSiteRoot(root), WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "/bbs/Drink/index.html")
	require.ErrorIs(t, err, model.ErrFetchFailed)

	var fetchErr *model.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.Status)
	assert.Error(t, fetchErr.Err)
}

func TestFetcher_Fetch_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	f, err := New(WithSiteRoot(server.URL), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "/bbs/Drink/index.html")
	assert.ErrorIs(t, err, model.ErrFetchFailed)
}

func TestNew_Proxy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "no proxy", addr: ""},
		{name: "valid proxy", addr: "127.0.0.1:9050"},
		{name: "missing port", addr: "127.0.0.1", wantErr: true},
		{name: "port out of range", addr: "127.0.0.1:70000", wantErr: true},
		{name: "port zero", addr: "127.0.0.1:0", wantErr: true},
		{name: "non numeric port", addr: "localhost:abc", wantErr: true},
		{name: "empty host", addr: ":9050", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := New(WithSOCKS5Proxy(tt.addr))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProxyAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.DefaultSiteRoot, f.SiteRoot())
		})
	}
}
