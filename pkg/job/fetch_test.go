package job

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privaxis/doublefetch/pkg/common"
)

func TestHTTPFetcher_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	result, err := f.Get(context.Background(), srv.URL, FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(result.Body))
	assert.Equal(t, "text/html", result.ContentType)
}

func TestHTTPFetcher_Get_429IsPermanentNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	f.Retries = 3
	_, err := f.Get(context.Background(), srv.URL, FetchOptions{})
	require.Error(t, err)
	assert.True(t, common.IsPermanent(err))
	assert.Equal(t, 1, hits, "a 429 must never be retried")
}

func TestHTTPFetcher_Get_5xxIsRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	f.Retries = 3
	f.RetryBaseDelay = 0
	result, err := f.Get(context.Background(), srv.URL, FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(result.Body))
	assert.Equal(t, 3, hits)
}

func TestHTTPFetcher_Get_NonRetryable4xxIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	_, err := f.Get(context.Background(), srv.URL, FetchOptions{})
	require.Error(t, err)
	assert.True(t, common.IsPermanent(err))
}
