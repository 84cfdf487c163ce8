package service

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSessionFetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 请求必须带上浏览器化的请求头
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		require.NotEmpty(t, r.Header.Get("Referer"))
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	sess := NewHTTPSession(5 * time.Second)
	defer sess.Close()

	page, err := sess.Fetch(context.Background(), Target{URL: srv.URL, Kind: "movie"})
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(page.Body))
}

func TestHTTPSessionGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<html>compressed</html>"))
		gz.Close()
	}))
	defer srv.Close()

	sess := NewHTTPSession(5 * time.Second)
	defer sess.Close()

	page, err := sess.Fetch(context.Background(), Target{URL: srv.URL, Kind: "movie"})
	require.NoError(t, err)
	require.Equal(t, "<html>compressed</html>", string(page.Body))
}

func TestHTTPSessionStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusGone, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusForbidden, ErrRateLimited},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		sess := NewHTTPSession(5 * time.Second)
		_, err := sess.Fetch(context.Background(), Target{URL: srv.URL, Kind: "movie"})
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)

		sess.Close()
		srv.Close()
	}
}

func TestHTTPSessionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sess := NewHTTPSession(5 * time.Second)
	defer sess.Close()

	_, err := sess.Fetch(context.Background(), Target{URL: srv.URL, Kind: "movie"})
	require.Error(t, err)
	// 5xx 不是明确的致命错误，默认分类器按瞬时失败重试
	require.Equal(t, FailureDisconnect, DefaultClassifier(err))
}
