package fetcher_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JPArangoRenteria/sitegraph/internal/fetcher"
	"github.com/JPArangoRenteria/sitegraph/internal/metadata"
	"github.com/JPArangoRenteria/sitegraph/pkg/retry"
	"github.com/JPArangoRenteria/sitegraph/pkg/timeutil"
)

func mustURL(t *testing.T, raw string) url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url %q: %v", raw, err)
	}
	return *u
}

func singleAttempt() retry.RetryParam {
	return retry.NewRetryParam(
		time.Millisecond,
		0,
		1,
		1,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond),
	)
}

func newFetcher(maxRedirects int, maxBodyBytes int64) fetcher.PageFetcher {
	return fetcher.NewPageFetcher(&metadata.NoopSink{}, 2*time.Second, maxRedirects, maxBodyBytes)
}

func fetchOne(t *testing.T, f fetcher.PageFetcher, raw string) (fetcher.FetchResult, error) {
	t.Helper()
	param := fetcher.NewFetchParam(mustURL(t, raw), "sitegraph/1.0")
	result, err := f.Fetch(context.Background(), 0, param, singleAttempt())
	if err != nil {
		return result, err
	}
	return result, nil
}

func TestFetch_HTMLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sitegraph/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><a href=\"/next\">next</a></body></html>"))
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, 1<<20)
	result, err := fetchOne(t, f, srv.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Code())
	assert.True(t, result.IsHTML())
	assert.False(t, result.Truncated())
	assert.Contains(t, string(result.Body()), "/next")
	assert.Equal(t, int64(len(result.Body())), result.SizeBytes())
}

func TestFetch_NonHTMLDiscardsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 pretend"))
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, 1<<20)
	result, err := fetchOne(t, f, srv.URL+"/doc.pdf")
	require.NoError(t, err)

	assert.False(t, result.IsHTML())
	assert.Empty(t, result.Body(), "non-HTML bodies are not kept")
	assert.Equal(t, http.StatusOK, result.Code())
	assert.Greater(t, result.SizeBytes(), int64(0), "transferred size is still metered")
}

func TestFetch_TruncatesOversizedHTML(t *testing.T) {
	const bodyCap = 1024
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("x", bodyCap*3)))
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, bodyCap)
	result, err := fetchOne(t, f, srv.URL+"/big")
	require.NoError(t, err)

	assert.True(t, result.Truncated())
	assert.Len(t, result.Body(), bodyCap)
}

func TestFetch_RefusesDeclaredOversize(t *testing.T) {
	const bodyCap = 1024
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Length", fmt.Sprint(bodyCap*100))
		w.Write([]byte(strings.Repeat("x", bodyCap*100)))
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, bodyCap)
	_, err := fetchOne(t, f, srv.URL+"/huge")
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.ErrCauseTooLarge, fetchErr.Cause)
}

func TestFetch_RedirectBound(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every hop redirects to the next: /hop0 -> /hop1 -> ...
		var n int
		fmt.Sscanf(r.URL.Path, "/hop%d", &n)
		http.Redirect(w, r, fmt.Sprintf("%s/hop%d", srv.URL, n+1), http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, 1<<20)
	_, err := fetchOne(t, f, srv.URL+"/hop0")
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.ErrCauseRedirectLoop, fetchErr.Cause)
}

func TestFetch_FollowsRedirectsWithinBound(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, srv.URL+"/final", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>landed</html>"))
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, 1<<20)
	result, err := fetchOne(t, f, srv.URL+"/start")
	require.NoError(t, err)

	assert.Equal(t, "/final", result.FinalURL().Path, "final URL reflects the redirect target")
	assert.Contains(t, string(result.Body()), "landed")
}

func TestFetch_ServerErrorIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>recovered</html>"))
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, 1<<20)
	param := fetcher.NewFetchParam(mustURL(t, srv.URL+"/flaky"), "sitegraph/1.0")
	retryParam := retry.NewRetryParam(
		time.Millisecond, 0, 1, 3,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond),
	)

	result, err := f.Fetch(context.Background(), 0, param, retryParam)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Contains(t, string(result.Body()), "recovered")
}

func TestFetch_ExhaustedRetriesSurfaceRetryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(5, 1<<20)
	param := fetcher.NewFetchParam(mustURL(t, srv.URL+"/down"), "sitegraph/1.0")
	retryParam := retry.NewRetryParam(
		time.Millisecond, 0, 1, 2,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond),
	)

	_, err := f.Fetch(context.Background(), 0, param, retryParam)
	require.Error(t, err)

	var retryErr *retry.RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	f := newFetcher(5, 1<<20)
	_, err := fetchOne(t, f, target+"/gone")
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.ErrCauseConnectionRefused, fetchErr.Cause)
}
