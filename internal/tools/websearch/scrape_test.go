package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScraperFetchesReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>hello from the page</p><script>junk()</script></body></html>`))
	}))
	defer srv.Close()

	s := NewScraper(NewFetcher(100, 10))
	out, err := s.Perform(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, out, "hello from the page")
	assert.NotContains(t, out, "junk")
}

func TestScraperRejectsBadURLs(t *testing.T) {
	s := NewScraper(NewFetcher(100, 10))

	_, err := s.Perform(context.Background(), map[string]any{"url": ""})
	assert.Error(t, err)

	_, err = s.Perform(context.Background(), map[string]any{"url": "ftp://host/file"})
	assert.Error(t, err)
}

func TestScraperReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewScraper(NewFetcher(100, 10))
	_, err := s.Perform(context.Background(), map[string]any{"url": srv.URL})
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestFetcherHonorsContextCancellation(t *testing.T) {
	f := NewFetcher(0.001, 1)
	f.limiter.Allow() // drain the burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Get(ctx, "https://example.com")
	assert.Error(t, err)
}
