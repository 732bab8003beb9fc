package websearch

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	fetchUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxFetchBytes  = 2 * 1024 * 1024
)

// Fetcher downloads pages with a shared rate limit so scraping a
// result set does not hammer hosts.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher creates a rate-limited fetcher.
func NewFetcher(perSecond float64, burst int) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Get fetches a URL and returns at most maxFetchBytes of the body.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}
