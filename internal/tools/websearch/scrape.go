package websearch

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/voidlock/tether/internal/agent/models"
)

// Scraper fetches a single page and returns its readable text.
type Scraper struct {
	fetcher *Fetcher
}

// NewScraper creates a page scraping tool.
func NewScraper(fetcher *Fetcher) *Scraper {
	return &Scraper{fetcher: fetcher}
}

func (s *Scraper) Name() models.ToolName { return models.ToolScrape }

func (s *Scraper) Description() string {
	return "Fetch a URL and return the readable text content of the page."
}

func (s *Scraper) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {
				Type:        "string",
				Description: "The URL to fetch. Must be http or https.",
			},
		},
		Required: []string{"url"},
	}
}

// Perform fetches and extracts one page.
func (s *Scraper) Perform(ctx context.Context, args map[string]any) (string, error) {
	rawURL, _ := args["url"].(string)
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", &RequestError{Reason: "url is required"}
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", &RequestError{Reason: "url must start with http:// or https://"}
	}

	body, err := s.fetcher.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := readableText(body)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "page contained no readable text", nil
	}
	return text, nil
}
