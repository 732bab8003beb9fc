package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/config"
)

const cseEndpoint = "https://www.googleapis.com/customsearch/v1"

// excerptLen bounds how much scraped text each result contributes.
const excerptLen = 2000

type cseResponse struct {
	Items []cseItem `json:"items"`
}

type cseItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher queries Google Custom Search, scrapes the hits, and ranks
// the scraped text against the query before reporting back.
type Searcher struct {
	fetcher  *Fetcher
	cfg      config.SearchConfig
	apiKey   string
	engineID string
	log      *slog.Logger
}

// NewSearcher creates a web search tool.
func NewSearcher(fetcher *Fetcher, cfg config.SearchConfig, creds config.Credentials, log *slog.Logger) *Searcher {
	return &Searcher{
		fetcher:  fetcher,
		cfg:      cfg,
		apiKey:   creds.GoogleSearchAPIKey,
		engineID: creds.GoogleSearchEngineID,
		log:      log,
	}
}

func (s *Searcher) Name() models.ToolName { return models.ToolSearch }

func (s *Searcher) Description() string {
	return "Search the web for a query and return the most relevant page excerpts, ranked by relevance to the query."
}

func (s *Searcher) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "The search query.",
			},
		},
		Required: []string{"query"},
	}
}

// Perform runs a search end to end.
func (s *Searcher) Perform(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", &RequestError{Reason: "query is required"}
	}
	if s.apiKey == "" {
		return "", &CredentialError{Name: "GOOGLE_SEARCH_API_KEY"}
	}
	if s.engineID == "" {
		return "", &CredentialError{Name: "GOOGLE_SEARCH_ENGINE_ID"}
	}

	items, err := s.customSearch(ctx, query)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "no results found", nil
	}

	// Scrape each hit; failures degrade to the API snippet.
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Snippet
		body, err := s.fetcher.Get(ctx, item.Link)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.log.Debug("scrape failed, using snippet", "url", item.Link, "error", err)
			continue
		}
		text, err := readableText(body)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		texts[i] = text
	}

	ranked := rankDocuments(query, texts, s.cfg.RelevanceThreshold)
	if len(ranked) == 0 {
		return "no results passed the relevance threshold", nil
	}

	var b strings.Builder
	for rank, doc := range ranked {
		item := items[doc.Index]
		fmt.Fprintf(&b, "## %d. %s\nURL: %s\nRelevance: %.3f\n\n%s\n\n",
			rank+1, item.Title, item.Link, doc.Score, excerpt(texts[doc.Index]))
	}
	return b.String(), nil
}

func (s *Searcher) customSearch(ctx context.Context, query string) ([]cseItem, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", min(s.cfg.ResultLimit, 10)))

	body, err := s.fetcher.Get(ctx, cseEndpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp cseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{URL: cseEndpoint, Err: err}
	}
	return resp.Items, nil
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= excerptLen {
		return text
	}
	return text[:excerptLen] + "..."
}
