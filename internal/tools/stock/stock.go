// Package stock queries the Alpha Vantage API for market data.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/voidlock/tether/internal/agent/models"
)

const endpoint = "https://www.alphavantage.co/query"

var allowedFunctions = map[string]bool{
	"GLOBAL_QUOTE":           true,
	"TIME_SERIES_DAILY":      true,
	"TIME_SERIES_WEEKLY":     true,
	"TIME_SERIES_MONTHLY":    true,
	"SYMBOL_SEARCH":          true,
	"CURRENCY_EXCHANGE_RATE": true,
	"OVERVIEW":               true,
}

// Quoter fetches market data from Alpha Vantage.
type Quoter struct {
	client *http.Client
	apiKey string
}

// NewQuoter creates a stock quote tool.
func NewQuoter(apiKey string) *Quoter {
	return &Quoter{
		client: &http.Client{Timeout: 15 * time.Second},
		apiKey: apiKey,
	}
}

func (q *Quoter) Name() models.ToolName { return models.ToolStockQuote }

func (q *Quoter) Description() string {
	return "Query Alpha Vantage for stock and currency data. Supports quote lookups, daily/weekly/monthly time series, symbol search, exchange rates, and company overviews."
}

func (q *Quoter) Parameters() *jsonschema.Schema {
	fns := make([]any, 0, len(allowedFunctions))
	for fn := range allowedFunctions {
		fns = append(fns, fn)
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"function": {
				Type:        "string",
				Description: "The Alpha Vantage function to call.",
				Enum:        fns,
			},
			"symbol": {
				Type:        "string",
				Description: "Ticker symbol, e.g. AAPL. Required for quote, time series, and overview functions.",
			},
			"keywords": {
				Type:        "string",
				Description: "Search keywords for SYMBOL_SEARCH.",
			},
			"from_currency": {
				Type:        "string",
				Description: "Source currency for CURRENCY_EXCHANGE_RATE.",
			},
			"to_currency": {
				Type:        "string",
				Description: "Target currency for CURRENCY_EXCHANGE_RATE.",
			},
		},
		Required: []string{"function"},
	}
}

// Perform issues the query and returns the raw JSON payload for the
// model to interpret.
func (q *Quoter) Perform(ctx context.Context, args map[string]any) (string, error) {
	if q.apiKey == "" {
		return "", &CredentialError{}
	}

	function, _ := args["function"].(string)
	function = strings.ToUpper(strings.TrimSpace(function))
	if !allowedFunctions[function] {
		return "", &QueryError{Reason: fmt.Sprintf("unsupported function %q", function)}
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("apikey", q.apiKey)
	for _, key := range []string{"symbol", "keywords", "from_currency", "to_currency"} {
		if v, ok := args[key].(string); ok && v != "" {
			params.Set(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", &QueryError{Reason: "building request", Err: err}
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return "", &QueryError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &QueryError{Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return "", &QueryError{Reason: "reading response", Err: err}
	}

	// The API reports errors as 200s with a note in the body.
	var probe map[string]any
	if err := json.Unmarshal(body, &probe); err == nil {
		for _, key := range []string{"Error Message", "Note", "Information"} {
			if msg, ok := probe[key].(string); ok {
				return "", &QueryError{Reason: msg}
			}
		}
	}

	return string(body), nil
}
