package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lg/diet-planner-api/internal/diet"
)

/* ─── Food catalog HTTP client ───────────────────────────────────────── */

// catalogSearchResponse is the body of GET {base}/foods/search.
type catalogSearchResponse struct {
	Foods []diet.FoodRecord `json:"foods"`
}

// httpFoodCatalog implements diet.FoodCatalog against the food catalog REST
// service. Uses raw net/http; the API is a single GET endpoint.
type httpFoodCatalog struct {
	baseURL string // overridable for tests
	apiKey  string
	client  *http.Client
}

func newHTTPFoodCatalog(baseURL, apiKey string) *httpFoodCatalog {
	return &httpFoodCatalog{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Search sends one lookup and returns the foods from the response. Empty
// results are a nil error with an empty slice.
func (f *httpFoodCatalog) Search(ctx context.Context, query string, filters diet.SearchFilters) ([]diet.FoodRecord, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("FOOD_CATALOG_URL not set")
	}

	params := url.Values{}
	params.Set("q", query)
	if filters.Source != "" {
		params.Set("source", filters.Source)
	}
	if filters.Limit > 0 {
		params.Set("limit", strconv.Itoa(filters.Limit))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/foods/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("food catalog returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result catalogSearchResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if result.Foods == nil {
		return []diet.FoodRecord{}, nil
	}
	return result.Foods, nil
}
