package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lg/diet-planner-api/internal/diet"
)

// setupCatalogTest starts a mock catalog server. The returned channel receives
// each request seen so tests can assert on the query string and headers.
func setupCatalogTest(status int, body interface{}) (*httptest.Server, chan *http.Request) {
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case seen <- r:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	return srv, seen
}

func TestCatalog_Success(t *testing.T) {
	srv, last := setupCatalogTest(http.StatusOK, map[string]interface{}{
		"foods": []map[string]interface{}{
			{"id": "usda-1", "name": "Tofu", "source": "usda", "group": "legumes",
				"macros_per_100g": map[string]float64{"kcal": 76, "protein": 8, "carbs": 1.9, "fats": 4.8}},
		},
	})
	defer srv.Close()

	cat := newHTTPFoodCatalog(srv.URL, "test-key")
	foods, err := cat.Search(context.Background(), "tofu", diet.SearchFilters{Source: "usda", Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(foods) != 1 || foods[0].ID != "usda-1" || foods[0].MacrosPer100g.Protein != 8 {
		t.Fatalf("foods = %+v", foods)
	}

	req := <-last
	if req.URL.Path != "/foods/search" {
		t.Errorf("path = %s, want /foods/search", req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("q") != "tofu" || q.Get("source") != "usda" || q.Get("limit") != "5" {
		t.Errorf("query = %s", req.URL.RawQuery)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestCatalog_EmptyResult(t *testing.T) {
	srv, last := setupCatalogTest(http.StatusOK, map[string]interface{}{})
	defer srv.Close()

	foods, err := newHTTPFoodCatalog(srv.URL, "").Search(context.Background(), "nothing", diet.SearchFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if foods == nil || len(foods) != 0 {
		t.Errorf("foods = %#v, want empty slice", foods)
	}
	req := <-last
	if req.URL.Query().Has("limit") {
		t.Error("limit sent although not set")
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("Authorization sent without an API key")
	}
}

func TestCatalog_ServerError(t *testing.T) {
	srv, _ := setupCatalogTest(http.StatusServiceUnavailable, map[string]string{"error": "down"})
	defer srv.Close()

	_, err := newHTTPFoodCatalog(srv.URL, "k").Search(context.Background(), "tofu", diet.SearchFilters{})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status 503 error, got %v", err)
	}
}

func TestCatalog_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not valid json at all"))
	}))
	defer srv.Close()

	if _, err := newHTTPFoodCatalog(srv.URL, "k").Search(context.Background(), "tofu", diet.SearchFilters{}); err == nil {
		t.Fatal("expected unmarshal error, got nil")
	}
}

func TestCatalog_NotConfigured(t *testing.T) {
	if _, err := newHTTPFoodCatalog("", "").Search(context.Background(), "tofu", diet.SearchFilters{}); err == nil {
		t.Fatal("expected error without base URL")
	}
}
