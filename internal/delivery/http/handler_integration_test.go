package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giftlens/backend/config"
	"github.com/giftlens/backend/internal/domain"
	"github.com/giftlens/backend/internal/infrastructure/cache"
	"github.com/giftlens/backend/internal/infrastructure/store"
	"github.com/giftlens/backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://*.giftlens.io", "http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter creates a router without a recommendation service
func setupTestRouter() *gin.Engine {
	return SetupRouter(testConfig(), NewHandler(nil))
}

// --- Fakes behind a real RecommendationService ---

type stubInventory struct {
	products []domain.Product
	err      error
}

func (s *stubInventory) Collect(ctx context.Context, profile *domain.Profile) ([]domain.Product, error) {
	return s.products, s.err
}

type stubCurator struct {
	response *domain.CuratorResponse
	err      error
}

func (s *stubCurator) Curate(ctx context.Context, profile *domain.Profile, inventory []domain.Product) (*domain.CuratorResponse, error) {
	return s.response, s.err
}

var testInventory = []domain.Product{
	{Title: "Handmade Ceramic Mug", Link: "https://www.etsy.com/listing/101", SourceDomain: "etsy.com", InterestMatch: "coffee", Price: "$28.00"},
	{Title: "Vintage Brass Compass", Link: "https://www.ebay.com/itm/202", SourceDomain: "ebay.com", InterestMatch: "hiking", Price: "$45.00"},
	{Title: "Trekking Poles Pair", Link: "https://www.amazon.com/dp/B0POLES", SourceDomain: "amazon.com", InterestMatch: "hiking", Price: "$39.99"},
}

func testCuratorResponse() *domain.CuratorResponse {
	return &domain.CuratorResponse{
		ProductGifts: []domain.Gift{
			{Name: "Ceramic Mug", ProductURL: "https://www.etsy.com/listing/101"},
			{Name: "Made-up Gadget", ProductURL: "https://example.com/not-real"},
			{Name: "Brass Compass", ProductURL: "https://www.ebay.com/itm/202"},
		},
	}
}

// setupTestRouterWithService creates a router around a real service using
// stubs upstream and real memory cache and SQLite store underneath
func setupTestRouterWithService(t *testing.T, inventory usecase.InventorySource, curator domain.Curator) *gin.Engine {
	t.Helper()

	memCache := cache.NewMemoryCache(0)
	t.Cleanup(func() { memCache.Close() })

	recStore, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { recStore.Close() })

	service := usecase.NewRecommendationService(inventory, curator, nil, recStore, memCache, usecase.RecommendationConfig{
		CacheTTL: time.Hour,
	})
	return SetupRouter(testConfig(), NewHandler(service))
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		w := doJSON(router, "GET", "/health", "")

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "giftlens-backend", response["service"])
		assert.NotEmpty(t, response["version"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doJSON(router, method, "/health", "")
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})
}

func TestRecommendationEndpoints_WithoutService(t *testing.T) {
	router := setupTestRouter()

	w := doJSON(router, "POST", "/api/v1/recommendations", `{"recipientName":"Sam"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestCreateRecommendation(t *testing.T) {
	t.Run("returns curated gifts", func(t *testing.T) {
		router := setupTestRouterWithService(t,
			&stubInventory{products: testInventory},
			&stubCurator{response: testCuratorResponse()})

		body := `{"recipientName":"Sam","occasion":"Birthday","interests":[{"name":"coffee","priority":"high"},{"name":"hiking"}],"count":3}`
		w := doJSON(router, "POST", "/api/v1/recommendations", body)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var rec domain.Recommendation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, "Curator", rec.Source)
		require.Len(t, rec.Gifts, 3)
		assert.Equal(t, "https://www.etsy.com/listing/101", rec.Gifts[0].ProductURL)
		assert.Equal(t, "https://www.ebay.com/itm/202", rec.Gifts[1].ProductURL)
		for _, g := range rec.Gifts {
			assert.NotEqual(t, "https://example.com/not-real", g.ProductURL)
		}

		// Persisted and retrievable
		get := doJSON(router, "GET", "/api/v1/recommendations/"+rec.ID, "")
		require.Equal(t, http.StatusOK, get.Code)
		var stored domain.Recommendation
		require.NoError(t, json.Unmarshal(get.Body.Bytes(), &stored))
		assert.Equal(t, rec.ID, stored.ID)

		// Second identical request is served from cache
		again := doJSON(router, "POST", "/api/v1/recommendations", body)
		require.Equal(t, http.StatusOK, again.Code)
		assert.Contains(t, again.Body.String(), `"source":"Cache"`)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router := setupTestRouterWithService(t, &stubInventory{}, &stubCurator{})

		w := doJSON(router, "POST", "/api/v1/recommendations", `{"recipientName":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid request format")
	})

	errorCases := []struct {
		name       string
		body       string
		inventory  *stubInventory
		curator    *stubCurator
		wantStatus int
	}{
		{
			name:       "empty profile",
			body:       `{"occasion":"Birthday"}`,
			inventory:  &stubInventory{products: testInventory},
			curator:    &stubCurator{response: testCuratorResponse()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "count too large",
			body:       `{"recipientName":"Sam","count":50}`,
			inventory:  &stubInventory{products: testInventory},
			curator:    &stubCurator{response: testCuratorResponse()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no inventory",
			body:       `{"recipientName":"Sam"}`,
			inventory:  &stubInventory{err: domain.ErrNoInventory},
			curator:    &stubCurator{response: testCuratorResponse()},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "curator failure",
			body:       `{"recipientName":"Sam"}`,
			inventory:  &stubInventory{products: testInventory},
			curator:    &stubCurator{err: domain.ErrCuratorFailure},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "curator rate limited",
			body:       `{"recipientName":"Sam"}`,
			inventory:  &stubInventory{products: testInventory},
			curator:    &stubCurator{err: domain.ErrRateLimited},
			wantStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouterWithService(t, tt.inventory, tt.curator)

			w := doJSON(router, "POST", "/api/v1/recommendations", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestGetRecommendation_NotFound(t *testing.T) {
	router := setupTestRouterWithService(t, &stubInventory{}, &stubCurator{})

	w := doJSON(router, "GET", "/api/v1/recommendations/does-not-exist", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecommendations(t *testing.T) {
	router := setupTestRouterWithService(t,
		&stubInventory{products: testInventory},
		&stubCurator{response: testCuratorResponse()})

	for _, name := range []string{"Sam", "Ana"} {
		w := doJSON(router, "POST", "/api/v1/recommendations", `{"recipientName":"`+name+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(router, "GET", "/api/v1/recommendations?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
		Count           int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Len(t, response.Recommendations, 1)

	for _, bad := range []string{"0", "abc", "101"} {
		w := doJSON(router, "GET", "/api/v1/recommendations?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	router := setupTestRouterWithService(t, &stubInventory{}, &stubCurator{})

	body := `{
		"product_gifts": [
			{"name": "Mug", "product_url": "https://www.etsy.com/listing/101/"},
			{"name": "Ghost", "product_url": "https://example.com/ghost"}
		],
		"inventory": [
			{"title": "Handmade Ceramic Mug", "link": "https://www.etsy.com/listing/101", "source_domain": "etsy.com", "interest_match": "coffee"},
			{"title": "Vintage Brass Compass", "link": "https://www.ebay.com/itm/202", "source_domain": "ebay.com", "interest_match": "hiking"}
		],
		"rec_count": 2
	}`
	w := doJSON(router, "POST", "/api/v1/curation/cleanup", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result usecase.CurationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Gifts, 2)
	assert.Equal(t, "https://www.etsy.com/listing/101", result.Gifts[0].ProductURL)
	assert.Equal(t, "https://www.ebay.com/itm/202", result.Gifts[1].ProductURL)

	verdicts := make(map[usecase.Verdict]int)
	for _, d := range result.Decisions {
		verdicts[d.Verdict]++
	}
	assert.Equal(t, 1, verdicts[usecase.VerdictAccepted])
	assert.Equal(t, 1, verdicts[usecase.VerdictRejected])
	assert.Equal(t, 1, verdicts[usecase.VerdictBackfilled])
}

func TestCleanupEndpoint_InvalidRecCount(t *testing.T) {
	router := setupTestRouterWithService(t, &stubInventory{}, &stubCurator{})

	tests := []struct {
		name string
		body string
	}{
		{name: "zero", body: `{"product_gifts": [], "inventory": [], "rec_count": 0}`},
		{name: "negative", body: `{"product_gifts": [], "inventory": [], "rec_count": -3}`},
		{name: "missing", body: `{"product_gifts": [], "inventory": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/v1/curation/cleanup", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var response map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Contains(t, response["error"], "rec_count must be a positive integer")
		})
	}
}

func TestMaterialsEndpoint(t *testing.T) {
	router := setupTestRouterWithService(t, &stubInventory{}, &stubCurator{})

	body := `{
		"materials": [
			{"item": "Brass compass", "product_url": "https://www.amazon.com/dp/DEAD"},
			{"item": "Picnic blanket"}
		],
		"inventory": [
			{"title": "Vintage Brass Compass", "link": "https://www.ebay.com/itm/202"}
		],
		"bad_urls": ["https://www.amazon.com/dp/DEAD"]
	}`
	w := doJSON(router, "POST", "/api/v1/curation/materials", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Materials []domain.MaterialItem `json:"materials"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Materials, 2)
	assert.Equal(t, "https://www.ebay.com/itm/202", response.Materials[0].ProductURL)
	assert.False(t, response.Materials[0].IsSearchLink)
	assert.True(t, response.Materials[1].IsSearchLink)
	assert.Contains(t, response.Materials[1].ProductURL, "amazon.com/s?")
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for web app", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://app.giftlens.io")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.giftlens.io", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight on an API route", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("OPTIONS", "/api/v1/recommendations", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter()
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doJSON(router, "GET", "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter()

	for _, path := range []string{
		"/api/recommendations",
		"/recommendations",
		"/api/v2/recommendations",
		"/api/v1/curation",
	} {
		w := doJSON(router, "POST", path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, "path %s", path)
	}
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/recommendations"},
		{"GET", "/api/v1/recommendations/abc"},
		{"POST", "/api/v1/curation/cleanup"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			w := doJSON(router, endpoint.method, endpoint.path, "")

			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		})
	}
}
