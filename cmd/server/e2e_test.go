package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/linkshala/linkshala-api/pkg/adapters/describer"
	"github.com/linkshala/linkshala-api/pkg/adapters/handler"
	"github.com/linkshala/linkshala-api/pkg/adapters/repository/sqlite"
	"github.com/linkshala/linkshala-api/pkg/adapters/search"
	"github.com/linkshala/linkshala-api/pkg/config"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Error   string              `json:"error"`
}

func call(t *testing.T, client *http.Client, method, url, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestIntegration(t *testing.T) {
	// Pages the describer will fetch during backfill.
	pages := http.NewServeMux()
	pages.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><meta name="description" content="Documentation for the Go language"></head></html>`)
	})
	pageServer := httptest.NewServer(pages)
	defer pageServer.Close()

	// 1. Setup DB and index in memory
	repo, err := sqlite.NewSQLiteRepository("file:e2e_memdb?mode=memory&cache=shared")
	require.NoError(t, err)
	defer repo.Close()

	index, err := search.NewLinkIndex("")
	require.NoError(t, err)
	defer index.Close()

	// 2. Setup Services
	cfg := &config.Config{
		AdminPassword:      "correct horse",
		JWTSecret:          "e2e-secret",
		TokenTTL:           time.Hour,
		CORSOrigins:        []string{"*"},
		LoginRatePerMinute: 5,
	}
	categories := services.NewCategoryService(repo, repo, index)
	links := services.NewLinkService(repo, categories, index, describer.NewPageDescriber(2*time.Second))
	defer links.WaitBackfills()

	// 3. Setup Router
	server := httptest.NewServer(handler.NewRouter(cfg, handler.Services{
		Links:      links,
		Categories: categories,
		Bulk:       services.NewBulkService(repo, categories, index),
		Stats:      services.NewStatsService(repo),
	}))
	defer server.Close()
	client := server.Client()
	api := server.URL + "/api"

	// TEST 1: Admin login
	status, env := call(t, client, "POST", api+"/admin/login", "", map[string]string{"password": "correct horse"})
	require.Equal(t, http.StatusOK, status, env.Error)
	var login handler.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	token := login.Token

	// TEST 2: Bulk import
	goURL := pageServer.URL + "/go"
	status, env = call(t, client, "POST", api+"/admin/links/create-bulk", token, map[string]any{
		"links": []map[string]any{
			{"title": "Go docs", "url": goURL, "tags": "go, docs"},
			{"title": "Missing page", "url": pageServer.URL + "/missing", "category": "Reading"},
			{"title": "Go docs again", "url": "  " + goURL + " "},
			{"title": "", "url": "nothing.example.com"},
		},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var result domain.BulkResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 1, result.InvalidCount)
	assert.ElementsMatch(t, []string{"Tools", "Reading"}, result.NewCategories)
	goID, missingID := result.Created[0].ID, result.Created[1].ID

	// TEST 3: Visiting counts the click and backfills the description
	status, env = call(t, client, "GET", api+"/links/"+goID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var visited domain.Link
	require.NoError(t, json.Unmarshal(env.Data, &visited))
	assert.Equal(t, int64(1), visited.ClickCount)
	assert.Equal(t, []string{"go", "docs"}, visited.Tags)

	status, _ = call(t, client, "GET", api+"/links/"+missingID, "", nil)
	require.Equal(t, http.StatusOK, status)
	links.WaitBackfills()

	status, env = call(t, client, "GET", api+"/admin/links/"+goID, token, nil)
	require.Equal(t, http.StatusOK, status)
	var stored domain.Link
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, "Documentation for the Go language", stored.Description)

	status, env = call(t, client, "GET", api+"/admin/links/"+missingID, token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, "Missing page: a curated resource in the reading collection.", stored.Description)

	// TEST 4: Backfilled text is searchable
	status, env = call(t, client, "GET", api+"/links?search=language", "", nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.LinkPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Links, 1)
	assert.Equal(t, goID, page.Links[0].ID)

	// TEST 5: Share and dashboard
	status, _ = call(t, client, "POST", api+"/links/"+goID+"/share", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, client, "GET", api+"/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, status)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.Totals.Links)
	assert.Equal(t, int64(2), stats.Totals.Clicks)
	assert.Equal(t, int64(1), stats.Totals.Shares)
	assert.Equal(t, int64(2), stats.Totals.Categories)

	// TEST 6: Admin routes require the token
	status, env = call(t, client, "GET", api+"/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}
