package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callScrape(t *testing.T, apiURL, apiKey string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "scrape", Arguments: args}}
	res, err := handleScrape(apiURL, "x-api-key", apiKey)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestHandleScrape_PostsToProxy(t *testing.T) {
	var (
		gotPath, gotKey, gotType string
		gotBody                  []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"data":{"markdown":"# Hi","json":{"title":"Hi"}}}`)
	}))
	defer srv.Close()

	res := callScrape(t, srv.URL+"/", "s3cret", map[string]any{
		"url":     "https://x",
		"formats": []any{"markdown", "html"},
		"schema":  `{"type":"object"}`,
		"prompt":  "get title",
	})

	assert.False(t, res.IsError)
	assert.Equal(t, "/v2/scrape", gotPath)
	assert.Equal(t, "s3cret", gotKey)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t,
		`{"url":"https://x","formats":["markdown","html",{"type":"json","schema":{"type":"object"},"prompt":"get title"}]}`,
		string(gotBody))

	text := resultText(t, res)
	assert.Contains(t, text, "# Hi")
	assert.Contains(t, text, `"title": "Hi"`)
}

func TestHandleScrape_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized"}`)
	}))
	defer srv.Close()

	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachableURL := unreachable.URL
	unreachable.Close()

	tests := []struct {
		name    string
		apiURL  string
		args    map[string]any
		wantMsg string
	}{
		{"unauthorized", srv.URL, map[string]any{"url": "https://x"}, "scrape failed: Unauthorized"},
		{"missing url", srv.URL, map[string]any{}, "url is required"},
		{"bad schema", srv.URL, map[string]any{"url": "https://x", "schema": "[1]"}, "schema must be a JSON object"},
		{"unreachable", unreachableURL, map[string]any{"url": "https://x"}, "API request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callScrape(t, tt.apiURL, "wrong", tt.args)

			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.wantMsg)
		})
	}
}
