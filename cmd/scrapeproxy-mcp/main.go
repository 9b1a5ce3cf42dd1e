package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("SCRAPEPROXY_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	apiKey := os.Getenv("SCRAPEPROXY_API_KEY")
	keyHeader := os.Getenv("SCRAPEPROXY_API_KEY_HEADER")
	if keyHeader == "" {
		keyHeader = "x-api-key"
	}

	s := server.NewMCPServer(
		"scrapeproxy",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape",
		mcp.WithDescription("Scrape a web page and return its markdown. When a JSON schema is given, also extract structured data matching the schema with an LLM."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithArray("formats",
			mcp.Description("Output formats forwarded to the scrape service (default: ['markdown'])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("schema",
			mcp.Description("Optional JSON schema (as a string) describing the data to extract"),
		),
		mcp.WithString("prompt",
			mcp.Description("Optional extraction instruction used together with schema"),
		),
	)
	s.AddTool(scrapeTool, handleScrape(apiURL, keyHeader, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrape(apiURL, keyHeader, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}
	endpoint := strings.TrimRight(apiURL, "/") + "/v2/scrape"

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		body, err := buildScrapeRequest(
			url,
			request.GetStringSlice("formats", nil),
			request.GetString("schema", ""),
			request.GetString("prompt", ""),
		)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set(keyHeader, apiKey)

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		text, err := formatScrapeResult(respBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
