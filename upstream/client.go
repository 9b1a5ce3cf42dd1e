package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/use-agent/scrapeproxy/models"
)

// Client forwards normalized scrape requests to the scrape service.
// It uses net/http directly and does not interpret success/error fields.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// Result is the undecoded scrape service response.
type Result struct {
	// StatusCode is the HTTP status returned by the scrape service.
	StatusCode int

	// Body is the response body. It is always valid JSON.
	Body []byte
}

// NewClient creates a Client posting to endpoint. A zero timeout disables
// the client-side deadline.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

// Scrape posts body to the scrape service and returns its JSON response.
func (c *Client) Scrape(ctx context.Context, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewProxyError(models.ErrCodeInternal, "failed to create scrape request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewProxyError(models.ErrCodeUpstreamUnavailable, "scrape service request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewProxyError(models.ErrCodeUpstreamUnavailable, "failed to read scrape service response", err)
	}

	if !gjson.ValidBytes(respBody) {
		return nil, models.NewProxyError(models.ErrCodeUpstreamInvalidResponse, "scrape service returned invalid JSON", nil)
	}

	return &Result{StatusCode: resp.StatusCode, Body: respBody}, nil
}
