package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapeproxy/models"
	"github.com/use-agent/scrapeproxy/upstream"
)

// ScrapeClient forwards a normalized request to the scrape service.
type ScrapeClient interface {
	Scrape(ctx context.Context, body []byte) (*upstream.Result, error)
}

// Extractor merges an optional structured extraction into a scrape result.
type Extractor interface {
	Apply(ctx context.Context, req *models.ScrapeRequest, result []byte) []byte
}

// Scrape returns a handler for POST /v2/scrape.
//
// Orchestration flow (auth already ran as middleware):
//  1. Parse the caller body; only "formats" is interpreted.
//  2. Normalize formats and forward to the scrape service.
//  3. Run structured extraction when requested and the scrape succeeded.
//  4. Relay the merged body with the scrape service's status.
func Scrape(sc ScrapeClient, ex Extractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// ── 1. Parse request ────────────────────────────────────────
		body, err := c.GetRawData()
		if err != nil {
			respondError(c, models.NewProxyError(models.ErrCodeInvalidInput, "failed to read request body", err))
			return
		}
		req, err := models.ParseScrapeRequest(body)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 2. Forward to scrape service ────────────────────────────
		upstreamBody, err := req.UpstreamBody()
		if err != nil {
			respondError(c, err)
			return
		}

		result, err := sc.Scrape(ctx, upstreamBody)
		if err != nil {
			slog.Error("scrape service call failed", "url", req.URL(), "error", err)
			respondError(c, err)
			return
		}

		// ── 3. Structured extraction ────────────────────────────────
		out := ex.Apply(ctx, req, result.Body)

		// ── 4. Respond ──────────────────────────────────────────────
		c.Data(relayStatus(result.StatusCode), "application/json; charset=utf-8", out)
	}
}

// relayStatus mirrors the scrape service's status, falling back to 200 for
// anything outside the 2xx-5xx range.
func relayStatus(code int) int {
	if code < 200 || code > 599 {
		return http.StatusOK
	}
	return code
}

// respondError maps a ProxyError to the correct HTTP status code and writes
// a JSON error response.
func respondError(c *gin.Context, err error) {
	var proxyErr *models.ProxyError
	if !errors.As(err, &proxyErr) {
		proxyErr = models.NewProxyError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(proxyErr), proxyErr.ToResponse())
}

// mapErrorToStatus translates error codes to HTTP status codes.
// Scrape service failures have no recovery and surface as internal errors.
func mapErrorToStatus(e *models.ProxyError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
