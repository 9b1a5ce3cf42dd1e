package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/scrapeproxy/models"
)

func TestScrape_ForwardsBodyAndReturnsResponse(t *testing.T) {
	var gotBody, gotContentType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true,"data":{"markdown":"# Hi"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v2/scrape", 0)
	res, err := c.Scrape(context.Background(), []byte(`{"url":"https://x","formats":["markdown"]}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"url":"https://x","formats":["markdown"]}`, gotBody)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"success":true,"data":{"markdown":"# Hi"}}`, string(res.Body))
}

func TestScrape_PassesLogicalFailureThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"boom"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, 0).Scrape(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(res.Body))
}

func TestScrape_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Scrape(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var pe *models.ProxyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ErrCodeUpstreamInvalidResponse, pe.Code)
}

func TestScrape_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).Scrape(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var pe *models.ProxyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ErrCodeUpstreamUnavailable, pe.Code)
}
