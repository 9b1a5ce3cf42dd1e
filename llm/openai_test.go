package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/use-agent/scrapeproxy/config"
	"github.com/use-agent/scrapeproxy/models"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "{\"title\":\"Hi\"}"}
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.LLMConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Model:   "gpt-4o",
	})
}

func TestComplete_SendsJSONSchemaRequest(t *testing.T) {
	var body []byte
	var auth, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody)
	})

	got, err := c.Complete(context.Background(), Request{
		System:     "system text",
		User:       "user text",
		SchemaName: "extraction",
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
		},
		Strict: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer sk-test", auth)

	req := gjson.ParseBytes(body)
	assert.Equal(t, "gpt-4o", req.Get("model").String())
	assert.Equal(t, "system", req.Get("messages.0.role").String())
	assert.Equal(t, "system text", req.Get("messages.0.content").String())
	assert.Equal(t, "user", req.Get("messages.1.role").String())
	assert.Equal(t, "user text", req.Get("messages.1.content").String())
	assert.Equal(t, "json_schema", req.Get("response_format.type").String())
	assert.Equal(t, "extraction", req.Get("response_format.json_schema.name").String())
	assert.True(t, req.Get("response_format.json_schema.strict").Bool())
	assert.Equal(t, "false", req.Get("response_format.json_schema.schema.additionalProperties").Raw)

	assert.Equal(t, `{"title":"Hi"}`, got.Content)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17}, got.Usage)
}

func TestComplete_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, models.ErrCodeLLMAuthFailure},
		{"forbidden", http.StatusForbidden, models.ErrCodeLLMAuthFailure},
		{"rate limited", http.StatusTooManyRequests, models.ErrCodeLLMRateLimited},
		{"bad request", http.StatusBadRequest, models.ErrCodeLLMFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":{"message":"provider says no","type":"invalid_request_error"}}`)
			})

			_, err := c.Complete(context.Background(), Request{SchemaName: "extraction"})
			require.Error(t, err)

			var pe *models.ProxyError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantCode, pe.Code)
			assert.Contains(t, pe.Message, "provider says no")
			assert.Equal(t, 1, calls, "requests must not be retried")
		})
	}
}

func TestComplete_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	})

	_, err := c.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
