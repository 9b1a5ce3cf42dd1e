package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/use-agent/scrapeproxy/config"
	"github.com/use-agent/scrapeproxy/models"
)

// Client is an OpenAI chat-completions client for schema-constrained extraction.
type Client struct {
	api   openai.Client
	model string
}

// NewClient creates a Client from cfg. The SDK's automatic retries are
// disabled; a failed completion surfaces immediately.
func NewClient(cfg config.LLMConfig) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		api:   openai.NewClient(opts...),
		model: cfg.Model,
	}
}

// Request is one two-message extraction conversation.
type Request struct {
	System string
	User   string

	// SchemaName names the json_schema response format.
	SchemaName string

	// Schema is the JSON Schema the response must conform to.
	Schema map[string]any

	// Strict asks the provider to enforce the schema exactly.
	Strict bool
}

// Completion is the model's raw answer plus token usage.
type Completion struct {
	Content string
	Usage   Usage
}

// Usage reports token consumption from the LLM call.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Complete sends req as a chat completion with a json_schema response format
// and returns the first choice's content. Content is not validated here.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(req.Strict),
				},
			},
		},
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyLLMError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, models.NewProxyError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	msg := resp.Choices[0].Message
	if msg.Content == "" && msg.Refusal != "" {
		return nil, models.NewProxyError(models.ErrCodeLLMFailure, "LLM refused: "+msg.Refusal, nil)
	}

	return &Completion{
		Content: msg.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// classifyLLMError maps provider errors to appropriate error codes.
func classifyLLMError(err error) *models.ProxyError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return models.NewProxyError(models.ErrCodeLLMFailure, "LLM request failed: "+err.Error(), err)
	}

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error()
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return models.NewProxyError(models.ErrCodeLLMAuthFailure, msg, err)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return models.NewProxyError(models.ErrCodeLLMRateLimited, msg, err)
	default:
		return models.NewProxyError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", apiErr.StatusCode, msg), err)
	}
}
