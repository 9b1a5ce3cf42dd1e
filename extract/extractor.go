package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/use-agent/scrapeproxy/llm"
	"github.com/use-agent/scrapeproxy/models"
)

const (
	// SchemaName is the json_schema response format name sent to the model.
	SchemaName = "extraction"

	// DefaultPrompt is used when the extraction format carries no prompt.
	DefaultPrompt = "Extract the information according to the provided schema."

	systemPrompt = "You are an assistant that extracts structured information from documents. " +
		"Respond ONLY with the requested JSON, without any additional text."

	unknownError = "unknown error"
)

// ExtractionClient is the language-model call the Extractor depends on.
// *llm.Client satisfies it.
type ExtractionClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Completion, error)
}

// Extractor turns scraped markdown into schema-conformant JSON and merges the
// outcome into the scrape result.
type Extractor struct {
	client ExtractionClient
}

// New creates an Extractor backed by client.
func New(client ExtractionClient) *Extractor {
	return &Extractor{client: client}
}

// Apply runs structured extraction when the scrape succeeded and req carries
// a json extraction format; otherwise result is returned unchanged.
//
// Extraction failures never propagate: they are folded into
// data.json = null and data.extractionError.
func (e *Extractor) Apply(ctx context.Context, req *models.ScrapeRequest, result []byte) []byte {
	spec, ok := req.ExtractionSpec()
	if !ok {
		return result
	}

	// Fields are read last-wins, as the caller's JSON parser would see them.
	top := models.DedupeKeys(result)
	if !truthy(gjson.GetBytes(top, "success")) {
		return result
	}
	if data := gjson.GetBytes(top, "data"); data.IsObject() {
		if deduped, err := sjson.SetRawBytes(top, "data", models.DedupeKeys([]byte(data.Raw))); err == nil {
			top = deduped
		}
	}

	extracted, err := e.extract(ctx, spec, top)
	if err != nil {
		slog.Warn("structured extraction failed", "url", req.URL(), "error", err)
		return mergeFailure(top, errorMessage(err))
	}
	return mergeSuccess(top, extracted)
}

func (e *Extractor) extract(ctx context.Context, spec models.JSONExtractionFormat, result []byte) ([]byte, error) {
	markdown := ""
	if md := gjson.GetBytes(result, "data.markdown"); truthy(md) {
		markdown = jsString(md)
	}

	metadata := gjson.Parse("{}")
	if m := gjson.GetBytes(result, "data.metadata"); truthy(m) {
		metadata = m
	}

	schema, err := closedSchema(spec.Schema)
	if err != nil {
		return nil, err
	}

	userPrompt := buildUserPrompt(spec.Prompt, metadata, markdown)

	completion, err := e.client.Complete(ctx, llm.Request{
		System:     systemPrompt,
		User:       userPrompt,
		SchemaName: SchemaName,
		Schema:     schema,
		Strict:     true,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("structured extraction completed",
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
	)

	if completion.Content == "" {
		return nil, errors.New("model returned empty content")
	}
	if !gjson.Valid(completion.Content) {
		return nil, errors.New("model returned invalid JSON")
	}
	return []byte(stringify(gjson.Parse(completion.Content), "")), nil
}

// buildUserPrompt concatenates the instruction, the pretty-printed metadata
// and the document markdown.
func buildUserPrompt(prompt string, metadata gjson.Result, markdown string) string {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return fmt.Sprintf("%s\n\nMetadata:\n%s\n\nDocument content:\n\n%s", prompt, stringify(metadata, "  "), markdown)
}

// closedSchema returns schema with top-level additionalProperties forced to
// false, decoded for the provider request.
func closedSchema(schema []byte) (map[string]any, error) {
	closed, err := sjson.SetBytes(schema, "additionalProperties", false)
	if err != nil {
		return nil, fmt.Errorf("close schema: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(closed, &out); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return out, nil
}

func mergeSuccess(result, extracted []byte) []byte {
	return mergeData(result, func(b []byte) ([]byte, error) {
		return sjson.SetRawBytes(b, "data.json", extracted)
	})
}

func mergeFailure(result []byte, msg string) []byte {
	return mergeData(result, func(b []byte) ([]byte, error) {
		b, err := sjson.SetRawBytes(b, "data.json", []byte("null"))
		if err != nil {
			return nil, err
		}
		return sjson.SetBytes(b, "data.extractionError", msg)
	})
}

// mergeData applies set to result after making sure data is an object.
// Every other field keeps its original bytes.
func mergeData(result []byte, set func([]byte) ([]byte, error)) []byte {
	out := result
	if !gjson.GetBytes(out, "data").IsObject() {
		var err error
		if out, err = sjson.SetRawBytes(out, "data", []byte("{}")); err != nil {
			slog.Error("failed to reset result data", "error", err)
			return result
		}
	}

	merged, err := set(out)
	if err != nil {
		slog.Error("failed to merge extraction outcome", "error", err)
		return result
	}
	return merged
}

func errorMessage(err error) string {
	var pe *models.ProxyError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownError
}

// truthy reports whether a JSON value would be truthy in JavaScript.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return false
	}
}
