package models

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultFormat is forwarded upstream when the caller requested no string format.
const DefaultFormat = "markdown"

// Format is one entry of the caller's "formats" list. It is one of
// StringFormat, JSONExtractionFormat or OpaqueFormat.
type Format interface {
	isFormat()
}

// StringFormat is a plain format tag such as "markdown" or "html".
// Only these are forwarded to the scrape service.
type StringFormat string

// JSONExtractionFormat requests LLM extraction of JSON matching Schema.
type JSONExtractionFormat struct {
	// Schema is the raw JSON Schema object as sent by the caller.
	Schema []byte

	// Prompt overrides the default extraction instruction when non-empty.
	Prompt string
}

// OpaqueFormat is any other entry (numbers, objects of another type, a json
// entry without an object schema). It is neither forwarded nor honored.
type OpaqueFormat struct {
	Raw string
}

func (StringFormat) isFormat()         {}
func (JSONExtractionFormat) isFormat() {}
func (OpaqueFormat) isFormat()         {}

// ScrapeRequest is the payload for POST /v2/scrape.
//
// Only "formats" is interpreted; every other field is carried as raw JSON and
// forwarded verbatim.
type ScrapeRequest struct {
	raw []byte

	// Formats is the parsed "formats" list. Nil when absent, null or not an array.
	Formats []Format
}

// ParseScrapeRequest parses a caller body. The body must be a JSON object.
func ParseScrapeRequest(body []byte) (*ScrapeRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, NewProxyError(ErrCodeInvalidInput, "invalid request body", nil)
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, NewProxyError(ErrCodeInvalidInput, "invalid request body", nil)
	}

	// A repeated key resolves to its last value, as the scrape service reads it.
	body = DedupeKeys(body)
	root := gjson.ParseBytes(body)

	req := &ScrapeRequest{raw: body}

	formats := root.Get("formats")
	if formats.IsArray() {
		req.Formats = make([]Format, 0)
		formats.ForEach(func(_, v gjson.Result) bool {
			req.Formats = append(req.Formats, parseFormat(v))
			return true
		})
	}
	return req, nil
}

func parseFormat(v gjson.Result) Format {
	if v.Type == gjson.String {
		return StringFormat(v.Str)
	}
	if !v.IsObject() {
		return OpaqueFormat{Raw: v.Raw}
	}
	v = gjson.ParseBytes(DedupeKeys([]byte(v.Raw)))

	typ := v.Get("type")
	schema := v.Get("schema")
	if typ.Type != gjson.String || typ.Str != "json" || !schema.IsObject() {
		return OpaqueFormat{Raw: v.Raw}
	}

	f := JSONExtractionFormat{Schema: DedupeKeys([]byte(schema.Raw))}
	if p := v.Get("prompt"); p.Type == gjson.String {
		f.Prompt = p.Str
	}
	return f
}

// URL returns the request's "url" field, or "" when it is not a string.
func (r *ScrapeRequest) URL() string {
	u := gjson.GetBytes(r.raw, "url")
	if u.Type != gjson.String {
		return ""
	}
	return u.Str
}

// StringFormats returns the string-typed formats in original order, or
// ["markdown"] when there are none.
func (r *ScrapeRequest) StringFormats() []string {
	tags := make([]string, 0, len(r.Formats))
	for _, f := range r.Formats {
		if s, ok := f.(StringFormat); ok {
			tags = append(tags, string(s))
		}
	}
	if len(tags) == 0 {
		return []string{DefaultFormat}
	}
	return tags
}

// UpstreamBody returns a new body for the scrape service: the caller's
// fields with "formats" replaced by StringFormats. The caller's bytes are
// left untouched.
func (r *ScrapeRequest) UpstreamBody() ([]byte, error) {
	out, err := sjson.SetBytes(r.raw, "formats", r.StringFormats())
	if err != nil {
		return nil, NewProxyError(ErrCodeInternal, "failed to build upstream request", err)
	}
	return out, nil
}

// ExtractionSpec returns the first JSONExtractionFormat, if any.
// Later extraction formats are ignored.
func (r *ScrapeRequest) ExtractionSpec() (JSONExtractionFormat, bool) {
	for _, f := range r.Formats {
		if jf, ok := f.(JSONExtractionFormat); ok {
			return jf, true
		}
	}
	return JSONExtractionFormat{}, false
}
