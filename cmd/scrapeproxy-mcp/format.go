package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// buildScrapeRequest assembles a /v2/scrape body. A non-empty schema adds a
// json extraction format after the string formats.
func buildScrapeRequest(url string, formats []string, schema, prompt string) ([]byte, error) {
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	entries := make([]any, 0, len(formats)+1)
	for _, f := range formats {
		entries = append(entries, f)
	}

	if schema != "" {
		if !gjson.Valid(schema) || !gjson.Parse(schema).IsObject() {
			return nil, errors.New("schema must be a JSON object")
		}
		jf := map[string]any{
			"type":   "json",
			"schema": json.RawMessage(schema),
		}
		if prompt != "" {
			jf["prompt"] = prompt
		}
		entries = append(entries, jf)
	}

	return json.Marshal(map[string]any{
		"url":     url,
		"formats": entries,
	})
}

// formatScrapeResult renders a proxy response as tool text. Scrape and
// extraction failures are returned as errors.
func formatScrapeResult(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("failed to parse response")
	}
	res := gjson.ParseBytes(body)

	if msg := res.Get("error"); msg.Exists() && !res.Get("success").Bool() {
		return "", fmt.Errorf("scrape failed: %s", msg.String())
	}
	if !res.Get("success").Bool() {
		return "", errors.New("scrape failed")
	}

	data := res.Get("data")
	if extErr := data.Get("extractionError"); extErr.Exists() {
		return "", fmt.Errorf("extraction failed: %s", extErr.String())
	}

	var sb strings.Builder
	if meta := data.Get("metadata"); meta.IsObject() {
		fmt.Fprintf(&sb, "Title: %s\nSource: %s\n\n", meta.Get("title").String(), meta.Get("sourceURL").String())
	}
	sb.WriteString(data.Get("markdown").String())

	if extracted := data.Get("json"); extracted.Exists() && extracted.Type != gjson.Null {
		sb.WriteString("\n\n---\nExtracted JSON:\n")
		sb.Write(pretty.Pretty([]byte(extracted.Raw)))
	}
	return sb.String(), nil
}
