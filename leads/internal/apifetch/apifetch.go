// Package apifetch calls a JSON search API and maps the items found at a
// dot-notation path to flat results.
//
// Headers support ${ENV_VAR} expansion so tokens stay out of config files.
// Field sources are dot paths too, resolved inside each item.
package apifetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/hazyhaar/leadscout/leads/internal/fetch"
)

// Config describes how to read one API.
type Config struct {
	Headers    map[string]string `yaml:"headers" json:"headers"`         // ${ENV_VAR} expanded
	ResultPath string            `yaml:"result_path" json:"result_path"` // e.g. "hits" or "data.items"
	// Fields maps result fields (title, text, url, id) to item paths.
	// Unset fields use the field name itself.
	Fields map[string]string `yaml:"fields" json:"fields"`
}

// Result is one extracted item.
type Result struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Fetch GETs url through f, decodes the JSON body, walks ResultPath and
// extracts the configured fields. Non-object items are skipped.
func Fetch(ctx context.Context, f *fetch.Fetcher, url string, cfg Config) ([]Result, error) {
	header := http.Header{"Accept": {"application/json"}}
	for k, v := range cfg.Headers {
		header.Set(k, os.Expand(v, os.Getenv))
	}

	res, err := f.Get(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("apifetch: %w", err)
	}

	var raw any
	if err := json.Unmarshal(res.Body, &raw); err != nil {
		return nil, fmt.Errorf("apifetch: json decode: %w", err)
	}

	items, err := walkPath(raw, cfg.ResultPath)
	if err != nil {
		return nil, fmt.Errorf("apifetch: walk path %q: %w", cfg.ResultPath, err)
	}

	out := make([]Result, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Result{
			ID:    field(obj, cfg.Fields, "id"),
			Title: field(obj, cfg.Fields, "title"),
			Text:  field(obj, cfg.Fields, "text"),
			URL:   field(obj, cfg.Fields, "url"),
		})
	}
	return out, nil
}

// walkPath follows a dot path to an array. An empty path means the root
// itself must be the array.
func walkPath(v any, path string) ([]any, error) {
	cur := v
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected object at %q, got %T", part, cur)
			}
			if cur, ok = obj[part]; !ok {
				return nil, fmt.Errorf("key %q not found", part)
			}
		}
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil, fmt.Errorf("not an array: %T", cur)
	}
	return arr, nil
}

func field(obj map[string]any, fields map[string]string, name string) string {
	path := name
	if p, ok := fields[name]; ok {
		path = p
	}
	var cur any = obj
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[part]
	}
	return asString(cur)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
