package generation

import (
	"bytes"
	"encoding/json"
)

// outputFields are the object fields that may hold the URL list, in the order
// they are tried.
var outputFields = []string{"images", "output"}

// NormalizeOutput extracts image URLs from a model's raw output. The output is
// either a list of URLs or an object carrying that list under one of
// outputFields; anything else yields an empty slice.
func NormalizeOutput(raw json.RawMessage) []string {
	if urls, ok := decodeURLList(raw); ok {
		return urls
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, field := range outputFields {
			if urls, ok := decodeURLList(obj[field]); ok {
				return urls
			}
		}
	}
	return []string{}
}

// decodeURLList succeeds only when raw is a JSON array. String elements are
// kept in order; other elements are dropped.
func decodeURLList(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	urls := make([]string, 0, len(items))
	for _, item := range items {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			urls = append(urls, url)
		}
	}
	return urls, true
}
