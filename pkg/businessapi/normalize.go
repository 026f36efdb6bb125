package businessapi

import (
	"encoding/json"
	"net/url"
)

// DefaultPlaceholderImageURL is assigned to imageUrl when a business is
// created without either a supplied URL or an uploaded image.
const DefaultPlaceholderImageURL = "https://placehold.co/600x400?text=No+Image"

// NormalizeFields canonicalizes a decoded JSON object into a store-ready
// field set. Scalar fields pass through unchanged. productImages is coerced
// to an ordered []string: an array keeps its order, a JSON-encoded string is
// parsed, and any malformed value decays to an empty list rather than
// failing the request. An empty or non-string imageUrl is dropped from the
// field set, so a stored URL is never overwritten with "". A caller-supplied
// "id" is dropped; identifiers are store-assigned and immutable.
func NormalizeFields(raw map[string]interface{}) Fields {
	fields := make(Fields, len(raw))
	for k, v := range raw {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	if v, ok := fields[FieldProductImages]; ok {
		fields[FieldProductImages] = coerceImageList(v)
	}
	if v, ok := fields[FieldImageURL]; ok {
		if s, _ := v.(string); s == "" {
			delete(fields, FieldImageURL)
		} else {
			fields[FieldImageURL] = s
		}
	}
	return fields
}

// NormalizeForm canonicalizes multipart or urlencoded text fields, where
// every value arrives as a string. productImages is expected to be a
// JSON-encoded array of URLs and decays to an empty list when it is not.
func NormalizeForm(values url.Values) Fields {
	fields := make(Fields, len(values))
	for k, vs := range values {
		if len(vs) == 0 || k == "id" {
			continue
		}
		fields[k] = vs[0]
	}
	if v, ok := fields[FieldProductImages]; ok {
		s, _ := v.(string)
		fields[FieldProductImages] = parseImageList(s)
	}
	if s, ok := fields[FieldImageURL].(string); ok && s == "" {
		delete(fields, FieldImageURL)
	}
	return fields
}

func coerceImageList(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return parseImageList(vv)
	}
	return []string{}
}

// parseImageList parses a JSON-encoded array of URL strings. Malformed input
// decays silently to an empty list.
func parseImageList(s string) []string {
	var urls []string
	if err := json.Unmarshal([]byte(s), &urls); err != nil || urls == nil {
		return []string{}
	}
	return urls
}
