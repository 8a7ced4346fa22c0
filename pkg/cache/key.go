package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a cached API read. Endpoint, filter parameters, and the
// pagination token all contribute, so any parameter change naturally
// produces a distinct key.
type Key struct {
	// Endpoint is the API path (e.g. "products/search").
	Endpoint string

	// Params are the filter parameters for the read.
	Params map[string]string

	// PageToken is the pagination cursor, empty for the first page.
	PageToken string
}

// String generates a deterministic composite key.
// Format: commerce:endpoint:param1=val1:param2=val2:page=token
//
// Example:
//
//	commerce:products/search:category=shoes:q=running:page=abc123
func (k Key) String() string {
	parts := []string{"commerce"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params[name]))
		}
	}

	if k.PageToken != "" {
		parts = append(parts, "page="+k.PageToken)
	}

	return strings.Join(parts, ":")
}

// Prefix returns the invalidation pattern covering every key for the
// endpoint, regardless of parameters or page.
func (k Key) Prefix() string {
	return "commerce:" + strings.Trim(k.Endpoint, "/") + "*"
}

// matchPattern reports whether key matches pattern, where '*' matches any
// run of characters, separators included. No other metacharacters.
func matchPattern(pattern, key string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}

	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]

	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(key, part)
		if idx < 0 {
			return false
		}
		key = key[idx+len(part):]
	}

	return strings.HasSuffix(key, parts[len(parts)-1])
}
