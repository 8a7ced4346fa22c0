package cache

import (
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint only",
			key:  Key{Endpoint: "products/search"},
			want: "commerce:products/search",
		},
		{
			name: "leading and trailing slashes trimmed",
			key:  Key{Endpoint: "/orders/123/"},
			want: "commerce:orders/123",
		},
		{
			name: "params sorted for determinism",
			key: Key{
				Endpoint: "products/search",
				Params:   map[string]string{"q": "shoes", "category": "sport"},
			},
			want: "commerce:products/search:category=sport:q=shoes",
		},
		{
			name: "page token appended",
			key: Key{
				Endpoint:  "orders",
				Params:    map[string]string{"status": "paid"},
				PageToken: "abc123",
			},
			want: "commerce:orders:status=paid:page=abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_ParameterChangesProduceDistinctKeys(t *testing.T) {
	base := Key{Endpoint: "products/search", Params: map[string]string{"q": "shoes"}}
	differentParam := Key{Endpoint: "products/search", Params: map[string]string{"q": "boots"}}
	differentPage := Key{Endpoint: "products/search", Params: map[string]string{"q": "shoes"}, PageToken: "2"}

	if base.String() == differentParam.String() {
		t.Error("distinct params produced the same key")
	}
	if base.String() == differentPage.String() {
		t.Error("distinct pages produced the same key")
	}
}

func TestKey_PrefixMatchesAllVariants(t *testing.T) {
	key := Key{Endpoint: "products/search", Params: map[string]string{"q": "shoes"}}
	prefix := key.Prefix()

	if prefix != "commerce:products/search*" {
		t.Errorf("Prefix() = %q", prefix)
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"commerce:products*", "commerce:products/search:q=shoes", true},
		{"commerce:products*", "commerce:products/search:q=shoes:page=2", true},
		{"commerce:products*", "commerce:orders/123", false},
		{"commerce:orders*", "commerce:orders/123", true},
		{"commerce:*:page=2", "commerce:products/search:page=2", true},
		{"commerce:*:page=2", "commerce:products/search", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
		{"*", "anything:at/all", true},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.key); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.want)
		}
	}
}
