package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		text   string
		want   bool
	}{
		{"rate limited", 429, "", true},
		{"payment required", 402, "", true},
		{"unavailable", 503, "", true},
		{"bad request", 400, "", true},
		{"transport", 0, "dial tcp: connection refused", true},
		{"unauthorized", 401, "unauthorized", false},
		{"not found", 404, "no such model", false},
		{"internal", 500, "boom", false},
		{"quota text on 500", 500, "Quota Exceeded for this key", true},
		{"quota text on 401", 401, "QUOTA EXCEEDED", true},
		{"rate limit text", 500, "Rate limit reached, slow down", true},
		{"overloaded text", 502, "upstream overloaded", true},
		{"not enabled text", 403, "Model is not enabled for your account", true},
		{"empty response", 200, "Empty response", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.status, tt.text))
		})
	}
}
