package upstream

import (
	"net/http"
	"strings"
)

// retryableStatus lists status codes that move the cascade to the next
// model. 400 is included because free-tier backends answer "model not
// enabled" and similar per-model rejections with a bad request. 0 marks a
// transport failure that never produced a response.
var retryableStatus = map[int]bool{
	0:                             true,
	http.StatusBadRequest:         true,
	http.StatusPaymentRequired:    true,
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

// retryablePhrases are matched against the lower-cased error text, since
// status codes from these providers are unreliable.
var retryablePhrases = []string{
	"rate limit",
	"quota exceeded",
	"overloaded",
	"not enabled",
}

// IsRetryable reports whether a failed call should fall through to the next
// model rather than abort the cascade.
func IsRetryable(status int, errText string) bool {
	if retryableStatus[status] {
		return true
	}
	lower := strings.ToLower(errText)
	for _, phrase := range retryablePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
