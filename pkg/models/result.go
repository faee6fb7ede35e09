package models

// UpstreamResult is the normalized outcome of one completion call.
// Exactly one of the two shapes is meaningful: OK with Content, or a
// failure carrying StatusCode and ErrorText. StatusCode 0 means the
// request never produced an HTTP response.
type UpstreamResult struct {
	OK         bool
	Content    string
	StatusCode int
	ErrorText  string
}

// Success builds a successful result.
func Success(content string) UpstreamResult {
	return UpstreamResult{OK: true, Content: content}
}

// Failure builds a failed result.
func Failure(status int, text string) UpstreamResult {
	return UpstreamResult{StatusCode: status, ErrorText: text}
}
