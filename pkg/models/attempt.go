package models

import "time"

// AttemptOutcome classifies a single upstream attempt.
type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeRetryable AttemptOutcome = "retryable"
	OutcomeFatal     AttemptOutcome = "fatal"
	OutcomeSkipped   AttemptOutcome = "skipped"
)

// AttemptRecord describes one model attempt within a cascade.
type AttemptRecord struct {
	ID         int64          `json:"id"`
	RequestID  string         `json:"request_id"`
	Model      string         `json:"model"`
	Outcome    AttemptOutcome `json:"outcome"`
	StatusCode int            `json:"status_code"`
	ErrorText  string         `json:"error_text,omitempty"`
	LatencyMs  int64          `json:"latency_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ModelSummary aggregates attempts for one model.
type ModelSummary struct {
	Model        string  `json:"model"`
	Attempts     int     `json:"attempts"`
	Successes    int     `json:"successes"`
	Retryable    int     `json:"retryable"`
	Fatal        int     `json:"fatal"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}
