// Package upstream calls the completion backend and classifies its failures.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/elunari/cascade/pkg/config"
	"github.com/elunari/cascade/pkg/models"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

// EmptyResponse is the failure text for a 2xx reply with no usable content.
const EmptyResponse = "Empty response"

// maxResponseSize bounds how much of an upstream body is read.
const maxResponseSize = 4 << 20

// Invoker performs single completion calls. It holds no mutable state and
// is safe for concurrent use.
type Invoker struct {
	url          string
	apiKey       string
	format       string
	systemPrompt string
	temperature  float64
	topP         float64
	maxTokens    int
	referer      string
	title        string
	client       *http.Client
}

// New creates an Invoker from upstream configuration. If client is nil one
// is built with the configured timeout.
func New(cfg config.UpstreamConfig, client *http.Client) *Invoker {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	format := cfg.Format
	if format == "" {
		format = config.FormatOpenAI
	}
	return &Invoker{
		url:          cfg.URL,
		apiKey:       cfg.APIKey,
		format:       format,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		maxTokens:    cfg.MaxTokens,
		referer:      cfg.Referer,
		title:        cfg.Title,
		client:       client,
	}
}

// Invoke sends messages to model and normalizes the outcome. Transport
// errors are reported as failures with status 0.
func (i *Invoker) Invoke(ctx context.Context, model string, messages []models.ChatMessage) models.UpstreamResult {
	endpoint, body, headers, err := i.buildRequest(model, messages)
	if err != nil {
		return models.Failure(0, fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Failure(0, fmt.Sprintf("create request: %v", err))
	}
	req.Header = headers

	resp, err := i.client.Do(req)
	if err != nil {
		return models.Failure(0, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return models.Failure(0, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Failure(resp.StatusCode, string(respBody))
	}

	content := gjson.GetBytes(respBody, i.contentPath()).String()
	if content == "" {
		return models.Failure(http.StatusOK, EmptyResponse)
	}
	return models.Success(content)
}
