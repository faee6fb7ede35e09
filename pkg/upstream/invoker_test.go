package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elunari/cascade/pkg/config"
	"github.com/elunari/cascade/pkg/models"
)

func testConfig(url, format string) config.UpstreamConfig {
	cfg := config.Default().Upstream
	cfg.URL = url
	cfg.APIKey = "sk-upstream"
	cfg.Format = format
	cfg.SystemPrompt = "be helpful"
	cfg.Referer = "https://studio.example"
	return cfg
}

var conversation = []models.ChatMessage{
	{Role: models.RoleUser, Content: "I need a bakery site"},
	{Role: models.RoleAssistant, Content: "What style do you like?"},
	{Role: models.RoleUser, Content: "Warm colors"},
}

func TestInvokeOpenAISuccess(t *testing.T) {
	var got models.ChatCompletionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-upstream", r.Header.Get("Authorization"))
		assert.Equal(t, "https://studio.example", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"choices":[{"message":{"content":"Hello"}}]}`)
	}))
	defer upstream.Close()

	inv := New(testConfig(upstream.URL, config.FormatOpenAI), nil)
	res := inv.Invoke(context.Background(), "model-a", conversation)

	assert.Equal(t, models.Success("Hello"), res)
	assert.Equal(t, "model-a", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, models.ChatMessage{Role: models.RoleSystem, Content: "be helpful"}, got.Messages[0])
	assert.Equal(t, conversation, got.Messages[1:])
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.InDelta(t, 0.9, got.TopP, 1e-9)
	assert.Equal(t, 1024, got.MaxTokens)
}

func TestInvokeEmptyContent(t *testing.T) {
	bodies := []string{
		`{"choices":[{"message":{"content":""}}]}`,
		`{"choices":[]}`,
		`not json`,
	}
	for _, body := range bodies {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))
		inv := New(testConfig(upstream.URL, config.FormatOpenAI), nil)
		res := inv.Invoke(context.Background(), "model-a", conversation)
		upstream.Close()

		assert.Equal(t, models.Failure(http.StatusOK, EmptyResponse), res, "body %q", body)
	}
}

func TestInvokeHTTPError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"Rate limit exceeded"}}`)
	}))
	defer upstream.Close()

	inv := New(testConfig(upstream.URL, config.FormatOpenAI), nil)
	res := inv.Invoke(context.Background(), "model-a", conversation)

	assert.False(t, res.OK)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, `{"error":{"message":"Rate limit exceeded"}}`, res.ErrorText)
}

func TestInvokeTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	inv := New(testConfig(url, config.FormatOpenAI), nil)
	res := inv.Invoke(context.Background(), "model-a", conversation)

	assert.False(t, res.OK)
	assert.Equal(t, 0, res.StatusCode)
	assert.NotEmpty(t, res.ErrorText)
}

func TestInvokeTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL, config.FormatOpenAI)
	cfg.Timeout = 50 * time.Millisecond
	res := New(cfg, nil).Invoke(context.Background(), "model-a", conversation)

	assert.False(t, res.OK)
	assert.Equal(t, 0, res.StatusCode)
}

func TestInvokeGemini(t *testing.T) {
	var got models.GeminiRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "sk-upstream", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Hi from Gemini"}]}}]}`)
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL+"/v1beta/models/{model}:generateContent", config.FormatGemini)
	res := New(cfg, nil).Invoke(context.Background(), "gemini-2.0-flash", conversation)

	assert.Equal(t, models.Success("Hi from Gemini"), res)
	require.Len(t, got.Contents, 5)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "be helpful", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "user", got.Contents[2].Role)
	assert.Equal(t, "model", got.Contents[3].Role)
	assert.Equal(t, "Warm colors", got.Contents[4].Parts[0].Text)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiEndpoint(t *testing.T) {
	assert.Equal(t,
		"https://g.example/v1beta/models/m1:generateContent",
		geminiEndpoint("https://g.example/v1beta/models/", "m1"))
	assert.Equal(t,
		"https://g.example/models/m1:generateContent",
		geminiEndpoint("https://g.example/models/{model}:generateContent", "m1"))
	assert.True(t, strings.HasSuffix(geminiEndpoint("https://g.example", "a/b"), "a%2Fb:generateContent"))
}
