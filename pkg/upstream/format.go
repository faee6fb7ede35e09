package upstream

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/elunari/cascade/pkg/config"
	"github.com/elunari/cascade/pkg/models"
)

// Paths of the first candidate's text in each response envelope.
const (
	openAIContentPath = "choices.0.message.content"
	geminiContentPath = "candidates.0.content.parts.0.text"
)

// geminiAcknowledgement seeds the model turn that follows the system prompt,
// since generateContent has no system role.
const geminiAcknowledgement = "Understood. I'm Elunari Studio's AI consultant, ready to help plan web projects. " +
	"I'll ask focused questions, be encouraging, and create structured briefs."

// buildRequest returns the endpoint, body and headers for one call.
func (i *Invoker) buildRequest(model string, messages []models.ChatMessage) (string, []byte, http.Header, error) {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")

	switch i.format {
	case config.FormatGemini:
		body, err := json.Marshal(i.geminiBody(messages))
		if err != nil {
			return "", nil, nil, err
		}
		headers.Set("x-goog-api-key", i.apiKey)
		return geminiEndpoint(i.url, model), body, headers, nil

	default:
		body, err := json.Marshal(i.openAIBody(model, messages))
		if err != nil {
			return "", nil, nil, err
		}
		headers.Set("Authorization", "Bearer "+i.apiKey)
		if i.referer != "" {
			headers.Set("HTTP-Referer", i.referer)
		}
		if i.title != "" {
			headers.Set("X-Title", i.title)
		}
		return i.url, body, headers, nil
	}
}

func (i *Invoker) contentPath() string {
	if i.format == config.FormatGemini {
		return geminiContentPath
	}
	return openAIContentPath
}

func (i *Invoker) openAIBody(model string, messages []models.ChatMessage) models.ChatCompletionRequest {
	msgs := make([]models.ChatMessage, 0, len(messages)+1)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleSystem, Content: i.systemPrompt})
	msgs = append(msgs, messages...)
	return models.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: i.temperature,
		TopP:        i.topP,
		MaxTokens:   i.maxTokens,
	}
}

func (i *Invoker) geminiBody(messages []models.ChatMessage) models.GeminiRequest {
	contents := make([]models.GeminiContent, 0, len(messages)+2)
	contents = append(contents,
		models.GeminiContent{Role: "user", Parts: []models.GeminiPart{{Text: i.systemPrompt}}},
		models.GeminiContent{Role: "model", Parts: []models.GeminiPart{{Text: geminiAcknowledgement}}},
	)
	for _, m := range messages {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, models.GeminiContent{Role: role, Parts: []models.GeminiPart{{Text: m.Content}}})
	}
	return models.GeminiRequest{
		Contents: contents,
		GenerationConfig: models.GeminiGenerationConfig{
			Temperature:     i.temperature,
			TopP:            i.topP,
			MaxOutputTokens: i.maxTokens,
		},
	}
}

// geminiEndpoint substitutes {model} in the configured URL, or appends the
// model path to a bare API base.
func geminiEndpoint(base, model string) string {
	if strings.Contains(base, "{model}") {
		return strings.ReplaceAll(base, "{model}", url.PathEscape(model))
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(model) + ":generateContent"
}
