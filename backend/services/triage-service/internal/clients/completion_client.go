package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ampera/backend/services/triage-service/internal/models"
)

// HTTPDoer abstracts *http.Client for tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CompletionClient calls an Azure OpenAI chat-completions deployment.
type CompletionClient struct {
	url     string
	apiKey  string
	model   string
	timeout time.Duration
	client  HTTPDoer
	logger  *zap.Logger
}

// CompletionResult is the normalized upstream reply.
type CompletionResult struct {
	Content      string
	FinishReason string
}

// NewCompletionClient returns client wrapper. A nil doer falls back to a
// plain http.Client.
func NewCompletionClient(url, apiKey, model string, timeout time.Duration, doer HTTPDoer, logger *zap.Logger) *CompletionClient {
	if doer == nil {
		doer = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CompletionClient{
		url:     url,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		client:  doer,
		logger:  logger,
	}
}

type completionRequest struct {
	Messages            []models.Message `json:"messages"`
	MaxCompletionTokens int              `json:"max_completion_tokens"`
	Model               string           `json:"model"`
}

type completionMessage struct {
	Content any `json:"content"`
	Refusal any `json:"refusal"`
}

type completionChoice struct {
	Message      completionMessage `json:"message"`
	FinishReason *string           `json:"finish_reason"`
}

type completionPayload struct {
	Choices    []completionChoice `json:"choices"`
	OutputText any                `json:"output_text"`
	Output     any                `json:"output"`
	Error      *completionError   `json:"error"`
}

type completionError struct {
	Message string `json:"message"`
}

// Complete sends the conversation upstream and normalizes the reply. Each
// call is bounded by the client timeout on top of the caller's context.
func (c *CompletionClient) Complete(ctx context.Context, messages []models.Message, maxCompletionTokens int) (*CompletionResult, error) {
	body, err := json.Marshal(completionRequest{
		Messages:            messages,
		MaxCompletionTokens: maxCompletionTokens,
		Model:               c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("completion: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", zap.Error(err))
		return nil, fmt.Errorf("completion: %w", err)
	}
	defer resp.Body.Close()

	var payload completionPayload
	raw := json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("completion: decode response: %w", err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("completion: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(raw)
		if payload.Error != nil && payload.Error.Message != "" {
			detail = payload.Error.Message
		}
		return nil, fmt.Errorf("completion request failed (%d): %s", resp.StatusCode, detail)
	}

	result := &CompletionResult{Content: extractContent(payload)}
	if len(payload.Choices) > 0 && payload.Choices[0].FinishReason != nil {
		result.FinishReason = *payload.Choices[0].FinishReason
	}
	return result, nil
}

// extractContent pulls visible text out of the several response shapes the
// upstream is known to produce.
func extractContent(payload completionPayload) string {
	if len(payload.Choices) > 0 {
		if direct := coerceContent(payload.Choices[0].Message.Content); direct != "" {
			return direct
		}
		if refusal := coerceContent(payload.Choices[0].Message.Refusal); refusal != "" {
			return refusal
		}
	}
	if text := coerceContent(payload.OutputText); text != "" {
		return text
	}
	if out := coerceContent(payload.Output); out != "" {
		return out
	}
	if len(payload.Choices) > 1 {
		for _, choice := range payload.Choices[1:] {
			if alt := coerceContent(choice.Message.Content); alt != "" {
				return alt
			}
			if alt := coerceContent(choice.Message.Refusal); alt != "" {
				return alt
			}
		}
	}
	return ""
}

// coerceContent flattens string, part-array, and wrapper-object content
// shapes into plain text.
func coerceContent(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, part := range v {
			switch p := part.(type) {
			case string:
				b.WriteString(p)
			case map[string]any:
				if text, ok := p["text"]; ok {
					if s, isStr := text.(string); isStr {
						b.WriteString(s)
					}
					continue
				}
				if inner, ok := p["content"]; ok {
					b.WriteString(coerceContent(inner))
				}
			}
		}
		return strings.TrimSpace(b.String())
	case map[string]any:
		if text, ok := v["text"]; ok {
			return coerceContent(text)
		}
		if inner, ok := v["content"]; ok {
			return coerceContent(inner)
		}
		if value, ok := v["value"]; ok {
			return coerceContent(value)
		}
	}
	return ""
}
