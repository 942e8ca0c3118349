// Package generation implements the AI flashcard generation client. It
// talks to an OpenAI-compatible chat completions endpoint (OpenRouter in
// production) and validates the model's structured output against the
// same field bounds used for request validation.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mzurek/cardsmith/pkg/models"
)

var (
	// ErrNotConfigured is returned at construction time when the API key
	// or model is missing. No network call is ever attempted in that state.
	ErrNotConfigured = errors.New("openrouter client is not configured")

	// ErrTimeout is returned when the provider does not answer within the
	// configured deadline. Callers treat it as a transient condition.
	ErrTimeout = errors.New("generation request timed out")
)

// APIError reports a non-2xx response from the provider. The body is kept
// for diagnostics only and must never be shown to end users.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// ResponseError reports model output that could not be parsed or that
// violates the flashcard schema. The whole response is rejected; invalid
// items are never dropped or truncated.
type ResponseError struct {
	Reason string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid model response: %s", e.Reason)
}

const systemPrompt = `You are a flashcard generation expert. Your task is to create high-quality flashcards from source text.

Rules:
1. Generate between 1 and 20 flashcards from the provided text
2. Each flashcard should focus on a single concept or fact
3. Front (question) should be clear and concise (1-200 characters)
4. Back (answer) should be complete but not too verbose (1-600 characters)
5. Avoid trivial questions
6. Ensure questions test understanding, not just memorization
7. Use the hint if provided to focus on specific aspects

Response format (JSON):
{
  "candidates": [
    {"front": "question text", "back": "answer text"},
    ...
  ]
}`

// Config holds everything the client needs. Values come from the
// application config, never from ambient environment reads.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// Client calls the completion provider
type Client struct {
	api         *openai.Client
	model       string
	timeout     time.Duration
	temperature float32
	maxTokens   int
}

// Result is a validated generation outcome
type Result struct {
	Candidates []models.Candidate
	Metadata   models.GenerationMetadata
}

// NewClient creates a generation client. It fails fast on missing
// credentials so a misconfigured deployment is caught at startup.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, ErrNotConfigured
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		timeout:     timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate asks the model for flashcard candidates based on the source
// text and optional hint. The call is bounded by the configured timeout.
func (c *Client) Generate(ctx context.Context, sourceText, hint string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(sourceText, hint),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, translateAPIError(err)
	}
	durationMs := time.Since(start).Milliseconds()

	if len(resp.Choices) == 0 {
		return nil, &ResponseError{Reason: "model returned no choices"}
	}

	candidates, err := parseCandidates(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &Result{
		Candidates: candidates,
		Metadata: models.GenerationMetadata{
			Model:            model,
			InputTokens:      resp.Usage.PromptTokens,
			OutputTokens:     resp.Usage.CompletionTokens,
			TokensUsed:       resp.Usage.TotalTokens,
			GenerationTimeMs: durationMs,
		},
	}, nil
}

func buildUserPrompt(sourceText, hint string) string {
	var builder strings.Builder
	builder.WriteString("Generate flashcards from the following text:\n\n")
	builder.WriteString(sourceText)
	if hint != "" {
		builder.WriteString("\n\nAdditional guidance: ")
		builder.WriteString(hint)
	}
	return builder.String()
}

// parseCandidates parses and validates the model's JSON content. Any
// violation rejects the whole response.
func parseCandidates(content string) ([]models.Candidate, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ResponseError{Reason: "model returned no content"}
	}

	var parsed struct {
		Candidates []models.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
		return nil, &ResponseError{Reason: "model returned invalid JSON"}
	}

	if parsed.Candidates == nil {
		return nil, &ResponseError{Reason: "response is missing the candidates array"}
	}

	if len(parsed.Candidates) < models.MinCandidates || len(parsed.Candidates) > models.MaxCandidates {
		return nil, &ResponseError{
			Reason: fmt.Sprintf("expected between %d and %d candidates, got %d",
				models.MinCandidates, models.MaxCandidates, len(parsed.Candidates)),
		}
	}

	for i, candidate := range parsed.Candidates {
		if err := candidate.Validate(); err != nil {
			return nil, &ResponseError{Reason: fmt.Sprintf("candidate %d: %v", i, err)}
		}
	}

	return parsed.Candidates, nil
}

// extractJSON strips markdown code fences some models wrap around their
// JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		start := 3
		if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}
		if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
			content = content[start : start+endIdx]
		} else {
			content = content[start:]
		}
	}

	return strings.TrimSpace(content)
}

func translateAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	return fmt.Errorf("generation request failed: %w", err)
}
