package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultGroqBaseURL    = "https://api.groq.com/openai/v1"
	defaultRequestTimeout = 60 * time.Second
)

// ErrEmptyCompletion is returned when the API responds without any choices.
var ErrEmptyCompletion = errors.New("completion response contained no choices")

// GroqProvider calls the Groq chat completions API.
type GroqProvider struct {
	apiKey      string
	model       string
	temperature float64
	baseURL     string
	client      *http.Client
	logger      *slog.Logger
}

// GroqOption customizes a GroqProvider.
type GroqOption func(*GroqProvider)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) GroqOption {
	return func(p *GroqProvider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GroqOption {
	return func(p *GroqProvider) {
		p.client = client
	}
}

// NewGroqProvider creates a provider for the given API key, model and temperature.
func NewGroqProvider(apiKey, model string, temperature float64, logger *slog.Logger, opts ...GroqOption) *GroqProvider {
	provider := &GroqProvider{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		baseURL:     defaultGroqBaseURL,
		client:      &http.Client{Timeout: defaultRequestTimeout},
		logger:      logger,
	}

	for _, opt := range opts {
		opt(provider)
	}

	return provider
}

func (p *GroqProvider) ModelName() string {
	return p.model
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the chat exchange to the completions endpoint and returns
// the first choice's content.
func (p *GroqProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to parse completion response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if completion.Error != nil {
			return "", fmt.Errorf("completion API error (status %d): %s", resp.StatusCode, completion.Error.Message)
		}

		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	p.logger.DebugContext(ctx, "Completion received",
		"model", p.model,
		"content_length", len(completion.Choices[0].Message.Content))

	return completion.Choices[0].Message.Content, nil
}
