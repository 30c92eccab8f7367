// Package client is a thin HTTP client for the Flowork API, used by the
// terminal console. Calls are single-shot; retry policy belongs to callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/floworkhq/flowork/pkg/models"
)

const (
	defaultBaseURL = "http://localhost:9091"

	// Executions block on LLM completions, so the client timeout is
	// generous compared to plain CRUD traffic.
	apiTimeout = 120 * time.Second

	maxResponseSize = 4 * 1024 * 1024
)

// APIError is a non-2xx response from the API, with the server's message when
// one could be extracted from the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)

	return ok && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a Flowork API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// New creates a client for the API at baseURL. An empty baseURL falls back to
// the local development server.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: apiTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListWorkflows returns the stored workflow summaries.
func (c *Client) ListWorkflows(ctx context.Context) ([]*models.WorkflowMetadata, error) {
	var response struct {
		Workflows []*models.WorkflowMetadata `json:"workflows"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/api/workflows", nil, &response); err != nil {
		return nil, err
	}

	return response.Workflows, nil
}

// GetWorkflow fetches one workflow by ID.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var response struct {
		Workflow *models.Workflow `json:"workflow"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/api/workflows/"+url.PathEscape(id), nil, &response); err != nil {
		return nil, err
	}

	return response.Workflow, nil
}

// CreateWorkflow stores a new workflow and returns it with server-assigned
// identifiers.
func (c *Client) CreateWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	var response struct {
		Workflow *models.Workflow `json:"workflow"`
	}

	if err := c.doJSON(ctx, http.MethodPost, "/api/workflows", workflow, &response); err != nil {
		return nil, err
	}

	return response.Workflow, nil
}

// UpdateWorkflow replaces a workflow's content.
func (c *Client) UpdateWorkflow(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	var response struct {
		Workflow *models.Workflow `json:"workflow"`
	}

	if err := c.doJSON(ctx, http.MethodPut, "/api/workflows/"+url.PathEscape(id), workflow, &response); err != nil {
		return nil, err
	}

	return response.Workflow, nil
}

// DeleteWorkflow removes a workflow.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/workflows/"+url.PathEscape(id), nil, nil)
}

// ExecuteWorkflow runs a workflow against the given input. Node-level failures
// come back inside the result; the error return covers rejected requests and
// transport problems.
func (c *Client) ExecuteWorkflow(ctx context.Context, id, input string) (*models.ExecutionResult, error) {
	request := struct {
		Input string `json:"input"`
	}{Input: input}

	var result models.ExecutionResult

	path := "/api/workflows/" + url.PathEscape(id) + "/execute"
	if err := c.doJSON(ctx, http.MethodPost, path, request, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ValidateWorkflow checks a stored workflow's structure server-side.
func (c *Client) ValidateWorkflow(ctx context.Context, id string) (bool, string, error) {
	var response struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}

	path := "/api/workflows/" + url.PathEscape(id) + "/validate"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &response); err != nil {
		return false, "", err
	}

	return response.Valid, response.Error, nil
}

// LLMStatus reports the server's language model configuration state.
func (c *Client) LLMStatus(ctx context.Context) (*models.LLMStatus, error) {
	var status models.LLMStatus

	if err := c.doJSON(ctx, http.MethodGet, "/api/llm/status", nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// InitializeLLM asks the server to build its language model provider.
func (c *Client) InitializeLLM(ctx context.Context) (*models.LLMStatus, error) {
	var status models.LLMStatus

	if err := c.doJSON(ctx, http.MethodPost, "/api/llm/initialize", nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// Health checks that the API server is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// errorMessage extracts the most specific message from an error body: the
// legacy "error" field first, then the problem detail, then the status text.
func errorMessage(statusCode int, body []byte) string {
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}

	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error != "":
			return parsed.Error
		case parsed.Detail != "":
			return parsed.Detail
		case parsed.Title != "":
			return parsed.Title
		}
	}

	return fmt.Sprintf("server returned status %d: %s", statusCode, http.StatusText(statusCode))
}
