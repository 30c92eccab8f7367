package llm

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/config"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Complete(_ context.Context, _ []Message) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) ModelName() string {
	return "stub"
}

func testSettings() config.Settings {
	return config.Settings{
		GroqAPIKey:  "test-key",
		ModelName:   "qwen/qwen3-32b",
		Temperature: 0.2,
	}
}

func TestManager_Initialize(t *testing.T) {
	m := NewManager(testSettings(), slog.Default())

	assert.False(t, m.Initialized())
	require.NoError(t, m.Initialize(context.Background()))
	assert.True(t, m.Initialized())
	require.NotNil(t, m.Provider())
	assert.Equal(t, "qwen/qwen3-32b", m.Provider().ModelName())
}

func TestManager_Initialize_MissingAPIKey(t *testing.T) {
	settings := testSettings()
	settings.GroqAPIKey = ""

	m := NewManager(settings, slog.Default())

	err := m.Initialize(context.Background())
	require.ErrorIs(t, err, config.ErrAPIKeyMissing)
	assert.False(t, m.Initialized())
}

func TestManager_Status(t *testing.T) {
	m := NewManager(testSettings(), slog.Default())

	status := m.Status()
	assert.True(t, status.APIKeyConfigured)
	assert.False(t, status.LLMInitialized)
	assert.Equal(t, "qwen/qwen3-32b", status.ModelName)
	assert.InDelta(t, 0.2, status.Temperature, 0.0001)

	m.SetProvider(&stubProvider{})
	assert.True(t, m.Status().LLMInitialized)

	m.Clear()
	assert.False(t, m.Status().LLMInitialized)
}

func TestGroqProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "All good.\nROUTING_KEY: __DEFAULT__"}}]}`))
	}))
	defer server.Close()

	provider := NewGroqProvider("test-key", "qwen/qwen3-32b", 0.2, slog.Default(), WithBaseURL(server.URL))

	content, err := provider.Complete(context.Background(), []Message{
		{Role: RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Contains(t, content, "All good.")
}

func TestGroqProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth"}}`))
	}))
	defer server.Close()

	provider := NewGroqProvider("bad-key", "qwen/qwen3-32b", 0.2, slog.Default(), WithBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestGroqProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	provider := NewGroqProvider("test-key", "qwen/qwen3-32b", 0.2, slog.Default(), WithBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}
