package llm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/floworkhq/flowork/pkg/config"
	"github.com/floworkhq/flowork/pkg/models"
)

// Manager holds the active language model provider. Initialization is lazy:
// the API works without a provider, but executions fail until one is
// configured.
type Manager struct {
	mu       sync.RWMutex
	settings config.Settings
	provider Provider
	logger   *slog.Logger
}

// NewManager creates a manager for the given settings.
func NewManager(settings config.Settings, logger *slog.Logger) *Manager {
	return &Manager{
		settings: settings,
		logger:   logger,
	}
}

// Initialize builds the provider from the current settings. It fails when the
// API key is missing or the settings are invalid.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.settings.Validate(); err != nil {
		return err
	}

	m.provider = NewGroqProvider(
		m.settings.GroqAPIKey,
		m.settings.ModelName,
		m.settings.Temperature,
		m.logger,
	)

	m.logger.InfoContext(ctx, "Language model initialized",
		"model", m.settings.ModelName,
		"temperature", m.settings.Temperature)

	return nil
}

// SetProvider replaces the active provider. Used by tests and custom wiring.
func (m *Manager) SetProvider(provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.provider = provider
}

// Provider returns the active provider, or nil when not initialized.
func (m *Manager) Provider() Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.provider
}

// Initialized reports whether a provider is active.
func (m *Manager) Initialized() bool {
	return m.Provider() != nil
}

// Clear drops the active provider.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.provider = nil
}

// Status reports the manager state for the status endpoint.
func (m *Manager) Status() *models.LLMStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &models.LLMStatus{
		APIKeyConfigured: m.settings.APIKeyConfigured(),
		LLMInitialized:   m.provider != nil,
		ModelName:        m.settings.ModelName,
		Temperature:      m.settings.Temperature,
	}
}
