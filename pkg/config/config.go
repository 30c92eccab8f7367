// Package config holds engine and LLM settings loaded from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
)

// Routing constants shared by the compiler, router, and agent prompting.
const (
	// RoutingKeyMarker is appended by the LLM at the end of a response,
	// followed by the chosen routing key.
	RoutingKeyMarker = "ROUTING_KEY:"

	// DefaultRoutingKey is the key used when the response names no
	// conditional route.
	DefaultRoutingKey = "__DEFAULT__"

	// ErrorRoutingKey is the implicit key that terminates an execution
	// after a node failure.
	ErrorRoutingKey = "error"
)

// Step-limit coefficients: limit = RecursionMultiplier*nodes + RecursionBase.
const (
	RecursionMultiplier = 3
	RecursionBase       = 10
)

const (
	defaultModelName   = "qwen/qwen3-32b"
	defaultTemperature = 0.2
)

var ErrAPIKeyMissing = errors.New("GROQ_API_KEY is not set")

// Settings carries the LLM provider configuration.
type Settings struct {
	GroqAPIKey  string
	ModelName   string
	Temperature float64
}

// FromEnv builds Settings from environment variables, applying defaults
// for the model name and temperature.
func FromEnv() Settings {
	s := Settings{
		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		ModelName:   os.Getenv("LLM_MODEL_NAME"),
		Temperature: defaultTemperature,
	}

	if s.ModelName == "" {
		s.ModelName = defaultModelName
	}

	if raw := os.Getenv("LLM_TEMPERATURE"); raw != "" {
		if t, err := strconv.ParseFloat(raw, 64); err == nil {
			s.Temperature = t
		}
	}

	return s
}

// APIKeyConfigured reports whether a provider API key is present.
func (s Settings) APIKeyConfigured() bool {
	return s.GroqAPIKey != ""
}

// Validate checks that the settings allow LLM initialization.
func (s Settings) Validate() error {
	if !s.APIKeyConfigured() {
		return ErrAPIKeyMissing
	}

	if s.Temperature < 0 || s.Temperature > 2 {
		return errors.New("LLM_TEMPERATURE must be between 0 and 2")
	}

	return nil
}
