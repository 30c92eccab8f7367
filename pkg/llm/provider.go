// Package llm manages the language model used to run workflow nodes.
package llm

import "context"

// Message is a single chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Provider produces a completion for a chat exchange. Implementations do not
// retry; callers surface failures in execution results instead.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	ModelName() string
}
