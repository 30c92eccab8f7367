package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/floworkhq/flowork/pkg/config"
	"github.com/floworkhq/flowork/pkg/llm"
	"github.com/floworkhq/flowork/pkg/models"
)

const inputPlaceholder = "{input_text}"

// ErrEmptyResponse is returned when the model answers with no content.
var ErrEmptyResponse = errors.New("model returned empty response")

// Agent runs a single node prompt against the language model and enforces the
// routing contract on its output.
type Agent struct {
	router *Router
	logger *slog.Logger
}

// NewAgent creates an agent.
func NewAgent(router *Router, logger *slog.Logger) *Agent {
	return &Agent{router: router, logger: logger}
}

// Run executes one node: builds the prompt from the node definition and the
// current state, calls the model, strips reasoning sections, and guarantees a
// routing marker on the returned content. Failures come back as "ERROR:"
// content routed to the error key, never as a Go error, so the execution loop
// can record and route them uniformly.
func (a *Agent) Run(ctx context.Context, provider llm.Provider, node *models.Node, state *models.ExecutionState, possibleKeys []string) string {
	if provider == nil {
		return errorContent("LLM not initialized")
	}

	contextInput := a.prepareContext(state)
	prompt := preparePrompt(node.Prompt, contextInput)
	fullPrompt := addRoutingInstructions(node.Name, prompt, possibleKeys)

	a.logger.DebugContext(ctx, "Invoking model for node", "node_name", node.Name, "prompt_length", len(fullPrompt))

	content, err := provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: fullPrompt},
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Model invocation failed", "node_name", node.Name, "error", err)

		return errorContent(fmt.Sprintf("Error in node %s: %v", node.Name, err))
	}

	content = StripThinkSections(content)
	if strings.TrimSpace(content) == "" {
		return errorContent(fmt.Sprintf("Error in node %s: %v", node.Name, ErrEmptyResponse))
	}

	return a.ensureRoutingKey(content, possibleKeys)
}

// prepareContext yields the initial input for the first node and the cleaned
// previous response for every node after it.
func (a *Agent) prepareContext(state *models.ExecutionState) string {
	if state.LastResponseContent == "" {
		return state.Input
	}

	return a.router.CleanContent(state.LastResponseContent)
}

func preparePrompt(prompt, contextInput string) string {
	if strings.Contains(prompt, inputPlaceholder) {
		return strings.ReplaceAll(prompt, inputPlaceholder, contextInput)
	}

	if contextInput != "" {
		return fmt.Sprintf("%s\n\nInput Context:\n%s", prompt, contextInput)
	}

	return prompt
}

func addRoutingInstructions(nodeName, prompt string, possibleKeys []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current Task (%s):\n%s\n", nodeName, prompt)

	keyOptions := make([]string, 0, len(possibleKeys))

	for _, key := range possibleKeys {
		if key == "" || key == config.DefaultRoutingKey {
			continue
		}

		keyOptions = append(keyOptions, "'"+key+"'")
	}

	b.WriteString("\n\n--- ROUTING INSTRUCTIONS ---\n")
	b.WriteString("1. Perform the task above.\n")
	fmt.Fprintf(&b, "2. At the VERY END of your response, append exactly: '%s <key>'\n", config.RoutingKeyMarker)

	if len(keyOptions) > 0 {
		fmt.Fprintf(&b, "3. <key> must be ONE of: [%s].\n", strings.Join(keyOptions, ", "))
		fmt.Fprintf(&b, "4. If none apply, use: '%s %s'\n", config.RoutingKeyMarker, config.DefaultRoutingKey)
	} else {
		fmt.Fprintf(&b, "3. Use the key: '%s'\n", config.DefaultRoutingKey)
	}

	b.WriteString("--- END ROUTING ---")

	return b.String()
}

// ensureRoutingKey appends the default routing marker when the response has
// none, and replaces a marker whose key is not one the node may answer with.
func (a *Agent) ensureRoutingKey(content string, possibleKeys []string) string {
	match := routingKeyPattern.FindStringSubmatch(content)
	if match != nil {
		key := strings.TrimSpace(match[1])
		for _, possible := range possibleKeys {
			if key == possible {
				return content
			}
		}

		content = a.router.CleanContent(content)
	}

	return fmt.Sprintf("%s\n\n%s %s", content, config.RoutingKeyMarker, config.DefaultRoutingKey)
}

func errorContent(message string) string {
	return fmt.Sprintf("ERROR: %s\n\n%s %s", message, config.RoutingKeyMarker, config.ErrorRoutingKey)
}
