// Package workflow implements graph compilation, routing, and execution of
// prompt-chained workflows.
package workflow

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/floworkhq/flowork/pkg/config"
)

var (
	routingKeyPattern   = regexp.MustCompile(regexp.QuoteMeta(config.RoutingKeyMarker) + `\s*(\w+)\s*$`)
	routingMarkerStrip  = regexp.MustCompile(`\s*` + regexp.QuoteMeta(config.RoutingKeyMarker) + `\s*\w+\s*$`)
	thinkSectionPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// Router decides which routing key applies to a node's output.
type Router struct {
	logger *slog.Logger
}

// NewRouter creates a router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{logger: logger}
}

// ExtractRoutingKey pulls the routing key from the tail of a response.
// Responses without a marker fall back to the default key.
func (r *Router) ExtractRoutingKey(content string) string {
	match := routingKeyPattern.FindStringSubmatch(content)
	if match == nil {
		return config.DefaultRoutingKey
	}

	return strings.TrimSpace(match[1])
}

// Route resolves the routing key for the given content against a node's
// routing map. Unknown keys fall back to the default key, then to the
// implicit error key.
func (r *Router) Route(content string, routingMap map[string]string) string {
	if content == "" {
		if _, ok := routingMap[config.DefaultRoutingKey]; ok {
			return config.DefaultRoutingKey
		}

		if _, ok := routingMap[config.ErrorRoutingKey]; ok {
			return config.ErrorRoutingKey
		}

		return config.DefaultRoutingKey
	}

	routingKey := r.ExtractRoutingKey(content)
	if _, ok := routingMap[routingKey]; ok {
		r.logger.Debug("Routing decision", "routing_key", routingKey, "target", routingMap[routingKey])

		return routingKey
	}

	r.logger.Warn("Routing key not found in routing map, falling back", "routing_key", routingKey)

	if _, ok := routingMap[config.DefaultRoutingKey]; ok {
		return config.DefaultRoutingKey
	}

	if _, ok := routingMap[config.ErrorRoutingKey]; ok {
		return config.ErrorRoutingKey
	}

	return config.DefaultRoutingKey
}

// CleanContent removes the routing marker from the tail of a response.
func (r *Router) CleanContent(content string) string {
	return strings.TrimSpace(routingMarkerStrip.ReplaceAllString(content, ""))
}

// StripThinkSections removes reasoning-model <think> sections from a response.
func StripThinkSections(content string) string {
	return strings.TrimSpace(thinkSectionPattern.ReplaceAllString(content, ""))
}

// IsErrorOutput reports whether a node output signals a failure. Only outputs
// that explicitly start with "ERROR:" count, so prose about errors does not
// trip the detection.
func IsErrorOutput(content string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(content)), "ERROR:")
}
