package models

// RoutingRule maps a routing key emitted by the LLM to a target node.
type RoutingRule struct {
	OutputKey    string `json:"output_key"     validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
}

// RoutingRules describes where execution goes after a node finishes.
// DefaultTarget is always present; conditional targets are consulted first.
type RoutingRules struct {
	DefaultTarget      string        `json:"default_target"`
	ConditionalTargets []RoutingRule `json:"conditional_targets"`
}

// NewRoutingRules returns routing rules that terminate the workflow.
func NewRoutingRules() RoutingRules {
	return RoutingRules{
		DefaultTarget:      EndTarget,
		ConditionalTargets: []RoutingRule{},
	}
}

// RoutingMap returns output key -> target node ID for the conditional rules.
func (r RoutingRules) RoutingMap() map[string]string {
	routing := make(map[string]string, len(r.ConditionalTargets))
	for _, rule := range r.ConditionalTargets {
		routing[rule.OutputKey] = rule.TargetNodeID
	}

	return routing
}

// AllTargets returns the unique set of targets the rules can reach,
// including the default target.
func (r RoutingRules) AllTargets() []string {
	seen := map[string]bool{r.DefaultTarget: true}
	targets := []string{r.DefaultTarget}

	for _, rule := range r.ConditionalTargets {
		if !seen[rule.TargetNodeID] {
			seen[rule.TargetNodeID] = true
			targets = append(targets, rule.TargetNodeID)
		}
	}

	return targets
}

// Node is one step of a workflow: a prompt sent to the LLM plus the routing
// rule that decides the next step. Routing targets are soft references; the
// builder never validates them, the compiler does.
type Node struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"   validate:"required,min=1"`
	Prompt       string         `json:"prompt"`
	RoutingRules RoutingRules   `json:"routing_rules"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
