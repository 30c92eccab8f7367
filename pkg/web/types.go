// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import "github.com/floworkhq/flowork/pkg/models"

// RoutingRuleRequest mirrors a single conditional routing rule on the wire.
type RoutingRuleRequest struct {
	OutputKey    string `json:"output_key"     validate:"required,min=1"`
	TargetNodeID string `json:"target_node_id" validate:"required,min=1"`
}

// RoutingRulesRequest mirrors a node's routing block on the wire. A missing
// default target falls back to END.
type RoutingRulesRequest struct {
	DefaultTarget      string               `json:"default_target"`
	ConditionalTargets []RoutingRuleRequest `json:"conditional_targets"`
}

// NodeRequest represents one node in a create or update request.
type NodeRequest struct {
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name"          validate:"required,min=1"`
	Prompt       string              `json:"prompt"`
	RoutingRules RoutingRulesRequest `json:"routing_rules"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
}

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=1"`
	Description string         `json:"description"`
	Nodes       []NodeRequest  `json:"nodes"       validate:"dive"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating a workflow.
// Name, description, and metadata are optional; the node list is replaced
// wholesale.
type UpdateWorkflowRequest struct {
	Name        string         `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description string         `json:"description,omitempty"`
	Nodes       []NodeRequest  `json:"nodes"                 validate:"dive"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ExecuteWorkflowRequest represents the request body for running a workflow.
type ExecuteWorkflowRequest struct {
	Input string `json:"input" validate:"required,min=1"`
}

func (r RoutingRulesRequest) toModel() models.RoutingRules {
	rules := models.RoutingRules{
		DefaultTarget:      r.DefaultTarget,
		ConditionalTargets: make([]models.RoutingRule, 0, len(r.ConditionalTargets)),
	}

	if rules.DefaultTarget == "" {
		rules.DefaultTarget = models.EndTarget
	}

	for _, rule := range r.ConditionalTargets {
		rules.ConditionalTargets = append(rules.ConditionalTargets, models.RoutingRule{
			OutputKey:    rule.OutputKey,
			TargetNodeID: rule.TargetNodeID,
		})
	}

	return rules
}

func nodesToModel(nodes []NodeRequest) []*models.Node {
	result := make([]*models.Node, 0, len(nodes))

	for _, node := range nodes {
		result = append(result, &models.Node{
			ID:           node.ID,
			Name:         node.Name,
			Prompt:       node.Prompt,
			RoutingRules: node.RoutingRules.toModel(),
			Metadata:     node.Metadata,
		})
	}

	return result
}
