// Package models defines the core domain models for LLM-driven workflows.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EndTarget is the terminal routing sentinel. A routing rule pointing at
// EndTarget finishes the execution instead of activating another node.
const EndTarget = "END"

// Workflow is a named, ordered sequence of nodes with routing between them.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=1"`
	Description string         `json:"description"`
	Nodes       []*Node        `json:"nodes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// WorkflowMetadata is the list-view projection of a workflow. It is produced
// by the persistence layer and never constructed by clients.
type WorkflowMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	NodeCount   int       `json:"node_count"`
}

// Summary projects the workflow onto its list-view metadata.
func (w *Workflow) Summary() *WorkflowMetadata {
	return &WorkflowMetadata{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		NodeCount:   len(w.Nodes),
	}
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// NodeIDs returns the IDs of all nodes in order.
func (w *Workflow) NodeIDs() []string {
	ids := make([]string, 0, len(w.Nodes))
	for _, node := range w.Nodes {
		ids = append(ids, node.ID)
	}

	return ids
}

// Structural validation errors.
var (
	ErrNoNodes          = errors.New("workflow must contain at least one node")
	ErrDuplicateNodeIDs = errors.New("workflow contains duplicate node IDs")
)

// Validate checks the workflow structure: a non-empty node sequence, unique
// node IDs, routing targets that resolve to a node or the END sentinel, and
// no duplicate conditional routing keys within a node.
func (w *Workflow) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("workflow name cannot be empty")
	}

	if len(w.Nodes) == 0 {
		return ErrNoNodes
	}

	seen := make(map[string]bool, len(w.Nodes))
	for _, node := range w.Nodes {
		if seen[node.ID] {
			return ErrDuplicateNodeIDs
		}

		seen[node.ID] = true
	}

	for _, node := range w.Nodes {
		if err := w.validateNodeRouting(node, seen); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workflow) validateNodeRouting(node *Node, nodeIDs map[string]bool) error {
	target := node.RoutingRules.DefaultTarget
	if target != EndTarget && !nodeIDs[target] {
		return fmt.Errorf("node %q has invalid default target: %s", node.Name, target)
	}

	keys := make(map[string]bool, len(node.RoutingRules.ConditionalTargets))

	for _, rule := range node.RoutingRules.ConditionalTargets {
		if rule.TargetNodeID != EndTarget && !nodeIDs[rule.TargetNodeID] {
			return fmt.Errorf(
				"node %q has invalid conditional target %q -> %q",
				node.Name, rule.OutputKey, rule.TargetNodeID,
			)
		}

		if keys[rule.OutputKey] {
			return fmt.Errorf("node %q has duplicate routing keys", node.Name)
		}

		keys[rule.OutputKey] = true
	}

	return nil
}
