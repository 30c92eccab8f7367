package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/floworkhq/flowork/pkg/config"
	"github.com/floworkhq/flowork/pkg/models"
)

// Plan is a compiled workflow: per-node routing maps, the routing keys each
// node may answer with, and the execution step limit.
type Plan struct {
	Workflow     *models.Workflow
	StartNodeID  string
	RoutingMaps  map[string]map[string]string
	PossibleKeys map[string][]string
	StepLimit    int
}

// Node returns the plan's node by ID.
func (p *Plan) Node(id string) *models.Node {
	return p.Workflow.NodeByID(id)
}

// Compiler validates a workflow and produces an executable Plan.
type Compiler struct {
	logger *slog.Logger
}

// NewCompiler creates a compiler.
func NewCompiler(logger *slog.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Compile validates the workflow and builds its plan. The first node is the
// entry point; every node gets a routing map of conditional keys plus the
// default key and the implicit error key, which always terminates.
func (c *Compiler) Compile(workflow *models.Workflow) (*Plan, error) {
	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	c.logger.Info("Compiling workflow", "workflow_name", workflow.Name, "nodes", len(workflow.Nodes))

	nodeIDs := make(map[string]bool, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		nodeIDs[node.ID] = true
	}

	routingMaps := make(map[string]map[string]string, len(workflow.Nodes))
	possibleKeys := make(map[string][]string, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		routingMap := make(map[string]string)
		keys := make([]string, 0, len(node.RoutingRules.ConditionalTargets)+1)

		for _, rule := range node.RoutingRules.ConditionalTargets {
			key := strings.TrimSpace(rule.OutputKey)
			target := strings.TrimSpace(rule.TargetNodeID)

			if key == "" || target == "" {
				c.logger.Warn("Incomplete routing rule, skipping", "node_name", node.Name)

				continue
			}

			if target != models.EndTarget && !nodeIDs[target] {
				return nil, fmt.Errorf("invalid target %q for node %q routing key %q", target, node.Name, key)
			}

			routingMap[key] = target

			// The error key is implicit and never offered to the model.
			if key != config.ErrorRoutingKey {
				keys = append(keys, key)
			}
		}

		if _, ok := routingMap[config.DefaultRoutingKey]; !ok {
			defaultTarget := node.RoutingRules.DefaultTarget
			if defaultTarget != models.EndTarget && !nodeIDs[defaultTarget] {
				return nil, fmt.Errorf("invalid default target %q for node %q", defaultTarget, node.Name)
			}

			routingMap[config.DefaultRoutingKey] = defaultTarget
		}

		if _, ok := routingMap[config.ErrorRoutingKey]; !ok {
			routingMap[config.ErrorRoutingKey] = models.EndTarget
		}

		keys = append(keys, config.DefaultRoutingKey)

		routingMaps[node.ID] = routingMap
		possibleKeys[node.ID] = keys
	}

	stepLimit := len(workflow.Nodes)*config.RecursionMultiplier + config.RecursionBase

	c.logger.Info("Workflow compiled", "workflow_name", workflow.Name, "step_limit", stepLimit)

	return &Plan{
		Workflow:     workflow,
		StartNodeID:  workflow.Nodes[0].ID,
		RoutingMaps:  routingMaps,
		PossibleKeys: possibleKeys,
		StepLimit:    stepLimit,
	}, nil
}
