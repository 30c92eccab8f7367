// Package builder holds the editable workflow draft behind the console's
// builder view. The draft is pure state: loading and saving over the network
// belong to the caller.
package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/floworkhq/flowork/pkg/models"
)

// ErrNameRequired rejects a save of a draft whose trimmed name is empty.
var ErrNameRequired = errors.New("workflow name is required")

// ErrNodeIndexOutOfRange rejects node operations addressing a position outside
// the current node sequence.
var ErrNodeIndexOutOfRange = errors.New("node index out of range")

// Draft is one editable workflow. A draft with an ID updates the stored
// workflow on save; a draft without one creates a new workflow.
type Draft struct {
	id          string
	name        string
	description string
	nodes       []*models.Node
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{nodes: []*models.Node{}}
}

// Load replaces the draft's content with a stored workflow.
func (d *Draft) Load(workflow *models.Workflow) {
	d.id = workflow.ID
	d.name = workflow.Name
	d.description = workflow.Description

	d.nodes = make([]*models.Node, 0, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		clone := *node
		d.nodes = append(d.nodes, &clone)
	}
}

// Reset empties the draft so it creates a new workflow on save.
func (d *Draft) Reset() {
	*d = *NewDraft()
}

// ID returns the stored workflow's ID, or "" for a new draft.
func (d *Draft) ID() string {
	return d.id
}

// IsNew reports whether saving creates a new workflow.
func (d *Draft) IsNew() bool {
	return d.id == ""
}

// Name returns the draft name.
func (d *Draft) Name() string {
	return d.name
}

// SetName sets the draft name.
func (d *Draft) SetName(name string) {
	d.name = name
}

// Description returns the draft description.
func (d *Draft) Description() string {
	return d.description
}

// SetDescription sets the draft description.
func (d *Draft) SetDescription(description string) {
	d.description = description
}

// Nodes returns the draft's node sequence. Callers must treat it as read-only
// and mutate nodes through the Set* operations.
func (d *Draft) Nodes() []*models.Node {
	return d.nodes
}

// NodeCount returns the number of nodes in the draft.
func (d *Draft) NodeCount() int {
	return len(d.nodes)
}

// AddNode appends a new node named after its position, with an empty prompt
// and routing that terminates the workflow. Existing nodes keep their names.
func (d *Draft) AddNode() *models.Node {
	node := &models.Node{
		Name:         fmt.Sprintf("Node %d", len(d.nodes)+1),
		RoutingRules: models.NewRoutingRules(),
	}
	d.nodes = append(d.nodes, node)

	return node
}

// SetNodeName renames the node at index.
func (d *Draft) SetNodeName(index int, name string) error {
	node, err := d.node(index)
	if err != nil {
		return err
	}

	node.Name = name

	return nil
}

// SetNodePrompt replaces the prompt of the node at index.
func (d *Draft) SetNodePrompt(index int, prompt string) error {
	node, err := d.node(index)
	if err != nil {
		return err
	}

	node.Prompt = prompt

	return nil
}

// SetNodeDefaultTarget points the default route of the node at index at a node
// ID or the END sentinel. Targets are soft references; a dangling target is
// caught server-side, not here.
func (d *Draft) SetNodeDefaultTarget(index int, target string) error {
	node, err := d.node(index)
	if err != nil {
		return err
	}

	if target == "" {
		target = models.EndTarget
	}

	node.RoutingRules.DefaultTarget = target

	return nil
}

// RemoveNode deletes the node at index, shifting later nodes down. Routing
// rules on other nodes that referenced the removed node are left untouched.
func (d *Draft) RemoveNode(index int) error {
	if _, err := d.node(index); err != nil {
		return err
	}

	d.nodes = append(d.nodes[:index], d.nodes[index+1:]...)

	return nil
}

// Workflow validates the draft and renders it as a workflow document ready to
// send. A blank trimmed name aborts before any network call happens.
func (d *Draft) Workflow() (*models.Workflow, error) {
	if strings.TrimSpace(d.name) == "" {
		return nil, ErrNameRequired
	}

	return &models.Workflow{
		ID:          d.id,
		Name:        d.name,
		Description: d.description,
		Nodes:       d.nodes,
	}, nil
}

func (d *Draft) node(index int) (*models.Node, error) {
	if index < 0 || index >= len(d.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrNodeIndexOutOfRange, index)
	}

	return d.nodes[index], nil
}
