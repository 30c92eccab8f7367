package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/models"
)

func TestDraft_AddNode(t *testing.T) {
	draft := NewDraft()

	first := draft.AddNode()
	second := draft.AddNode()

	assert.Equal(t, "Node 1", first.Name)
	assert.Equal(t, "Node 2", second.Name)
	assert.Equal(t, models.EndTarget, first.RoutingRules.DefaultTarget)
	assert.Empty(t, first.Prompt)
	assert.Equal(t, 2, draft.NodeCount())
}

func TestDraft_AddNode_DoesNotRenumber(t *testing.T) {
	draft := NewDraft()

	draft.AddNode()
	draft.AddNode()
	require.NoError(t, draft.RemoveNode(0))

	third := draft.AddNode()

	// Numbering follows the current count, existing names stay put.
	assert.Equal(t, "Node 2", draft.Nodes()[0].Name)
	assert.Equal(t, "Node 2", third.Name)
}

func TestDraft_SetNodeFields(t *testing.T) {
	draft := NewDraft()
	draft.AddNode()

	require.NoError(t, draft.SetNodeName(0, "Reviewer"))
	require.NoError(t, draft.SetNodePrompt(0, "Review: {input_text}"))
	require.NoError(t, draft.SetNodeDefaultTarget(0, "node-2"))

	node := draft.Nodes()[0]
	assert.Equal(t, "Reviewer", node.Name)
	assert.Equal(t, "Review: {input_text}", node.Prompt)
	assert.Equal(t, "node-2", node.RoutingRules.DefaultTarget)
}

func TestDraft_SetNodeDefaultTarget_EmptyFallsBackToEnd(t *testing.T) {
	draft := NewDraft()
	draft.AddNode()

	require.NoError(t, draft.SetNodeDefaultTarget(0, ""))
	assert.Equal(t, models.EndTarget, draft.Nodes()[0].RoutingRules.DefaultTarget)
}

func TestDraft_NodeIndexOutOfRange(t *testing.T) {
	draft := NewDraft()
	draft.AddNode()

	assert.ErrorIs(t, draft.SetNodeName(1, "x"), ErrNodeIndexOutOfRange)
	assert.ErrorIs(t, draft.SetNodePrompt(-1, "x"), ErrNodeIndexOutOfRange)
	assert.ErrorIs(t, draft.RemoveNode(5), ErrNodeIndexOutOfRange)
}

func TestDraft_RemoveNode(t *testing.T) {
	draft := NewDraft()
	draft.AddNode()
	draft.AddNode()
	draft.AddNode()

	require.NoError(t, draft.SetNodeName(1, "Middle"))
	require.NoError(t, draft.RemoveNode(1))

	require.Equal(t, 2, draft.NodeCount())
	assert.Equal(t, "Node 1", draft.Nodes()[0].Name)
	assert.Equal(t, "Node 3", draft.Nodes()[1].Name)
}

func TestDraft_RemoveNode_KeepsDanglingReferences(t *testing.T) {
	draft := NewDraft()
	draft.Load(&models.Workflow{
		ID:   "wf-1",
		Name: "Pipeline",
		Nodes: []*models.Node{
			{ID: "n1", Name: "First", RoutingRules: models.RoutingRules{DefaultTarget: "n2"}},
			{ID: "n2", Name: "Second", RoutingRules: models.NewRoutingRules()},
		},
	})

	require.NoError(t, draft.RemoveNode(1))

	// The first node still points at the removed node; the server catches it.
	assert.Equal(t, "n2", draft.Nodes()[0].RoutingRules.DefaultTarget)
}

func TestDraft_Load(t *testing.T) {
	draft := NewDraft()
	original := &models.Workflow{
		ID:          "wf-1",
		Name:        "Pipeline",
		Description: "does things",
		Nodes: []*models.Node{
			{ID: "n1", Name: "First", Prompt: "p"},
		},
	}

	draft.Load(original)

	assert.Equal(t, "wf-1", draft.ID())
	assert.False(t, draft.IsNew())
	assert.Equal(t, "Pipeline", draft.Name())
	assert.Equal(t, "does things", draft.Description())
	require.Equal(t, 1, draft.NodeCount())

	// Draft nodes are copies; edits must not leak into the loaded workflow.
	require.NoError(t, draft.SetNodeName(0, "Changed"))
	assert.Equal(t, "First", original.Nodes[0].Name)
}

func TestDraft_Reset(t *testing.T) {
	draft := NewDraft()
	draft.Load(&models.Workflow{ID: "wf-1", Name: "Pipeline"})

	draft.Reset()

	assert.True(t, draft.IsNew())
	assert.Empty(t, draft.Name())
	assert.Equal(t, 0, draft.NodeCount())
}

func TestDraft_Workflow(t *testing.T) {
	draft := NewDraft()
	draft.SetName("Pipeline")
	draft.SetDescription("desc")
	draft.AddNode()

	workflow, err := draft.Workflow()
	require.NoError(t, err)

	assert.Equal(t, "Pipeline", workflow.Name)
	assert.Equal(t, "desc", workflow.Description)
	assert.Len(t, workflow.Nodes, 1)
}

func TestDraft_Workflow_RequiresName(t *testing.T) {
	draft := NewDraft()
	draft.SetName("   ")

	_, err := draft.Workflow()
	require.ErrorIs(t, err, ErrNameRequired)
}
