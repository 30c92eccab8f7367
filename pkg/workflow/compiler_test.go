package workflow

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/config"
	"github.com/floworkhq/flowork/pkg/models"
)

func twoNodeWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:   "wf-1",
		Name: "Review Pipeline",
		Nodes: []*models.Node{
			{
				ID:     "n1",
				Name:   "Review",
				Prompt: "Review: {input_text}",
				RoutingRules: models.RoutingRules{
					DefaultTarget: "n2",
					ConditionalTargets: []models.RoutingRule{
						{OutputKey: "reject", TargetNodeID: models.EndTarget},
					},
				},
			},
			{
				ID:           "n2",
				Name:         "Summarize",
				Prompt:       "Summarize the review.",
				RoutingRules: models.NewRoutingRules(),
			},
		},
	}
}

func TestCompiler_Compile(t *testing.T) {
	plan, err := NewCompiler(slog.Default()).Compile(twoNodeWorkflow())
	require.NoError(t, err)

	assert.Equal(t, "n1", plan.StartNodeID)
	assert.Equal(t, 2*config.RecursionMultiplier+config.RecursionBase, plan.StepLimit)

	n1Map := plan.RoutingMaps["n1"]
	assert.Equal(t, models.EndTarget, n1Map["reject"])
	assert.Equal(t, "n2", n1Map[config.DefaultRoutingKey])
	assert.Equal(t, models.EndTarget, n1Map[config.ErrorRoutingKey])

	n2Map := plan.RoutingMaps["n2"]
	assert.Equal(t, models.EndTarget, n2Map[config.DefaultRoutingKey])
	assert.Equal(t, models.EndTarget, n2Map[config.ErrorRoutingKey])
}

func TestCompiler_Compile_PossibleKeysExcludeErrorAndIncludeDefault(t *testing.T) {
	wf := twoNodeWorkflow()
	wf.Nodes[0].RoutingRules.ConditionalTargets = append(
		wf.Nodes[0].RoutingRules.ConditionalTargets,
		models.RoutingRule{OutputKey: config.ErrorRoutingKey, TargetNodeID: models.EndTarget},
	)

	plan, err := NewCompiler(slog.Default()).Compile(wf)
	require.NoError(t, err)

	keys := plan.PossibleKeys["n1"]
	assert.Contains(t, keys, "reject")
	assert.Contains(t, keys, config.DefaultRoutingKey)
	assert.NotContains(t, keys, config.ErrorRoutingKey)
}

func TestCompiler_Compile_InvalidWorkflow(t *testing.T) {
	wf := twoNodeWorkflow()
	wf.Nodes = nil

	_, err := NewCompiler(slog.Default()).Compile(wf)
	require.ErrorIs(t, err, models.ErrNoNodes)
}

func TestCompiler_Compile_InvalidTarget(t *testing.T) {
	wf := twoNodeWorkflow()
	wf.Nodes[0].RoutingRules.DefaultTarget = "missing"

	_, err := NewCompiler(slog.Default()).Compile(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid default target")
}

func TestCompiler_Compile_ExplicitErrorRouteIsKept(t *testing.T) {
	wf := twoNodeWorkflow()
	wf.Nodes[0].RoutingRules.ConditionalTargets = []models.RoutingRule{
		{OutputKey: config.ErrorRoutingKey, TargetNodeID: "n2"},
	}

	plan, err := NewCompiler(slog.Default()).Compile(wf)
	require.NoError(t, err)

	assert.Equal(t, "n2", plan.RoutingMaps["n1"][config.ErrorRoutingKey])
}
