package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/config"
	"github.com/floworkhq/flowork/pkg/llm"
	"github.com/floworkhq/flowork/pkg/models"
	"github.com/floworkhq/flowork/pkg/persistence"
	"github.com/floworkhq/flowork/pkg/persistence/file"
	"github.com/floworkhq/flowork/pkg/workflow"
)

type fixedProvider struct {
	response string
}

func (f *fixedProvider) Complete(_ context.Context, _ []llm.Message) (string, error) {
	return f.response, nil
}

func (f *fixedProvider) ModelName() string {
	return "fixed"
}

func newExecutionService(t *testing.T, provider llm.Provider) (*Execution, *Workflow) {
	t.Helper()

	logger := slog.Default()
	workflows := NewWorkflow(file.NewPersistence(t.TempDir()), nil, logger)

	manager := llm.NewManager(config.Settings{GroqAPIKey: "test", ModelName: "fixed", Temperature: 0.2}, logger)
	if provider != nil {
		manager.SetProvider(provider)
	}

	executor := workflow.NewExecutor(manager, nil, nil, logger)

	return NewExecution(workflows, executor, logger), workflows
}

func TestExecution_Execute(t *testing.T) {
	ctx := context.Background()
	svc, workflows := newExecutionService(t, &fixedProvider{response: "Done.\nROUTING_KEY: __DEFAULT__"})

	created, err := workflows.Create(ctx, draftWorkflow("Runnable"))
	require.NoError(t, err)

	result, err := svc.Execute(ctx, created.ID, "run this")
	require.NoError(t, err)

	require.NotNil(t, result.FinalState)
	assert.Equal(t, 1, result.Summary.NodesExecuted)
	assert.False(t, result.Summary.HasError)
}

func TestExecution_Execute_RequiresInput(t *testing.T) {
	svc, _ := newExecutionService(t, &fixedProvider{response: "x"})

	_, err := svc.Execute(context.Background(), "any", "   ")
	require.ErrorIs(t, err, ErrInputRequired)
	assert.True(t, IsValidationError(err))
}

func TestExecution_Execute_WorkflowNotFound(t *testing.T) {
	svc, _ := newExecutionService(t, &fixedProvider{response: "x"})

	_, err := svc.Execute(context.Background(), "missing", "input")
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestExecution_Execute_LLMNotInitialized(t *testing.T) {
	ctx := context.Background()
	svc, workflows := newExecutionService(t, nil)

	created, err := workflows.Create(ctx, draftWorkflow("Unrunnable"))
	require.NoError(t, err)

	_, err = svc.Execute(ctx, created.ID, "input")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "LLM not initialized")
}

func TestExecution_Execute_InvalidWorkflowIsValidationError(t *testing.T) {
	ctx := context.Background()
	svc, workflows := newExecutionService(t, &fixedProvider{response: "x"})

	created, err := workflows.Create(ctx, &models.Workflow{Name: "Empty"})
	require.NoError(t, err)

	_, err = svc.Execute(ctx, created.ID, "input")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
