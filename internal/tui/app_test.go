package tui

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/client"
	"github.com/floworkhq/flowork/pkg/models"
)

func newTestModel() Model {
	m := NewModel(client.New("http://127.0.0.1:1"))
	m.width = 100
	m.height = 40

	return m
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(msg)

	model, ok := updated.(Model)
	require.True(t, ok)

	return model, cmd
}

func sampleMetadata() []*models.WorkflowMetadata {
	return []*models.WorkflowMetadata{
		{ID: "wf-1", Name: "First", NodeCount: 2},
		{ID: "wf-2", Name: "Second", NodeCount: 1},
	}
}

func TestStaleMessagesAreDropped(t *testing.T) {
	m := newTestModel()

	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})
	require.Len(t, m.list.workflows, 2)

	// Switching views bumps the generation; a late list response from the
	// old view must not land.
	m, _ = update(t, m, keyMsg("s"))
	require.Equal(t, viewStatus, m.state)

	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen - 1, workflows: nil, err: errors.New("late failure")})
	assert.Empty(t, m.list.err)
	assert.Len(t, m.list.workflows, 2)
}

func TestListDeleteRequiresConfirmation(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, cmd := update(t, m, keyMsg("d"))
	assert.True(t, m.list.confirming)
	assert.Nil(t, cmd)

	// Any key except y cancels.
	m, cmd = update(t, m, keyMsg("x"))
	assert.False(t, m.list.confirming)
	assert.Nil(t, cmd)
	assert.Equal(t, viewList, m.state)

	m, _ = update(t, m, keyMsg("d"))
	m, cmd = update(t, m, keyMsg("y"))
	assert.False(t, m.list.confirming)
	assert.True(t, m.list.deleting)
	assert.NotNil(t, cmd)
}

func TestListKeepsWorkflowsWhenDeleteFails(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, _ = update(t, m, keyMsg("d"))
	m, _ = update(t, m, keyMsg("y"))

	m, cmd := update(t, m, workflowDeletedMsg{gen: m.gen, err: errors.New("boom")})
	assert.Nil(t, cmd)
	assert.Len(t, m.list.workflows, 2)
	assert.Equal(t, "boom", m.list.err)
}

func TestListReloadsWhenDeleteHitsMissingWorkflow(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, _ = update(t, m, keyMsg("d"))
	m, _ = update(t, m, keyMsg("y"))

	// Someone else already deleted it; the list is stale, so reload instead
	// of surfacing the 404.
	notFound := &client.APIError{StatusCode: http.StatusNotFound, Message: "Workflow not found"}
	m, cmd := update(t, m, workflowDeletedMsg{gen: m.gen, err: notFound})
	assert.NotNil(t, cmd)
	assert.True(t, m.list.loading)
	assert.Empty(t, m.list.err)
}

func TestListReloadsAfterSuccessfulDelete(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, _ = update(t, m, keyMsg("d"))
	m, _ = update(t, m, keyMsg("y"))

	m, cmd := update(t, m, workflowDeletedMsg{gen: m.gen})
	assert.NotNil(t, cmd)
	assert.True(t, m.list.loading)
	// The list itself is untouched until the reload lands.
	assert.Len(t, m.list.workflows, 2)
}

func TestExecutorRejectsEmptyInput(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("x"))
	require.Equal(t, viewExecutor, m.state)

	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, cmd := update(t, m, keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.False(t, m.executor.executing)
	assert.Equal(t, "Input text is required", m.executor.err)
}

func TestExecutorDisabledWhileExecuting(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("x"))
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m.executor.input.SetValue("run this")

	m, cmd := update(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	require.True(t, m.executor.executing)

	m, cmd = update(t, m, keyMsg("enter"))
	assert.Nil(t, cmd)
}

func TestExecutorClearsPreviousResultOnNewRun(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("x"))
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, _ = update(t, m, executionFinishedMsg{gen: m.gen, result: &models.ExecutionResult{Error: "old"}})
	require.NotNil(t, m.executor.result)

	m.executor.input.SetValue("again")
	m, _ = update(t, m, keyMsg("enter"))
	assert.Nil(t, m.executor.result)
}

func TestExecutorPreselectsListSelection(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, _ = update(t, m, keyMsg("down"))
	m, _ = update(t, m, keyMsg("x"))
	require.Equal(t, viewExecutor, m.state)

	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})
	row, ok := m.executor.selected()
	require.True(t, ok)
	assert.Equal(t, "wf-2", row.id)
}

func TestSyntheticErrorResult(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "server message",
			err:      &client.APIError{StatusCode: 400, Message: "LLM not initialized"},
			expected: "LLM not initialized",
		},
		{
			name:     "transport message",
			err:      errors.New("connection refused"),
			expected: "connection refused",
		},
		{
			name:     "fallback",
			err:      &client.APIError{StatusCode: 500},
			expected: "Execution failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := syntheticErrorResult(tt.err)
			assert.Equal(t, tt.expected, result.Error)
		})
	}
}

func TestRenderExecutionResult_ErrorOnly(t *testing.T) {
	rendered := renderExecutionResult(&models.ExecutionResult{
		Error: "something broke",
		FinalState: &models.ExecutionState{
			LastResponseContent: "should not appear",
		},
	})

	assert.Contains(t, rendered, "something broke")
	assert.NotContains(t, rendered, "Final Output")
	assert.NotContains(t, rendered, "should not appear")
}

func TestRenderExecutionResult_NoOutputFallback(t *testing.T) {
	rendered := renderExecutionResult(&models.ExecutionResult{
		Summary: &models.ExecutionSummary{NodesExecuted: 0},
	})

	assert.Contains(t, rendered, "No output")
	assert.NotContains(t, rendered, "Execution Log")
	assert.Contains(t, rendered, "Nodes executed: 0")
	assert.Contains(t, rendered, "Success")
}

func TestRenderExecutionResult_FullSuccess(t *testing.T) {
	rendered := renderExecutionResult(&models.ExecutionResult{
		FinalState: &models.ExecutionState{
			LastResponseContent: "final answer",
		},
		ExecutionLog: []string{"line one", "line two"},
		Summary:      &models.ExecutionSummary{NodesExecuted: 2, HasError: false},
	})

	assert.Contains(t, rendered, "final answer")
	assert.Contains(t, rendered, "Execution Log")

	// Log lines keep their original order.
	assert.Less(t, strings.Index(rendered, "line one"), strings.Index(rendered, "line two"))
	assert.Contains(t, rendered, "Nodes executed: 2")
	assert.Contains(t, rendered, "Success")
}

func TestRenderExecutionResult_FailedLabel(t *testing.T) {
	rendered := renderExecutionResult(&models.ExecutionResult{
		FinalState: &models.ExecutionState{LastResponseContent: "ERROR: nope"},
		Summary:    &models.ExecutionSummary{NodesExecuted: 1, HasError: true},
	})

	assert.Contains(t, rendered, "Failed")
	assert.NotContains(t, rendered, "Success")
}

func TestStatusActionsDisabledWhileInFlight(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("s"))
	require.Equal(t, viewStatus, m.state)
	require.True(t, m.status.loading)

	// Refresh and initialize are inert while the fetch is in flight.
	m, cmd := update(t, m, keyMsg("i"))
	assert.Nil(t, cmd)
	assert.False(t, m.status.initializing)

	m, _ = update(t, m, llmStatusMsg{gen: m.gen, status: &models.LLMStatus{LLMInitialized: false}})
	assert.False(t, m.status.loading)

	m, cmd = update(t, m, keyMsg("i"))
	require.NotNil(t, cmd)
	assert.True(t, m.status.initializing)
}

func TestStatusKeepsSnapshotOnInitializeFailure(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("s"))
	m, _ = update(t, m, llmStatusMsg{gen: m.gen, status: &models.LLMStatus{ModelName: "old-model"}})

	m, _ = update(t, m, keyMsg("i"))
	m, _ = update(t, m, llmInitializedMsg{gen: m.gen, err: errors.New("GROQ_API_KEY is not set")})

	assert.False(t, m.status.initializing)
	assert.Equal(t, "GROQ_API_KEY is not set", m.status.err)
	require.NotNil(t, m.status.status)
	assert.Equal(t, "old-model", m.status.status.ModelName)
}

func TestBuilderAddAndRemoveNode(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("n"))
	require.Equal(t, viewBuilder, m.state)

	m, _ = update(t, m, keyMsg("ctrl+n"))
	require.Equal(t, 1, m.builder.draft.NodeCount())

	// Focus landed on the new node's name field.
	field := m.builder.fields[m.builder.focused]
	assert.Equal(t, fieldNodeName, field.kind)

	m, _ = update(t, m, keyMsg("ctrl+d"))
	assert.Equal(t, 0, m.builder.draft.NodeCount())
}

func TestBuilderSaveRequiresName(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("n"))

	m, cmd := update(t, m, keyMsg("ctrl+s"))
	assert.Nil(t, cmd)
	assert.False(t, m.builder.saving)
	assert.NotEmpty(t, m.builder.err)
	assert.Equal(t, viewBuilder, m.state)
}

func TestBuilderKeepsEditsOnSaveFailure(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("n"))

	m.builder.draft.SetName("Pipeline")
	m.builder.rebuildInputs()

	m, cmd := update(t, m, keyMsg("ctrl+s"))
	require.NotNil(t, cmd)
	require.True(t, m.builder.saving)

	m, _ = update(t, m, workflowSavedMsg{gen: m.gen, err: errors.New("save failed")})
	assert.False(t, m.builder.saving)
	assert.Equal(t, "save failed", m.builder.err)
	assert.Equal(t, viewBuilder, m.state)
	assert.Equal(t, "Pipeline", m.builder.draft.Name())
}

func TestBuilderReturnsToListAfterSave(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, keyMsg("n"))

	m.builder.draft.SetName("Pipeline")
	m, _ = update(t, m, keyMsg("ctrl+s"))

	m, cmd := update(t, m, workflowSavedMsg{gen: m.gen})
	require.NotNil(t, cmd)
	assert.Equal(t, viewList, m.state)
	assert.Equal(t, "Workflow saved", m.list.statusMsg)
}

func TestBuilderLoadFailureKeepsDraft(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, workflowsLoadedMsg{gen: m.gen, workflows: sampleMetadata()})

	m, cmd := update(t, m, keyMsg("enter"))
	require.Equal(t, viewBuilder, m.state)
	require.NotNil(t, cmd)
	require.True(t, m.builder.loading)

	m, _ = update(t, m, workflowLoadedMsg{gen: m.gen, err: errors.New("fetch failed")})
	assert.False(t, m.builder.loading)
	assert.Equal(t, "fetch failed", m.builder.err)
}
