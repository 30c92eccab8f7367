package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/floworkhq/flowork/pkg/client"
	"github.com/floworkhq/flowork/pkg/models"
)

// executorModel is the executor view: a workflow picker, a free-text input,
// and the result of the last run. Exactly one run is in flight at a time.
type executorModel struct {
	workflows []workflowRow
	cursor    int
	preselect string

	input        textinput.Model
	inputFocused bool

	executing bool
	result    *models.ExecutionResult

	err string
}

func newExecutorModel() executorModel {
	input := textinput.New()
	input.Placeholder = "input text for the run"
	input.CharLimit = 0

	return executorModel{input: input}
}

func (e *executorModel) setWorkflows(workflows []*models.WorkflowMetadata) {
	rows := make([]workflowRow, 0, len(workflows))
	for _, workflow := range workflows {
		rows = append(rows, workflowRow{
			id:          workflow.ID,
			name:        workflow.Name,
			description: workflow.Description,
			nodeCount:   workflow.NodeCount,
		})
	}

	e.workflows = rows

	if e.preselect != "" {
		for i, row := range rows {
			if row.id == e.preselect {
				e.cursor = i

				break
			}
		}

		e.preselect = ""
	}

	if e.cursor >= len(rows) {
		e.cursor = max(0, len(rows)-1)
	}
}

func (e executorModel) selected() (workflowRow, bool) {
	if e.cursor < 0 || e.cursor >= len(e.workflows) {
		return workflowRow{}, false
	}

	return e.workflows[e.cursor], true
}

func (m Model) updateExecutor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.switchTo(viewList)
		m.list.loading = true
		m.list.statusMsg = ""

		return m, m.loadWorkflows()

	case "tab":
		m.executor.inputFocused = !m.executor.inputFocused

		if m.executor.inputFocused {
			m.executor.input.Focus()
		} else {
			m.executor.input.Blur()
		}

		return m, nil

	case "up", "k":
		if !m.executor.inputFocused && m.executor.cursor > 0 {
			m.executor.cursor--

			return m, nil
		}

	case "down", "j":
		if !m.executor.inputFocused && m.executor.cursor < len(m.executor.workflows)-1 {
			m.executor.cursor++

			return m, nil
		}

	case "enter":
		// Re-entrant execution is disallowed; the keybinding is inert
		// while a run is in flight.
		if m.executor.executing {
			return m, nil
		}

		row, ok := m.executor.selected()
		if !ok {
			m.executor.err = "Select a workflow first"

			return m, nil
		}

		input := strings.TrimSpace(m.executor.input.Value())
		if input == "" {
			m.executor.err = "Input text is required"

			return m, nil
		}

		// Clear the previous result before the request goes out so stale
		// output is never shown during a new run.
		m.executor.result = nil
		m.executor.err = ""
		m.executor.executing = true

		return m, m.executeWorkflow(row.id, input)
	}

	if m.executor.inputFocused {
		var cmd tea.Cmd

		m.executor.input, cmd = m.executor.input.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) handleExecutionFinished(msg executionFinishedMsg) (tea.Model, tea.Cmd) {
	m.executor.executing = false
	m.executor.result = msg.result

	return m, nil
}

// syntheticErrorResult renders a request failure as an error-shaped result so
// the error panel always has text: server message first, then the transport
// message, then a fixed fallback.
func syntheticErrorResult(err error) *models.ExecutionResult {
	message := ""

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	} else if err != nil {
		message = err.Error()
	}

	if message == "" {
		message = "Execution failed"
	}

	return &models.ExecutionResult{Error: message}
}

func (m Model) executorView() string {
	var b strings.Builder

	b.WriteString(panelTitleStyle.Render("Execute Workflow"))
	b.WriteString("\n\n")

	if len(m.executor.workflows) == 0 {
		b.WriteString(hintStyle.Render("No workflows available."))
		b.WriteString("\n")
	}

	for i, row := range m.executor.workflows {
		line := fmt.Sprintf("%s  %s", row.name, hintStyle.Render(fmt.Sprintf("(%d nodes)", row.nodeCount)))

		if i == m.executor.cursor {
			b.WriteString(selectedRowStyle.Render("▸ " + line))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
		}

		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Input"))
	b.WriteString("\n")
	b.WriteString(m.executor.input.View())
	b.WriteString("\n")

	if m.executor.executing {
		b.WriteString("\n")
		b.WriteString(statusWarnStyle.Render("Executing..."))
		b.WriteString("\n")
	}

	if m.executor.err != "" {
		b.WriteString("\n")
		b.WriteString(statusErrorStyle.Render(m.executor.err))
		b.WriteString("\n")
	}

	if m.executor.result != nil {
		b.WriteString("\n")
		b.WriteString(renderExecutionResult(m.executor.result))
	}

	return b.String()
}

// renderExecutionResult renders one run outcome. An error result shows only
// the error panel; a success result shows output, log, and summary panels,
// each tolerant of missing data.
func renderExecutionResult(result *models.ExecutionResult) string {
	var b strings.Builder

	if result.IsError() {
		b.WriteString(panelTitleStyle.Render("Error"))
		b.WriteString("\n")
		b.WriteString(statusErrorStyle.Render(result.Error))

		return b.String()
	}

	output := "No output"
	if result.FinalState != nil && result.FinalState.LastResponseContent != "" {
		output = result.FinalState.LastResponseContent
	}

	b.WriteString(panelTitleStyle.Render("Final Output"))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(output))
	b.WriteString("\n")

	if len(result.ExecutionLog) > 0 {
		b.WriteString("\n")
		b.WriteString(panelTitleStyle.Render("Execution Log"))
		b.WriteString("\n")

		for _, line := range result.ExecutionLog {
			b.WriteString(rowStyle.Render(line))
			b.WriteString("\n")
		}
	}

	if result.Summary != nil {
		label := statusOkStyle.Render("Success")
		if result.Summary.HasError {
			label = statusErrorStyle.Render("Failed")
		}

		b.WriteString("\n")
		b.WriteString(panelTitleStyle.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(fmt.Sprintf("Nodes executed: %d", result.Summary.NodesExecuted)))
		b.WriteString("\n")
		b.WriteString("Status: " + label)
	}

	return b.String()
}
