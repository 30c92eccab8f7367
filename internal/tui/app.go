// Package tui is the Flowork terminal console: a workflow list, a builder, an
// executor, and an LLM status panel over the REST API.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/floworkhq/flowork/pkg/client"
	"github.com/floworkhq/flowork/pkg/models"
)

type viewState int

const (
	viewList viewState = iota
	viewBuilder
	viewExecutor
	viewStatus
)

// Messages carry the generation of the view that issued the request. A
// response arriving after the user has moved on is dropped at the root
// update instead of mutating a view it no longer belongs to.

type workflowsLoadedMsg struct {
	gen       int
	workflows []*models.WorkflowMetadata
	err       error
}

type workflowLoadedMsg struct {
	gen      int
	workflow *models.Workflow
	err      error
}

type workflowSavedMsg struct {
	gen int
	err error
}

type workflowDeletedMsg struct {
	gen int
	err error
}

type executionFinishedMsg struct {
	gen    int
	result *models.ExecutionResult
}

type llmStatusMsg struct {
	gen    int
	status *models.LLMStatus
	err    error
}

type llmInitializedMsg struct {
	gen    int
	status *models.LLMStatus
	err    error
}

// Model is the root console model. It owns the active view and the request
// generation counter.
type Model struct {
	client *client.Client

	state viewState
	gen   int

	width  int
	height int

	list     listModel
	builder  builderModel
	executor executorModel
	status   statusModel
}

// NewModel creates the console model against the given API client.
func NewModel(apiClient *client.Client) Model {
	return Model{
		client:   apiClient,
		state:    viewList,
		list:     newListModel(),
		builder:  newBuilderModel(),
		executor: newExecutorModel(),
		status:   newStatusModel(),
	}
}

func (m Model) Init() tea.Cmd {
	m.list.loading = true

	return m.loadWorkflows()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case viewBuilder:
			return m.updateBuilder(msg)
		case viewExecutor:
			return m.updateExecutor(msg)
		case viewStatus:
			return m.updateStatus(msg)
		default:
			return m.updateList(msg)
		}

	case workflowsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleWorkflowsLoaded(msg)

	case workflowLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleWorkflowLoaded(msg)

	case workflowSavedMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleWorkflowSaved(msg)

	case workflowDeletedMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleWorkflowDeleted(msg)

	case executionFinishedMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleExecutionFinished(msg)

	case llmStatusMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleLLMStatus(msg)

	case llmInitializedMsg:
		if msg.gen != m.gen {
			return m, nil
		}

		return m.handleLLMInitialized(msg)
	}

	return m, nil
}

// switchTo changes the active view and bumps the generation so that responses
// still in flight for the old view are ignored.
func (m *Model) switchTo(state viewState) {
	m.state = state
	m.gen++
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.state {
	case viewBuilder:
		b.WriteString(m.builderView())
	case viewExecutor:
		b.WriteString(m.executorView())
	case viewStatus:
		b.WriteString(m.statusView())
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.renderHelp()))

	return appStyle.Render(b.String())
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(" ⬡ flowork ")

	tabs := []struct {
		label string
		state viewState
	}{
		{"Workflows", viewList},
		{"Builder", viewBuilder},
		{"Executor", viewExecutor},
		{"LLM", viewStatus},
	}

	rendered := make([]string, 0, len(tabs))

	for _, tab := range tabs {
		if tab.state == m.state {
			rendered = append(rendered, activeTabStyle.Render(tab.label))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(tab.label))
		}
	}

	return fmt.Sprintf("%s  %s", title, strings.Join(rendered, "  "))
}

func (m Model) renderHelp() string {
	switch m.state {
	case viewBuilder:
		return hintStyle.Render("tab/shift+tab fields  ctrl+n add node  ctrl+d remove node  ctrl+s save  esc back")
	case viewExecutor:
		return hintStyle.Render("↑↓ pick workflow  tab input  enter run  esc back")
	case viewStatus:
		return hintStyle.Render("i initialize  r refresh  esc back  q quit")
	default:
		if m.list.confirming {
			return hintStyle.Render("y confirm delete  any other key cancel")
		}

		return hintStyle.Render("↑↓ select  n new  enter edit  x execute  d delete  s llm status  r reload  q quit")
	}
}

// Commands. Each captures the generation at issue time.

func (m Model) loadWorkflows() tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		workflows, err := apiClient.ListWorkflows(context.Background())

		return workflowsLoadedMsg{gen: gen, workflows: workflows, err: err}
	}
}

func (m Model) loadWorkflow(id string) tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		workflow, err := apiClient.GetWorkflow(context.Background(), id)

		return workflowLoadedMsg{gen: gen, workflow: workflow, err: err}
	}
}

func (m Model) saveWorkflow(workflow *models.Workflow) tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		var err error

		if workflow.ID == "" {
			_, err = apiClient.CreateWorkflow(context.Background(), workflow)
		} else {
			_, err = apiClient.UpdateWorkflow(context.Background(), workflow.ID, workflow)
		}

		return workflowSavedMsg{gen: gen, err: err}
	}
}

func (m Model) deleteWorkflow(id string) tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		err := apiClient.DeleteWorkflow(context.Background(), id)

		return workflowDeletedMsg{gen: gen, err: err}
	}
}

func (m Model) executeWorkflow(id, input string) tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		result, err := apiClient.ExecuteWorkflow(context.Background(), id, input)
		if err != nil {
			result = syntheticErrorResult(err)
		}

		return executionFinishedMsg{gen: gen, result: result}
	}
}

func (m Model) fetchLLMStatus() tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		status, err := apiClient.LLMStatus(context.Background())

		return llmStatusMsg{gen: gen, status: status, err: err}
	}
}

func (m Model) initializeLLM() tea.Cmd {
	gen := m.gen
	apiClient := m.client

	return func() tea.Msg {
		status, err := apiClient.InitializeLLM(context.Background())

		return llmInitializedMsg{gen: gen, status: status, err: err}
	}
}

// Run starts the console program.
func Run(apiClient *client.Client) error {
	program := tea.NewProgram(NewModel(apiClient), tea.WithAltScreen())

	_, err := program.Run()

	return err
}
