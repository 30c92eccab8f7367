package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/floworkhq/flowork/pkg/client"
)

// listModel is the workflow list view: a three-state load machine plus an
// explicit delete confirmation step.
type listModel struct {
	workflows []workflowRow
	cursor    int

	loading    bool
	deleting   bool
	confirming bool

	err       string
	statusMsg string
}

type workflowRow struct {
	id          string
	name        string
	description string
	nodeCount   int
}

func newListModel() listModel {
	return listModel{loading: true}
}

func (l listModel) selected() (workflowRow, bool) {
	if l.cursor < 0 || l.cursor >= len(l.workflows) {
		return workflowRow{}, false
	}

	return l.workflows[l.cursor], true
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Confirmation is a dedicated step: only "y" proceeds, anything else
	// cancels without touching the list.
	if m.list.confirming {
		m.list.confirming = false

		if msg.String() == "y" {
			if row, ok := m.list.selected(); ok {
				m.list.deleting = true
				m.list.err = ""

				return m, m.deleteWorkflow(row.id)
			}
		}

		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.list.cursor > 0 {
			m.list.cursor--
		}

		return m, nil

	case "down", "j":
		if m.list.cursor < len(m.list.workflows)-1 {
			m.list.cursor++
		}

		return m, nil

	case "r":
		m.list.loading = true
		m.list.err = ""
		m.list.statusMsg = ""

		return m, m.loadWorkflows()

	case "n":
		m.switchTo(viewBuilder)
		m.builder = newBuilderModel()
		m.builder.rebuildInputs()

		return m, nil

	case "enter", "e":
		if row, ok := m.list.selected(); ok {
			m.switchTo(viewBuilder)
			m.builder = newBuilderModel()
			m.builder.loading = true

			return m, m.loadWorkflow(row.id)
		}

		return m, nil

	case "x":
		row, ok := m.list.selected()

		m.switchTo(viewExecutor)
		m.executor = newExecutorModel()

		if ok {
			m.executor.preselect = row.id
		}

		return m, m.loadWorkflows()

	case "s":
		m.switchTo(viewStatus)
		m.status = newStatusModel()
		m.status.loading = true

		return m, m.fetchLLMStatus()

	case "d":
		if m.list.deleting {
			return m, nil
		}

		if _, ok := m.list.selected(); ok {
			m.list.confirming = true
		}

		return m, nil
	}

	return m, nil
}

func (m Model) handleWorkflowsLoaded(msg workflowsLoadedMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case viewExecutor:
		// Load failure leaves the picker empty; the executor view still works
		// for manual retry via esc + x.
		if msg.err == nil {
			m.executor.setWorkflows(msg.workflows)
		}

		return m, nil

	case viewList:
		m.list.loading = false

		if msg.err != nil {
			m.list.err = msg.err.Error()

			return m, nil
		}

		rows := make([]workflowRow, 0, len(msg.workflows))
		for _, workflow := range msg.workflows {
			rows = append(rows, workflowRow{
				id:          workflow.ID,
				name:        workflow.Name,
				description: workflow.Description,
				nodeCount:   workflow.NodeCount,
			})
		}

		m.list.workflows = rows
		m.list.err = ""

		if m.list.cursor >= len(rows) {
			m.list.cursor = max(0, len(rows)-1)
		}

		return m, nil
	}

	return m, nil
}

func (m Model) handleWorkflowDeleted(msg workflowDeletedMsg) (tea.Model, tea.Cmd) {
	m.list.deleting = false

	// A 404 means the workflow is already gone server-side, so the list is
	// stale; reload it like a successful delete.
	if msg.err != nil && !client.IsNotFound(msg.err) {
		// Keep the previous list untouched on failure.
		m.list.err = msg.err.Error()

		return m, nil
	}

	// The displayed list only changes after a successful reload.
	m.list.loading = true
	m.list.err = ""
	m.list.statusMsg = "Workflow deleted"

	return m, m.loadWorkflows()
}

func (m Model) listView() string {
	var b strings.Builder

	b.WriteString(panelTitleStyle.Render("Workflows"))
	b.WriteString("\n\n")

	switch {
	case m.list.loading:
		b.WriteString(hintStyle.Render("Loading workflows..."))

	case m.list.err != "":
		b.WriteString(statusErrorStyle.Render("Error: " + m.list.err))

	case len(m.list.workflows) == 0:
		b.WriteString(hintStyle.Render("No workflows yet. Press n to create one."))

	default:
		for i, row := range m.list.workflows {
			line := fmt.Sprintf("%s  %s", row.name, hintStyle.Render(fmt.Sprintf("(%d nodes)", row.nodeCount)))

			if i == m.list.cursor {
				b.WriteString(selectedRowStyle.Render("▸ " + line))
			} else {
				b.WriteString(rowStyle.Render("  " + line))
			}

			b.WriteString("\n")

			if i == m.list.cursor && row.description != "" {
				b.WriteString(hintStyle.Render("    " + row.description))
				b.WriteString("\n")
			}
		}
	}

	if m.list.confirming {
		if row, ok := m.list.selected(); ok {
			b.WriteString("\n")
			b.WriteString(statusWarnStyle.Render(fmt.Sprintf("Delete %q? Press y to confirm.", row.name)))
		}
	}

	if m.list.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(statusOkStyle.Render(m.list.statusMsg))
	}

	return b.String()
}
