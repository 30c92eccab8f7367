package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/floworkhq/flowork/pkg/models"
)

// statusModel is the LLM status panel. Status is fetched on entry and after a
// successful initialize; there is no polling.
type statusModel struct {
	status *models.LLMStatus

	loading      bool
	initializing bool

	err string
}

func newStatusModel() statusModel {
	return statusModel{}
}

func (m Model) updateStatus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		m.switchTo(viewList)
		m.list.loading = true
		m.list.statusMsg = ""

		return m, m.loadWorkflows()

	case "r":
		if m.status.loading || m.status.initializing {
			return m, nil
		}

		m.status.loading = true
		m.status.err = ""

		return m, m.fetchLLMStatus()

	case "i":
		// Both actions are disabled while a request is in flight.
		if m.status.loading || m.status.initializing {
			return m, nil
		}

		m.status.initializing = true
		m.status.err = ""

		return m, m.initializeLLM()
	}

	return m, nil
}

func (m Model) handleLLMStatus(msg llmStatusMsg) (tea.Model, tea.Cmd) {
	m.status.loading = false

	if msg.err != nil {
		m.status.err = msg.err.Error()

		return m, nil
	}

	m.status.status = msg.status
	m.status.err = ""

	return m, nil
}

func (m Model) handleLLMInitialized(msg llmInitializedMsg) (tea.Model, tea.Cmd) {
	m.status.initializing = false

	if msg.err != nil {
		// Initialization failed: show the error, keep the stale snapshot.
		m.status.err = msg.err.Error()

		return m, nil
	}

	m.status.status = msg.status
	m.status.err = ""

	return m, nil
}

func (m Model) statusView() string {
	var b strings.Builder

	b.WriteString(panelTitleStyle.Render("LLM Status"))
	b.WriteString("\n\n")

	switch {
	case m.status.loading:
		b.WriteString(hintStyle.Render("Loading status..."))

	case m.status.status == nil && m.status.err == "":
		b.WriteString(hintStyle.Render("No status loaded. Press r to refresh."))

	case m.status.status != nil:
		status := m.status.status

		b.WriteString(labelStyle.Render("API key configured: "))
		b.WriteString(renderBool(status.APIKeyConfigured))
		b.WriteString("\n")

		b.WriteString(labelStyle.Render("LLM initialized:    "))
		b.WriteString(renderBool(status.LLMInitialized))
		b.WriteString("\n")

		b.WriteString(labelStyle.Render("Model:              "))
		b.WriteString(valueStyle.Render(status.ModelName))
		b.WriteString("\n")

		b.WriteString(labelStyle.Render("Temperature:        "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f", status.Temperature)))
		b.WriteString("\n")
	}

	if m.status.initializing {
		b.WriteString("\n")
		b.WriteString(statusWarnStyle.Render("Initializing..."))
	}

	if m.status.err != "" {
		b.WriteString("\n")
		b.WriteString(statusErrorStyle.Render("Error: " + m.status.err))
	}

	return b.String()
}

func renderBool(value bool) string {
	if value {
		return statusOkStyle.Render("yes")
	}

	return statusErrorStyle.Render("no")
}
