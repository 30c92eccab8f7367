package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/floworkhq/flowork/internal/builder"
	"github.com/floworkhq/flowork/pkg/models"
)

type fieldKind int

const (
	fieldName fieldKind = iota
	fieldDescription
	fieldNodeName
	fieldNodePrompt
	fieldNodeTarget
)

type fieldRef struct {
	kind fieldKind
	node int
}

// builderModel is the builder view: one editable draft plus a flat sequence
// of focusable text inputs over its fields.
type builderModel struct {
	draft *builder.Draft

	fields  []fieldRef
	inputs  []textinput.Model
	focused int

	loading bool
	saving  bool
	err     string
}

func newBuilderModel() builderModel {
	return builderModel{draft: builder.NewDraft()}
}

// rebuildInputs regenerates the input sequence from the draft. Called after
// load, add node, and remove node; plain edits update in place.
func (b *builderModel) rebuildInputs() {
	b.fields = []fieldRef{
		{kind: fieldName},
		{kind: fieldDescription},
	}

	for i := range b.draft.Nodes() {
		b.fields = append(b.fields,
			fieldRef{kind: fieldNodeName, node: i},
			fieldRef{kind: fieldNodePrompt, node: i},
			fieldRef{kind: fieldNodeTarget, node: i},
		)
	}

	b.inputs = make([]textinput.Model, len(b.fields))

	for i, field := range b.fields {
		input := textinput.New()
		input.CharLimit = 0

		switch field.kind {
		case fieldName:
			input.Placeholder = "workflow name"
			input.SetValue(b.draft.Name())
		case fieldDescription:
			input.Placeholder = "description"
			input.SetValue(b.draft.Description())
		case fieldNodeName:
			input.SetValue(b.draft.Nodes()[field.node].Name)
		case fieldNodePrompt:
			input.Placeholder = "prompt, {input_text} is replaced with the run input"
			input.SetValue(b.draft.Nodes()[field.node].Prompt)
		case fieldNodeTarget:
			input.Placeholder = models.EndTarget
			input.SetValue(b.draft.Nodes()[field.node].RoutingRules.DefaultTarget)
		}

		b.inputs[i] = input
	}

	if b.focused >= len(b.inputs) {
		b.focused = max(0, len(b.inputs)-1)
	}

	b.applyFocus()
}

func (b *builderModel) applyFocus() {
	for i := range b.inputs {
		if i == b.focused {
			b.inputs[i].Focus()
		} else {
			b.inputs[i].Blur()
		}
	}
}

// syncFocused writes the focused input's value back into the draft.
func (b *builderModel) syncFocused() {
	if b.focused < 0 || b.focused >= len(b.fields) {
		return
	}

	field := b.fields[b.focused]
	value := b.inputs[b.focused].Value()

	switch field.kind {
	case fieldName:
		b.draft.SetName(value)
	case fieldDescription:
		b.draft.SetDescription(value)
	case fieldNodeName:
		_ = b.draft.SetNodeName(field.node, value)
	case fieldNodePrompt:
		_ = b.draft.SetNodePrompt(field.node, value)
	case fieldNodeTarget:
		_ = b.draft.SetNodeDefaultTarget(field.node, value)
	}
}

func (m Model) updateBuilder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.switchTo(viewList)
		m.list.loading = true
		m.list.statusMsg = ""

		return m, m.loadWorkflows()

	case "tab", "down":
		if len(m.builder.inputs) > 0 {
			m.builder.focused = (m.builder.focused + 1) % len(m.builder.inputs)
			m.builder.applyFocus()
		}

		return m, nil

	case "shift+tab", "up":
		if len(m.builder.inputs) > 0 {
			m.builder.focused = (m.builder.focused - 1 + len(m.builder.inputs)) % len(m.builder.inputs)
			m.builder.applyFocus()
		}

		return m, nil

	case "ctrl+n":
		m.builder.draft.AddNode()
		m.builder.rebuildInputs()

		// Focus the new node's name field.
		m.builder.focused = len(m.builder.inputs) - 3
		m.builder.applyFocus()

		return m, nil

	case "ctrl+d":
		if m.builder.focused < len(m.builder.fields) {
			field := m.builder.fields[m.builder.focused]
			if field.kind == fieldNodeName || field.kind == fieldNodePrompt || field.kind == fieldNodeTarget {
				_ = m.builder.draft.RemoveNode(field.node)
				m.builder.rebuildInputs()
			}
		}

		return m, nil

	case "ctrl+s":
		if m.builder.saving {
			return m, nil
		}

		workflow, err := m.builder.draft.Workflow()
		if err != nil {
			// Validation failure aborts before any network call.
			m.builder.err = err.Error()

			return m, nil
		}

		m.builder.saving = true
		m.builder.err = ""

		return m, m.saveWorkflow(workflow)
	}

	if m.builder.focused < len(m.builder.inputs) {
		var cmd tea.Cmd

		m.builder.inputs[m.builder.focused], cmd = m.builder.inputs[m.builder.focused].Update(msg)
		m.builder.syncFocused()

		return m, cmd
	}

	return m, nil
}

func (m Model) handleWorkflowLoaded(msg workflowLoadedMsg) (tea.Model, tea.Cmd) {
	m.builder.loading = false

	if msg.err != nil {
		// The draft keeps whatever it held before the failed load.
		m.builder.err = msg.err.Error()

		return m, nil
	}

	m.builder.draft.Load(msg.workflow)
	m.builder.err = ""
	m.builder.focused = 0
	m.builder.rebuildInputs()

	return m, nil
}

func (m Model) handleWorkflowSaved(msg workflowSavedMsg) (tea.Model, tea.Cmd) {
	m.builder.saving = false

	if msg.err != nil {
		// Unsaved edits stay in the draft.
		m.builder.err = msg.err.Error()

		return m, nil
	}

	m.switchTo(viewList)
	m.list.loading = true
	m.list.statusMsg = "Workflow saved"

	return m, m.loadWorkflows()
}

func (m Model) builderView() string {
	var b strings.Builder

	title := "New Workflow"
	if !m.builder.draft.IsNew() {
		title = "Edit Workflow"
	}

	b.WriteString(panelTitleStyle.Render(title))
	b.WriteString("\n\n")

	if m.builder.loading {
		b.WriteString(hintStyle.Render("Loading workflow..."))

		return b.String()
	}

	for i, field := range m.builder.fields {
		switch field.kind {
		case fieldName:
			b.WriteString(labelStyle.Render("Name"))
		case fieldDescription:
			b.WriteString(labelStyle.Render("Description"))
		case fieldNodeName:
			b.WriteString("\n")
			b.WriteString(labelStyle.Render(fmt.Sprintf("Node %d", field.node+1)))
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("name"))
		case fieldNodePrompt:
			b.WriteString(hintStyle.Render("prompt"))
		case fieldNodeTarget:
			b.WriteString(hintStyle.Render("default target  " + m.builder.targetHint(field.node)))
		}

		b.WriteString("\n")
		b.WriteString(m.builder.inputs[i].View())
		b.WriteString("\n")
	}

	if m.builder.draft.NodeCount() == 0 {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("No nodes. Press ctrl+n to add one."))
		b.WriteString("\n")
	}

	if m.builder.saving {
		b.WriteString("\n")
		b.WriteString(statusWarnStyle.Render("Saving..."))
	}

	if m.builder.err != "" {
		b.WriteString("\n")
		b.WriteString(statusErrorStyle.Render("Error: " + m.builder.err))
	}

	return b.String()
}

// targetHint lists the routable targets by node name. Targets store node IDs;
// nodes not yet saved have no ID and cannot be referenced yet.
func (b builderModel) targetHint(exclude int) string {
	targets := []string{models.EndTarget}

	for i, node := range b.draft.Nodes() {
		if i == exclude || node.ID == "" {
			continue
		}

		targets = append(targets, fmt.Sprintf("%s (%s)", node.ID, node.Name))
	}

	return "(" + strings.Join(targets, ", ") + ")"
}
