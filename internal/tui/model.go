package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdonaldj/docswap/internal/adapters/tuisvc"
	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// View represents the current view state
type View int

const (
	FormView View = iota
	RunningView
	ResultView
)

// Form fields, in focus order.
const (
	pathField = iota
	oldField
	newField
	fieldCount
)

var fieldLabels = [fieldCount]string{"Path", "Old text", "New text"}

// Model is the main TUI model
type Model struct {
	config   *config.Config
	service  ports.TUIService
	view     View
	width    int
	height   int
	quitting bool

	// Form view
	inputs [fieldCount]textinput.Model
	focus  int

	// Running view
	spinner spinner.Model

	// Result view
	result       *ports.TUIRunResult
	resultCursor int

	// Status message
	statusMsg string
	statusErr bool
}

// Key bindings
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Next   key.Binding
	Prev   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Quit   key.Binding
	Cancel key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	// Cancel quits from the form, where q is ordinary input.
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

type runMsg struct {
	result ports.TUIRunResult
}

// NewModelWithService creates a model that loads its config through svc.
func NewModelWithService(svc ports.TUIService) (*Model, error) {
	cfg, err := svc.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewModelWithConfig(cfg, svc), nil
}

// NewModelWithConfig creates a model from an already loaded config.
func NewModelWithConfig(cfg *config.Config, svc ports.TUIService) *Model {
	m := &Model{
		config:  cfg,
		service: svc,
		view:    FormView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}

	placeholders := [fieldCount]string{"~/docs/bundle.zip", "text to find", "replacement (empty removes)"}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = "› "
		in.Placeholder = placeholders[i]
		in.CharLimit = 1024
		in.Width = 50
		m.inputs[i] = in
	}
	m.inputs[pathField].Focus()

	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case runMsg:
		m.result = &msg.result
		m.resultCursor = 0
		m.view = ResultView
		if msg.result.Error != nil {
			m.statusMsg = fmt.Sprintf("Run failed: %v", msg.result.Error)
			m.statusErr = true
		} else {
			m.statusMsg = summary(msg.result)
			m.statusErr = false
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != RunningView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case FormView:
			return m.updateForm(msg)
		case ResultView:
			return m.updateResult(msg)
		case RunningView:
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Next):
		return m, m.setFocus(m.focus + 1)

	case key.Matches(msg, keys.Prev):
		return m, m.setFocus(m.focus - 1)

	case key.Matches(msg, keys.Enter):
		if m.focus < newField {
			return m, m.setFocus(m.focus + 1)
		}
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Enter):
		m.view = FormView
		m.statusMsg = ""
		m.statusErr = false
		return m, m.setFocus(pathField)
	}
	return m, nil
}

// setFocus moves focus to field i, wrapping around the form.
func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = (i + fieldCount) % fieldCount
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	return m.inputs[m.focus].Focus()
}

func (m *Model) moveCursor(delta int) {
	if m.result == nil {
		return
	}
	m.resultCursor += delta
	if m.resultCursor >= len(m.result.Files) {
		m.resultCursor = len(m.result.Files) - 1
	}
	if m.resultCursor < 0 {
		m.resultCursor = 0
	}
}

// submit validates the form and starts a run.
func (m *Model) submit() tea.Cmd {
	path := strings.TrimSpace(m.inputs[pathField].Value())
	sub := ports.Substitution{
		Old: m.inputs[oldField].Value(),
		New: m.inputs[newField].Value(),
	}

	if path == "" {
		m.statusMsg = "Path is required"
		m.statusErr = true
		return m.setFocus(pathField)
	}
	if err := sub.Validate(); err != nil {
		m.statusMsg = "Old text is required"
		m.statusErr = true
		return m.setFocus(oldField)
	}

	m.statusMsg = ""
	m.statusErr = false
	m.view = RunningView
	return tea.Batch(m.spinner.Tick, m.run(path, sub))
}

func (m *Model) run(path string, sub ports.Substitution) tea.Cmd {
	cfg, svc := m.config, m.service
	return func() tea.Msg {
		return runMsg{result: svc.Run(cfg, path, sub)}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.view {
	case FormView:
		content = m.renderFormView()
	case RunningView:
		content = m.renderRunningView()
	case ResultView:
		content = m.renderResultView()
	}

	return appStyle.Render(content)
}

func (m *Model) renderFormView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" docswap "))
	b.WriteString("\n\n")

	for i, in := range m.inputs {
		style := normalStyle
		if i == m.focus {
			style = selectedStyle
		}
		b.WriteString(style.Render(fieldLabels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}

	m.renderStatus(&b)

	help := "[tab] next field  [enter] run  [esc] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderRunningView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" docswap "))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s Replacing %q with %q in %s\n",
		m.spinner.View(),
		m.inputs[oldField].Value(),
		m.inputs[newField].Value(),
		m.inputs[pathField].Value()))

	return b.String()
}

func (m *Model) renderResultView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" docswap: results "))
	b.WriteString("\n\n")

	res := m.result
	if res != nil && res.Error == nil {
		if res.Output != "" {
			b.WriteString(normalStyle.Render("Output: " + res.Output))
		} else {
			b.WriteString(dimStyle.Render("Nothing was written"))
		}
		b.WriteString("\n\n")

		if res.Archive {
			m.renderFiles(&b, res.Files)
		}
	}

	m.renderStatus(&b)

	help := "[↑/↓] scroll  [enter] new run  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderFiles(b *strings.Builder, files []ports.TUIFileResult) {
	header := fmt.Sprintf("    %-32s %s", "FILE", "RESULT")
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 70)))
	b.WriteString("\n")

	visibleHeight := m.height - 14
	if visibleHeight < 5 {
		visibleHeight = 5
	}

	start := 0
	if m.resultCursor >= visibleHeight {
		start = m.resultCursor - visibleHeight + 1
	}

	for i := start; i < len(files) && i < start+visibleHeight; i++ {
		f := files[i]
		cursor := "  "
		if i == m.resultCursor {
			cursor = "▸ "
		}

		name := truncate(filepath.Base(f.Source), 32)
		var line string
		switch {
		case f.Error != nil:
			line = errorBadge.Render(fmt.Sprintf("%s✗ %-32s %v", cursor, name, f.Error))
		case f.Output != "":
			line = successBadge.Render(fmt.Sprintf("%s✓ %-32s %s", cursor, name, filepath.Base(f.Output)))
		default:
			line = dimStyle.Render(fmt.Sprintf("%s- %-32s %s", cursor, name, "skipped"))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m *Model) renderStatus(b *strings.Builder) {
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")
}

// Run starts the TUI
func Run() error {
	m, err := NewModelWithService(tuisvc.New())
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Helper functions
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func summary(res ports.TUIRunResult) string {
	if !res.Archive {
		if res.Output == "" {
			return "Unsupported format, nothing written"
		}
		return "✓ Wrote " + filepath.Base(res.Output)
	}

	written, skipped, failed := 0, 0, 0
	for _, f := range res.Files {
		switch {
		case f.Error != nil:
			failed++
		case f.Output != "":
			written++
		default:
			skipped++
		}
	}
	s := fmt.Sprintf("%d written, %d skipped", written, skipped)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}
