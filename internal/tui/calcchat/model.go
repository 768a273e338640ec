// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     calcchat
// Description: Bubbletea model for the calculator chat
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package calcchat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/rechenwerk/internal/agent"
	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// Config holds calculator chat configuration
type Config struct {
	Session *dispatch.Session
	// Agent handles natural-language input. Nil limits the chat to JSON calls.
	Agent *agent.Agent
	// ModelName is shown in the status bar
	ModelName string
	// Probe reports whether the model backend is reachable
	Probe func(ctx context.Context) error
	// HistoryPath persists the input history; empty disables it
	HistoryPath string
	// TurnTimeout bounds one submitted line
	TurnTimeout time.Duration
}

// Model is the Bubbletea model for the calculator chat
type Model struct {
	width       int
	height      int
	ready       bool
	loading     bool
	modelOnline bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	entries []Entry
	pending string
	started time.Time

	history      []string
	historyIndex int
	currentInput string

	cfg    Config
	logger *logging.Logger
}

// New creates a new calculator chat model
func New(cfg Config) (Model, error) {
	if cfg.Session == nil {
		return Model{}, errors.New("calcchat: session is required")
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 2 * time.Minute
	}

	ti := textinput.New()
	ti.Placeholder = `Ask "add 5 and 3" or send {"name":"add","arguments":{"number":5}}`
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Width = 80
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return Model{
		input:        ti,
		spinner:      sp,
		entries:      []Entry{},
		history:      LoadHistory(cfg.HistoryPath),
		historyIndex: -1,
		cfg:          cfg,
		logger:       logging.New("calcchat"),
	}, nil
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.probeModel,
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 7 // input + status bar + help
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.input.Width = msg.Width - 8
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case modelStatusMsg:
		m.modelOnline = msg.online

	case turnDoneMsg:
		m.loading = false
		m.entries = append(m.entries, Entry{
			Role:      "calc",
			Content:   msg.reply,
			Calls:     msg.calls,
			Failed:    msg.err != nil,
			Timestamp: time.Now(),
			Duration:  msg.duration,
		})
		m.updateViewportContent()
		m.viewport.GotoBottom()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.saveHistory()
		return m, tea.Quit

	case tea.KeyCtrlL:
		m.entries = []Entry{}
		m.updateViewportContent()
		return m, nil

	case tea.KeyCtrlZ:
		if m.loading {
			return m, nil
		}
		m.started = time.Now()
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.runCalls(`{"name":"clear","arguments":{}}`))

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyUp:
		m.navigateHistory(1)
		return m, nil

	case tea.KeyDown:
		m.navigateHistory(-1)
		return m, nil

	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.historyIndex = -1
		m.history = append(m.history, text)
		m.entries = append(m.entries, Entry{Role: "user", Content: text, Timestamp: time.Now()})
		m.updateViewportContent()
		m.viewport.GotoBottom()
		return m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes JSON straight to the session and everything else to the agent
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		m.loading = true
		m.started = time.Now()
		return m, tea.Batch(m.spinner.Tick, m.runCalls(text))
	}

	if m.cfg.Agent == nil {
		m.entries = append(m.entries, Entry{
			Role:      "system",
			Content:   "No model configured. Send JSON calls instead.",
			Timestamp: time.Now(),
		})
		m.updateViewportContent()
		return m, nil
	}

	m.loading = true
	m.started = time.Now()
	return m, tea.Batch(m.spinner.Tick, m.ask(text))
}

// navigateHistory moves through earlier inputs; step 1 goes back in time
func (m *Model) navigateHistory(step int) {
	if len(m.history) == 0 {
		return
	}
	if m.historyIndex == -1 {
		if step < 0 {
			return
		}
		m.currentInput = m.input.Value()
	}

	next := m.historyIndex + step
	switch {
	case next < 0:
		m.historyIndex = -1
		m.input.SetValue(m.currentInput)
	case next >= len(m.history):
		return
	default:
		m.historyIndex = next
		m.input.SetValue(m.history[len(m.history)-1-next])
	}
	m.input.CursorEnd()
}

func (m Model) saveHistory() {
	if m.cfg.HistoryPath == "" {
		return
	}
	if err := SaveHistory(m.cfg.HistoryPath, m.history); err != nil {
		m.logger.Warn("Failed to save input history", "error", err)
	}
}

func (m Model) runCalls(raw string) tea.Cmd {
	session := m.cfg.Session
	timeout := m.cfg.TurnTimeout
	started := time.Now()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		results, err := session.Dispatch(ctx, raw)
		return turnDoneMsg{
			calls:    renderCalls(results),
			reply:    reply(session, results, err),
			err:      err,
			duration: time.Since(started),
		}
	}
}

func (m Model) ask(text string) tea.Cmd {
	ag := m.cfg.Agent
	timeout := m.cfg.TurnTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		turn, err := ag.Ask(ctx, text)
		return turnDoneMsg{
			calls:    renderCalls(turn.Results),
			reply:    turn.Reply(),
			err:      err,
			duration: turn.EndedAt.Sub(turn.StartedAt),
		}
	}
}

func (m Model) probeModel() tea.Msg {
	if m.cfg.Probe == nil {
		return modelStatusMsg{online: false}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return modelStatusMsg{online: m.cfg.Probe(ctx) == nil}
}

func renderCalls(results []dispatch.Result) []string {
	calls := make([]string, 0, len(results))
	for _, r := range results {
		calls = append(calls, dispatch.NewCall(r.Op, r.Operand).String())
	}
	return calls
}

// reply mirrors agent.Turn.Reply for calls sent directly
func reply(session *dispatch.Session, results []dispatch.Result, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(results) > 0 {
		return results[len(results)-1].Display
	}
	return session.Format(session.Total())
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Starting calculator..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(ChatPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderInputArea())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	return LogoStyle.Render("meinRECHENWERK") + "  " + SubHeaderStyle.Render("local function-calling calculator")
}

func (m Model) renderInputArea() string {
	content := m.input.View()
	if m.loading {
		content = m.spinner.View() + ThinkingStyle.Render(" calculating...")
	}
	return InputStyle.Width(m.width - 2).Render(content)
}

func (m Model) renderStatusBar() string {
	snap := m.cfg.Session.Snapshot()

	undo := "no undo"
	if snap.Undo != nil {
		undo = "undo: " + m.cfg.Session.Format(*snap.Undo)
	}
	left := "Total " + TotalStyle.Render(m.cfg.Session.Format(snap.Total)) + HelpDescStyle.Render("  "+undo)

	model := m.cfg.ModelName
	if model == "" {
		model = "no model"
	}
	right := StatusOfflineStyle.Render("● " + model)
	if m.cfg.Agent != nil && m.modelOnline {
		right = StatusOnlineStyle.Render("● " + model)
	}

	space := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if space < 2 {
		space = 2
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", space) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("Enter", "send"),
		RenderKeyHint("↑/↓", "history"),
		RenderKeyHint("Ctrl+Z", "undo"),
		RenderKeyHint("Ctrl+L", "clear screen"),
		RenderKeyHint("Esc", "quit"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	var content strings.Builder

	for _, e := range m.entries {
		ts := HelpDescStyle.Render(e.Timestamp.Format("15:04:05"))
		switch e.Role {
		case "user":
			content.WriteString(RoleLabelUserStyle.Render("You") + "  " + ts + "\n")
			content.WriteString(UserMessageStyle.Render(e.Content))
			content.WriteString("\n\n")

		case "calc":
			label := RoleLabelCalcStyle.Render("Calc") + "  " + ts
			if e.Duration > 0 {
				label += HelpDescStyle.Render(fmt.Sprintf(" (%.1fs)", e.Duration.Seconds()))
			}
			content.WriteString(label + "\n")
			if len(e.Calls) > 0 {
				content.WriteString(CallStyle.Render(strings.Join(e.Calls, " → ")))
				content.WriteString("\n")
			}
			style := ReplyStyle
			if e.Failed {
				style = ErrorMessageStyle
			}
			content.WriteString(style.Render(e.Content))
			content.WriteString("\n\n")

		case "system":
			content.WriteString(SystemMessageStyle.Render(e.Content))
			content.WriteString("\n\n")
		}
	}

	m.viewport.SetContent(content.String())
}

// Entries returns the transcript
func (m Model) Entries() []Entry {
	return m.entries
}

// Run starts the calculator chat TUI
func Run(cfg Config) error {
	model, err := New(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
